package adapter

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/hal"
	"github.com/mklimuk/hal/i2cbus"
)

var _ i2cbus.Transport = &MCP2221{}

type mockConn struct {
	mock.Mock
	requests  [][]byte
	responses [][]byte
	reads     int
}

func (m *mockConn) Write(b []byte) (int, error) {
	m.requests = append(m.requests, append([]byte(nil), b...))
	args := m.Called(b)
	return args.Int(0), args.Error(1)
}

func (m *mockConn) Read(b []byte) (int, error) {
	if m.reads < len(m.responses) {
		copy(b, m.responses[m.reads])
	}
	m.reads++
	args := m.Called(b)
	return args.Int(0), args.Error(1)
}

func (m *mockConn) Close() error {
	return m.Called().Error(0)
}

// respond queues one 64-byte response frame built from the given prefix.
func (m *mockConn) respond(prefix ...byte) {
	frame := make([]byte, 64)
	copy(frame, prefix)
	m.responses = append(m.responses, frame)
}

func testAdapter(conn *mockConn) *MCP2221 {
	a := NewMCP2221()
	a.responseWait = 0
	a.open = func(id ...int) (reportConn, error) { return conn, nil }
	conn.On("Write", mock.Anything).Return(64, nil)
	conn.On("Read", mock.Anything).Return(64, nil)
	conn.On("Close").Return(nil)
	return a
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	conn.respond()

	err := a.WriteToAddr(context.Background(), 0x21, []byte{0xAB, 0xCD})
	require.NoError(t, err)

	require.Len(t, conn.requests, 1)
	req := conn.requests[0]
	assert.Equal(t, byte(0x90), req[0])
	assert.Equal(t, uint16(2), binary.LittleEndian.Uint16(req[1:3]))
	assert.Equal(t, byte(0x21<<1), req[3], "write address bit")
	assert.Equal(t, []byte{0xAB, 0xCD}, req[4:6])
	conn.AssertExpectations(t)
}

func TestMCP2221_WriteBusyEngine(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	conn.respond(0x90, 0x01)

	err := a.WriteToAddr(context.Background(), 0x21, []byte{0x00})
	assert.ErrorIs(t, err, hal.ErrBusBusy)
}

func TestMCP2221_ReadFromAddr(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	// transfer setup response, then the read-data frame
	conn.respond()
	conn.respond(0x40, 0x00, 0x00, 0x03, 0xDE, 0xAD, 0xBF)

	buf := make([]byte, 3)
	err := a.ReadFromAddr(context.Background(), 0x48, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xDE, 0xAD, 0xBF}, buf)

	require.Len(t, conn.requests, 2)
	assert.Equal(t, byte(0x91), conn.requests[0][0])
	assert.Equal(t, uint16(3), binary.LittleEndian.Uint16(conn.requests[0][1:3]))
	assert.Equal(t, byte(0x48<<1+1), conn.requests[0][3], "read address bit")
	assert.Equal(t, byte(0x40), conn.requests[1][0])
}

func TestMCP2221_ReadSizeMismatch(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	conn.respond()
	conn.respond(0x40, 0x00, 0x00, 0x7F)

	err := a.ReadFromAddr(context.Background(), 0x48, make([]byte, 4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data size")
}

func TestMCP2221_Status(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	frame := make([]byte, 64)
	binary.LittleEndian.PutUint16(frame[9:11], 300)
	binary.LittleEndian.PutUint16(frame[11:13], 200)
	frame[13] = 5
	frame[14] = 6
	frame[15] = 7
	frame[16] = 0xAA
	frame[17] = 0xBB
	frame[25] = 1
	conn.responses = append(conn.responses, frame)

	status, err := a.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x10), conn.requests[0][0])
	assert.Equal(t, uint16(300), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(200), status.LastWriteSentSize)
	assert.Equal(t, 5, status.I2CDataBufferCounter)
	assert.Equal(t, 6, status.I2CSpeedDivider)
	assert.Equal(t, 7, status.I2CTimeout)
	assert.Equal(t, 1, status.ReadPending)
	assert.Equal(t, "aabb", status.CurrentAddress)
}

func TestMCP2221_ReleaseBus(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	conn.respond()

	_, err := a.ReleaseBus(context.Background())
	require.NoError(t, err)
	req := conn.requests[0]
	assert.Equal(t, byte(0x10), req[0])
	assert.Equal(t, byte(0x10), req[2], "cancel current transfer")
}

func TestMCP2221_GPIOParameters(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	conn.respond()

	err := a.SetGPIOParameters(context.Background(), MCP2221GPIOParameters{
		GPIO0Mode:        GPIOModeIn,
		GPIO0Designation: GPIOOperation,
		GPIO1Mode:        GPIOModeOut,
		GPIO1Designation: GPIO1ADC1,
	})
	require.NoError(t, err)
	req := conn.requests[0]
	assert.Equal(t, byte(0xB1), req[0])
	assert.Equal(t, byte(0x01), req[1])
	assert.Equal(t, byte(GPIOModeIn), req[2])
	assert.Equal(t, byte(GPIO1ADC1), req[3])

	conn.respond(0xB1, 0x01)
	err = a.SetGPIOParameters(context.Background(), MCP2221GPIOParameters{})
	assert.ErrorIs(t, err, ErrCommandFailed)
}

func TestMCP2221_ReadGPIOValues(t *testing.T) {
	conn := &mockConn{}
	a := testAdapter(conn)
	conn.respond(0x51, 0x00, 0x01, 0x00, 0x00, byte(GPIOModeNoOperation), 0x01, 0x01, 0x00, 0x01)

	values, err := a.ReadGPIO(context.Background())
	require.NoError(t, err)
	assert.Equal(t, byte(0x01), values.GPIO0Value)
	assert.Equal(t, GPIOModeOut, values.GPIO0Mode)
	assert.Equal(t, GPIOModeNoOperation, values.GPIO1Mode)
	assert.Equal(t, byte(0x01), values.GPIO2Value)
	assert.Equal(t, GPIOModeIn, values.GPIO2Mode)
}

func TestMCP2221_OpenFailurePropagates(t *testing.T) {
	a := NewMCP2221()
	a.responseWait = 0
	a.open = func(id ...int) (reportConn, error) { return nil, errors.New("usb gone") }

	err := a.WriteToAddr(context.Background(), 0x21, []byte{0x00})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "usb gone")
}
