package console

import (
	"strings"

	"github.com/chzyer/readline"
)

// Answers returned by YesOrNo.
const (
	Yes = "y"
	No  = "n"
)

// YesOrNo asks a confirmation question. The first constraint is the default,
// so plain enter means Yes.
func YesOrNo(question string) (string, error) {
	return Prompt(question, Yes, No)
}

// Prompt reads one line from the terminal. With constraints the answer is
// normalized to lowercase and any input outside the constraint set falls
// back to the first one.
func Prompt(question string, constraints ...string) (string, error) {
	if len(constraints) == 0 {
		rl, err := readline.New(question)
		if err != nil {
			return "", err
		}
		return rl.Readline()
	}
	var prompt strings.Builder
	prompt.WriteString(question)
	prompt.WriteString(" [")
	prompt.WriteString(strings.ToUpper(constraints[0]))
	for _, c := range constraints[1:] {
		prompt.WriteString("/")
		prompt.WriteString(c)
	}
	prompt.WriteString("]:")
	rl, err := readline.New(prompt.String())
	if err != nil {
		return "", err
	}
	response, err := rl.Readline()
	if err != nil {
		return "", err
	}
	// empty input selects the default
	if response == "" {
		return constraints[0], nil
	}
	normalized := strings.ToLower(strings.TrimSpace(response))
	for _, c := range constraints {
		if normalized == c {
			return normalized, nil
		}
	}
	return constraints[0], nil
}
