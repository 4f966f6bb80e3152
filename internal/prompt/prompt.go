// Package prompt reads values interactively from the terminal.
package prompt

import (
	"errors"
	"strings"

	"github.com/erikgeiser/promptkit/textinput"
)

// ErrEmptyInput is returned by NotEmpty for blank input
var ErrEmptyInput = errors.New("a value is required")

// NotEmpty rejects blank input
func NotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return ErrEmptyInput
	}
	return nil
}

// ReadStringFromUser reads a value from the user, starting from defaultValue
// when one is provided. An optional validator runs on every keystroke.
func ReadStringFromUser(message string, defaultValue string, validator ...func(string) error) (string, error) {
	input := textinput.New(message)
	input.Placeholder = defaultValue
	input.InitialValue = defaultValue
	input.Validate = func(s string) error { return nil }

	if len(validator) > 0 && validator[0] != nil {
		input.Validate = validator[0]
	}

	result, err := input.RunPrompt()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result), nil
}
