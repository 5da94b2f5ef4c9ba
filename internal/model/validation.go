package model

import "strings"

// ValidationError carries field level messages for an invalid document.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "Invalid input data. " + strings.Join(e.Messages, ". ")
}

type validation struct {
	messages []string
}

func (v *validation) check(ok bool, msg string) {
	if !ok {
		v.messages = append(v.messages, msg)
	}
}

func (v *validation) err() error {
	if len(v.messages) == 0 {
		return nil
	}
	return &ValidationError{Messages: v.messages}
}
