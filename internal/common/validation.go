package common

import (
	"fmt"
	"slices"
	"strings"
	"time"
)

// ValidationError is one rejected configuration field.
type ValidationError struct {
	Field   string
	Value   any
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s %s (got %q)", e.Field, e.Message, fmt.Sprint(e.Value))
}

// Validator collects field errors so every problem is reported at once.
type Validator struct {
	errors []ValidationError
}

func NewValidator() *Validator {
	return &Validator{}
}

// Field applies rules to value and records each failure under name.
func (v *Validator) Field(name string, value any, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(name, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

func (v *Validator) Errors() []ValidationError {
	return v.errors
}

// ErrorMessage joins all failures with "; ".
func (v *Validator) ErrorMessage() string {
	messages := make([]string, 0, len(v.errors))
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

type ValidationRule func(name string, value any) *ValidationError

// Required rejects blank strings and empty string lists.
func Required(name string, value any) *ValidationError {
	switch v := value.(type) {
	case string:
		if strings.TrimSpace(v) != "" {
			return nil
		}
	case []string:
		if slices.ContainsFunc(v, func(s string) bool { return strings.TrimSpace(s) != "" }) {
			return nil
		}
	}
	return &ValidationError{Field: name, Value: value, Message: "is required"}
}

// OneOf accepts only the listed string values.
func OneOf(allowed ...string) ValidationRule {
	return func(name string, value any) *ValidationError {
		if s, ok := value.(string); ok && slices.Contains(allowed, s) {
			return nil
		}
		return &ValidationError{Field: name, Value: value, Message: "must be one of " + strings.Join(allowed, ", ")}
	}
}

// Positive rejects zero and negative durations.
func Positive(name string, value any) *ValidationError {
	if d, ok := value.(time.Duration); ok && d > 0 {
		return nil
	}
	return &ValidationError{Field: name, Value: value, Message: "must be positive"}
}
