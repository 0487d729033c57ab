package common

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError represents a single invalid setting
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects every problem found in one pass
type ValidationErrors []ValidationError

// Add appends err when it is not nil
func (v *ValidationErrors) Add(err *ValidationError) {
	if err != nil {
		*v = append(*v, *err)
	}
}

// Err returns nil when nothing was collected
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

func (v ValidationErrors) Error() string {
	messages := make([]string, len(v))
	for i, err := range v {
		messages[i] = err.Error()
	}
	return strings.Join(messages, "; ")
}

// ValidateRequired checks if a string field is not empty
func ValidateRequired(field, value string) *ValidationError {
	if strings.TrimSpace(value) == "" {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s is required", field),
		}
	}
	return nil
}

// ValidateEnum checks if value is in allowed list
func ValidateEnum(field, value string, allowed []string) *ValidationError {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return &ValidationError{
		Field:   field,
		Message: fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")),
	}
}

// ValidatePort checks that value is a TCP port number
func ValidatePort(field, value string) *ValidationError {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return &ValidationError{
			Field:   field,
			Message: fmt.Sprintf("%s must be a port number between 1 and 65535", field),
		}
	}
	return nil
}
