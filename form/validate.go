package form

import (
	"fmt"
	"regexp"
	"strings"
)

// Errors collects validation messages per field.
type Errors map[string][]string

func (e Errors) Add(field, message string) {
	e[field] = append(e[field], message)
}

// OK reports whether validation passed.
func (e Errors) OK() bool {
	return len(e) == 0
}

// Messages flattens the map for notification, one "field: message" line per
// entry.
func (e Errors) Messages() []string {
	var out []string
	for field, msgs := range e {
		for _, m := range msgs {
			out = append(out, field+": "+m)
		}
	}
	return out
}

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	upperPattern = regexp.MustCompile(`[A-Z]`)
	// The special-character set is fixed: ! @ # ?
	specialPattern = regexp.MustCompile(`[!@#?]`)
)

// Required checks that a trimmed value is present.
func Required(errs Errors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs.Add(field, field+" is required")
	}
}

// Username enforces the 5..15 character account-name rule.
func Username(errs Errors, field, value string) {
	if value == "" {
		errs.Add(field, field+" is required")
		return
	}
	if len(value) < 5 {
		errs.Add(field, fmt.Sprintf("%s must be at least 5 characters", field))
	}
	if len(value) > 15 {
		errs.Add(field, fmt.Sprintf("%s must be at maximum 15 characters", field))
	}
}

// Email checks the address shape.
func Email(errs Errors, field, value string) {
	if value == "" {
		errs.Add(field, field+" is required")
		return
	}
	if !emailPattern.MatchString(value) {
		errs.Add(field, "Invalid email format")
	}
}

// Password enforces the account-password complexity rules: 6..20 characters,
// at least one uppercase letter and at least one of ! @ # ?.
func Password(errs Errors, field, value string) {
	if value == "" {
		errs.Add(field, field+" is required")
		return
	}
	if len(value) < 6 {
		errs.Add(field, fmt.Sprintf("%s must be at least 6 characters", field))
	}
	if len(value) > 20 {
		errs.Add(field, fmt.Sprintf("%s must be at maximum 20 characters", field))
	}
	if !upperPattern.MatchString(value) || !specialPattern.MatchString(value) {
		errs.Add(field, fmt.Sprintf("%s must contain at least one uppercase letter and one special character (! @ # ?)", field))
	}
}
