// Package form runs the validate-submit-notify cycle shared by every modal
// form in the console.
package form

import (
	"context"
	"errors"

	"github.com/mylpd15/inventory-console/odata"
)

// Notifier receives the transient messages a form surfaces to the actor.
type Notifier interface {
	Notify(message string)
}

// Form orchestrates one submission surface. While a submission is in flight
// the submit control is considered disabled: re-entrant Submit calls are
// rejected. Failures are surfaced once and never retried automatically.
type Form struct {
	notifier   Notifier
	onSuccess  func()
	submitting bool
}

// New builds a form. onSuccess runs after a successful submission, typically
// closing the modal and asking the list controller to refetch. Either
// argument may be nil.
func New(notifier Notifier, onSuccess func()) *Form {
	return &Form{notifier: notifier, onSuccess: onSuccess}
}

// Submitting reports whether a submission is in flight.
func (f *Form) Submitting() bool {
	return f.submitting
}

// Submit validates, then runs the backend call. It returns true only when
// the call succeeded. Validation failures and backend failures re-enable the
// form for a manual retry; the message surfaced for a backend failure
// prefers the structured field-error map, then the backend message, then a
// generic fallback.
func (f *Form) Submit(ctx context.Context, validate func(Errors), call func(context.Context) error) bool {
	if f.submitting {
		return false
	}
	f.submitting = true
	defer func() { f.submitting = false }()

	if validate != nil {
		errs := Errors{}
		validate(errs)
		if !errs.OK() {
			for _, msg := range errs.Messages() {
				f.notify(msg)
			}
			return false
		}
	}

	if err := call(ctx); err != nil {
		f.notifyError(err)
		return false
	}

	if f.onSuccess != nil {
		f.onSuccess()
	}
	return true
}

func (f *Form) notify(message string) {
	if f.notifier != nil {
		f.notifier.Notify(message)
	}
}

func (f *Form) notifyError(err error) {
	var apiErr *odata.Error
	if errors.As(err, &apiErr) {
		if fields := apiErr.FieldErrors(); len(fields) > 0 {
			// Each field's messages are surfaced individually.
			for field, msgs := range fields {
				for _, m := range msgs {
					f.notify(field + ": " + m)
				}
			}
			return
		}
		f.notify(apiErr.UserMessage())
		return
	}
	f.notify("An unexpected error occurred. Please try again.")
}
