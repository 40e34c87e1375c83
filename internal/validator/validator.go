// Package validator provides event validation for the collation pipeline.
package validator

import (
	"github.com/Touchkin/eventcollate/internal/errors"
	"github.com/Touchkin/eventcollate/pkg/event"
)

// EventValidator validates events before they enter the collation buffer.
type EventValidator struct{}

// NewEventValidator creates a new event validator.
func NewEventValidator() *EventValidator {
	return &EventValidator{}
}

// Validate validates an event. Events that fail validation are routed to
// the DLQ instead of being collated.
func (v *EventValidator) Validate(e *event.Event) error {
	if e.ID == "" {
		return &errors.ValidationError{
			EventID: e.ID,
			Field:   "id",
			Reason:  "required field is missing",
		}
	}

	if e.Source == "" {
		return &errors.ValidationError{
			EventID: e.ID,
			Field:   "source",
			Reason:  "required field is missing",
		}
	}

	if e.Type == "" {
		return &errors.ValidationError{
			EventID: e.ID,
			Field:   "type",
			Reason:  "required field is missing",
		}
	}

	return nil
}
