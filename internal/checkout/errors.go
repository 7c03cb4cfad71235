package checkout

import (
	"errors"

	"storesync/internal/validation"
)

// ValidationError is a local precondition failure. It is always returned
// before any gateway call.
type ValidationError struct {
	Message string                  `json:"message"`
	Fields  []validation.FieldError `json:"fields,omitempty"`
	Items   []InvalidItem           `json:"items,omitempty"`
}

// InvalidItem is a cart line priced under the gateway floor.
type InvalidItem struct {
	Title string `json:"title"`
	Price int64  `json:"price"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
