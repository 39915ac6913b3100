package api

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

// Request schema failures are reported as 400 so they match the status used
// for validation errors raised by the curve service.
func init() {
	newError := huma.NewError
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		if status == http.StatusUnprocessableEntity {
			status = http.StatusBadRequest
		}
		return newError(status, msg, errs...)
	}
}
