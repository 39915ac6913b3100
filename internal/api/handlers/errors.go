package handlers

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/RMahshie/graphcapture/internal/apperrors"
)

// toHTTPError converts a service error into a huma status error. Storage
// causes are logged here and replaced by fallback so nothing internal
// reaches the client.
func toHTTPError(err error, fallback string) error {
	appErr, ok := apperrors.As(err)
	if !ok {
		log.Error().Err(err).Msg(fallback)
		return huma.Error500InternalServerError(fallback)
	}

	switch appErr.Type {
	case apperrors.ErrorTypeValidation:
		details := make([]error, 0, len(appErr.Fields))
		for _, f := range appErr.Fields {
			details = append(details, &huma.ErrorDetail{
				Message:  f.Message,
				Location: f.Field,
			})
		}
		return huma.Error400BadRequest(appErr.Message, details...)
	case apperrors.ErrorTypeNotFound:
		return huma.Error404NotFound(appErr.Message)
	default:
		log.Error().Err(err).Bool("timeout", appErr.Timeout).Msg(fallback)
		if appErr.Timeout {
			return huma.Error500InternalServerError(fallback + ": storage timed out")
		}
		return huma.Error500InternalServerError(fallback)
	}
}
