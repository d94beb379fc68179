package provider

import (
	"errors"

	"github.com/kovalenq/pressroom/pkg/models"
)

// ErrUnknownModel is returned by the registry when no adapter serves the
// requested model id. Rejected synchronously; never retried.
var ErrUnknownModel = errors.New("unknown model")

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var pe *models.ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
