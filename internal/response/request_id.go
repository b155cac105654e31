package response

import (
	"github.com/google/uuid"
)

// HeaderRequestID is the header carrying the per-request correlation ID.
const HeaderRequestID = "X-Request-ID"

// NewRequestID generates a unique request ID for an outgoing request.
func NewRequestID() string {
	return uuid.New().String()
}
