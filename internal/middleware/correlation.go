package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-study-api/internal/logging"
)

// HeaderCorrelationID is echoed on every response.
const HeaderCorrelationID = "X-Correlation-ID"

const (
	localCorrelationID   = "correlation_id"
	maxCorrelationLength = 128
)

// CorrelationID tags each request with an identifier taken from the incoming
// X-Correlation-ID or X-Request-ID header, or a fresh UUID. The request's
// user context carries the id and a logger tagged with it, which the
// services read through logging.FromContext.
func CorrelationID(base zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := incomingCorrelationID(c)

		c.Locals(localCorrelationID, id)
		c.Set(HeaderCorrelationID, id)
		c.SetUserContext(logging.WithCorrelationID(c.UserContext(), base, id))

		return c.Next()
	}
}

func incomingCorrelationID(c *fiber.Ctx) string {
	for _, header := range []string{HeaderCorrelationID, "X-Request-ID"} {
		value := strings.TrimSpace(c.Get(header))
		if value != "" && len(value) <= maxCorrelationLength {
			return value
		}
	}
	return uuid.NewString()
}

// GetCorrelationID returns the correlation identifier bound to the active request.
func GetCorrelationID(c *fiber.Ctx) string {
	if c == nil {
		return ""
	}
	if id, ok := c.Locals(localCorrelationID).(string); ok {
		return id
	}
	return logging.CorrelationID(c.UserContext())
}
