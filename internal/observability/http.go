package observability

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Refresher updates gauges whose value has to be read from a dependency at
// scrape time, such as the number of questions the bank currently yields.
type Refresher func(ctx context.Context)

// MetricsHandler exposes the Prometheus scrape endpoint via Fiber. Every
// refresher runs before the registry is gathered.
func MetricsHandler(refreshers ...Refresher) fiber.Handler {
	RegisterMetrics()
	scrape := adaptor.HTTPHandler(promhttp.Handler())

	return func(c *fiber.Ctx) error {
		for _, refresh := range refreshers {
			if refresh != nil {
				refresh(c.UserContext())
			}
		}
		return scrape(c)
	}
}
