package chi

import (
	"context"

	"github.com/kailas-cloud/nearby/internal/domain/query"
	"github.com/kailas-cloud/nearby/internal/export"
	"github.com/kailas-cloud/nearby/internal/usecase/discovery"
	healthuc "github.com/kailas-cloud/nearby/internal/usecase/health"
)

// Discoverer runs one place discovery per call.
type Discoverer interface {
	Discover(ctx context.Context, q query.Query) (discovery.Result, error)
	Provider() string
}

// Archive keeps rendered exports for later download.
type Archive interface {
	Put(ctx context.Context, searchID string, f export.Format, data []byte) error
	Get(ctx context.Context, searchID string, f export.Format) ([]byte, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}
