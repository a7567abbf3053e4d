package health

import "context"

// Pinger checks availability of an optional backend (export archive, event broker).
type Pinger interface {
	Ping(ctx context.Context) error
}
