package health

import "context"

// GatewayChecker checks ledger gateway availability.
type GatewayChecker interface {
	HealthCheck(ctx context.Context) error
}

// CachePinger checks content cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}
