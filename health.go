package romcp

import (
	"context"
	"time"
)

// CheckHealth verifies the database is reachable and answering queries.
// It bypasses the tool semaphore so a saturated pool still reports healthy
// as long as the database itself responds.
func (p *ReadOnlyMcp) CheckHealth(ctx context.Context) (*HealthOutput, error) {
	healthCtx, cancel := context.WithTimeout(ctx, time.Duration(p.config.Query.CatalogTimeoutSeconds)*time.Second)
	defer cancel()

	var version, database string
	if err := p.pool.QueryRow(healthCtx, "SELECT version(), current_database()").Scan(&version, &database); err != nil {
		return nil, p.classifyDriverError(err, "health_check", "SELECT version(), current_database()", time.Duration(p.config.Query.CatalogTimeoutSeconds)*time.Second)
	}

	return &HealthOutput{
		Status:   "healthy",
		Version:  version,
		Database: database,
		Server:   p.server,
	}, nil
}

// Ping checks connectivity without running a query. Used at startup and by
// the doctor command.
func (p *ReadOnlyMcp) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}
