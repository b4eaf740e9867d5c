package orchestrator

import (
	"context"
	"fmt"
	"io"
	"log"

	"airline-pricing-lab/internal/storage"
	chstore "airline-pricing-lab/internal/storage/clickhouse"
	"airline-pricing-lab/internal/storage/memory"
	"airline-pricing-lab/internal/storage/migrations"
	pgstore "airline-pricing-lab/internal/storage/postgres"
)

// Stores holds the storage implementations used by a run.
type Stores struct {
	Trials     storage.TrialResultStore
	DayRecords storage.DayRecordStore
	Aggregates storage.AggregateStore
}

// OpenStores connects the stores selected by the DSNs and applies migrations.
// An empty postgresDSN keeps trials and aggregates in memory; an empty clickhouseDSN
// keeps day records in memory. The returned cleanup closes every connection.
func OpenStores(ctx context.Context, postgresDSN, clickhouseDSN string, logger *log.Logger) (*Stores, func(), error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}

	stores := &Stores{
		Trials:     memory.NewTrialResultStore(),
		DayRecords: memory.NewDayRecordStore(),
		Aggregates: memory.NewAggregateStore(),
	}
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	// PostgreSQL
	if postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, postgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("postgres migrations: %w", err)
		}
		stores.Trials = pgstore.NewTrialResultStore(pool)
		stores.Aggregates = pgstore.NewAggregateStore(pool)
		logger.Println("trials and aggregates stored in postgres")
	}

	// ClickHouse
	if clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, clickhouseDSN)
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("clickhouse migrations: %w", err)
		}
		closers = append(closers, func() { conn.Close() })

		stores.DayRecords = chstore.NewDayRecordStore(conn)
		logger.Println("day records stored in clickhouse")
	}

	return stores, cleanup, nil
}
