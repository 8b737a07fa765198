package sql

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/syssam/querykit/dialect"
)

// QueryStats holds query execution statistics.
type QueryStats struct {
	// TotalQueries is the number of row queries executed.
	TotalQueries atomic.Int64
	// TotalCounts is the number of count queries executed.
	TotalCounts atomic.Int64
	// TotalExists is the number of existence checks executed.
	TotalExists atomic.Int64
	// TotalDuration is the total time spent executing statements.
	TotalDuration atomic.Int64 // nanoseconds
	// SlowQueries is the count of statements exceeding the slow threshold.
	SlowQueries atomic.Int64
	// Errors is the count of failed statements.
	Errors atomic.Int64
}

// Stats returns a snapshot of the current statistics.
func (s *QueryStats) Stats() StatsSnapshot {
	return StatsSnapshot{
		TotalQueries:  s.TotalQueries.Load(),
		TotalCounts:   s.TotalCounts.Load(),
		TotalExists:   s.TotalExists.Load(),
		TotalDuration: time.Duration(s.TotalDuration.Load()),
		SlowQueries:   s.SlowQueries.Load(),
		Errors:        s.Errors.Load(),
	}
}

// Reset resets all statistics to zero.
func (s *QueryStats) Reset() {
	s.TotalQueries.Store(0)
	s.TotalCounts.Store(0)
	s.TotalExists.Store(0)
	s.TotalDuration.Store(0)
	s.SlowQueries.Store(0)
	s.Errors.Store(0)
}

// StatsSnapshot is a point-in-time snapshot of query statistics.
type StatsSnapshot struct {
	TotalQueries  int64
	TotalCounts   int64
	TotalExists   int64
	TotalDuration time.Duration
	SlowQueries   int64
	Errors        int64
}

// Total returns the number of statements executed.
func (s StatsSnapshot) Total() int64 {
	return s.TotalQueries + s.TotalCounts + s.TotalExists
}

// AvgDuration returns the average statement duration.
func (s StatsSnapshot) AvgDuration() time.Duration {
	if s.Total() == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Total())
}

// String returns a human-readable summary of the statistics.
func (s StatsSnapshot) String() string {
	return fmt.Sprintf(
		"queries=%d counts=%d exists=%d duration=%s avg=%s slow=%d errors=%d",
		s.TotalQueries, s.TotalCounts, s.TotalExists, s.TotalDuration, s.AvgDuration(),
		s.SlowQueries, s.Errors,
	)
}

// SlowQueryHook is a function called when a slow statement is detected.
type SlowQueryHook func(ctx context.Context, query string, params map[string]any, duration time.Duration)

// StatsDatabase wraps a dialect.Database with statistics collection.
// Durations of row queries cover the time to obtain the cursor, not the
// time spent iterating it.
type StatsDatabase struct {
	dialect.Database
	stats         *QueryStats
	slowThreshold time.Duration
	slowHook      SlowQueryHook
	mu            sync.RWMutex
}

// StatsOption configures the StatsDatabase.
type StatsOption func(*StatsDatabase)

// WithSlowThreshold sets the threshold for slow query detection.
// Default is 100ms.
func WithSlowThreshold(d time.Duration) StatsOption {
	return func(s *StatsDatabase) {
		s.slowThreshold = d
	}
}

// WithSlowQueryHook sets a callback function for slow statements.
func WithSlowQueryHook(hook SlowQueryHook) StatsOption {
	return func(s *StatsDatabase) {
		s.slowHook = hook
	}
}

// WithSlowQueryLog logs slow statements to the given logger, or to the
// default logger if l is nil.
func WithSlowQueryLog(l *slog.Logger) StatsOption {
	if l == nil {
		l = slog.Default()
	}
	return WithSlowQueryHook(func(ctx context.Context, query string, params map[string]any, duration time.Duration) {
		l.WarnContext(ctx, "slow query detected", "duration", duration, "query", query, "params", params)
	})
}

// NewStatsDatabase wraps a Database with statistics collection.
//
// Example:
//
//	drv, _ := sql.Open("postgres", dsn)
//	db := sql.NewStatsDatabase(drv,
//	    sql.WithSlowThreshold(200*time.Millisecond),
//	    sql.WithSlowQueryLog(nil),
//	)
//	q := query.New(db).From("users")
//
//	// Later, check statistics:
//	fmt.Println(db.QueryStats().Stats())
func NewStatsDatabase(db dialect.Database, opts ...StatsOption) *StatsDatabase {
	s := &StatsDatabase{
		Database:      db,
		stats:         &QueryStats{},
		slowThreshold: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// QueryStats returns the underlying QueryStats for reading statistics.
func (d *StatsDatabase) QueryStats() *QueryStats {
	return d.stats
}

// SlowThreshold returns the current slow query threshold.
func (d *StatsDatabase) SlowThreshold() time.Duration {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.slowThreshold
}

// SetSlowThreshold updates the slow query threshold.
func (d *StatsDatabase) SetSlowThreshold(threshold time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slowThreshold = threshold
}

// Query executes a row query and records statistics.
func (d *StatsDatabase) Query(ctx context.Context, query string, params map[string]any, offset, limit int) (dialect.Rows, error) {
	start := time.Now()
	rows, err := d.Database.Query(ctx, query, params, offset, limit)
	d.stats.TotalQueries.Add(1)
	d.record(ctx, query, params, start, err)
	return rows, err
}

// Count executes a count query and records statistics.
func (d *StatsDatabase) Count(ctx context.Context, query string, params map[string]any) (int64, error) {
	start := time.Now()
	n, err := d.Database.Count(ctx, query, params)
	d.stats.TotalCounts.Add(1)
	d.record(ctx, query, params, start, err)
	return n, err
}

// Exists executes an existence check and records statistics.
func (d *StatsDatabase) Exists(ctx context.Context, query string, params map[string]any) (bool, error) {
	start := time.Now()
	ok, err := d.Database.Exists(ctx, query, params)
	d.stats.TotalExists.Add(1)
	d.record(ctx, query, params, start, err)
	return ok, err
}

func (d *StatsDatabase) record(ctx context.Context, query string, params map[string]any, start time.Time, err error) {
	duration := time.Since(start)
	d.stats.TotalDuration.Add(int64(duration))
	if err != nil {
		d.stats.Errors.Add(1)
	}

	d.mu.RLock()
	threshold := d.slowThreshold
	hook := d.slowHook
	d.mu.RUnlock()

	if duration > threshold {
		d.stats.SlowQueries.Add(1)
		if hook != nil {
			hook(ctx, query, params, duration)
		}
	}
}

var _ dialect.Database = (*StatsDatabase)(nil)
