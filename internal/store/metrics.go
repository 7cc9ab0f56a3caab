package store

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type instrumentedStore struct {
	next     Store
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// Instrument wraps next so every operation is counted and timed on reg.
func Instrument(next Store, reg prometheus.Registerer) Store {
	s := &instrumentedStore{
		next: next,
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "pos",
			Subsystem: "store",
			Name:      "operations_total",
			Help:      "Storage operations by backend, operation and outcome.",
		}, []string{"mode", "op", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "pos",
			Subsystem: "store",
			Name:      "operation_duration_seconds",
			Help:      "Storage operation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"mode", "op"}),
	}
	reg.MustRegister(s.ops, s.duration)
	return s
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	mode := string(s.next.Mode())
	outcome := "ok"
	switch {
	case errors.Is(err, ErrRawSQLUnsupported):
		outcome = "unsupported"
	case err != nil:
		outcome = "error"
	}
	s.ops.WithLabelValues(mode, op, outcome).Inc()
	s.duration.WithLabelValues(mode, op).Observe(time.Since(start).Seconds())
}

func (s *instrumentedStore) Mode() Mode {
	return s.next.Mode()
}

func (s *instrumentedStore) Select(ctx context.Context, table string, opts SelectOptions) (rows []Row, err error) {
	defer func(start time.Time) { s.observe("select", start, err) }(time.Now())
	return s.next.Select(ctx, table, opts)
}

func (s *instrumentedStore) SelectOne(ctx context.Context, table string, where Where) (row Row, err error) {
	defer func(start time.Time) { s.observe("select_one", start, err) }(time.Now())
	return s.next.SelectOne(ctx, table, where)
}

func (s *instrumentedStore) Insert(ctx context.Context, table string, data Row) (row Row, err error) {
	defer func(start time.Time) { s.observe("insert", start, err) }(time.Now())
	return s.next.Insert(ctx, table, data)
}

func (s *instrumentedStore) Update(ctx context.Context, table string, data Row, where Where) (rows []Row, err error) {
	defer func(start time.Time) { s.observe("update", start, err) }(time.Now())
	return s.next.Update(ctx, table, data, where)
}

func (s *instrumentedStore) Delete(ctx context.Context, table string, where Where) (err error) {
	defer func(start time.Time) { s.observe("delete", start, err) }(time.Now())
	return s.next.Delete(ctx, table, where)
}

func (s *instrumentedStore) Query(ctx context.Context, sql string, params ...any) (rows []Row, err error) {
	defer func(start time.Time) { s.observe("query", start, err) }(time.Now())
	return s.next.Query(ctx, sql, params...)
}

func (s *instrumentedStore) Run(ctx context.Context, sql string, params ...any) (res RunResult, err error) {
	defer func(start time.Time) { s.observe("run", start, err) }(time.Now())
	return s.next.Run(ctx, sql, params...)
}
