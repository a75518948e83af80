// Package observability provides metrics and tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postline_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "postline_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// PageCacheResults counts page cache lookups by result (hit, miss, store, error).
	PageCacheResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postline_page_cache_results_total",
		Help: "Page cache lookups by result",
	}, []string{"route", "result"})

	// FollowActions counts follow graph operations by action and outcome.
	FollowActions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "postline_follow_actions_total",
		Help: "Follow and unfollow operations by outcome",
	}, []string{"action", "outcome"})

	// PostsPublished counts posts created through the create form.
	PostsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "postline_posts_published_total",
		Help: "Total number of posts published",
	})
)

const queryStartKey = "observability:query_start"

// RegisterQueryMetrics installs GORM callbacks that observe every statement
// into DatabaseQueryLatency.
func RegisterQueryMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(operation string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		name string
		err  error
	}{
		{"create.before", cb.Create().Before("gorm:create").Register("metrics:before_create", before)},
		{"create.after", cb.Create().After("gorm:create").Register("metrics:after_create", after("create"))},
		{"query.before", cb.Query().Before("gorm:query").Register("metrics:before_query", before)},
		{"query.after", cb.Query().After("gorm:query").Register("metrics:after_query", after("select"))},
		{"update.before", cb.Update().Before("gorm:update").Register("metrics:before_update", before)},
		{"update.after", cb.Update().After("gorm:update").Register("metrics:after_update", after("update"))},
		{"delete.before", cb.Delete().Before("gorm:delete").Register("metrics:before_delete", before)},
		{"delete.after", cb.Delete().After("gorm:delete").Register("metrics:after_delete", after("delete"))},
		{"raw.before", cb.Raw().Before("gorm:raw").Register("metrics:before_raw", before)},
		{"raw.after", cb.Raw().After("gorm:raw").Register("metrics:after_raw", after("raw"))},
	}
	for _, s := range steps {
		if s.err != nil {
			return s.err
		}
	}
	return nil
}
