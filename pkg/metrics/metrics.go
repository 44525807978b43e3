package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP 请求延迟（秒）
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
		},
		[]string{"method", "path", "status"},
	)

	// 数据库查询延迟（秒）
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		},
		[]string{"operation", "table"},
	)

	// 慢查询计数
	SlowQueryCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "db_slow_query_count",
			Help: "Total number of queries slower than the configured threshold",
		},
	)

	// MQ 消费延迟（毫秒）
	MQConsumeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mq_consume_latency_ms",
			Help:    "MQ message consumption latency in milliseconds",
			Buckets: prometheus.ExponentialBuckets(10, 2, 10),
		},
		[]string{"routing_key", "queue"},
	)

	// 项目存储操作计数
	StoreOperationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_store_operation_count",
			Help: "Total number of project store operations",
		},
		[]string{"operation", "result"}, // result: ok, invalid, not_found, error
	)

	// 持久化写入失败计数
	PersistFailureCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "project_store_persist_failure_count",
			Help: "Total number of failed key-value persistence writes",
		},
		[]string{"key"},
	)

	// 静态快照加载结果
	SnapshotLoadCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snapshot_load_count",
			Help: "Total number of bundled snapshot fetches",
		},
		[]string{"file", "result"}, // result: ok, error, invalid
	)

	// 项目完成度分布
	ProjectProgress = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "project_progress_percent",
			Help:    "Project progress observed after each recomputation",
			Buckets: prometheus.LinearBuckets(0, 25, 5), // 0,25,50,75,100
		},
	)
)

// RecordHTTPRequestDuration 记录 HTTP 请求延迟
func RecordHTTPRequestDuration(method, path, status string, duration time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// RecordDBQueryDuration 记录数据库查询延迟
func RecordDBQueryDuration(operation, table string, duration time.Duration) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
}

// IncrementSlowQuery 增加慢查询计数
func IncrementSlowQuery() {
	SlowQueryCount.Inc()
}

// RecordMQConsumeLatency 记录 MQ 消费延迟
func RecordMQConsumeLatency(routingKey, queue string, duration time.Duration) {
	MQConsumeLatency.WithLabelValues(routingKey, queue).Observe(float64(duration.Milliseconds()))
}

// IncrementStoreOperation 增加存储操作计数
func IncrementStoreOperation(operation, result string) {
	StoreOperationCount.WithLabelValues(operation, result).Inc()
}

// IncrementPersistFailure 增加持久化失败计数
func IncrementPersistFailure(key string) {
	PersistFailureCount.WithLabelValues(key).Inc()
}

// IncrementSnapshotLoad 增加快照加载计数
func IncrementSnapshotLoad(file, result string) {
	SnapshotLoadCount.WithLabelValues(file, result).Inc()
}

// ObserveProgress 记录项目完成度
func ObserveProgress(progress int) {
	ProjectProgress.Observe(float64(progress))
}
