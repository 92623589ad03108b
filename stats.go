package regcache

// Metric names for stats.Tracker.
const (
	// MetricAdd is a counter of created entries.
	MetricAdd = "cache_add"

	// MetricRemove is a counter of deleted entries.
	MetricRemove = "cache_remove"

	// MetricHit is a counter of successful value reads.
	MetricHit = "cache_hit"

	// MetricMiss is a counter of failed entry lookups.
	MetricMiss = "cache_miss"

	// MetricWrite is a counter of value updates.
	MetricWrite = "cache_write"

	// MetricChanged is a counter of value updates that altered stored values.
	MetricChanged = "cache_changed"

	// MetricNotification is a counter of submitted change notifications.
	MetricNotification = "cache_notification"

	// MetricItems is a gauge of entries count.
	MetricItems = "cache_items"

	// MetricTask is a counter of executed worker pool tasks.
	MetricTask = "pool_task"
)
