package models

import "time"

// Reminder is a planned local notification for an upcoming class.
type Reminder struct {
	Key         string      `json:"key"`
	CalendarID  string      `json:"calendar_id"`
	SubjectID   string      `json:"subject_id"`
	SubjectName string      `json:"subject_name"`
	Kind        MeetingKind `json:"kind"`
	ClassStart  time.Time   `json:"class_start"`
	FireAt      time.Time   `json:"fire_at"`
	Room        *string     `json:"room,omitempty"`
}

// SystemMetrics is a lightweight snapshot of runtime counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	StoreOpCount             uint64    `json:"store_op_count"`
	AverageStoreOpDurationMs float64   `json:"average_store_op_duration_ms"`
	Resolutions              uint64    `json:"resolutions"`
	RemindersDispatched      uint64    `json:"reminders_dispatched"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
