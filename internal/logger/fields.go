package logger

// Fields is an alias for map[string]interface{} for convenience.
type Fields map[string]interface{}

// Tracing fields, propagated through the call chain via context.
const (
	FieldRequestID = "request_id"
	FieldWishID    = "wish_id"
	FieldJobID     = "job_id"
	FieldComponent = "component"
	FieldCategory  = "category"
	FieldTemplate  = "component_type"
)

// Metric fields, attached per entry for aggregation.
const (
	FieldDurationMs = "duration_ms"
	FieldCount      = "count"
	FieldSize       = "size"
	FieldStatus     = "status"
)
