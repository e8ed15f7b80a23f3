package logging

const (
	// FieldComponent is the structured logging key for component names.
	FieldComponent = "component"
	// FieldEventType classifies a log line for filtering (e.g. "probe_failed").
	FieldEventType = "event_type"
	// FieldErrorHint tells an operator what to check next.
	FieldErrorHint = "error_hint"
	// FieldImpact is the user-facing consequence of a warning.
	FieldImpact = "impact"
	// FieldNodeID is the key for resource node identifiers.
	FieldNodeID = "node_id"
	// FieldScanID is the key for library scan identifiers.
	FieldScanID = "scan_id"
	// FieldCorrelationID is the key for request correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldPath is the key for filesystem or archive paths.
	FieldPath = "path"
	// FieldAlert flags warnings or anomalies that should stand out.
	FieldAlert = "alert"
)
