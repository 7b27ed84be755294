package log

// Common field names for structured logging.
const (
	FieldComponent      = "component"
	FieldRequestID      = "request_id"
	FieldMethod         = "method"
	FieldPath           = "path"
	FieldStatusCode     = "status_code"
	FieldDuration       = "duration_ms"
	FieldError          = "error"
	FieldOperation      = "operation"
	FieldSubscriptionID = "subscription_id"
	FieldCardID         = "card_id"
	FieldCurrency       = "currency"
	FieldCategory       = "category"
	FieldAmount         = "amount"
	FieldBackend        = "backend"
	FieldCount          = "count"
)

// Standard component names.
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentRates    = "rates"
	ComponentBackup   = "backup"
	ComponentReminder = "reminder"
	ComponentBackend  = "backend"
)

// Standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpExport   = "export"
	OpImport   = "import"
	OpFetch    = "fetch"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
