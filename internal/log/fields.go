package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldDate       = "date"
	FieldRecordKind = "record_kind"
	FieldRecordID   = "record_id"
	FieldPumpID     = "pump_id"
	FieldTankID     = "tank_id"
	FieldStatus     = "status"
	FieldRole       = "role"
	FieldUser       = "user"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentRecords   = "records"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpList     = "list"
	OpApprove  = "approve"
	OpReject   = "reject"
	OpRollup   = "rollup"
	OpSweep    = "sweep"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

