package log

import "finsheets/internal/core"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldErrorType  = "error_type"
	FieldOperation  = "operation"
	FieldTenant     = "tenant"
	FieldSheetID    = "sheet_id"
	FieldEntryID    = "entry_id"
	FieldEntryCount = "entry_count"
	FieldYear       = "year"
	FieldMonth      = "month"
	FieldAction     = "action"
	FieldAttempt    = "attempt"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStorage   = "storage"
	ComponentService   = "service"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentExport    = "export"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentClient    = "client"
	ComponentSession   = "session"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpList     = "list"
	OpUpdate   = "update"
	OpPatch    = "patch"
	OpDelete   = "delete"
	OpLoad     = "load"
	OpExport   = "export"
	OpLogin    = "login"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation   = "validation_error"
	ErrorTypeCollaborator = "collaborator_error"
	ErrorTypeTransport    = "transport_error"
	ErrorTypeNotFound     = "not_found_error"
	ErrorTypeInternal     = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
		f[FieldErrorType] = ErrorType(err)
	}
	return f
}

// WithTenant records the tenant fingerprint, never the key itself.
func (f LogFields) WithTenant(k core.TenantKey) LogFields {
	f[FieldTenant] = k.Fingerprint()
	return f
}

func (f LogFields) WithSheet(id string) LogFields {
	f[FieldSheetID] = id
	return f
}

func (f LogFields) WithEntry(id string) LogFields {
	f[FieldEntryID] = id
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
