package log

import "sort"

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldUserID        = "user_id"
	FieldChatID        = "chat_id"
	FieldUpdateID      = "update_id"
	FieldExpenseID     = "expense_id"
	FieldCategory      = "category"
	FieldAmountKopecks = "amount_kopecks"
	FieldSource        = "source"
	FieldRule          = "rule"
	FieldTranscript    = "transcript"
	FieldBackend       = "backend"
	FieldRowRef        = "row_ref"
	FieldRemotePath    = "remote_path"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentBot     = "bot"
	ComponentSpeech  = "speech"
	ComponentParser  = "parser"
	ComponentExpense = "expense"
	ComponentStorage = "storage"
	ComponentSheets  = "sheets"
	ComponentDisk    = "disk"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentHTTP    = "http"
	ComponentCLI     = "cli"
)

// Operations defines standard operation names
const (
	OpRecord    = "record"
	OpParse     = "parse"
	OpRecognize = "recognize"
	OpAppend    = "append"
	OpUpload    = "upload"
	OpSync      = "sync"
	OpExchange  = "exchange"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithUser adds the Telegram user and chat.
func (f LogFields) WithUser(userID, chatID int64) LogFields {
	f[FieldUserID] = userID
	if chatID != 0 {
		f[FieldChatID] = chatID
	}
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(category string, amountKopecks int64, source string) LogFields {
	f[FieldCategory] = category
	f[FieldAmountKopecks] = amountKopecks
	f[FieldSource] = source
	return f
}

// WithHTTP adds request and response fields.
func (f LogFields) WithHTTP(method, path string, status int, durationMs int64) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldStatusCode] = status
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog, sorted by key so that
// output is stable.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	slice := make([]any, 0, len(f)*2)
	for _, k := range keys {
		slice = append(slice, k, f[k])
	}
	return slice
}
