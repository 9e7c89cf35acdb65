package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldProductName = "product_name"
	FieldWeight      = "weight"
	FieldPrice       = "price"
	FieldBalance     = "balance"
	FieldEntryID     = "entry_id"
	FieldKind        = "kind"
	FieldCategory    = "category"
	FieldSearch      = "search"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentCatalog   = "catalog"
	ComponentLedger    = "ledger"
	ComponentPurchase  = "purchase"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTemplate  = "template"
)

// Operations
const (
	OpQuote    = "quote"
	OpPurchase = "purchase"
	OpReset    = "reset"
	OpList     = "list"
	OpRender   = "render"
	OpSync     = "sync"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)

// Fields accumulates structured attributes for one log call.
type Fields map[string]any

func NewFields() Fields {
	return make(Fields)
}

func (f Fields) WithComponent(component string) Fields {
	f[FieldComponent] = component
	return f
}

func (f Fields) WithOperation(op string) Fields {
	f[FieldOperation] = op
	return f
}

func (f Fields) WithError(err error) Fields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithPurchase adds the product, weight and price of a purchase attempt.
func (f Fields) WithPurchase(productName string, weight, price float64) Fields {
	f[FieldProductName] = productName
	f[FieldWeight] = weight
	f[FieldPrice] = price
	return f
}

func (f Fields) WithBalance(balance float64) Fields {
	f[FieldBalance] = balance
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f Fields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
