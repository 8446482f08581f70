package patchgate

// Options configures validation behavior.
type Options struct {
	// Limits to bound recursion on pathological schemas
	MaxDepth    int // Max schema resolution depth per traversal step (default: 100)
	MaxRefDepth int // Max reference chain length (default: 16)

	// Logging configuration
	Logger   Logger // If nil, a logger writing to stderr at LogLevel is used
	LogLevel string // Log level: "error", "warn", "info", "debug" (default: "warn")
}

// DefaultOptions returns the default configuration for validation.
func DefaultOptions() Options {
	return Options{
		MaxDepth:    100,
		MaxRefDepth: 16,
		LogLevel:    "warn",
	}
}

// logger returns the configured logger, constructing the default one lazily.
func (o Options) logger() Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return NewLogger(ParseLogLevel(o.LogLevel), nil)
}

// normalized fills in zero values with defaults so that a partially
// constructed Options behaves like DefaultOptions for the unset fields.
func (o Options) normalized() Options {
	def := DefaultOptions()
	if o.MaxDepth <= 0 {
		o.MaxDepth = def.MaxDepth
	}
	if o.MaxRefDepth <= 0 {
		o.MaxRefDepth = def.MaxRefDepth
	}
	return o
}
