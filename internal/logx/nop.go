package logx

type nopLogger struct{}

// Nop returns a Logger that discards everything. Used in tests and as the
// fallback when no sink is configured.
func Nop() Logger { return nopLogger{} }

func (n nopLogger) Debug(string, ...Field) {}
func (n nopLogger) Info(string, ...Field)  {}
func (n nopLogger) Warn(string, ...Field)  {}
func (n nopLogger) Error(string, ...Field) {}
func (n nopLogger) With(...Field) Logger   { return n }
func (n nopLogger) Sync() error            { return nil }

var _ Logger = nopLogger{}
