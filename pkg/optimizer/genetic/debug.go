package genetic

// Logger receives progress lines from a run. api.Logger satisfies it.
type Logger interface {
	Debug(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}

// progressInterval is how many iterations pass between progress lines.
const progressInterval = 10
