package utility

import (
	"runtime/debug"

	"servicehub/internal/logger"
)

// GoProtect runs f and logs instead of crashing when f panics. Used for fire-and-forget goroutines.
func GoProtect(f func()) {
	defer func() {
		if err := recover(); err != nil {
			logger.GetAppLogger().WithField("panic", err).WithField("stack", string(debug.Stack())).Error("Recovered from panic")
		}
	}()
	f()
}
