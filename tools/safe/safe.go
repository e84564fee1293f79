package safe

import (
	"ClassBank/logger"
	"ClassBank/tools/errs"

	"go.uber.org/zap"
)

// SafeGo starts a new goroutine that recovers from panic,
// so that panics don't crash the entire program.
func SafeGo(name string, f func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("goroutine panic", zap.String("name", name), zap.Error(errs.ErrPanic(r)))
			}
		}()
		f()
	}()
}
