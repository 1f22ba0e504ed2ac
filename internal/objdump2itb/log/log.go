package log

import (
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"

	charmlog "github.com/charmbracelet/log"
)

var (
	initOnce    sync.Once
	initialized atomic.Bool
)

// Setup routes the log/slog default logger through lg. Only the first call
// has any effect.
func Setup(lg *charmlog.Logger) {
	initOnce.Do(func() {
		slog.SetDefault(slog.New(lg))
		initialized.Store(true)
	})
}

func Initialized() bool {
	return initialized.Load()
}

func RecoverPanic(name string, cleanup func()) {
	if r := recover(); r != nil {
		if Initialized() {
			slog.Error(fmt.Sprintf("Panic in %s", name),
				"panic", r,
				"stack", string(debug.Stack()))
		}
		if cleanup != nil {
			cleanup()
		}
	}
}
