package main

import (
	"log/slog"
	"net/http"

	_ "net/http/pprof" // profiling

	"objdump2itb/internal/config"
	"objdump2itb/internal/objdump2itb/cmd"
	"objdump2itb/internal/objdump2itb/log"
)

func main() {
	defer log.RecoverPanic("main", func() {
		slog.Error("Application terminated due to unhandled panic")
	})

	if config.FromEnv().Profile {
		go func() {
			slog.Info("Serving pprof at localhost:6060")
			if httpErr := http.ListenAndServe("localhost:6060", nil); httpErr != nil {
				slog.Error("Failed to pprof listen", "error", httpErr)
			}
		}()
	}

	cmd.Execute()
}
