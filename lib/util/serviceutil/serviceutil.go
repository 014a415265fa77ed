package serviceutil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Returns a context that will live until Ctrl+C is pressed
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		cancel()
	}()

	return ctx
}

func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}

// RequireEnv reads an environment variable that must be set, usually an API
// credential loaded from .env.
func RequireEnv(name string) string {
	value := os.Getenv(name)
	if value == "" {
		Fatal("missing environment variable", fmt.Errorf("%s is not set", name))
	}
	return value
}
