package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sansoyunu/sansoyunu/internal/config"
	"github.com/sansoyunu/sansoyunu/internal/devserver"
)

// devserver runs the whole game backend in memory. It speaks the same
// REST and websocket contract as the real deployment, which makes it
// good enough for local play and for end to end tests.
func main() {
	cfg := config.Load()
	logger := config.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := devserver.New(ctx, logger)
	httpSrv := &http.Server{
		Addr:    ":" + port,
		Handler: srv.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("devserver listening", zap.String("addr", httpSrv.Addr))
	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
