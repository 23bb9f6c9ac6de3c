package cli

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/runnerr0/storycard/internal/web"
)

const defaultShutdownTimeout = 5 * time.Second

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	e, err := openEnv(ctx, c.globals)
	if err != nil {
		return err
	}
	defer e.Close()

	host := e.cfg.Server.Host
	if c.Host != "" {
		host = c.Host
	}
	port := e.cfg.Server.Port
	if c.Port != 0 {
		port = c.Port
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}

	return c.executeWithEnv(ctx, e, ln)
}

// executeWithEnv serves on ln until ctx is cancelled (used by tests).
func (c *ServeCommand) executeWithEnv(ctx context.Context, e *env, ln net.Listener) error {
	if err := e.dir.Ensure(); err != nil {
		ln.Close()
		return err
	}

	srv, err := web.New(e.svc,
		web.WithLogger(e.logger),
		web.WithMaxRequestSize(e.cfg.Server.MaxRequestSize),
	)
	if err != nil {
		ln.Close()
		return err
	}

	timeout := time.Duration(e.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}

	e.logger.Info("starting storycard",
		zap.String("version", c.version),
		zap.String("cards_dir", e.dir.Path()),
		zap.String("index", e.indexPath),
		zap.String("allocator", e.cfg.Allocator.Mode),
	)
	if c.globals == nil || !c.globals.JSON {
		fmt.Printf("Serving story cards on http://%s\n", ln.Addr())
	}

	return web.Serve(ctx, ln, srv.Handler(), timeout, e.logger)
}
