package system

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/julianstephens/goalkeeper/internal/api"
	"github.com/julianstephens/goalkeeper/internal/cli"
	"github.com/julianstephens/goalkeeper/internal/feed"
	"github.com/julianstephens/goalkeeper/internal/goalstore"
	"github.com/julianstephens/goalkeeper/internal/llm"
	"github.com/julianstephens/goalkeeper/internal/logger"
	"github.com/julianstephens/goalkeeper/internal/planner"
	"github.com/julianstephens/goalkeeper/internal/webhook"
)

type ServeCmd struct {
	Host string `help:"Interface to listen on (overrides server.host)."`
	Port int    `help:"Port to listen on (overrides server.port)."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	if ctx.Config == nil {
		return errors.New("configuration not loaded")
	}
	cfg := *ctx.Config
	if c.Host != "" {
		cfg.Server.Host = c.Host
	}
	if c.Port != 0 {
		cfg.Server.Port = c.Port
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var publisher feed.Publisher
	nc, closeNATS, err := feed.Connect(cfg.Feed)
	if err != nil {
		logger.Warn("Realtime feed disabled", "error", err)
	} else {
		defer closeNATS()
		publisher = feed.NewNATSPublisher(nc)
	}

	completer := llm.New(cfg.LLM, llm.ConfigToken(cfg.LLM))
	sessions := goalstore.NewSessions(ctx.Store,
		goalstore.WithClock(ctx.Now),
		goalstore.WithNotifier(func(n goalstore.Notification) {
			logger.Warn("Goal store operation failed", "op", n.Op, "error", n.Err)
		}),
	)

	server, err := api.NewServer(cfg.Server, api.Deps{
		Repo:      ctx.Store,
		Sessions:  sessions,
		Feed:      feed.NewService(ctx.Store, publisher),
		NATS:      nc,
		Generator: planner.NewGenerator(completer, ctx.Now),
		LLM:       completer,
		Webhook:   webhook.NewHandler(cfg.Identity.WebhookSecret.Value(), ctx.Store),
		Now:       ctx.Now,
	})
	if err != nil {
		return err
	}

	if path, err := pidFilePath(); err != nil {
		logger.Warn("Failed to resolve pid file path", "error", err)
	} else if err := writePidFile(path); err != nil {
		logger.Warn("Failed to write pid file", "path", path, "error", err)
	} else {
		defer os.Remove(path)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()
	ctx.Printf("goalkeeper listening on http://%s\n", cfg.Server.Addr())

	select {
	case err := <-errCh:
		return err
	case <-sigCtx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
