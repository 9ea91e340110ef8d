package feed

import (
	"fmt"
	"time"

	natsserver "github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats.go"

	"github.com/julianstephens/goalkeeper/internal/config"
	"github.com/julianstephens/goalkeeper/internal/logger"
)

// StartEmbedded runs an in-process NATS server on localhost. Port 0 picks a
// random free port.
func StartEmbedded(cfg config.FeedConfig) (*natsserver.Server, error) {
	port := cfg.EmbeddedPort
	if port == 0 {
		port = -1
	}
	srv, err := natsserver.NewServer(&natsserver.Options{
		Host:   "127.0.0.1",
		Port:   port,
		NoLog:  true,
		NoSigs: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create embedded NATS server: %w", err)
	}

	go srv.Start()
	if !srv.ReadyForConnections(5 * time.Second) {
		srv.Shutdown()
		return nil, fmt.Errorf("embedded NATS server not ready")
	}
	logger.Info("Started embedded NATS server", "url", srv.ClientURL())
	return srv, nil
}

// Connect dials the configured NATS server, starting an embedded one when no
// URL is configured. The returned func closes the connection and any
// embedded server.
func Connect(cfg config.FeedConfig) (*nats.Conn, func(), error) {
	url := cfg.NATSURL
	var srv *natsserver.Server
	if url == "" {
		s, err := StartEmbedded(cfg)
		if err != nil {
			return nil, nil, err
		}
		srv, url = s, s.ClientURL()
	}

	nc, err := nats.Connect(url,
		nats.Name("goalkeeper"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	)
	if err != nil {
		if srv != nil {
			srv.Shutdown()
		}
		return nil, nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}

	return nc, func() {
		nc.Close()
		if srv != nil {
			srv.Shutdown()
			srv.WaitForShutdown()
		}
	}, nil
}
