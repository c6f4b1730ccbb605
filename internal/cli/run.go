package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/balena-io/resin-preload/internal/options"
	"github.com/balena-io/resin-preload/internal/preloader"
	"github.com/balena-io/resin-preload/internal/progress"
	"github.com/balena-io/resin-preload/internal/session"
)

// Executes one preload run with the resolved configuration.
//
// Provisions the clients, builds the engine and its progress router, and
// hands control to the session. Termination signals are routed to the
// session rather than cancelling the context: an in-flight phase is left
// to finish on its own while the session cleans up and re-delivers the
// signal.
func run(cfg options.Config) error {
	ctx := context.Background()

	clients, err := session.Provision(ctx, cfg)
	if err != nil {
		return err
	}

	router := progress.NewRouter(os.Stdout, os.Stderr)
	defer router.Close()

	engine := preloader.New(clients.API, clients.Runtime, cfg, router)
	sess := session.New(clients, cfg, engine)

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)

	return sess.Run(ctx, signals)
}
