package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"nodegraph/internal/graph"
	"nodegraph/internal/handler"
	"nodegraph/internal/hub"
	"nodegraph/internal/service"
	"nodegraph/internal/watcher"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		addr  string
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "serve [file]",
		Short: "Serve a document over HTTP with a live event stream",
		Long: `Serve the document in file (or an empty document) over a JSON API, with
graph and document events streamed on /events. Stored documents come from the
configured database. With --watch the file is reloaded whenever it changes.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			return a.serve(ctx, ln, path, watch)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3000", "HTTP listen address")
	cmd.Flags().BoolVar(&watch, "watch", false, "reload the document when its file changes")
	return cmd
}

// serve runs the HTTP server on ln until ctx is done.
func (a *app) serve(ctx context.Context, ln net.Listener, path string, watch bool) error {
	bus := graph.NewEventBus()
	events := make(chan graph.Event, 256)
	bus.Subscribe(events)

	svc, closeFn, err := a.newService(true, service.WithEventBus(bus))
	if err != nil {
		ln.Close()
		return err
	}
	defer closeFn()

	if path != "" {
		ok, err := svc.Deserialize(path)
		if err != nil {
			ln.Close()
			return err
		}
		if !ok {
			a.logger.Warn("document does not exist yet", "path", path)
		}
	}

	sseHub := hub.New(a.logger)
	go sseHub.Run(ctx)
	go sseHub.Forward(ctx, events)

	mux := http.NewServeMux()
	handler.NewDocumentHandler(svc, path, a.logger).Register(mux, sseHub)

	server := &http.Server{
		Handler: handler.Chain(mux,
			handler.Recover(a.logger),
			handler.Logger(a.logger),
		),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	if watch && path != "" {
		w := watcher.New(path, svc,
			watcher.WithDebounce(a.cfg.Watch.Debounce.Duration()),
			watcher.WithLogger(a.logger),
		)
		go func() {
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("server listening", "addr", ln.Addr().String())
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
