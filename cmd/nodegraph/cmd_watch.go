package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"nodegraph/internal/graph"
	"nodegraph/internal/service"
	"nodegraph/internal/watcher"
)

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [file]",
		Short: "Reload a document whenever its file changes",
		Long: `Load a document and keep it loaded, reloading it after every change on
disk. Failed reloads are logged and the previous document stays loaded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			bus := graph.NewEventBus()
			events := make(chan graph.Event, 256)
			bus.Subscribe(events)

			svc, closeFn, err := a.newService(false, service.WithEventBus(bus))
			if err != nil {
				return err
			}
			defer closeFn()

			ok, err := svc.Deserialize(path)
			if err != nil {
				return err
			}
			if !ok {
				a.logger.Warn("document does not exist yet", "path", path)
			}

			go a.logEvents(ctx, events)

			w := watcher.New(path, svc,
				watcher.WithDebounce(a.cfg.Watch.Debounce.Duration()),
				watcher.WithLogger(a.logger),
			)
			if err := w.Watch(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}

func (a *app) logEvents(ctx context.Context, events <-chan graph.Event) {
	for {
		select {
		case ev := <-events:
			switch ev.Type {
			case graph.EventDocumentReloaded, graph.EventDocumentLoaded:
				a.logger.Info("document event", "type", ev.Type, "document", ev.Document)
			default:
				a.logger.Debug("store event", "type", ev.Type, "kind", ev.Kind, "id", ev.ID)
			}
		case <-ctx.Done():
			return
		}
	}
}
