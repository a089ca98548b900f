package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"nodegraph/internal/codec"
	"nodegraph/internal/config"
	"nodegraph/internal/graph"
	"nodegraph/internal/repository/sqlite"
	"nodegraph/internal/service"
)

// app carries state shared by every command after PersistentPreRunE.
type app struct {
	configPath string
	dbPath     string
	format     string
	logLevel   string

	cfg     *config.Config
	cfgFrom string
	logger  *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "nodegraph",
		Short:         "Inspect, convert and store node graph documents",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default: search $NODEGRAPH_CONFIG, ./nodegraph.yaml, XDG)")
	flags.StringVar(&a.dbPath, "db", "", "document database path (overrides config)")
	flags.StringVar(&a.format, "format", "", "fallback document format: xml, yaml, json, binary")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")

	root.AddCommand(
		newInspectCmd(a),
		newConvertCmd(a),
		newSaveCmd(a),
		newLoadCmd(a),
		newListCmd(a),
		newDeleteCmd(a),
		newWatchCmd(a),
		newServeCmd(a),
		newConfigCmd(a),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command) error {
	var (
		cfg  *config.Config
		path string
		err  error
	)
	if a.configPath != "" {
		cfg, path, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, path, err = config.Load()
	}
	if err != nil {
		return err
	}

	if a.dbPath != "" {
		cfg.Database.Path = a.dbPath
	}
	if a.format != "" {
		cfg.Document.Format = a.format
	}
	if a.logLevel != "" {
		cfg.Log.Level = config.ParseLogLevel(a.logLevel)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	a.cfg = cfg
	a.cfgFrom = path
	a.logger = cfg.Log.NewLogger(cmd.ErrOrStderr())
	a.logger.Debug("configuration loaded", "path", path)
	return nil
}

// newService builds a DocumentService from config. A repository is opened
// when withRepo is set; the returned close func releases it.
func (a *app) newService(withRepo bool, extra ...service.Option) (*service.DocumentService, func(), error) {
	mode, err := graph.ParseSelectionMode(a.cfg.Selection.Mode)
	if err != nil {
		return nil, nil, err
	}

	opts := []service.Option{
		service.WithLogger(a.logger),
		service.WithFormat(a.cfg.Document.Format, codec.Options{Compress: a.cfg.Document.Compressed()}),
		service.WithStoreOptions(
			graph.WithHistoryCapacity(a.cfg.History.Capacity),
			graph.WithSelectionMode(mode),
		),
	}

	closeFn := func() {}
	if withRepo {
		repo, err := sqlite.New(a.cfg.Database.Path, sqlite.WithLogger(a.logger))
		if err != nil {
			return nil, nil, fmt.Errorf("open database: %w", err)
		}
		opts = append(opts, service.WithRepository(repo))
		closeFn = func() {
			if err := repo.Close(); err != nil {
				a.logger.Warn("close database", "error", err)
			}
		}
	}

	return service.NewDocumentService(append(opts, extra...)...), closeFn, nil
}

// open loads path into a fresh service, failing when the file is absent.
func (a *app) open(path string, withRepo bool) (*service.DocumentService, func(), error) {
	svc, closeFn, err := a.newService(withRepo)
	if err != nil {
		return nil, nil, err
	}
	ok, err := svc.Deserialize(path)
	if err == nil && !ok {
		err = fmt.Errorf("document %s does not exist", path)
	}
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	return svc, closeFn, nil
}
