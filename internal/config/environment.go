package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// EnvOverride binds an environment variable to a config field
type EnvOverride struct {
	Name        string
	Description string
	Apply       func(c *Config, value string) error
}

// EnvOverrides is the table of supported environment overrides.
// Empty variables are ignored.
var EnvOverrides = []EnvOverride{
	{
		Name:        "NODEGRAPH_HISTORY_CAPACITY",
		Description: "undo log capacity",
		Apply: func(c *Config, v string) error {
			n, err := strconv.Atoi(v)
			if err != nil {
				return err
			}
			c.History.Capacity = n
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_SELECTION_MODE",
		Description: "rubber band hit test (overlap, include)",
		Apply: func(c *Config, v string) error {
			c.Selection.Mode = strings.ToLower(v)
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_DOCUMENT_FORMAT",
		Description: "document encoding (xml, yaml, json, binary)",
		Apply: func(c *Config, v string) error {
			c.Document.Format = strings.ToLower(v)
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_DOCUMENT_COMPRESSION",
		Description: "binary document compression (none, zstd)",
		Apply: func(c *Config, v string) error {
			c.Document.Compression = strings.ToLower(v)
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_DB_PATH",
		Description: "document database path",
		Apply: func(c *Config, v string) error {
			c.Database.Path = v
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_LOG_LEVEL",
		Description: "log level (debug, info, warn, error)",
		Apply: func(c *Config, v string) error {
			c.Log.Level = ParseLogLevel(strings.ToLower(v))
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_LOG_FORMAT",
		Description: "log format (text, json)",
		Apply: func(c *Config, v string) error {
			c.Log.Format = ParseLogFormat(strings.ToLower(v))
			return nil
		},
	},
	{
		Name:        "NODEGRAPH_WATCH_DEBOUNCE",
		Description: "reload debounce, e.g. 250ms",
		Apply: func(c *Config, v string) error {
			d, err := time.ParseDuration(v)
			if err != nil {
				return err
			}
			c.Watch.Debounce = Duration(d)
			return nil
		},
	},
}

// ApplyEnv applies every override whose variable is set in getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	for _, o := range EnvOverrides {
		v := strings.TrimSpace(getenv(o.Name))
		if v == "" {
			continue
		}
		if err := o.Apply(c, v); err != nil {
			return fmt.Errorf("%s: %w", o.Name, err)
		}
	}
	return nil
}
