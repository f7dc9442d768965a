// Package commands wires the plancal command line.
package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/config"
	appLog "plancal/internal/log"
)

type rootOptions struct {
	configPath string
	logLevel   string
}

// New returns the root command.
func New() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "plancal",
		Short:         "Calendar planning page with ICS feeds, a local store and an HTTP API.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", config.DefaultPath, "Path to config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (overrides config if set)")

	AddCommands(cmd, opts)
	return cmd
}

func AddCommands(topLevel *cobra.Command, opts *rootOptions) {
	addServe(topLevel, opts)
	addRange(topLevel, opts)
	addQuickAdd(topLevel, opts)
	addAgenda(topLevel, opts)
	addVersion(topLevel)
}

// load reads the configuration and configures logging from it.
func (o *rootOptions) load() (*config.Config, error) {
	path, err := config.ExpandPath(o.configPath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return nil, fmt.Errorf("load config %s: %w", path, err)
		}
		appLog.Warn("config could not be written, running with defaults", "path", path, "err", err)
	}

	level := cfg.Logging.Level
	if o.logLevel != "" {
		level = o.logLevel
	}
	appLog.Configure(appLog.Options{Level: level, Format: cfg.Logging.Format})
	return cfg, nil
}

// parseDay accepts "", "today", "tomorrow", "yesterday" or YYYY-MM-DD in loc.
func parseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	now = now.In(loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	case "yesterday":
		return now.AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}
