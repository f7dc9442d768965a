package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	appLog "plancal/internal/log"
	"plancal/internal/refresh"
	"plancal/internal/web"
)

// serveOptions holds serve flag values.
type serveOptions struct {
	listen string
	once   bool
}

func addServe(topLevel *cobra.Command, root *rootOptions) {
	so := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API with periodic refresh.",
		Example: `
plancal serve
plancal serve --listen :9000
plancal serve --once
`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), root, so)
		},
	}
	cmd.Flags().StringVar(&so.listen, "listen", "", "HTTP listen address (overrides config if set)")
	cmd.Flags().BoolVar(&so.once, "once", false, "Run one refresh cycle and exit")

	topLevel.AddCommand(cmd)
}

func runServe(parent context.Context, root *rootOptions, so *serveOptions) error {
	if parent == nil {
		parent = context.Background()
	}
	cfg, err := root.load()
	if err != nil {
		return err
	}

	// CLI --listen overrides config file listen if provided.
	if so.listen != "" {
		cfg.Listen = so.listen
	}

	appLog.Info("effective config",
		"listen", cfg.Listen,
		"timezone", cfg.Timezone,
		"default_view", cfg.DefaultView,
		"refresh", cfg.RefreshCron,
		"data_dir", cfg.DataDir,
		"ics_count", len(cfg.ICS),
		"once", so.once,
	)

	// Root context with cancellation on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
	}()

	a, err := openApp(ctx, cfg, time.Now().In(cfg.Location()))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		if err := a.Close(closeCtx); err != nil {
			appLog.Error("shutdown incomplete", err)
		}
	}()

	sched, err := refresh.New(cfg.RefreshCron, a.page, cfg.Location())
	if err != nil {
		return err
	}

	if err := sched.RunOnce(ctx); err != nil {
		if so.once {
			return err
		}
		appLog.Warn("initial refresh failed, serving cached events", "err", err)
	}
	if so.once {
		v := a.page.View()
		appLog.Info("refresh complete", "view", v.Kind, "events", len(v.Events), "conflicts", len(v.Conflicts))
		return nil
	}

	sched.Start(ctx)
	defer func() {
		stopCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := sched.Stop(stopCtx); err != nil {
			appLog.Warn("refresh scheduler did not stop in time", "err", err)
		}
	}()

	err = web.NewServer(cfg, a.page).Serve(ctx)
	appLog.Info("plancal exiting")
	return err
}
