package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/engine"
	appLog "plancal/internal/log"
	"plancal/internal/printers"
)

type agendaOptions struct {
	date      string
	query     string
	calendars []string
	noRefresh bool
	showID    bool
}

func addAgenda(topLevel *cobra.Command, root *rootOptions) {
	ao := &agendaOptions{}

	cmd := &cobra.Command{
		Use:   "agenda [view]",
		Short: "Print the events of a view, flagging conflicts.",
		Example: `
plancal agenda
plancal agenda day --date tomorrow
plancal agenda month --query "@alice tag:release"
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			kind, err := engine.ParseViewKind(cfg.DefaultView)
			if err != nil {
				kind = engine.ViewWeek
			}
			if len(args) == 1 {
				if kind, err = engine.ParseViewKind(args[0]); err != nil {
					return err
				}
			}
			day, err := parseDay(ao.date, time.Now(), cfg.Location())
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context(), cfg, day)
			if err != nil {
				return err
			}
			defer func() {
				ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
				defer done()
				_ = a.Close(ctx)
			}()

			a.page.SetView(kind, day)
			if len(ao.calendars) > 0 {
				a.page.SetCalendars(ao.calendars)
			}
			if !ao.noRefresh {
				if err := a.page.Refresh(cmd.Context()); err != nil {
					appLog.Warn("refresh failed, showing cached events", "err", err)
				}
			}
			a.page.SetQuery(ao.query)

			p := &printers.Agenda{Out: cmd.OutOrStdout(), ShowID: ao.showID}
			p.Print(a.page.View())
			return nil
		},
	}
	cmd.Flags().StringVar(&ao.date, "date", "", "Pivot day (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().StringVarP(&ao.query, "query", "q", "", "Search: words, @user, #project, tag:label")
	cmd.Flags().StringSliceVar(&ao.calendars, "calendar", nil, "Only these calendar ids")
	cmd.Flags().BoolVar(&ao.noRefresh, "no-refresh", false, "Use the cached events only")
	cmd.Flags().BoolVar(&ao.showID, "id", false, "Show event ids")

	topLevel.AddCommand(cmd)
}
