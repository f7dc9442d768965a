package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/engine"
)

func addQuickAdd(topLevel *cobra.Command, root *rootOptions) {
	date := ""

	cmd := &cobra.Command{
		Use:   "quick-add <text>",
		Short: "Add an event from a one-line description.",
		Long: "Add an event from a one-line description such as \"Team sync tomorrow 2pm-3pm #eng\".\n" +
			"Times and today/tomorrow are relative to --date. A #hint selects calendar.<hint>.",
		Example: `
plancal quick-add Dentist 3pm-4pm
plancal quick-add --date 2026-10-20 "Team sync 14:00-15:00 #eng"
`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			day, err := parseDay(date, time.Now(), cfg.Location())
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

			a.page.SetView(engine.ViewDay, day)
			ev, err := a.page.QuickAdd(strings.Join(args, " "))
			if err != nil {
				return err
			}

			loc := cfg.Location()
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "added %q %s %s-%s [%s] %s\n",
				ev.Title,
				ev.Start.In(loc).Format("Mon Jan 2"),
				ev.Start.In(loc).Format("15:04"),
				ev.End.In(loc).Format("15:04"),
				ev.CalendarID,
				ev.ID,
			)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "Day the text is relative to (YYYY-MM-DD, today, tomorrow)")

	topLevel.AddCommand(cmd)
}
