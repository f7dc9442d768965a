package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"plancal/internal/engine"
)

func addRange(topLevel *cobra.Command, root *rootOptions) {
	cmd := &cobra.Command{
		Use:   "range <view> [date]",
		Short: "Print the time window a view covers.",
		Example: `
plancal range week
plancal range quarter 2026-11-03
`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := engine.ParseViewKind(args[0])
			if err != nil {
				return err
			}
			cfg, err := root.load()
			if err != nil {
				return err
			}
			day := ""
			if len(args) > 1 {
				day = args[1]
			}
			pivot, err := parseDay(day, time.Now(), cfg.Location())
			if err != nil {
				return err
			}

			r := engine.ResolveRange(kind, pivot)
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", kind, r.From.Format(time.RFC3339), r.To.Format(time.RFC3339))
			return err
		},
	}
	topLevel.AddCommand(cmd)
}
