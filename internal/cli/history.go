package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/veritas/internal/render"
	"github.com/ppiankov/veritas/internal/store"
)

var historyLimit int

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history [id]",
	Short: "List stored reports, or show one",
	Long: `History reads the report store configured by server.store_path
(or --store). Without an ID it lists the most recent reports.

Example:
  veritas history --store ~/.veritas/history.db
  veritas history 3f2a9c1e-...`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "number of reports to list")
	historyCmd.Flags().String("store", "", "SQLite path for report history")
	_ = viper.BindPFlag("server.store_path", historyCmd.Flags().Lookup("store"))
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Server.StorePath == "" {
		return fmt.Errorf("no report store configured: set server.store_path or pass --store")
	}

	st, err := store.Open(cfg.Server.StorePath)
	if err != nil {
		return err
	}
	defer func() { _ = st.Close() }()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	if len(args) == 1 {
		report, err := st.Get(ctx, args[0])
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("no report with ID %s", args[0])
		}
		if err != nil {
			return err
		}
		render.NewRenderer(false).WriteSummary(out, report)
		return nil
	}

	summaries, err := st.Recent(ctx, historyLimit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(out, "No reports stored yet.")
		return nil
	}
	for _, s := range summaries {
		fmt.Fprintf(out, "%s  %s  %3d/100  %-20s  %d claims\n",
			s.ID, s.CreatedAt.Local().Format(time.DateTime), s.TrustScore, s.Label, s.ClaimCount)
	}
	return nil
}
