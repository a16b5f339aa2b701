package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ppiankov/veritas/internal/client"
	"github.com/ppiankov/veritas/internal/health"
	"github.com/ppiankov/veritas/internal/util"
)

var healthWatch bool

// healthCmd represents the health command
var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check whether a Veritas service is reachable",
	Long: `Health probes GET /verify on the service. Any HTTP answer, including
405 Method Not Allowed, counts as reachable.

Example:
  veritas health
  veritas health --url http://localhost:8000 --watch --interval 10s`,
	RunE: runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)

	healthCmd.Flags().String("url", "", "service URL (default from health.url)")
	healthCmd.Flags().Duration("interval", 0, "probe interval for --watch")
	healthCmd.Flags().Duration("timeout", 0, "per-probe timeout")
	healthCmd.Flags().BoolVarP(&healthWatch, "watch", "w", false, "keep probing until interrupted")
	_ = viper.BindPFlag("health.url", healthCmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("health.interval", healthCmd.Flags().Lookup("interval"))
	_ = viper.BindPFlag("health.timeout", healthCmd.Flags().Lookup("timeout"))
}

func runHealth(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := newLogger(cfg)

	httpClient := util.NewHTTPClient(0, cfg.HTTP.HTTPProxy, cfg.HTTP.HTTPSProxy, cfg.HTTP.NoProxy)
	c := client.New(cfg.Health.URL, httpClient)

	printStatus := func(s health.Status) {
		state := "● ONLINE"
		if !s.Reachable {
			state = "○ OFFLINE"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %s  %dms\n", s.CheckedAt.Local().Format(time.TimeOnly), state, c.VerifyURL(), s.LatencyMillis)
	}

	monitor := health.NewMonitor(c, cfg.Health.Interval, cfg.Health.Timeout, printStatus, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if healthWatch {
		monitor.Run(ctx)
		return nil
	}

	if status := monitor.Check(ctx); !status.Reachable {
		return fmt.Errorf("service unreachable: %s", status.Error)
	}
	return nil
}
