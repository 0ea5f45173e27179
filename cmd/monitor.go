package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"jupiter-swap/config"
	"jupiter-swap/pkg/jupiter"
	"jupiter-swap/pkg/market"
	"jupiter-swap/pkg/observability"
)

var (
	monitorInterval  time.Duration
	monitorRetention time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Run the market price sampler",
	Long: `Periodically sample the SOL/USDC price from the Jupiter aggregator,
keeping a rolling in-memory window of observations. With a metrics address
configured, sampler and engine metrics are exposed over HTTP.

Examples:
  jupiter-swap monitor
  jupiter-swap monitor --interval 10s --retention 30m
  JUPITER_SWAP_METRICS_ADDR=:9102 jupiter-swap monitor`,
	Run: runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)

	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "Sampling interval (default from config)")
	monitorCmd.Flags().DurationVar(&monitorRetention, "retention", 0, "Sample retention window (default from config)")
}

func runMonitor(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	configureLogging(cfg.LogLevel, verbose)

	interval := cfg.SampleInterval
	if monitorInterval > 0 {
		interval = monitorInterval
	}
	retention := cfg.SampleRetention
	if monitorRetention > 0 {
		retention = monitorRetention
	}

	metrics, registry := observability.Default()
	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler(registry))
			log.WithField("addr", cfg.MetricsAddr).Info("serving metrics")
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); err != nil {
				log.WithError(err).Error("metrics server stopped")
			}
		}()
	}

	sampler := market.NewSampler(
		jupiter.NewClient(cfg.JupiterAPIURL),
		market.DefaultPair(),
		interval,
		retention,
		metrics,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sampler.Start(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}

	color.Green("Market sampler running (interval %s, retention %s). Ctrl-C to stop.\n", interval, retention)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	sampler.Stop()

	if latest, ok := sampler.Latest(); ok {
		fmt.Printf("\nLast observed price: %s (impact %s%%), %d samples retained\n",
			latest.Price, latest.PriceImpactPct, len(sampler.History()))
	}
}
