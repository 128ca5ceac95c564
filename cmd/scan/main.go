// Command scan runs a single screener pass and prints the report as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"OsloScan/internal/di"
	"OsloScan/internal/domain/models"
	"OsloScan/pkg/config"
	"OsloScan/pkg/util"

	"github.com/joho/godotenv"
)

func main() {
	os.Exit(run())
}

func run() int {
	def := models.DefaultCriteria()
	var (
		configPath  = flag.String("config", "", "optional config file path")
		tickers     = flag.String("tickers", "", "comma-separated tickers, e.g. EQNR,DNB,NHY")
		rsiMin      = flag.Float64("rsi-min", def.RSIMin, "minimum RSI")
		rsiMax      = flag.Float64("rsi-max", def.RSIMax, "maximum RSI")
		volumeSpike = flag.Float64("volume-spike", def.VolumeSpike, "minimum volume spike ratio")
		requestID   = flag.String("request-id", "", "request id (generated when empty)")
		pretty      = flag.Bool("pretty", true, "indent JSON output")
	)
	flag.Parse()

	list := util.SplitList(*tickers)
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "scan: -tickers is required")
		flag.Usage()
		return 2
	}

	_ = godotenv.Load()

	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: config: %v\n", err)
		return 1
	}
	// stdout carries the report
	cfg.Log.Output = "stderr"

	screener, cleanup, err := di.InitializeScreener(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: init: %v\n", err)
		return 1
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	req := &models.ScreenerRequest{
		RequestID: *requestID,
		Tickers:   list,
		Criteria: &models.CriteriaRequest{
			RSIMin:      rsiMin,
			RSIMax:      rsiMax,
			VolumeSpike: volumeSpike,
		},
	}
	report, err := screener.Scan(ctx, "cli", req, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "scan: %v\n", err)
		return 1
	}

	enc := json.NewEncoder(os.Stdout)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(report); err != nil {
		fmt.Fprintf(os.Stderr, "scan: encode: %v\n", err)
		return 1
	}
	return 0
}
