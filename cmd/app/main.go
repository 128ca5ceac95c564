package main

import (
	"flag"
	"fmt"
	"os"
	_ "time/tzdata"

	"OsloScan/internal/di"
	"OsloScan/pkg/config"

	"github.com/joho/godotenv"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the YAML config; missing file means defaults plus env")
	flag.Parse()
	os.Exit(run(*configPath))
}

func run(configPath string) int {
	// .env is optional
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "dotenv: %v\n", err)
	}

	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		return 2
	}

	app, cleanup, err := di.InitializeApp(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		return 1
	}
	defer cleanup()

	if err := app.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "osloscan: %v\n", err)
		return 1
	}
	return 0
}
