// Command server serves generated activity reports over HTTP.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/kentaro0919/github-activity-report/internal/api"
	"github.com/kentaro0919/github-activity-report/internal/config"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML config file")
	port := flag.Int("port", 0, "listen port (overrides config)")
	reportsDir := flag.String("dir", "", "reports directory (overrides config)")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *reportsDir != "" {
		cfg.Output.Directory = *reportsDir
	}

	gin.SetMode(gin.ReleaseMode)
	handler := api.NewHandler(cfg.Output.Directory, logger)
	router := api.SetupRouter(handler, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting report server",
		zap.String("addr", addr),
		zap.String("reports_dir", cfg.Output.Directory))
	if err := router.Run(addr); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
