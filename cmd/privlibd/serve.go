package main

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"privlib/internal/api"
	"privlib/internal/ratelimit"
)

var (
	serveAddr   string
	serveWallet string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the library over HTTP",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides server.addr)")
	serveCmd.Flags().StringVar(&serveWallet, "wallet", "", "Connect this wallet address at startup")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Close()
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveWallet != "" {
		if err := a.connect(ctx, serveWallet); err != nil {
			log.Warn("startup wallet connection", zap.Error(err))
		}
	}

	srv := api.New(api.Deps{
		Controller: a.ctrl,
		Wallet:     a.wallet,
		Limiter:    ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
		Health:     a.health,
		Metrics:    a.metrics,
		Gatherer:   a.registry,
		Logger:     log,
	})
	return srv.Run(ctx, cfg.Server.Addr, 10*time.Second)
}
