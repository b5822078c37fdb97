package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"taxi-bot/internal/config"
	"taxi-bot/internal/ledger"
	"taxi-bot/internal/logger"
	"taxi-bot/internal/server"
	"taxi-bot/internal/tgbot"
)

func main() {
	_ = godotenv.Load()

	if err := rootCmd().Execute(); err != nil {
		log := logger.New("cli")
		log.Error().Err(err).Msg("exit")
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "taxi-bot",
		Short:         "Telegram dispatch ledger for pooled taxi rides",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
	root.AddCommand(serveCmd(), sheetCmd(), managersCmd())
	return root
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Telegram bot and the HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serve(cmd.Context())
		},
	}
}

func sheetCmd() *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Print a day's vehicle manifests as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			w, err := wire(cmd.Context(), cfg, logger.New("cli"))
			if err != nil {
				return err
			}
			defer w.close()

			if day == "" {
				day = w.svc.Today()
			}
			if !ledger.ValidDay(day) {
				return fmt.Errorf("--day must be YYYY-MM-DD, got %q", day)
			}
			sheet, err := w.svc.Sheet(cmd.Context(), day)
			if err != nil {
				return err
			}
			data, err := sheet.CSV()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
	cmd.Flags().StringVar(&day, "day", "", "day as YYYY-MM-DD (default: current operational day)")
	return cmd
}

func managersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "managers",
		Short: "List enrolled managers",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}
			w, err := wire(cmd.Context(), cfg, logger.New("cli"))
			if err != nil {
				return err
			}
			defer w.close()

			ids, err := w.auth.Managers(cmd.Context())
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no managers: the first /addMan enrolls its sender")
				return nil
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func serve(parent context.Context) error {
	log := logger.New("bot")

	cfg, err := config.FromEnv()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.RequireTelegram(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	w, err := wire(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer w.close()

	botApp, err := tgbot.New(cfg, w.svc, w.sheets, logger.New("telegram"))
	if err != nil {
		return fmt.Errorf("telegram: %w", err)
	}

	httpSrv := server.New(cfg, w.svc, w.registry, logger.New("http"))

	// Start HTTP server
	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("http server")
			cancel()
		}
	}()

	// Start Telegram
	go func() {
		if err := botApp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("bot stopped")
			cancel()
		}
	}()

	// Graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sig:
	case <-ctx.Done():
	}
	log.Info().Msg("shutting down...")

	cancel()
	ctxTimeout, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel2()
	_ = httpSrv.Shutdown(ctxTimeout)

	log.Info().Msg("bye")
	return nil
}
