// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

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

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/pubmed-assistant/internal/accounts"
	"github.com/pdiddy/pubmed-assistant/internal/assistant"
	"github.com/pdiddy/pubmed-assistant/internal/prefs"
	"github.com/pdiddy/pubmed-assistant/internal/pubmed"
	"github.com/pdiddy/pubmed-assistant/internal/router"
	"github.com/pdiddy/pubmed-assistant/internal/session"
	"github.com/pdiddy/pubmed-assistant/internal/web"
	"github.com/pdiddy/pubmed-assistant/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "pubmed-assistant/0.1"
	defaultModel     = "claude-sonnet-4-5-20250929"
	defaultPageSize  = 10
	sessionMaxIdle   = 12 * time.Hour
	sweepInterval    = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the web frontend",
	Long: `Serve starts the HTTP frontend: login and registration, the PubMed search
page, the assistant chat, preferences, and the dashboard. Configuration comes
from flags, the config file, and PUBMED_ASSISTANT_* environment variables;
API keys fall back to .secrets/ files.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default :8080)")
	serveCmd.Flags().Int("page-size", 0, "results per page (default 10)")

	rootCmd.AddCommand(serveCmd)
}

func serveConfig(cmd *cobra.Command) types.AppConfig {
	cfg := types.AppConfig{
		Server: types.ServerConfig{Addr: viper.GetString("server.addr")},
		PubMed: types.PubMedConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("pubmed.timeout"),
				UserAgent: defaultUserAgent,
			},
			Tool:     viper.GetString("pubmed.tool"),
			Email:    viper.GetString("pubmed.email"),
			APIKey:   secretDefault("ncbi-api-key", viper.GetString("pubmed.api_key")),
			PageSize: viper.GetInt("pubmed.page_size"),
		},
		AI: types.AIConfig{
			Model:      viper.GetString("ai.model"),
			APIKey:     secretDefault("anthropic-api-key", viper.GetString("ai.api_key")),
			MaxRetries: viper.GetInt("ai.max_retries"),
		},
		Mail: types.MailConfig{
			Host:     viper.GetString("mail.host"),
			Port:     viper.GetInt("mail.port"),
			From:     viper.GetString("mail.from"),
			Password: secretDefault("smtp-password", viper.GetString("mail.password")),
		},
		Store: types.StoreConfig{
			DatabasePath:   viper.GetString("store.database_path"),
			PreferencesDir: viper.GetString("store.preferences_dir"),
		},
	}

	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8080"
	}
	if pageSize, _ := cmd.Flags().GetInt("page-size"); pageSize > 0 {
		cfg.PubMed.PageSize = pageSize
	}
	if cfg.PubMed.PageSize <= 0 {
		cfg.PubMed.PageSize = defaultPageSize
	}
	if cfg.PubMed.Timeout == 0 {
		cfg.PubMed.Timeout = defaultTimeout
	}
	if cfg.PubMed.Tool == "" {
		cfg.PubMed.Tool = "pubmed-assistant"
	}
	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModel
	}
	if cfg.Mail.Host == "" {
		cfg.Mail.Host = "smtp.gmail.com"
	}
	if cfg.Mail.Port == 0 {
		cfg.Mail.Port = 587
	}
	if cfg.Store.DatabasePath == "" {
		cfg.Store.DatabasePath = "users.db"
	}
	if cfg.Store.PreferencesDir == "" {
		cfg.Store.PreferencesDir = "user_preferences"
	}
	return cfg
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := serveConfig(cmd)
	log := zerolog.New(os.Stderr).With().Timestamp().Logger()

	accountStore, err := accounts.NewStore(cfg.Store.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening account store: %w", err)
	}
	defer accountStore.Close()

	prefStore, err := prefs.NewStore(cfg.Store.PreferencesDir)
	if err != nil {
		return fmt.Errorf("opening preference store: %w", err)
	}

	searchClient := &pubmed.Client{
		Client: &http.Client{Timeout: cfg.PubMed.Timeout},
		Cfg:    cfg.PubMed,
	}

	ai := &assistant.Assistant{
		Backend: &assistant.ClaudeBackend{
			APIKey:     cfg.AI.APIKey,
			Model:      cfg.AI.Model,
			Client:     &http.Client{Timeout: cfg.PubMed.Timeout},
			MaxRetries: cfg.AI.MaxRetries,
		},
	}
	if cfg.AI.APIKey == "" {
		log.Warn().Msg("no Claude API key configured; analysis features will degrade")
	}

	sessions := session.NewRegistry()
	chatRouter := &router.Router{
		Search:   searchClient,
		AI:       ai,
		Prefs:    prefStore,
		PageSize: cfg.PubMed.PageSize,
	}

	srv, err := web.NewServer(log, web.Deps{
		Sessions: sessions,
		Accounts: accountStore,
		Mailer:   &accounts.SMTPMailer{Cfg: cfg.Mail},
		Prefs:    prefStore,
		Search:   searchClient,
		Detector: ai,
		Router:   chatRouter,
		PageSize: cfg.PubMed.PageSize,
	})
	if err != nil {
		return fmt.Errorf("building server: %w", err)
	}

	httpServer := &http.Server{
		Addr:    cfg.Server.Addr,
		Handler: srv,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n := sessions.Sweep(sessionMaxIdle); n > 0 {
					log.Info().Int("dropped", n).Msg("swept idle sessions")
				}
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
	}
	return nil
}
