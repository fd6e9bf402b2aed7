package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"

	"github.com/retail-assistant/server/internal/agent/model"
	"github.com/retail-assistant/server/internal/core"
	"github.com/retail-assistant/server/internal/seed"
	"github.com/retail-assistant/server/internal/server"
	"github.com/retail-assistant/server/internal/speech"
	logx "github.com/retail-assistant/server/pkg/logger"
	pkgqdrant "github.com/retail-assistant/server/pkg/qdrant"
	pkgredis "github.com/retail-assistant/server/pkg/redis"
	"github.com/retail-assistant/server/pkg/sqlite"
)

// AppConfig defines all configurable parameters of the service, sourced from
// environment variables (loaded from .env for local runs).
type AppConfig struct {
	Environment string `envconfig:"APP_ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Infrastructure
	Redis  pkgredis.Config
	DB     sqlite.Config
	Qdrant pkgqdrant.Config

	// Interaction sink
	InteractionsKey string `envconfig:"INTERACTIONS_KEY" default:"interactions"`
	MaxInteractions int    `envconfig:"MAX_INTERACTIONS" default:"1000"`

	Agent     model.AgentConfig
	ChatModel model.ChatModelConfig
	RAG       model.RAGConfig
	Seed      seed.Config
	Speech    speech.Config
	Server    server.Config
}

func loadConfig() (AppConfig, error) {
	if err := godotenv.Load(".env"); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: could not load .env file: %v\n", err)
	}

	var cfg AppConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("process environment config: %w", err)
	}

	logx.Init(logx.Options{
		Environment: core.ParseEnvironment(cfg.Environment),
		Level:       cfg.LogLevel,
	})
	return cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           "retail-assistant",
		Short:         "Retail customer-support assistant",
		Long:          `retail-assistant answers questions about orders, products and the return policy.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(setupDBCmd())
	rootCmd.AddCommand(setupRAGCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logx.Error().Err(err).Msg("Command failed")
		stop()
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}
}

func setupDBCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-db",
		Short: "Create the sqlite schema and load the CSV catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSetupDB(cmd.Context(), cfg)
		},
	}
}

func setupRAGCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-rag",
		Short: "Rebuild the return policy retrieval index",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return runSetupRAG(cmd.Context(), cfg)
		},
	}
}
