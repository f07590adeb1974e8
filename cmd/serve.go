package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/neo/turring_backend/internal/config"
	"github.com/neo/turring_backend/internal/llm"
	"github.com/neo/turring_backend/internal/logging"
	"github.com/neo/turring_backend/internal/logstore"
	"github.com/neo/turring_backend/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the TurringChat server",
	Long: `Start the TurringChat server with configuration from the environment.
Without OPENAI_API_KEY the bot falls back to its built-in replies, which is
enough for local development.`,
	PreRun: func(cmd *cobra.Command, args []string) {
		if _, err := os.Stat(".env"); os.IsNotExist(err) {
			fmt.Println("Warning: .env file not found, relying on the environment")
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		godotenv.Load()

		cfg := config.Load()
		if servePort != 0 {
			cfg.Port = servePort
		}

		level := logging.INFO
		if cfg.AppEnv == "dev" {
			level = logging.DEBUG
		}
		if err := logging.InitDefaultLogger(logging.Config{
			Level:   level,
			Prefix:  "turring",
			Colored: true,
		}); err != nil {
			return fmt.Errorf("failed to initialize logging: %v", err)
		}

		var gen llm.Generator
		if cfg.OpenAIKey != "" {
			openAI, err := llm.NewOpenAI(cfg.OpenAIKey, cfg.LLMModel, cfg.LLMTimeout())
			if err != nil {
				return fmt.Errorf("failed to create language model client: %v", err)
			}
			gen = openAI
		} else {
			logging.Warn("OPENAI_API_KEY not set, bot will use built-in replies")
		}

		store, err := logstore.New(cfg.ConversationDBDir)
		if err != nil {
			return fmt.Errorf("failed to open conversation store: %v", err)
		}
		defer store.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logging.Info("starting server", map[string]interface{}{
			"port": cfg.Port,
			"env":  cfg.AppEnv,
		})
		return server.NewServer(cfg, gen, store).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "override the listen port")
	rootCmd.AddCommand(serveCmd)
}
