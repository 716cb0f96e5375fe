package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"jan-chat/internal/infrastructure/logger"
	"jan-chat/internal/interfaces/apiclient"
)

var version = "1.0.0"

// cliConfig is read from the environment; flags override it.
type cliConfig struct {
	APIURL   string        `env:"JAN_CHAT_API_URL" envDefault:"http://localhost:8080"`
	Token    string        `env:"JAN_CHAT_TOKEN"`
	Model    string        `env:"JAN_CHAT_MODEL"`
	Timeout  time.Duration `env:"JAN_CHAT_TIMEOUT" envDefault:"2m"`
	LogFile  string        `env:"JAN_CHAT_LOG_FILE"`
	LogLevel string        `env:"JAN_CHAT_LOG_LEVEL" envDefault:"info"`
}

var cfg cliConfig

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jan-chat",
	Short: "Terminal client for the Jan chat API",
	Long: `jan-chat talks to a running chat API: interactive chat sessions,
conversation management and the model catalog.

Examples:
  jan-chat chat
  jan-chat chat --conversation 6f1c... --stream
  jan-chat conversations list
  jan-chat models`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	if _, err := os.Stat(".env"); err == nil {
		_ = godotenv.Load(".env")
	}
	if err := env.Parse(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "warning: invalid environment: %v\n", err)
	}

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(conversationsCmd)
	rootCmd.AddCommand(modelsCmd)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.APIURL, "api-url", cfg.APIURL, "Chat API base URL")
	flags.StringVar(&cfg.Token, "token", cfg.Token, "Bearer token for the chat API")
	flags.StringVar(&cfg.Model, "model", cfg.Model, "Model id sent with chat requests")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "Request timeout")
	flags.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Log file (default ~/.jan-chat/jan-chat.log)")
}

func newClient() *apiclient.Client {
	return apiclient.New(cfg.APIURL, cfg.Token, cfg.Model, cfg.Timeout)
}

// newLogger writes to a rotated file so log lines never interleave with the chat.
func newLogger() zerolog.Logger {
	path := cfg.LogFile
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return zerolog.Nop()
		}
		path = filepath.Join(home, ".jan-chat", "jan-chat.log")
	}
	log, err := logger.NewFile(cfg.LogLevel, "json", path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: logging disabled: %v\n", err)
		return zerolog.Nop()
	}
	return log
}
