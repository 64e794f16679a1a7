package main

import (
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/gogpu/gg"
	"github.com/spf13/cobra"

	"whiteboard-backend/internal/client"
)

const defaultAPI = "http://localhost:8080/api"

var (
	apiURL     string
	apiTimeout time.Duration
)

func main() {
	// 래스터 백엔드 로그는 경고 이상만
	gg.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	if err := newRootCmd().Execute(); err != nil {
		color.Red(err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "wbtool",
		Short:         "Whiteboard scene and storage tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	def := defaultAPI
	if v := os.Getenv("WHITEBOARD_API"); v != "" {
		def = v
	}
	rootCmd.PersistentFlags().StringVar(&apiURL, "api", def, "whiteboard API base url")
	rootCmd.PersistentFlags().DurationVar(&apiTimeout, "timeout", client.DefaultTimeout, "API request timeout")

	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(inspectCmd())
	rootCmd.AddCommand(normalizeCmd())
	rootCmd.AddCommand(listCmd())
	rootCmd.AddCommand(getCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(dbCmd())
	return rootCmd
}

func newClient() (*client.Client, error) {
	return client.New(apiURL, client.WithTimeout(apiTimeout))
}
