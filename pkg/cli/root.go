// pkg/cli/root.go
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bstardust/exif-analyzer/internal/config"
	"github.com/bstardust/exif-analyzer/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interruption signals
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signalCh
		logger.Info("Received interrupt signal, finishing files in progress...")
		cancel()
	}()

	rootCmd := newRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("Error executing command: %v", err)
		logger.Flush()
		os.Exit(1)
	}
	logger.Flush()
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	var configFile string

	rootCmd := &cobra.Command{
		Use:   "exif-analyzer",
		Short: "Extract capture metadata from photo collections",
		Long: `Scans directories for images, extracts capture date, camera and GPS position
from their EXIF data, and writes CSV, HTML or JSON reports.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger.Init()
			if configFile != "" {
				v.SetConfigFile(configFile)
			}
			return nil
		},
	}

	// Global flags
	rootCmd.PersistentFlags().String("log-level", config.New().LogLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a YAML, JSON or TOML config file")
	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	// Add commands
	rootCmd.AddCommand(newAnalyzeCommand(v))
	rootCmd.AddCommand(newWatchCommand(v))
	rootCmd.AddCommand(newThumbnailCommand())

	return rootCmd
}

// loadConfig resolves the configuration for a command run and applies the
// log level.
func loadConfig(cmd *cobra.Command, v *viper.Viper, root string) (*config.Config, error) {
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return nil, err
	}

	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if root != "" {
		cfg.Scan.Root = root
	}

	logger.SetLevel(cfg.LogLevel)
	return cfg, nil
}
