// Package cli implements the service command line interface.
package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/extlabs/ext/pkg/config"
	"github.com/extlabs/ext/pkg/observability/logger"
	"github.com/extlabs/ext/pkg/server"
	"github.com/extlabs/ext/pkg/version"
)

// ExitCodeConfig is the process exit code for configuration errors,
// following the sysexits EX_CONFIG convention.
const ExitCodeConfig = 78

// DefaultConfigPath is where the service looks for its manifest unless
// overridden with --config.
const DefaultConfigPath = "config/production.yaml"

// NewRootCommand creates the root command with serve, config and version
// subcommands.
func NewRootCommand() *cobra.Command {
	var cfgPath string
	var strict bool

	rootCmd := &cobra.Command{
		Use:          "ext",
		Short:        "ext service",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", DefaultConfigPath, "config manifest path")
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "treat malformed interpolation expressions as fatal")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, err := config.Load(cfgPath, strict)
			if err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			for _, warning := range resolved.Warnings() {
				log.Warn("environment variable not set",
					"key", warning.Key,
					"variable", warning.Variable,
				)
			}

			log.Info("starting service", "version", version.Current(rootCmd.Use).String())

			app, err := server.Bootstrap(cfg, log)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return app.Run(ctx)
		},
	}
	rootCmd.AddCommand(serveCmd)
	rootCmd.RunE = serveCmd.RunE

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management commands",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Validate configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, resolved, err := config.Load(cfgPath, strict)
			if err != nil {
				return err
			}
			for _, warning := range resolved.Warnings() {
				fmt.Fprintf(cmd.OutOrStdout(), "warning: %s\n", warning.String())
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	})

	var showSecrets bool
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := config.Load(cfgPath, strict)
			if err != nil {
				return err
			}
			if showSecrets {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.String())
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), cfg.Redacted())
			}
			return nil
		},
	}
	showCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "show secret values")
	configCmd.AddCommand(showCmd)

	rootCmd.AddCommand(configCmd)

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Current(rootCmd.Use)
			fmt.Fprintf(cmd.OutOrStdout(), "Service:    %s\n", info.Service)
			fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", info.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "Commit:     %s\n", info.Commit)
			fmt.Fprintf(cmd.OutOrStdout(), "Build Time: %s\n", info.BuildTime)
		},
	})

	return rootCmd
}

// Execute runs the command and exits with an appropriate code.
// Configuration errors exit with ExitCodeConfig so operators and init
// systems can tell a bad manifest from a runtime failure.
func Execute(cmd *cobra.Command) {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		var cfgErr *config.ConfigurationError
		if errors.As(err, &cfgErr) {
			os.Exit(ExitCodeConfig)
		}
		os.Exit(1)
	}
}

func newLogger(cfg *config.Config) (*logger.ZapLogger, error) {
	return logger.NewZapLogger(logger.Config{
		Level:  logger.LogLevel(cfg.Logging.Level),
		Format: logger.LogFormat(cfg.Logging.Format),
		File:   cfg.Logging.File,
	})
}
