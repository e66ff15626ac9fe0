// Package cmd implements the command-line interface for goread.
// It provides the root command and subcommands for running the content
// ingestion pipeline and browsing its output.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jonesrussell/goread/cmd/articles"
	"github.com/jonesrussell/goread/cmd/httpd"
	"github.com/jonesrussell/goread/cmd/refresh"
	"github.com/jonesrussell/goread/internal/config"
)

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// Debug enables debug mode for all commands
	Debug bool

	// rootCmd represents the root command for the goread CLI.
	rootCmd = &cobra.Command{
		Use:   "goread",
		Short: "A news article reader service",
		Long: `goread refreshes configured news listing pages on a schedule, extracts
readable article content with localized images, and serves the stored
articles over HTTP.

Run without arguments it starts the daemon, same as "goread httpd".`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return httpd.Start()
		},
	}
)

// Execute runs the root command
func Execute() error {
	// Load .env file early so environment variables are available
	_ = godotenv.Load()

	// Parse flags early to get the config path before Viper reads it
	_ = rootCmd.ParseFlags(os.Args[1:])

	// Initialize configuration
	if err := initConfig(); err != nil {
		return fmt.Errorf("failed to initialize configuration: %w", err)
	}

	// Execute the root command with a fresh context
	return rootCmd.ExecuteContext(context.Background())
}

// init initializes the root command and its subcommands.
func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		"",
		"config file (default is ./config.yml or ./config/config.yml)",
	)
	rootCmd.PersistentFlags().BoolVar(&Debug, "debug", false, "enable debug mode")

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("goread version %s\n", "1.0.0") // TODO: Get from build info
		},
	})

	// Add subcommands
	rootCmd.AddCommand(httpd.Command())
	rootCmd.AddCommand(refresh.Command())
	rootCmd.AddCommand(articles.Command())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() error {
	// An explicit config file takes precedence over the default search
	// paths Viper is given in config.InitializeViper.
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	// Bind the debug flag before initialization so the derived logger
	// level sees it.
	if err := viper.BindPFlag("app.debug", rootCmd.PersistentFlags().Lookup("debug")); err != nil {
		return fmt.Errorf("failed to bind debug flag: %w", err)
	}

	if err := config.InitializeViper(); err != nil {
		return err
	}

	// Synchronize the global Debug variable with Viper's value
	Debug = viper.GetBool("app.debug")

	return nil
}
