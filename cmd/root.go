package cmd

import (
	"fmt"
	"os"

	"event-registration/internal/config"
	"event-registration/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "registration-service",
	Short: "Event registration admission service",
	Long: `The admission-control service of the event registration platform.
It decides, under concurrent requests, whether a user may claim one of a
finite number of seats for an event, issues a unique ticket, and keeps
aggregate counts consistent with that decision.

Example usage:
  registration-service server --port 3004   # Start the HTTP server
  registration-service migrate up           # Apply database migrations
  registration-service loadtest             # Run a concurrent admission load test`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		if err := logger.InitWithConfig(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output, cfg.Log.FilePath); err != nil {
			logger.Init(verbose)
			logger.Warn("Failed to initialize logger with config, using fallback: %v", err)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./configs/registration-service.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.SetConfigType("yaml")
		viper.SetConfigName("registration-service")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	config.Init()
}
