// Package cmd provides the CLI commands for staas-order.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"staas-order/adapters/history"
	"staas-order/core/order"
	"staas-order/core/selection"
	"staas-order/internal/config"
	"staas-order/internal/logging"
	"staas-order/slapi"
)

var (
	cfgFile string
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "staas-order",
	Short: "Order cloud file and block storage volumes",
	Long: `staas-order places storage-as-a-service volume orders.

It fetches the vendor's product catalog, selects the price entries for the
requested size and performance level, and submits the assembled order.

Examples:
  staas-order order --size 100 --storage-type file --performance-type tier --performance-value 200 --region DALLAS09
  staas-order order --file volumes.hcl --dry-run
  staas-order catalog --category performance_storage_iops
  staas-order history list`,
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.staas-order.json)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")

	// Add subcommands
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(catalogCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	path := cfgFile
	if path == "" {
		path = defaultConfigPath()
	}

	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	cfg.ApplyEnv()
	config.Set(cfg)

	// Initialize logging
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
	}
}

func defaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".staas-order.json"
	}
	return filepath.Join(homeDir, ".staas-order.json")
}

// newSession wires a remote client and ordering session from the active
// configuration.
func newSession() (*order.Session, error) {
	cfg := config.Get()
	if cfg.API.Username == "" || cfg.API.APIKey == "" {
		return nil, fmt.Errorf("API credentials are not configured; set SL_USERNAME and SL_API_KEY or add them to the config file")
	}

	client := slapi.NewClient(&slapi.Config{
		Endpoint: cfg.API.Endpoint,
		Username: cfg.API.Username,
		APIKey:   cfg.API.APIKey,
		Timeout:  time.Duration(cfg.API.TimeoutSeconds) * time.Second,
	})

	return order.NewSession(client, order.Options{
		PackageType:     cfg.Order.PackageType,
		OSFormatKeyName: cfg.Order.OSFormatKeyName,
		Mapping: selection.TypeCategoryMapping{
			Categories: cfg.Order.StorageTypeCategories,
			Default:    cfg.Order.StorageTypeCategoryDefault,
		},
	}), nil
}

// openHistory opens the configured history store, or nil when history is
// disabled.
func openHistory() (history.Store, error) {
	cfg := config.Get()
	if !cfg.History.Enabled {
		return nil, nil
	}
	return history.NewStore(history.Backend(cfg.History.Backend), cfg.History.Directory)
}

// versionCmd prints version information
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("staas-order version 0.1.0")
	},
}
