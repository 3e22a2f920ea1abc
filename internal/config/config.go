// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"staas-order/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// API contains remote API connection settings
	API APIConfig `json:"api"`

	// Order contains ordering configuration
	Order OrderConfig `json:"order"`

	// History contains local order history configuration
	History HistoryConfig `json:"history"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// APIConfig contains remote API connection settings
type APIConfig struct {
	// Endpoint is the REST API base URL
	Endpoint string `json:"endpoint"`

	// Username is the API username
	Username string `json:"username,omitempty"`

	// APIKey is the API key paired with Username
	APIKey string `json:"api_key,omitempty"`

	// TimeoutSeconds bounds each remote call
	TimeoutSeconds int `json:"timeout_seconds"`
}

// OrderConfig contains ordering-related settings
type OrderConfig struct {
	// PackageType is the product package type key to order from
	PackageType string `json:"package_type"`

	// OSFormatKeyName is the OS format sent with block storage orders
	OSFormatKeyName string `json:"os_format_key_name"`

	// StorageTypeCategories maps a storage type to its price category code.
	// The shipped mapping only matches the internal literal "storage_block";
	// the public value "block" falls through to the default category.
	StorageTypeCategories map[string]string `json:"storage_type_categories"`

	// StorageTypeCategoryDefault is the category for unmapped storage types
	StorageTypeCategoryDefault string `json:"storage_type_category_default"`

	// DefaultRegion is used when no region is given
	DefaultRegion string `json:"default_region,omitempty"`
}

// HistoryConfig contains local order history settings
type HistoryConfig struct {
	// Enabled turns on local receipt recording
	Enabled bool `json:"enabled"`

	// Backend selects the store backend (file, memory)
	Backend string `json:"backend"`

	// Directory is the file backend's base directory
	Directory string `json:"directory"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	historyDir := filepath.Join(homeDir, ".staas-order", "history")

	return &Config{
		Version: "1.0",
		API: APIConfig{
			Endpoint:       "https://api.softlayer.com/rest/v3.1",
			TimeoutSeconds: 120,
		},
		Order: OrderConfig{
			PackageType:     "STORAGE_AS_A_SERVICE",
			OSFormatKeyName: "VMWARE",
			StorageTypeCategories: map[string]string{
				"storage_block": "block",
			},
			StorageTypeCategoryDefault: "storage_file",
		},
		History: HistoryConfig{
			Enabled:   false,
			Backend:   "file",
			Directory: historyDir,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}

	config := Default()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ApplyEnv overlays API credentials from the environment onto the config.
// A .env file in the working directory is read when present; the process
// environment wins over the file, and SL_* names win over SOFTLAYER_*.
// These are the same variables the vendor SDKs read.
func (c *Config) ApplyEnv() {
	fileEnv, err := godotenv.Read()
	if err != nil {
		fileEnv = map[string]string{}
	}

	if v := envValue(fileEnv, "SL_USERNAME", "SOFTLAYER_USERNAME"); v != "" {
		c.API.Username = v
	}
	if v := envValue(fileEnv, "SL_API_KEY", "SOFTLAYER_API_KEY"); v != "" {
		c.API.APIKey = v
	}
	if v := envValue(fileEnv, "SL_ENDPOINT", "SOFTLAYER_ENDPOINT"); v != "" {
		c.API.Endpoint = v
	}
}

func envValue(fileEnv map[string]string, names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
		if v, ok := fileEnv[name]; ok && v != "" {
			return v
		}
	}
	return ""
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
