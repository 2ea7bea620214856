package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// OverwriteFiles controls whether existing report files should be overwritten
	OverwriteFiles bool
	// UpdateImages forces re-downloading card images even when cached locally
	UpdateImages bool
	// ManaPoolEmail is the seller account email for the ManaPool API
	ManaPoolEmail string
	// ManaPoolToken is the access token for the ManaPool API
	ManaPoolToken string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("output.csvdir", "./data/csv/")
	viper.SetDefault("output.htmldir", "./data/html/")
	viper.SetDefault("output.exportdir", "./data/export/")
	viper.SetDefault("OverwriteFiles", false)

	// Get values from viper
	OverwriteFiles = viper.GetBool("OverwriteFiles")
	ManaPoolEmail = viper.GetString("manapool.email")
	ManaPoolToken = viper.GetString("manapool.access_token")
}

// SetOverwriteFiles sets the OverwriteFiles flag
func SetOverwriteFiles(overwrite bool) {
	OverwriteFiles = overwrite
}

// SetUpdateImages sets the UpdateImages flag
func SetUpdateImages(update bool) {
	UpdateImages = update
}
