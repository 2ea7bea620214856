// Package cmd wires the pickwick CLI together: command tree, logging,
// configuration bootstrap.
package cmd

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/cardshed/pickwick/cmd/fulfill"
	"github.com/cardshed/pickwick/cmd/locations"
	"github.com/cardshed/pickwick/cmd/orders"
	"github.com/cardshed/pickwick/cmd/picklist"
	"github.com/cardshed/pickwick/internal/cache"
	"github.com/cardshed/pickwick/internal/config"
)

// CLI represents the complete command structure for the pickwick application
type CLI struct {
	// Global flags
	Overwrite    bool `help:"Overwrite existing report files"`
	UpdateImages bool `help:"Re-download card images even if they are already cached"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g. 720h for 30 days)" default:"720h"`

	Orders    orders.Cmd    `cmd:"" help:"Fetch seller orders from ManaPool and write pick reports"`
	Picklist  picklist.Cmd  `cmd:"" help:"Build pick reports from a local picklist or ShipStation export CSV"`
	Fulfill   fulfill.Cmd   `cmd:"" help:"List open orders and bulk-advance their fulfillment status"`
	Locations locations.Cmd `cmd:"" help:"Manage the set to storage-location mapping"`
	Cache     CacheCmd      `cmd:"" help:"Manage the card metadata cache"`
}

// CacheCmd represents the cache command and its subcommands
type CacheCmd struct {
	Invalidate cache.InvalidateCacheCmd `cmd:"" help:"Clear cached card metadata"`
}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("pickwick"),
		kong.Description("Order enrichment and pick-sheet reporting for trading-card sellers."),
		kong.UsageOnError(),
	)

	// Update global config based on parsed flags
	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func setDefaults() {
	// ManaPool seller API credentials
	viper.SetDefault("manapool.email", "")
	viper.SetDefault("manapool.access_token", "")

	// ShipStation automation credentials
	viper.SetDefault("shipstation.email", "")
	viper.SetDefault("shipstation.password", "")

	// Location mapping
	viper.SetDefault("locations.file", "./locations.json")

	// Output directories
	viper.SetDefault("output.csvdir", "./data/csv/")
	viper.SetDefault("output.htmldir", "./data/html/")
	viper.SetDefault("output.exportdir", "./data/export/")
	viper.SetDefault("OverwriteFiles", false)

	// Card image cache
	viper.SetDefault("images.enabled", false)
	viper.SetDefault("images.dir", "./data/images/")

	// Reports
	viper.SetDefault("report.highvalue", 10.0)
	viper.SetDefault("sort.default", "picking")
	viper.SetDefault("sort.presetsfile", "./sorts.yaml")

	// Metadata cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Pick history
	viper.SetDefault("history.enabled", true)
	viper.SetDefault("history.dbfile", "./pickwick.db")

	// Export discovery
	viper.SetDefault("downloads.dir", "./downloads/")
}

func initConfig() {
	setDefaults()

	// Enable environment variable support
	viper.AutomaticEnv()
	// Bind credential environment variables to config keys
	if err := viper.BindEnv("manapool.email", "MANAPOOL_EMAIL"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}
	if err := viper.BindEnv("manapool.access_token", "MANAPOOL_ACCESS_TOKEN"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file. Fill in the ManaPool credentials and run again.")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	// Initialize global config
	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	// Update config based on CLI flags
	config.SetOverwriteFiles(cli.Overwrite)
	config.SetUpdateImages(cli.UpdateImages)

	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

func initLogging() {
	// Create a human-readable handler for logging
	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: slog.LevelInfo,
	})

	// Set the default logger
	slog.SetDefault(slog.New(handler))
}
