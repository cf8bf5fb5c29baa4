package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/datacurio/schemactl/internal/cache"
	"github.com/datacurio/schemactl/internal/config"
	"github.com/datacurio/schemactl/internal/domain"
	"github.com/datacurio/schemactl/internal/generator"
	"github.com/datacurio/schemactl/internal/metadata"
	"github.com/datacurio/schemactl/internal/schema"
	"github.com/datacurio/schemactl/internal/storage"
	"github.com/datacurio/schemactl/internal/utils"
	"github.com/datacurio/schemactl/pkg/version"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	log     *utils.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "schemactl",
	Short: "Manifest orchestration against data-model schemas",
	Long: `Schemactl coordinates manifest generation, validation, and submission
against a linked-data model. It expands component requests through the
schema's requirement graph, normalizes uploaded manifests, and talks to
the storage backend and the generation and metadata engines.`,
	Version:       version.Short(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.schemactl/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable schema caching")
	rootCmd.PersistentFlags().String("storage-url", "", "Storage backend base URL")
	rootCmd.PersistentFlags().String("generator-url", "", "Generation service base URL")
	rootCmd.PersistentFlags().String("metadata-url", "", "Metadata engine base URL")

	// Bind flags to viper
	_ = viper.BindPFlag("storage.base_url", rootCmd.PersistentFlags().Lookup("storage-url"))
	_ = viper.BindPFlag("services.generator_url", rootCmd.PersistentFlags().Lookup("generator-url"))
	_ = viper.BindPFlag("services.metadata_url", rootCmd.PersistentFlags().Lookup("metadata-url"))

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(schemaCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}
}

// setup loads configuration and builds the logger shared by all commands.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}

	log = utils.NewLogger(utils.LoggerOptions{
		Level:   cfg.Logging.Level,
		Format:  cfg.Logging.Format,
		Verbose: verbose,
	})
	utils.SetGlobalLevel(cfg.Logging.Level)

	return cfg, nil
}

// buildEngine wires the schema cache, loader, and graph engine. The
// returned close function releases the cache and is safe to defer.
func buildEngine(cfg *config.Config) (*schema.Engine, func(), error) {
	var docCache domain.Cache
	closeFn := func() {}

	if cfg.Cache.Enabled {
		c, err := cache.NewBadgerCache(cache.Options{Directory: utils.ExpandPath(cfg.Cache.Directory)})
		if err != nil {
			log.Warn().Err(err).Msg("Schema cache unavailable, continuing without")
		} else {
			docCache = c
			closeFn = func() {
				if err := c.Close(); err != nil {
					log.Warn().Err(err).Msg("Failed to close schema cache")
				}
			}
		}
	}

	loader := schema.NewLoader(schema.LoaderOptions{
		Timeout:  cfg.Schema.FetchTimeout,
		Cache:    docCache,
		CacheTTL: cfg.Cache.TTL,
		Logger:   log,
	})
	return schema.NewEngine(loader), closeFn, nil
}

func buildGenerator(cfg *config.Config) (domain.Generator, error) {
	return generator.NewClient(generator.ClientOptions{
		BaseURL: cfg.Services.GeneratorURL,
		Timeout: cfg.Services.Timeout,
		TempDir: cfg.Generation.TempDir,
		Logger:  log,
	})
}

func buildMetadata(cfg *config.Config) (domain.MetadataEngine, error) {
	return metadata.NewClient(metadata.ClientOptions{
		BaseURL: cfg.Services.MetadataURL,
		Timeout: cfg.Services.Timeout,
		Logger:  log,
	})
}

// buildStorage returns nil without error when no storage backend is
// configured; callers that require storage must check for nil.
func buildStorage(cfg *config.Config) (domain.Storage, error) {
	if cfg.Storage.BaseURL == "" {
		return nil, nil
	}
	return storage.NewClient(storage.ClientOptions{
		BaseURL: cfg.Storage.BaseURL,
		Timeout: cfg.Storage.Timeout,
		Retrier: storage.RetrierOptions{
			MaxRetries:      cfg.Storage.MaxRetries,
			InitialInterval: cfg.Storage.InitialInterval,
			MaxInterval:     cfg.Storage.MaxInterval,
		},
		TempDir: cfg.Generation.TempDir,
		Logger:  log,
	})
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println(version.Full())
	},
}
