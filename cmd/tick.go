package cmd

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fitsync/fitsync/pkg/catalog"
	"github.com/fitsync/fitsync/pkg/checkpoint"
	"github.com/fitsync/fitsync/pkg/csvsource"
	"github.com/fitsync/fitsync/pkg/pipeline"
	"github.com/fitsync/fitsync/pkg/redis"
	"github.com/fitsync/fitsync/pkg/registry"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	tickCfgFile string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var tickCmd = &cobra.Command{
	Use:   "tick",
	Short: "Run a single import tick",
	Long: `Processes the next chunk of the active CSV file and exits. Intended
for external cron setups that don't run the built-in scheduler.`,
	RunE: runTick,
}

func init() {
	rootCmd.AddCommand(tickCmd)
	tickCmd.Flags().StringVar(&tickCfgFile, "config", "fitsync.yaml", "config file (default is fitsync.yaml)")
}

func runTick(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfigFromFile(tickCfgFile)
	if err != nil {
		return err
	}

	if err := config.Validate(); err != nil {
		return err
	}

	level, err := logrus.ParseLevel(config.LoggingLevel)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetLevel(level)

	redisClient, _, err := redis.New(config.Redis)
	if err != nil {
		return err
	}
	defer redisClient.Close()

	db, err := registry.Connect(logger, config.Database)
	if err != nil {
		return err
	}

	// The tick itself never talks to the catalog, but a bad catalog config
	// should fail here rather than at entry-creation time.
	if _, err := catalog.NewClient(logger, config.Catalog); err != nil {
		return err
	}

	driver := pipeline.NewDriver(
		logger,
		config.Pipeline,
		registry.NewFileStore(logger, db),
		registry.NewRowStore(logger, db),
		checkpoint.NewStore(logger, redisClient, config.Redis),
		csvsource.NewFetcher(logger, config.Fetcher),
	)

	result, err := driver.Tick(cmd.Context())
	if err != nil {
		return err
	}

	if result.Message != "" {
		fmt.Println(result.Message)
	} else {
		fmt.Printf("file %s: chunk %d/%d\n", result.FileID, result.ProcessedChunk, result.TotalChunks)
	}

	return nil
}
