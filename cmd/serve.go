package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/fitsync/fitsync/pkg/server"
)

//nolint:gochecknoglobals // Cobra flags are typically global
var (
	serveCfgFile string
)

//nolint:gochecknoglobals // Cobra commands are typically global
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the fitsync server",
	Long:  `Starts the API, the import scheduler and worker, and the metrics server.`,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveCfgFile, "config", "fitsync.yaml", "config file (default is fitsync.yaml)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Silence usage on error
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	config, err := loadConfigFromFile(serveCfgFile)
	if err != nil {
		return err
	}

	level, err := logrus.ParseLevel(config.LoggingLevel)
	if err != nil {
		return err
	}

	logger := logrus.New()
	logger.SetLevel(level)

	logger.Info("Configuration loaded")

	srv, err := server.NewServer(cmd.Context(), logger, config)
	if err != nil {
		return err
	}

	return srv.Start(cmd.Context())
}
