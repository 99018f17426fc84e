// Package cmd contains the CLI commands for fitsync
package cmd

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/fitsync/fitsync/pkg/server"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// rootCmd represents the base command
//
//nolint:gochecknoglobals // Cobra commands are typically global
var rootCmd = &cobra.Command{
	Use:   "fitsync",
	Short: "Vehicle compatibility tagging for product catalogs",
	Long: `fitsync imports Year/Make/Model compatibility CSV files in resumable
chunks and keeps product tags in the remote catalog in sync with the
imported fitment data.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

// loadConfigFromFile reads a server config, applying struct defaults first.
func loadConfigFromFile(file string) (*server.Config, error) {
	if file == "" {
		file = "fitsync.yaml"
	}

	config := &server.Config{}

	if err := defaults.Set(config); err != nil {
		return nil, err
	}

	yamlFile, err := os.ReadFile(file) //nolint:gosec // User-provided config file path
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(yamlFile, config); err != nil {
		return nil, err
	}

	return config, nil
}
