// Command toolmeshd is the process entrypoint: it loads config, wires
// the registry, coordinator, manager, metrics, and API bridge
// together, and serves until told to stop.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "toolmeshd",
		Short: "Framework-agnostic tool registry and execution platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			return run(cmd.Context(), cfg)
		},
	}

	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the toolmeshd version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Println(version)
			return nil
		},
	})

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("toolmeshd exited with an error")
		os.Exit(1)
	}
}
