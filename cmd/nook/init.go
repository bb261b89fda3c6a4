package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/nook"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize a nook vault",
	Long:  `Initialize a new vault in the given directory (default: the current directory). This creates the .nook system dir, the config file and the index.`,
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		path, err := os.Getwd()
		if err != nil {
			fatal("Failed to get CWD", err)
		}
		if len(args) == 1 {
			path = args[0]
		}

		v, err := nook.Init(path, nook.WithAdapter(adapter), nook.WithLogger(slog.Default()))
		if err != nil {
			fatal("Failed to initialize vault", err)
		}
		defer v.Close()

		fmt.Println("Initialized nook vault in", v.Path)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
