package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/softgrove/vellum/internal/cli"
)

var rootCmd = &cobra.Command{
	Use:   "vellum",
	Short: "Vellum is a generated interactive fiction engine",
	Long: `Vellum plays branching stories written on demand by a language model.
Sessions persist between runs: every chapter is an immutable markdown file
and the world state is a YAML document you can read and edit.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("saves", "", "Directory holding saved sessions (defaults to .vellum/saves)")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// loadOptions merges environment configuration with command flags.
func loadOptions(cmd *cobra.Command) (cli.Options, error) {
	opts, err := cli.LoadOptions()
	if err != nil {
		return cli.Options{}, err
	}
	if dir, _ := cmd.Flags().GetString("saves"); dir != "" {
		opts.SavesDir = dir
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		opts.Debug = true
	}
	return opts, nil
}
