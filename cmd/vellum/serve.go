package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/softgrove/vellum/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the read-only inspection API",
	Long: `Serves saved sessions over HTTP: world state, chapter documents,
link indexes, and prometheus metrics. The API never mutates a session.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		port, _ := cmd.Flags().GetString("port")
		if err := cli.RunServe(opts, ":"+port); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("port", "p", "8080", "Port to listen on")
}
