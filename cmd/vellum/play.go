package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/softgrove/vellum/internal/cli"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play a story interactively",
	Long: `Starts a new story, or resumes a saved one with --resume.
Quitting mid-story keeps the session on disk for a later resume.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		resume, _ := cmd.Flags().GetBool("resume")
		sessionID, _ := cmd.Flags().GetString("session")
		if sessionID != "" {
			resume = true
		}

		play := cli.PlayOptions{Resume: resume, SessionID: sessionID}
		if err := cli.RunPlay(cmd.Context(), opts, play); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("resume", "r", false, "Resume the most recently saved session")
	playCmd.Flags().String("session", "", "Resume a specific session id")

	// Bare `vellum` plays.
	rootCmd.Run = playCmd.Run
}
