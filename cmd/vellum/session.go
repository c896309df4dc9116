package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/softgrove/vellum/internal/cli"
	"github.com/softgrove/vellum/internal/presentation/graph"
	"github.com/softgrove/vellum/internal/validator"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage saved sessions",
	Long:  `List, inspect, and remove saved story sessions.`,
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all saved sessions",
	Run: func(cmd *cobra.Command, args []string) {
		_, stores := getStores(cmd)
		defer stores.Close()

		namespaces, err := stores.States.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing sessions: %v\n", err)
			os.Exit(1)
		}

		if len(namespaces) == 0 {
			fmt.Println("No saved sessions found.")
			return
		}

		fmt.Println("Saved sessions:")
		for _, ns := range namespaces {
			line := "- " + ns
			if state, err := stores.States.Load(cmd.Context(), ns); err == nil {
				line += fmt.Sprintf(" (chapters: %d, last saved: %s)",
					state.Story.ChapterCount, state.Meta.LastSaved.Format("2006-01-02 15:04"))
			} else {
				line += " (unreadable)"
			}
			fmt.Println(line)
		}
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the world state of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, stores := getStores(cmd)
		defer stores.Close()

		state, err := stores.States.Load(cmd.Context(), args[0])
		if err != nil {
			fmt.Printf("Error loading session '%s': %v\n", args[0], err)
			os.Exit(1)
		}

		if asGraph, _ := cmd.Flags().GetBool("graph"); asGraph {
			links, err := stores.Links.Get(cmd.Context(), args[0])
			if err != nil {
				fmt.Printf("Error loading link index: %v\n", err)
				os.Exit(1)
			}
			overlay := &graph.Overlay{}
			if latest, err := stores.Chapters.Latest(cmd.Context(), args[0]); err == nil {
				overlay.CurrentSeq = latest.Seq
			}
			fmt.Print(graph.GenerateMermaid(state, links, overlay))
			return
		}

		data, err := yaml.Marshal(state)
		if err != nil {
			fmt.Printf("Error marshaling state: %v\n", err)
			os.Exit(1)
		}
		fmt.Print(string(data))
	},
}

var sessionVerifyCmd = &cobra.Command{
	Use:   "verify [session-id]...",
	Short: "Check saved sessions for corruption",
	Long: `Verifies that each session's world state parses, its choice history
matches the chapter count, every chapter document is readable, and the
link index points at chapters that exist. With no arguments, all
sessions are checked.`,
	Run: func(cmd *cobra.Command, args []string) {
		_, stores := getStores(cmd)
		defer stores.Close()

		namespaces := args
		if len(namespaces) == 0 {
			var err error
			namespaces, err = stores.States.List(cmd.Context())
			if err != nil {
				fmt.Printf("Error listing sessions: %v\n", err)
				os.Exit(1)
			}
			if len(namespaces) == 0 {
				fmt.Println("No saved sessions found.")
				return
			}
		}

		hasError := false
		for _, ns := range namespaces {
			report, err := validator.ValidateSession(cmd.Context(), stores.States, stores.Chapters, stores.Links, ns)
			if err != nil {
				fmt.Printf("Error verifying '%s': %v\n", ns, err)
				hasError = true
				continue
			}
			if report.OK() {
				fmt.Printf("OK   %s\n", ns)
				continue
			}
			hasError = true
			fmt.Printf("FAIL %s\n", ns)
			for _, p := range report.Problems {
				fmt.Printf("     - %s\n", p)
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>...",
	Short: "Remove one or more sessions",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		_, stores := getStores(cmd)
		defer stores.Close()

		hasError := false
		for _, ns := range args {
			if err := stores.States.Delete(cmd.Context(), ns); err != nil {
				fmt.Printf("Error removing '%s': %v\n", ns, err)
				hasError = true
			} else {
				fmt.Printf("Removed session '%s'\n", ns)
			}
		}
		if hasError {
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionRmCmd)
	sessionCmd.AddCommand(sessionVerifyCmd)
	sessionInspectCmd.Flags().Bool("graph", false, "Render the chapter history as a Mermaid flowchart")
}

func getStores(cmd *cobra.Command) (cli.Options, *cli.Stores) {
	opts, err := loadOptions(cmd)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	stores, err := cli.BuildStores(opts, opts.Logger())
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	return opts, stores
}
