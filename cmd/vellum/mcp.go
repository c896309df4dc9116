package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/softgrove/vellum/internal/cli"
	"github.com/softgrove/vellum/pkg/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the story engine as an MCP Server, so AI agents can begin,
advance, and inspect sessions as tools.

Supported Transports:
- stdio (default): Standard Input/Output. Ideal for local process integration.
- sse: Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		opts, err := loadOptions(cmd)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}

		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		logger := opts.Logger()
		stores, err := cli.BuildStores(opts, logger)
		if err != nil {
			fmt.Println(err)
			os.Exit(1)
		}
		defer stores.Close()

		srv := mcp.NewServer(opts.SessionConfig(), stores.States, stores.Chapters, cli.BuildGenerator(opts),
			mcp.WithLinkStore(stores.Links),
			mcp.WithLogger(logger),
		)

		switch transport {
		case "stdio":
			// Keep Stdout clean for JSON-RPC.
			log.SetOutput(os.Stderr)
			logger.Info("starting mcp server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("mcp server failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := srv.ServeSSE(ctx, port); err != nil {
				logger.Error("mcp server failed", "err", err)
				os.Exit(1)
			}
		default:
			fmt.Printf("Unknown transport %q (expected stdio or sse)\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport to use: stdio or sse")
	mcpCmd.Flags().Int("port", 4444, "Port for the sse transport")
}
