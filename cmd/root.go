package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the applemail-mcp application
var rootCmd = &cobra.Command{
	Use:   "applemail-mcp",
	Short: "MCP server exposing Apple Mail to AI assistants",
	Long: `applemail-mcp is a Model Context Protocol (MCP) server that lets AI
assistants work with Apple Mail on macOS through AppleScript automation.

Every tool call passes through a security gate that validates and escapes
arguments, classifies the operation's risk, requires confirmation for
destructive operations, and writes an append-only audit trail.

By default the server is read-only; use --yolo on the serve command to
enable write operations.`,
	SilenceUsage: true,
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "applemail-mcp version %s\n" .Version}}`)

	// If no subcommand is provided, run the serve command by default
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "serve")
	}

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newVersionCmd())
}
