package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "espalier",
	Short: "Espalier binds typed behaviors to the nodes of a declarative document tree",
	Long: `Espalier attaches behavior objects to document nodes based on their
declarative attributes. The CLI inspects, validates, and serves YAML document
definitions against the engine.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("file", "f", "document.yaml", "YAML document definition to operate on")
}

// documentPath resolves the document path from the flag or a positional
// argument, the argument winning when the flag was left at its default.
func documentPath(cmd *cobra.Command, args []string) string {
	path, _ := cmd.Flags().GetString("file")
	if !cmd.Flags().Changed("file") && len(args) > 0 {
		path = args[0]
	}
	return path
}
