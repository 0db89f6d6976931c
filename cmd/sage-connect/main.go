package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sage-connect",
	Short: "sage-connect CLI - Nostr-Connect remote signer tools",
	Long: `sage-connect CLI provides tools for operating a Nostr-Connect (NIP-46)
remote signer profile: key generation, bootstrap URI inspection, and a
local in-process handshake demo.`,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
