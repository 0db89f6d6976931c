package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-connect/crypto/curve"
)

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a secp256k1 keypair for a profile",
	Long: `Generate a fresh 32-byte private key and print it alongside the
x-only public key used as the profile's Nostr pubkey.`,
	RunE: runKeygen,
}

func init() {
	rootCmd.AddCommand(keygenCmd)
}

func runKeygen(cmd *cobra.Command, args []string) error {
	d, err := generatePrivateKey()
	if err != nil {
		return fmt.Errorf("failed to generate private key: %w", err)
	}

	pub, err := curve.XOnlyPub(d)
	if err != nil {
		return fmt.Errorf("failed to derive public key: %w", err)
	}

	fmt.Printf("private_key: %s\n", hex.EncodeToString(d))
	fmt.Printf("public_key:  %s\n", hex.EncodeToString(pub))
	return nil
}

func generatePrivateKey() ([]byte, error) {
	for {
		d := make([]byte, 32)
		if _, err := rand.Read(d); err != nil {
			return nil, err
		}
		if curve.ValidatePrivate(d) == nil {
			return d, nil
		}
	}
}
