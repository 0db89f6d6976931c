package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-connect/connecturi"
)

var (
	uriRelays []string
	uriPerms  string
	uriName   string
	uriURL    string
	uriImage  string
	uriSecret string
)

var uriCmd = &cobra.Command{
	Use:   "uri",
	Short: "Build or parse a nostrconnect:// bootstrap URI",
}

var uriBuildCmd = &cobra.Command{
	Use:   "build <pubkey-hex>",
	Short: "Build a nostrconnect:// URI for the given pubkey",
	Args:  cobra.ExactArgs(1),
	RunE:  runURIBuild,
}

var uriParseCmd = &cobra.Command{
	Use:   "parse <uri>",
	Short: "Parse a nostrconnect:// URI and print its fields",
	Args:  cobra.ExactArgs(1),
	RunE:  runURIParse,
}

func init() {
	rootCmd.AddCommand(uriCmd)
	uriCmd.AddCommand(uriBuildCmd)
	uriCmd.AddCommand(uriParseCmd)

	uriBuildCmd.Flags().StringSliceVarP(&uriRelays, "relay", "r", nil, "relay URL (repeatable)")
	uriBuildCmd.Flags().StringVar(&uriSecret, "secret", "", "handshake secret (random if omitted)")
	uriBuildCmd.Flags().StringVar(&uriPerms, "perms", "", "comma-separated permission list")
	uriBuildCmd.Flags().StringVar(&uriName, "name", "", "display name")
	uriBuildCmd.Flags().StringVar(&uriURL, "url", "", "client URL")
	uriBuildCmd.Flags().StringVar(&uriImage, "image", "", "client image URL")
}

func runURIBuild(cmd *cobra.Command, args []string) error {
	if len(uriRelays) == 0 {
		return fmt.Errorf("at least one --relay is required")
	}

	secret := uriSecret
	if secret == "" {
		b := make([]byte, 16)
		if _, err := rand.Read(b); err != nil {
			return err
		}
		secret = hex.EncodeToString(b)
	}

	var perms []string
	if uriPerms != "" {
		perms = strings.Split(uriPerms, ",")
	}

	out, err := connecturi.Build(&connecturi.URI{
		Pubkey:      args[0],
		Relays:      uriRelays,
		Secret:      secret,
		Permissions: perms,
		Name:        uriName,
		URL:         uriURL,
		Image:       uriImage,
	})
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func runURIParse(cmd *cobra.Command, args []string) error {
	u, err := connecturi.Parse(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("pubkey:      %s\n", u.Pubkey)
	fmt.Printf("relays:      %s\n", strings.Join(u.Relays, ", "))
	fmt.Printf("secret:      %s\n", u.Secret)
	fmt.Printf("permissions: %s\n", strings.Join(u.Permissions, ", "))
	fmt.Printf("name:        %s\n", u.Name)
	fmt.Printf("url:         %s\n", u.URL)
	fmt.Printf("image:       %s\n", u.Image)
	return nil
}
