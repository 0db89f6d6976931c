package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sage-x-project/sage-connect/connecturi"
	"github.com/sage-x-project/sage-connect/internal/logger"
	"github.com/sage-x-project/sage-connect/profile"
	"github.com/sage-x-project/sage-connect/relay/memrelay"
	"github.com/sage-x-project/sage-connect/session"
	"github.com/sage-x-project/sage-connect/store/memory"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run an in-process handshake between two profiles",
	Long: `Creates two profiles sharing an in-memory relay, opens a session
from one, accepts it from the other, and prints every state transition
as the handshake runs to completion.`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	log := logger.GetDefaultLogger()
	relayInstance := memrelay.New()

	initiator := profile.New(memory.New(), memory.New(), relayInstance, profile.Hooks{
		OnSessionStateChanged: func(s *session.Session) {
			fmt.Printf("[initiator] session %s -> %s\n", s.SessionID, s.Status)
		},
	}, log)
	acceptor := profile.New(memory.New(), memory.New(), relayInstance, profile.Hooks{
		OnSessionStateChanged: func(s *session.Session) {
			fmt.Printf("[acceptor]  session %s -> %s\n", s.SessionID, s.Status)
		},
	}, log)

	initiatorPub, err := initiator.CreateProfile(ctx, "")
	if err != nil {
		return err
	}
	acceptorPub, err := acceptor.CreateProfile(ctx, "")
	if err != nil {
		return err
	}
	fmt.Printf("initiator pubkey: %s\n", initiatorPub)
	fmt.Printf("acceptor pubkey:  %s\n", acceptorPub)

	uri, _, err := initiator.OpenSession(ctx, []string{"wss://demo-relay"}, []string{"sign_event", "get_public_key"}, profile.Metadata{Name: "sage-connect demo"})
	if err != nil {
		return err
	}
	fmt.Printf("bootstrap uri: %s\n", uri)

	parsed, err := connecturi.Parse(uri)
	if err != nil {
		return err
	}

	if _, err := acceptor.OnScan(ctx, parsed.Pubkey, parsed.Relays, parsed.Secret, parsed.Permissions); err != nil {
		return err
	}

	fmt.Println("handshake complete")
	return nil
}
