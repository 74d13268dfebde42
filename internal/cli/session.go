package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aryan9626/chess-app/internal/protocol"
)

func newSessionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Session commands",
	}

	cmd.AddCommand(newSessionCreateCmd())
	cmd.AddCommand(newSessionJoinCmd())
	cmd.AddCommand(newSessionCloseCmd())

	return cmd
}

func newSessionCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a session and wait for an opponent",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := DialGateway(cfg.ServerURL, cfg.Token, name)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if err := ws.Send(protocol.ActionCreateSession, nil); err != nil {
				return err
			}
			payload, err := ws.Await(protocol.ActionCreateSession)
			if err != nil {
				return err
			}

			var resp protocol.CreateSessionResponse
			if err := json.Unmarshal(payload, &resp); err != nil {
				return err
			}
			fmt.Printf("session: %s\n", resp.SessionID)
			fmt.Println("waiting for opponent...")

			if _, err := ws.Await(protocol.ActionOpponentJoined); err != nil {
				return err
			}
			fmt.Println("opponent joined")

			return playLoop(ws, resp.SessionID)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for anonymous play")

	return cmd
}

func newSessionJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <session-id>",
		Short: "Join an existing session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := DialGateway(cfg.ServerURL, cfg.Token, name)
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if err := ws.Send(protocol.ActionJoinSession, protocol.JoinSessionRequest{SessionID: args[0]}); err != nil {
				return err
			}
			payload, err := ws.Await(protocol.ActionJoinSession)
			if err != nil {
				return err
			}

			var snapshot protocol.SessionSnapshot
			if err := json.Unmarshal(payload, &snapshot); err != nil {
				return err
			}
			fmt.Printf("joined session %s with %d players\n", snapshot.ID, len(snapshot.Players))

			return playLoop(ws, snapshot.ID)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name for anonymous play")

	return cmd
}

func newSessionCloseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "close <session-id>",
		Short: "Close a session and evict its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := DialGateway(cfg.ServerURL, cfg.Token, "")
			if err != nil {
				return err
			}
			defer func() { _ = ws.Close() }()

			if err := ws.Send(protocol.ActionCloseSession, protocol.CloseSessionRequest{SessionID: args[0]}); err != nil {
				return err
			}
			if _, err := ws.Await(protocol.ActionCloseSession); err != nil {
				return err
			}
			fmt.Println("session closed")
			return nil
		},
	}
}

// playLoop relays stdin lines as moves and prints everything pushed by the
// gateway until either side ends the session.
func playLoop(ws *WSClient, sessionID string) error {
	done := make(chan error, 1)

	go func() {
		for {
			env, err := ws.Read()
			if err != nil {
				done <- err
				return
			}
			switch env.Action {
			case protocol.ActionMove:
				fmt.Printf("opponent move: %s\n", string(env.Payload))
			case protocol.ActionPlayerDisconnected:
				fmt.Println("opponent disconnected")
			case protocol.ActionCloseSession:
				fmt.Println("session closed by opponent")
				done <- nil
				return
			}
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("enter moves, one per line (ctrl-d to quit):")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		move, err := json.Marshal(line)
		if err != nil {
			return err
		}
		if err := ws.Send(protocol.ActionMove, protocol.MoveRequest{
			SessionID: sessionID,
			Payload:   move,
		}); err != nil {
			return err
		}

		select {
		case err := <-done:
			return err
		default:
		}
	}

	return nil
}
