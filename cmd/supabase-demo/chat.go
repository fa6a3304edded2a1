package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aleph-Alpha/supabase-go/v1/realtime"
	"github.com/Aleph-Alpha/supabase-go/v1/supabase"
)

var (
	chatRoom string
	chatUser string
)

type chatMessage struct {
	User string `json:"user"`
	Text string `json:"text"`
}

func chatCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Realtime chat over a channel",
	}
	cmd.PersistentFlags().StringVar(&chatRoom, "room", "lobby", "room name")
	cmd.AddCommand(chatListenCommand())
	cmd.AddCommand(chatSendCommand())
	return cmd
}

func chatListenCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Print broadcasts and new rows of public.messages until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			defer client.Close(context.Background())

			out := cmd.OutOrStdout()
			ch := client.Channel("chat:"+chatRoom).
				On(realtime.EventBroadcast, realtime.Filter{Event: "message"}, func(payload json.RawMessage) {
					printBroadcast(out, payload)
				}).
				On(realtime.EventPostgresChanges, realtime.Filter{
					Event:  "INSERT",
					Schema: "public",
					Table:  "messages",
					Filter: "room=eq." + chatRoom,
				}, func(payload json.RawMessage) {
					fmt.Fprintf(out, "[db] %s\n", payload)
				})

			failed := make(chan error, 1)
			err = ch.Subscribe(ctx, func(status realtime.Status, err error) {
				switch status {
				case realtime.StatusSubscribed:
					fmt.Fprintf(out, "Listening on %s. Ctrl-C to stop.\n", ch.Topic())
				case realtime.StatusTimedOut, realtime.StatusChannelError:
					failed <- fmt.Errorf("%s: %w", status, err)
				}
			})
			if err != nil {
				return err
			}

			select {
			case <-ctx.Done():
				return nil
			case err := <-failed:
				return err
			}
		},
	}
}

func printBroadcast(w io.Writer, payload json.RawMessage) {
	var b struct {
		Payload chatMessage `json:"payload"`
	}
	if err := json.Unmarshal(payload, &b); err != nil {
		fmt.Fprintf(w, "[broadcast] %s\n", payload)
		return
	}
	fmt.Fprintf(w, "<%s> %s\n", b.Payload.User, b.Payload.Text)
}

func chatSendCommand() *cobra.Command {
	cmd := cobra.Command{
		Use:   "send TEXT",
		Short: "Broadcast one message to the room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			ctx, cancel := signalContext()
			defer cancel()
			defer client.Close(context.Background())

			ch, err := joinChannel(ctx, client, "chat:"+chatRoom)
			if err != nil {
				return err
			}
			return ch.Send(ctx, realtime.BroadcastMessage{
				Event:   "message",
				Payload: chatMessage{User: chatUser, Text: args[0]},
			})
		},
	}
	cmd.Flags().StringVar(&chatUser, "user", "anonymous", "name shown next to the message")
	return &cmd
}

// joinChannel subscribes to name and waits for the server's answer.
func joinChannel(ctx context.Context, client *supabase.Client, name string) (*realtime.Channel, error) {
	result := make(chan error, 1)
	ch := client.Channel(name)
	err := ch.Subscribe(ctx, func(status realtime.Status, err error) {
		switch status {
		case realtime.StatusSubscribed:
			result <- nil
		case realtime.StatusTimedOut, realtime.StatusChannelError:
			result <- fmt.Errorf("%s: %w", status, err)
		}
	})
	if err != nil {
		return nil, err
	}

	select {
	case err := <-result:
		return ch, err
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(realtime.DefaultTimeout + time.Second):
		return nil, errors.New("no answer from realtime server")
	}
}
