package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"beast/internal/ui"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the assistant's transcript, replies and answers",
	Long:  `Connects to the daemon's presentation socket and renders every event in the terminal until interrupted.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url, _ := cmd.Flags().GetString("url")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		console, err := ui.NewConsole(cmd.OutOrStdout(), true)
		if err != nil {
			return err
		}

		client, err := ui.Dial(ctx, url, time.Second)
		if err != nil {
			return err
		}
		defer client.Close()

		err = client.Run(ctx, func(m ui.Message) { m.Apply(console) })
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().String("url", "ws://127.0.0.1:8092/ws", "Presentation socket of beast-daemon")
}
