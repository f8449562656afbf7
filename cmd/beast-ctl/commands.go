package main

import (
	"strings"

	"github.com/spf13/cobra"

	"beast/internal/ipc"
)

// simple builds a subcommand that carries no text.
func simple(use, short, cmdName string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, ipc.ControlMessage{Cmd: cmdName})
		},
	}
}

// withText builds a subcommand whose arguments are joined into one text.
func withText(use, short, cmdName string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, ipc.ControlMessage{Cmd: cmdName, Text: strings.Join(args, " ")})
		},
	}
}

func init() {
	rootCmd.AddCommand(
		simple("trigger", "Start listening, or stop if already listening", ipc.CmdTrigger),
		simple("stop", "Stop listening", ipc.CmdStop),
		simple("hush", "Stop speaking and drop queued narrations", ipc.CmdHush),
		simple("suspend", "Stop listening and speaking", ipc.CmdSuspend),
		withText("say <text>", "Speak text as is", ipc.CmdSay),
		withText("command <text>", "Run text as if it had been spoken", ipc.CmdCommand),
	)
}
