package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"beast/internal/ipc"
)

var rootCmd = &cobra.Command{
	Use:   "beast-ctl",
	Short: "Control a running beast-daemon",
	Long:  `beast-ctl sends one command to beast-daemon over its control socket. Bind "beast-ctl trigger" to a hotkey to start and stop listening.`,
}

// Execute runs the command line and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	socket := os.Getenv("BEAST_SOCKET")
	if socket == "" {
		socket = ipc.DefaultSocketPath
	}
	rootCmd.PersistentFlags().StringP("socket", "s", socket, "Control socket of beast-daemon")
	rootCmd.SilenceUsage = true
}

func send(cmd *cobra.Command, msg ipc.ControlMessage) error {
	path, _ := cmd.Flags().GetString("socket")
	if err := ipc.SendCommand(path, msg); err != nil {
		return fmt.Errorf("beast-daemon: %w", err)
	}
	return nil
}
