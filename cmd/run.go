package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/vikas-lamba/sutwire/pkg/iostream"
	"github.com/vikas-lamba/sutwire/pkg/target"
	"github.com/vikas-lamba/sutwire/pkg/twerr"

	_ "github.com/vikas-lamba/sutwire/pkg/backend/sshbackend" // registers the "ssh" scheme
)

var (
	runTimeout time.Duration
	runTTY     bool
	runUser    string
)

var runCmd = &cobra.Command{
	Use:   "run <target> <command>",
	Short: "run a command on a target and print its output and status",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		tgt, err := target.New(args[0])
		if err != nil {
			return err
		}
		defer tgt.Close()

		command := args[1]
		for _, extra := range args[2:] {
			command += " " + extra
		}

		status, err := tgt.RunCommand(target.CommandRequest{
			Command:    command,
			User:       runUser,
			Timeout:    runTimeout,
			RequestTTY: runTTY,
			Stdin:      iostream.Stdin(),
			Stdout:     iostream.Stdout(),
			Stderr:     iostream.Stderr(),
		})
		if err != nil {
			twerr.Perror(os.Stderr, "run", err)
			os.Exit(1)
		}

		if status.Signaled() {
			fmt.Printf("killed by signal %d\n", status.SignalNumber())
		} else {
			fmt.Printf("exit status %d\n", status.ExitCode())
		}
		return nil
	},
}

func init() {
	runCmd.Flags().DurationVar(&runTimeout, "timeout", 0, "command deadline, e.g. 30s (0 = no deadline)")
	runCmd.Flags().BoolVar(&runTTY, "tty", false, "request a pseudo-terminal for the remote command")
	runCmd.Flags().StringVar(&runUser, "user", "", "remote user (defaults to the target's configured default)")
}
