package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vikas-lamba/sutwire/pkg/target"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

var pullUser string

var pullCmd = &cobra.Command{
	Use:   "pull <target> <remote-path> <local-path>",
	Short: "download a remote file from a target over SCP",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tgt, err := target.New(args[0])
		if err != nil {
			return err
		}
		defer tgt.Close()

		local, err := os.Create(args[2])
		if err != nil {
			return err
		}
		defer local.Close()

		status, err := tgt.ExtractFile(target.ExtractRequest{
			User:       pullUser,
			RemotePath: args[1],
			Local:      local,
		})
		if err != nil {
			twerr.Perror(os.Stderr, "pull", err)
			os.Exit(1)
		}
		fmt.Printf("pulled %s -> %s (status %+v)\n", args[1], args[2], status)
		return nil
	},
}

func init() {
	pullCmd.Flags().StringVar(&pullUser, "user", "", "remote user (defaults to the target's configured default)")
}
