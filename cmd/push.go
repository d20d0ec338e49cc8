package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vikas-lamba/sutwire/pkg/target"
	"github.com/vikas-lamba/sutwire/pkg/twerr"
)

var pushUser string

var pushCmd = &cobra.Command{
	Use:   "push <target> <local-path> <remote-path>",
	Short: "upload a local file to a target over SCP",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		tgt, err := target.New(args[0])
		if err != nil {
			return err
		}
		defer tgt.Close()

		local, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer local.Close()

		info, err := local.Stat()
		if err != nil {
			return err
		}

		status, err := tgt.InjectFile(target.InjectRequest{
			User:       pushUser,
			Local:      local,
			RemotePath: args[2],
			Mode:       info.Mode(),
		})
		if err != nil {
			twerr.Perror(os.Stderr, "push", err)
			os.Exit(1)
		}
		fmt.Printf("pushed %s -> %s (status %+v)\n", args[1], args[2], status)
		return nil
	},
}

func init() {
	pushCmd.Flags().StringVar(&pushUser, "user", "", "remote user (defaults to the target's configured default)")
}
