package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/vikas-lamba/sutwire/pkg/target"
)

var interruptCmd = &cobra.Command{
	Use:   "interrupt <target>",
	Short: "send an interrupt to a target's running foreground command",
	Long: `interrupt only reaches a foreground command started by this same
process: the library keeps the foreground-transaction slot in memory on
the *Target handle, and a fresh "sutctl interrupt" invocation has no
live transaction to act on. This subcommand exists for completeness
against the public API and for programs embedding the library, not for
cross-process signalling from the CLI.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		tgt, err := target.New(args[0])
		if err != nil {
			return err
		}
		defer tgt.Close()

		if err := tgt.Interrupt(); err != nil {
			return err
		}
		fmt.Println("interrupt sent")
		return nil
	},
}
