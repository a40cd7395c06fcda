package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"md2rt/pkg/clipboard"

	"github.com/spf13/cobra"
)

var clipboardServeCmd = &cobra.Command{
	Use:    clipboard.ServeCommand,
	Hidden: true,
	Short:  "Internal: own the Wayland selection for a rich write (do not call directly)",
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		var payload clipboard.Payload
		if err := json.NewDecoder(os.Stdin).Decode(&payload); err != nil {
			fmt.Fprintf(out, "%s %v\n", clipboard.FailedPrefix, err)
			return err
		}

		err := clipboard.ServeClipboard(payload, func() {
			fmt.Fprintln(out, clipboard.ReadyLine)
		})
		if err != nil {
			// The parent may already have gone away after "ready"; the line
			// is only useful while it still waits.
			fmt.Fprintf(out, "%s %v\n", clipboard.FailedPrefix, err)
		}
		return err
	},
}
