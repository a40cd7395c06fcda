package cmd

import "github.com/spf13/cobra"

func RegisterCommands(root *cobra.Command) {
	root.AddCommand(versionCmd)
	root.AddCommand(clipboardServeCmd)

	root.AddCommand(watchCmd)
	root.AddCommand(detectCmd)
	root.AddCommand(convertCmd)
	root.AddCommand(inspectCmd)
	root.AddCommand(configCmd)
	root.AddCommand(cacheCmd)

	configCmd.AddCommand(
		configShowCmd,
		configInitCmd,
		configPathCmd,
	)

	cacheCmd.AddCommand(
		cacheInfoCmd,
		cacheClearCmd,
		cachePurgeCmd,
	)
}
