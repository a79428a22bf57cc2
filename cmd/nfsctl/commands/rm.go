package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var rmDir bool

var rmCmd = &cobra.Command{
	Use:   "rm SERVER:/EXPORT PATH",
	Short: "Remove a file (or, with --dir, an empty directory)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(args[0], func(r *nfsclient.Registry) error {
			if rmDir {
				return r.Rmdir(devicePath(args[1]))
			}
			return r.Unlink(devicePath(args[1]))
		})
	},
}

func init() {
	rmCmd.Flags().BoolVar(&rmDir, "dir", false, "remove an empty directory instead of a file")
}
