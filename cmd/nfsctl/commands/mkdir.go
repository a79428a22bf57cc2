package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var mkdirCmd = &cobra.Command{
	Use:   "mkdir SERVER:/EXPORT PATH",
	Short: "Create a directory on the export",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(args[0], func(r *nfsclient.Registry) error {
			return r.Mkdir(devicePath(args[1]), 0o755)
		})
	},
}
