package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var mvCmd = &cobra.Command{
	Use:   "mv SERVER:/EXPORT OLD NEW",
	Short: "Rename an object within the export",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(args[0], func(r *nfsclient.Registry) error {
			return r.Rename(devicePath(args[1]), devicePath(args[2]))
		})
	},
}
