package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var putCmd = &cobra.Command{
	Use:   "put SERVER:/EXPORT LOCAL PATH",
	Short: "Upload a local file to the export",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[1])
		if err != nil {
			return err
		}

		return withMount(args[0], func(r *nfsclient.Registry) error {
			f, err := r.Open(devicePath(args[2]), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
			if err != nil {
				return err
			}

			written := 0
			for written < len(data) {
				n, err := f.Write(data[written:])
				if err != nil {
					_ = f.Close()
					return err
				}
				if n == 0 {
					_ = f.Close()
					return fmt.Errorf("server accepted no bytes at offset %d", written)
				}
				written += n
			}

			// Close commits the unstable writes.
			return f.Close()
		})
	},
}
