package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var catCmd = &cobra.Command{
	Use:   "cat SERVER:/EXPORT PATH",
	Short: "Print a remote file to stdout",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(args[0], func(r *nfsclient.Registry) error {
			f, err := r.Open(devicePath(args[1]), os.O_RDONLY, 0)
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			buf := make([]byte, 32*1024)
			for {
				n, err := f.Read(buf)
				if err != nil {
					return err
				}
				if n == 0 {
					return nil
				}
				if _, err := os.Stdout.Write(buf[:n]); err != nil {
					return err
				}
			}
		})
	},
}
