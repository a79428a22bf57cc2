package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var lsCmd = &cobra.Command{
	Use:   "ls SERVER:/EXPORT [PATH]",
	Short: "List a directory on the export",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "/"
		if len(args) == 2 {
			path = args[1]
		}

		return withMount(args[0], func(r *nfsclient.Registry) error {
			dir, err := r.OpenDir(devicePath(path))
			if err != nil {
				return err
			}
			defer func() { _ = dir.Close() }()

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Name", "Type", "Mode", "Size", "UID", "GID"})
			table.SetBorder(false)

			for {
				entry, err := dir.Next()
				if err != nil {
					if errors.Is(err, nfsclient.ErrNoEntry) {
						break
					}
					return err
				}
				table.Append([]string{
					entry.Name,
					typeName(entry.Info.Type),
					fmt.Sprintf("%04o", entry.Info.Mode&0o7777),
					fmt.Sprintf("%d", entry.Info.Size),
					fmt.Sprintf("%d", entry.Info.UID),
					fmt.Sprintf("%d", entry.Info.GID),
				})
			}

			table.Render()
			return nil
		})
	},
}

func typeName(t nfsclient.FileType) string {
	switch t {
	case nfsclient.TypeRegular:
		return "file"
	case nfsclient.TypeDirectory:
		return "dir"
	case nfsclient.TypeSymlink:
		return "link"
	case nfsclient.TypeBlock:
		return "block"
	case nfsclient.TypeChar:
		return "char"
	case nfsclient.TypeSocket:
		return "sock"
	case nfsclient.TypeFIFO:
		return "fifo"
	default:
		return "?"
	}
}
