package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/marmos91/nfsclient/pkg/nfsclient"
)

var statCmd = &cobra.Command{
	Use:   "stat SERVER:/EXPORT PATH",
	Short: "Show the attributes of a remote object",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMount(args[0], func(r *nfsclient.Registry) error {
			info, err := r.Stat(devicePath(args[1]))
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(os.Stdout)
			table.SetBorder(false)
			table.Append([]string{"Type", typeName(info.Type)})
			table.Append([]string{"Mode", fmt.Sprintf("%04o", info.Mode&0o7777)})
			table.Append([]string{"Size", fmt.Sprintf("%d", info.Size)})
			table.Append([]string{"Links", fmt.Sprintf("%d", info.Nlink)})
			table.Append([]string{"Owner", fmt.Sprintf("%d:%d", info.UID, info.GID)})
			table.Append([]string{"Fileid", fmt.Sprintf("%d", info.Fileid)})
			table.Append([]string{"Mtime", formatTime(info.Mtime)})
			table.Append([]string{"Atime", formatTime(info.Atime)})
			table.Render()
			return nil
		})
	},
}

func formatTime(ts nfsclient.Timestamp) string {
	return time.Unix(int64(ts.Seconds), int64(ts.Nseconds)).UTC().Format(time.RFC3339)
}
