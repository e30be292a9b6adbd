package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tribe-fitness/internal/rewards"
)

func newStoreCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Print the rewards catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			items := rewards.DefaultCatalog().Items()
			out := cmd.OutOrStdout()

			switch format {
			case "json":
				b, err := json.MarshalIndent(items, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(b))
			case "text":
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCOST\tTITLE")
				for _, it := range items {
					fmt.Fprintf(w, "%s\t%d\t%s\n", it.ID, it.Cost, it.Title)
				}
				return w.Flush()
			default:
				return fmt.Errorf("unknown format %q", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Output format: text or json")
	return cmd
}
