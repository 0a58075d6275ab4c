package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/screens/pkg/types"
)

func newEntitiesCmd(st *state) *cobra.Command {
	var limit, offset int
	cmd := &cobra.Command{
		Use:   "entities <type> [key=value...]",
		Short: "List stored entities of a type",
		Long: `Entities lists stored entities of one type. Filters are key=value pairs on
top-level JSON fields and are ANDed together. Values are parsed as JSON when
possible, so active=true matches booleans.

Example:
  screens entities Project status=active
  screens entities User active=true --limit 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := parseFilter(args[1:])
			if err != nil {
				return err
			}
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			repo, err := a.repository(args[0])
			if err != nil {
				return err
			}
			res, err := repo.List(cmd.Context(), filter, types.Page{Offset: offset, Limit: limit})
			if err != nil {
				return err
			}

			if st.flags.jsonMode {
				if res.Items == nil {
					res.Items = []any{}
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"total": res.Total, "items": res.Items})
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tVERSION\tNAME")
			for _, it := range res.Items {
				rec := it.(types.Entity).RecordMeta()
				fmt.Fprintf(tw, "%s\t%d\t%v\n", rec.ID, rec.Version, it)
			}
			if err := tw.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d of %d\n", len(res.Items), res.Total)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "maximum number of entities (0 for all)")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of entities to skip")
	return cmd
}

// parseFilter turns key=value arguments into a filter.
func parseFilter(args []string) (types.Filter, error) {
	filter := types.Filter{}
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: filter %q (expected key=value)", types.ErrInvalidData, arg)
		}
		var parsed any
		if err := json.Unmarshal([]byte(value), &parsed); err != nil {
			parsed = value
		}
		filter[key] = parsed
	}
	return filter, nil
}
