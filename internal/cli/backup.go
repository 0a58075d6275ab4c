package cli

import (
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/screens/internal/sqlite"
)

func newExportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "export <dir>",
		Short: "Write screens, lines, and entities to JSONL files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			counts, err := a.backend.Export(cmd.Context(), args[0])
			if err != nil {
				return systemError(err)
			}
			return reportCounts(cmd.OutOrStdout(), st.flags.jsonMode, "exported", counts)
		},
	}
}

func newLoadCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "load <dir>",
		Short: "Load JSONL files written by export",
		Long: `Load reads the JSONL files written by export and stores their records,
replacing records with the same keys. Malformed lines are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			counts, err := a.backend.Import(cmd.Context(), args[0])
			if err != nil {
				return systemError(err)
			}
			return reportCounts(cmd.OutOrStdout(), st.flags.jsonMode, "loaded", counts)
		},
	}
}

func reportCounts(w io.Writer, jsonMode bool, verb string, counts sqlite.BackupCounts) error {
	if jsonMode {
		return writeJSON(w, counts)
	}
	files := make([]string, 0, len(counts))
	for f := range counts {
		files = append(files, f)
	}
	sort.Strings(files)
	for _, f := range files {
		fmt.Fprintf(w, "%s %s: %d records\n", verb, f, counts[f])
	}
	return nil
}
