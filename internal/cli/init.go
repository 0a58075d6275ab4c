package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/screens/internal/sqlite"
)

func newInitCmd(st *state) *cobra.Command {
	var demo bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration and storage",
		Long: "Create the configuration and data directories and the database schema.\n" +
			"With --demo, also store sample screens and entities when the store is empty.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()

			out := cmd.OutOrStdout()
			if demo {
				seeded, err := sqlite.Seed(cmd.Context(), a.backend)
				if err != nil {
					return systemError(err)
				}
				if seeded {
					fmt.Fprintln(out, "Demo screens and entities stored")
				} else {
					fmt.Fprintln(out, "Store already has screens; demo data skipped")
				}
			}
			fmt.Fprintf(out, "screens initialized (config %s, data %s)\n", st.configDir, st.dataDir)
			return nil
		},
	}
	cmd.Flags().BoolVar(&demo, "demo", false, "seed demo screens and entities")
	return cmd
}
