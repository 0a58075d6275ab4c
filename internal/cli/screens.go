package cli

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/screens/internal/sqlite"
	"github.com/mesh-intelligence/screens/pkg/types"
)

func newImportCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Import screen definitions from YAML",
		Long: `Import reads one screen, or a "screens:" list, from a YAML file and stores
it, replacing screens with the same name. Each imported screen is built once
and its configuration errors are reported as warnings.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			defs, err := sqlite.DecodeScreens(f)
			if err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}

			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			store, err := a.screens()
			if err != nil {
				return err
			}
			if _, err := sqlite.ImportScreens(cmd.Context(), store, defs); err != nil {
				return err
			}

			b, err := a.builder(st.settings.Layout)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, def := range defs {
				_, buildErr := b.Build(cmd.Context(), def, nil, nil)
				fmt.Fprintf(out, "imported %s (%s, %d lines)\n", def.Name, def.EntityType, len(def.Lines))
				renderWarnings(cmd.ErrOrStderr(), splitErrors(buildErr))
			}
			return nil
		},
	}
}

func newDumpCmd(st *state) *cobra.Command {
	return &cobra.Command{
		Use:   "dump [screen...]",
		Short: "Print screen definitions as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			store, err := a.screens()
			if err != nil {
				return err
			}
			names := args
			if len(names) == 0 {
				all, err := store.ListScreens(cmd.Context(), "")
				if err != nil {
					return systemError(err)
				}
				for _, def := range all {
					names = append(names, def.Name)
				}
			}
			var defs []*types.ScreenDefinition
			for _, name := range names {
				def, err := store.FindScreen(cmd.Context(), name)
				if err != nil {
					return fmt.Errorf("screen %q: %w", name, err)
				}
				defs = append(defs, def)
			}
			return sqlite.EncodeScreens(cmd.OutOrStdout(), defs)
		},
	}
}

func newListCmd(st *state) *cobra.Command {
	var entityType string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored screens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			store, err := a.screens()
			if err != nil {
				return err
			}
			defs, err := store.ListScreens(cmd.Context(), entityType)
			if err != nil {
				return systemError(err)
			}

			if st.flags.jsonMode {
				if defs == nil {
					defs = []*types.ScreenDefinition{}
				}
				return writeJSON(cmd.OutOrStdout(), defs)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tENTITY\tTITLE\tACTIVE")
			for _, def := range defs {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%t\n", def.Name, def.EntityType, def.Title, def.Active)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&entityType, "type", "", "only screens for this entity type")
	return cmd
}

func newFieldsCmd(st *state) *cobra.Command {
	var relation string
	cmd := &cobra.Command{
		Use:   "fields <type>",
		Short: "List the fields a screen line can bind",
		Long: `Fields lists the simple fields of an entity type, or with --relation the
fields of the type a reference points to. These are the properties a field
line can name.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			fields, err := a.registry.Fields(args[0], relation)
			if err != nil {
				return err
			}

			if st.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), fields)
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tCAPTION\tKIND\tDETAIL")
			for _, f := range fields {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", f.Name, f.DisplayName, f.Kind, fieldDetail(f))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&relation, "relation", "", "reference field whose related type to list")
	return cmd
}

func fieldDetail(f types.FieldMetadata) string {
	var parts []string
	if f.MaxLength > 0 {
		parts = append(parts, fmt.Sprintf("max %d", f.MaxLength))
	}
	if len(f.Options) > 0 {
		parts = append(parts, strings.Join(f.Options, "|"))
	}
	if f.DefaultValue != "" {
		parts = append(parts, "default "+f.DefaultValue)
	}
	if f.Rules != "" {
		parts = append(parts, f.Rules)
	}
	return strings.Join(parts, ", ")
}
