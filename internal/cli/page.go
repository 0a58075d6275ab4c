package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/screens/internal/form"
	"github.com/mesh-intelligence/screens/pkg/types"
)

// newEntityID is the entity-id argument that creates a new entity.
const newEntityID = "new"

func layoutFlag(st *state, value string) (form.Layout, error) {
	if value == "" {
		return st.settings.Layout, nil
	}
	return form.ParseLayout(value)
}

func newRenderCmd(st *state) *cobra.Command {
	var layoutName string
	cmd := &cobra.Command{
		Use:   "render <screen> [entity-id]",
		Short: "Build a screen and show an entity through it",
		Long: `Render builds the named screen, populates it with the entity (or a new
entity when the id is omitted or "new"), and prints the resulting surface.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			layout, err := layoutFlag(st, layoutName)
			if err != nil {
				return err
			}
			id := ""
			if len(args) == 2 && args[1] != newEntityID {
				id = args[1]
			}

			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			page, err := a.openPage(cmd.Context(), args[0], id, layout)
			if err != nil {
				return err
			}

			if st.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), pageView(page, a.warnings))
			}
			renderWarnings(cmd.ErrOrStderr(), a.warnings)
			renderPage(cmd.OutOrStdout(), page)
			return nil
		},
	}
	cmd.Flags().StringVar(&layoutName, "layout", "", "stacked or tabs (default from config)")
	return cmd
}

func newSetCmd(st *state) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <screen> <entity-id|new> path=value...",
		Short: "Edit fields through a screen and save",
		Long: `Set populates the screen with the entity, applies each path=value edit the
way a user would, and saves. Selectable fields take option labels; separate
several labels with commas for multi-selects, and give an empty value to
clear. Read-only fields reject edits.

Validation errors, version conflicts, and store failures are reported
separately.

Example:
  screens set project new name="Website" status=active owner="Ada Lovelace"
  screens set project 0192... budget=1500 members="Ada Lovelace, Grace Hopper"`,
		Args: cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			edits, err := parseEdits(args[2:])
			if err != nil {
				return err
			}
			id := args[1]
			if id == newEntityID {
				id = ""
			}

			a, err := st.openApp()
			if err != nil {
				return err
			}
			defer a.close()
			page, err := a.openPage(cmd.Context(), args[0], id, st.settings.Layout)
			if err != nil {
				return err
			}
			renderWarnings(cmd.ErrOrStderr(), a.warnings)

			for _, e := range edits {
				if err := applyEdit(page.Form(), e.path, e.value); err != nil {
					return err
				}
			}

			saved, err := page.Save(cmd.Context())
			if err != nil {
				reportSaveError(cmd.ErrOrStderr(), err)
				return err
			}

			if st.flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), pageView(page, nil))
			}
			rec := saved.(types.Entity).RecordMeta()
			okColor.Fprintf(cmd.OutOrStdout(), "saved %s %s (version %d)\n", page.Form().Screen.EntityType, rec.ID, rec.Version)
			return nil
		},
	}
	return cmd
}

type edit struct {
	path, value string
}

func parseEdits(args []string) ([]edit, error) {
	out := make([]edit, 0, len(args))
	for _, arg := range args {
		path, value, ok := strings.Cut(arg, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("%w: edit %q (expected path=value)", types.ErrInvalidData, arg)
		}
		out = append(out, edit{path: path, value: value})
	}
	return out, nil
}

// applyEdit sets one widget the way a user would.
func applyEdit(f *form.Form, path, value string) error {
	w, ok := f.Components.Widget(path)
	if !ok {
		return fmt.Errorf("%w: screen %s has no field %q", types.ErrNotFound, f.Screen.Name, path)
	}
	switch w.Kind {
	case form.Select:
		if value == "" {
			return w.Choose()
		}
		return w.Choose(value)
	case form.MultiSelect:
		var labels []string
		for _, l := range strings.Split(value, ",") {
			if l = strings.TrimSpace(l); l != "" {
				labels = append(labels, l)
			}
		}
		return w.Choose(labels...)
	}
	return w.SetValue(value)
}

// reportSaveError prints why a save failed.
func reportSaveError(w io.Writer, err error) {
	var verr *types.ValidationError
	switch {
	case errors.As(err, &verr):
		errorColor.Fprintln(w, "not saved: some fields are invalid")
		for _, fe := range verr.Fields {
			fmt.Fprintf(w, "  %s: %s\n", fe.Path, fe.Message)
		}
	case errors.Is(err, types.ErrConcurrencyConflict):
		errorColor.Fprintln(w, "not saved: the entity was changed by someone else; reload and retry")
	case errors.Is(err, types.ErrSaveVetoed):
		errorColor.Fprintln(w, "not saved:", err)
	default:
		errorColor.Fprintln(w, "save failed:", err)
	}
}
