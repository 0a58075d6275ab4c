package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/mesh-intelligence/screens/internal/form"
	"github.com/mesh-intelligence/screens/pkg/types"
)

var (
	titleColor   = color.New(color.Bold, color.Underline)
	sectionColor = color.New(color.FgCyan, color.Bold)
	captionColor = color.New(color.Bold)
	noteColor    = color.New(color.Faint)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
	okColor      = color.New(color.FgGreen)
)

// textComponent is a custom component that renders as a line of text.
type textComponent interface {
	Text() string
}

// renderPage writes the form on page as text.
func renderPage(w io.Writer, page *form.Page) {
	f := page.Form()
	titleColor.Fprintln(w, f.Screen.Title)
	for _, s := range f.Sections {
		fmt.Fprintln(w)
		prefix := ""
		if f.Layout == form.LayoutTabs {
			prefix = "[tab] "
		}
		if s.CaptionVisible {
			sectionColor.Fprintf(w, "%s%s\n", prefix, s.Caption)
		}
		for _, c := range s.Children() {
			renderComponent(w, c)
		}
	}
}

func renderComponent(w io.Writer, c form.Component) {
	switch x := c.(type) {
	case *form.Widget:
		renderWidget(w, x)
	case *form.RelationPanel:
		noteColor.Fprintf(w, "  %s (%s)\n", x.Relation, x.State())
		for i, l := range x.Labels() {
			fmt.Fprintf(w, "    %d. %s\n", i+1, l)
		}
	case textComponent:
		noteColor.Fprintf(w, "  %s\n", x.Text())
	default:
		noteColor.Fprintf(w, "  <%s>\n", c.Key())
	}
}

func renderWidget(w io.Writer, wd *form.Widget) {
	caption := wd.Path
	if wd.CaptionVisible && wd.Caption != "" {
		caption = wd.Caption
	}
	if wd.Required {
		caption += " *"
	}
	fmt.Fprint(w, "  ")
	captionColor.Fprintf(w, "%-16s", caption+":")
	fmt.Fprintf(w, " %s", wd.Display())
	var notes []string
	if wd.ReadOnly {
		notes = append(notes, "read-only")
	}
	if wd.Kind == form.Select || wd.Kind == form.MultiSelect {
		notes = append(notes, fmt.Sprintf("%d options", len(wd.Options)))
	}
	if len(notes) > 0 {
		noteColor.Fprintf(w, "  (%s)", strings.Join(notes, ", "))
	}
	if wd.OptionsErr != nil {
		warnColor.Fprint(w, "  options unavailable")
	}
	fmt.Fprintln(w)
}

// formView is the JSON form of a rendered page.
type formView struct {
	Screen   string        `json:"screen"`
	Entity   string        `json:"entity_type"`
	ID       string        `json:"id,omitempty"`
	Version  int64         `json:"version,omitempty"`
	Layout   form.Layout   `json:"layout"`
	Sections []sectionView `json:"sections"`
	Warnings []string      `json:"warnings,omitempty"`
}

type sectionView struct {
	Name     string        `json:"name"`
	Caption  string        `json:"caption"`
	Widgets  []widgetView  `json:"widgets"`
	Relation *relationView `json:"relation,omitempty"`
	Custom   []string      `json:"custom,omitempty"`
}

type widgetView struct {
	Path     string   `json:"path"`
	Caption  string   `json:"caption"`
	Kind     string   `json:"kind"`
	Value    string   `json:"value"`
	Required bool     `json:"required,omitempty"`
	ReadOnly bool     `json:"readonly,omitempty"`
	Options  []string `json:"options,omitempty"`
}

type relationView struct {
	Relation string   `json:"relation"`
	State    string   `json:"state"`
	Items    []string `json:"items"`
}

func pageView(page *form.Page, warnings []error) formView {
	f := page.Form()
	v := formView{
		Screen: f.Screen.Name,
		Entity: f.Screen.EntityType,
		Layout: f.Layout,
	}
	if e, ok := page.Current().(types.Entity); ok {
		v.ID, v.Version = e.RecordMeta().ID, e.RecordMeta().Version
	}
	for _, w := range warnings {
		v.Warnings = append(v.Warnings, w.Error())
	}
	for _, s := range f.Sections {
		sv := sectionView{Name: s.Name, Caption: s.Caption, Widgets: []widgetView{}}
		for _, c := range s.Children() {
			switch x := c.(type) {
			case *form.Widget:
				wv := widgetView{Path: x.Path, Caption: x.Caption, Kind: string(x.Kind),
					Value: x.Display(), Required: x.Required, ReadOnly: x.ReadOnly}
				for _, o := range x.Options {
					wv.Options = append(wv.Options, o.Label)
				}
				sv.Widgets = append(sv.Widgets, wv)
			case *form.RelationPanel:
				sv.Relation = &relationView{Relation: x.Relation, State: x.State().String(), Items: x.Labels()}
			case textComponent:
				sv.Custom = append(sv.Custom, x.Text())
			}
		}
		v.Sections = append(v.Sections, sv)
	}
	return v
}

func writeJSON(w io.Writer, v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func renderWarnings(w io.Writer, warnings []error) {
	for _, err := range warnings {
		warnColor.Fprintln(w, "warning:", err)
	}
}
