package form

// Components is the lookup table of one build: property path to widget and
// section name to panel. It is created per build and never shared.
type Components struct {
	widgets  map[string]*Widget
	order    []*Widget
	sections map[string]*SectionPanel
	custom   map[string]Component
}

func newComponents() *Components {
	return &Components{
		widgets:  make(map[string]*Widget),
		sections: make(map[string]*SectionPanel),
		custom:   make(map[string]Component),
	}
}

// addWidget registers w. It reports false, leaving the table unchanged, when
// the path was already taken.
func (c *Components) addWidget(w *Widget) bool {
	if _, ok := c.widgets[w.Path]; ok {
		return false
	}
	c.widgets[w.Path] = w
	c.order = append(c.order, w)
	return true
}

// addCustom registers comp under its key, reporting false when the key was
// already taken.
func (c *Components) addCustom(comp Component) bool {
	if _, ok := c.custom[comp.Key()]; ok {
		return false
	}
	c.custom[comp.Key()] = comp
	return true
}

func (c *Components) addSection(s *SectionPanel) bool {
	if _, ok := c.sections[s.Name]; ok {
		return false
	}
	c.sections[s.Name] = s
	return true
}

// Widget returns the widget bound to path.
func (c *Components) Widget(path string) (*Widget, bool) {
	w, ok := c.widgets[path]
	return w, ok
}

// Widgets returns every bound widget in build order.
func (c *Components) Widgets() []*Widget { return append([]*Widget(nil), c.order...) }

// Section returns the panel registered under name.
func (c *Components) Section(name string) (*SectionPanel, bool) {
	s, ok := c.sections[name]
	return s, ok
}

// Custom returns a component built by a named factory.
func (c *Components) Custom(key string) (Component, bool) {
	comp, ok := c.custom[key]
	return comp, ok
}
