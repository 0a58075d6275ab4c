package form

// Surface is the rendering target a build appends to. Any UI toolkit can
// implement it; Stack is the in-memory one.
type Surface interface {
	Add(c Component)
}

// Stack lays components out one after another.
type Stack struct {
	items []Component
}

// NewStack returns an empty stack.
func NewStack() *Stack { return &Stack{} }

func (s *Stack) Add(c Component) { s.items = append(s.items, c) }

// Items returns the components in the order they were added.
func (s *Stack) Items() []Component { return append([]Component(nil), s.items...) }

func (s *Stack) Key() string { return "stack" }

// TabContainer shows one section per tab.
type TabContainer struct {
	tabs []Component
}

func (t *TabContainer) Add(c Component) { t.tabs = append(t.tabs, c) }

// Tabs returns the tab contents in order.
func (t *TabContainer) Tabs() []Component { return append([]Component(nil), t.tabs...) }

func (t *TabContainer) Key() string { return "tabs" }
