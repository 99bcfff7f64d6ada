package render

// Style is the box-drawing strategy for the detailed diagram. The four
// near-identical legacy renderers collapse into one engine configured
// by this object.
type Style struct {
	// BoxWidth is the inner width of a node card.
	BoxWidth int
	// Indent prefixes every card and connector line.
	Indent string

	AlarmBorder  string // horizontal rune for alarm cards
	NormalBorder string // horizontal rune for ordinary cards
}

// DefaultStyle matches the legacy fixed-width diagram.
func DefaultStyle() Style {
	return Style{
		BoxWidth:     68,
		Indent:       "    ",
		AlarmBorder:  "━",
		NormalBorder: "─",
	}
}

// Renderer emits the textual views of one incident graph. Rendering is
// pure: the same graph and roots always produce byte-identical output.
type Renderer struct {
	style    Style
	maxDepth int
}

// New creates a renderer. maxDepth mirrors the path builder's cap so
// tree and chain views truncate at the same bound.
func New(style Style, maxDepth int) *Renderer {
	if style.BoxWidth <= 0 {
		style = DefaultStyle()
	}
	if maxDepth <= 0 {
		maxDepth = 100
	}
	return &Renderer{style: style, maxDepth: maxDepth}
}
