package shortcut

var defaults = []Entry{
	// Margin
	{"m", "margin"},
	{"mt", "margin-top"},
	{"mb", "margin-bottom"},
	{"ml", "margin-left"},
	{"mr", "margin-right"},
	// Padding
	{"p", "padding"},
	{"pt", "padding-top"},
	{"pb", "padding-bottom"},
	{"pl", "padding-left"},
	{"pr", "padding-right"},
	// Flex
	{"flex", "display.flex"},
	{"flow", "display.flex flex-flow"},
	{"justify-content", "display.flex justify-content"},
	{"align-items", "display.flex align-items"},
	{"align-content", "display.flex align-content"},
	{"grow", "flex-grow"},
	{"shrink", "flex-shrink"},
	// Sizing
	{"w", "width"},
	{"h", "height"},
	{"min-w", "min-width"},
	{"min-h", "min-height"},
	{"max-w", "max-width"},
	{"max-h", "max-height"},
	// Positioning
	{"pos", "position"},
	{"pos.abs", "position.absolute"},
	{"pos.rel", "position.relative"},
	{"t", "top"},
	{"b", "bottom"},
	{"l", "left"},
	{"r", "right"},
	{"z", "z-index"},
	// Colors
	{"bg", "background"},
	{"bg-color", "background-color"},
	// Text
	{"header", "font-size.3rem font-weight.800"},
	{"tiny", "transform.scale(0.5)"},
}

// DefaultEntries returns a copy of the built-in shortcut definitions.
func DefaultEntries() []Entry {
	res := make([]Entry, len(defaults))
	copy(res, defaults)
	return res
}

// Defaults builds the built-in table.
func Defaults() *Table {
	t, err := Build(defaults)
	if err != nil {
		// this should never happen
		panic(err)
	}
	return t
}
