package palette

// LayoutConfig sizes the palette against the terminal.
type LayoutConfig struct {
	// WidthPercent is the content width as a percentage of terminal width.
	WidthPercent int

	// MinWidth and MaxWidth clamp the content width in characters.
	MinWidth int
	MaxWidth int

	// HeightReduction is the rows taken by padding, input line, status and hints.
	HeightReduction int

	// LinesPerItem is the rows one result takes: title and URL.
	LinesPerItem int

	// MinVisible is the fewest results shown however small the terminal.
	MinVisible int
}

// DefaultLayout returns the default layout configuration.
func DefaultLayout() LayoutConfig {
	return LayoutConfig{
		WidthPercent:    70,
		MinWidth:        40,
		MaxWidth:        110,
		HeightReduction: 6, // padding (1) + input (1) + gap (1) + gap (1) + status (1) + hints (1)
		LinesPerItem:    2,
		MinVisible:      3,
	}
}

// contentWidth computes the responsive content width.
// Uses WidthPercent of terminal width, clamped between MinWidth and MaxWidth.
func contentWidth(terminalWidth int, cfg LayoutConfig) int {
	width := terminalWidth * cfg.WidthPercent / 100
	width = max(width, cfg.MinWidth)
	width = min(width, cfg.MaxWidth)

	// Don't exceed terminal width minus padding
	width = min(width, terminalWidth-4)
	return max(width, 1)
}

// visibleItems is how many results fit in terminalHeight rows.
func visibleItems(terminalHeight int, cfg LayoutConfig) int {
	perItem := max(cfg.LinesPerItem, 1)
	return max((terminalHeight-cfg.HeightReduction)/perItem, cfg.MinVisible)
}

// visibleRange computes the start and end indices for a scrollable list.
// Returns (start, end) where items[start:end] should be displayed.
func visibleRange(maxVisible, selected, total int) (start, end int) {
	if total <= maxVisible {
		return 0, total
	}

	if selected >= maxVisible {
		start = selected - maxVisible + 1
	}

	end = min(start+maxVisible, total)
	return start, end
}
