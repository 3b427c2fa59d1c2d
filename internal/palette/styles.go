package palette

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the palette.
type Styles struct {
	App          lipgloss.Style
	Prompt       lipgloss.Style
	Mode         lipgloss.Style
	Item         lipgloss.Style
	ItemSelected lipgloss.Style
	URL          lipgloss.Style
	Kind         lipgloss.Style
	Space        lipgloss.Style
	Status       lipgloss.Style
	Empty        lipgloss.Style
	HintKey      lipgloss.Style
	HintDesc     lipgloss.Style
}

// DefaultStyles returns the default style configuration: grayscale with a
// single desaturated teal accent.
func DefaultStyles() Styles {
	primary := lipgloss.AdaptiveColor{Light: "#505050", Dark: "#A0A0A0"}
	subtle := lipgloss.AdaptiveColor{Light: "#888888", Dark: "#606060"}
	accent := lipgloss.AdaptiveColor{Light: "#4A7070", Dark: "#5F8787"}

	return Styles{
		App: lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2),

		Prompt: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),

		Mode: lipgloss.NewStyle().
			Foreground(subtle),

		Item: lipgloss.NewStyle().
			Foreground(primary).
			PaddingLeft(1),

		ItemSelected: lipgloss.NewStyle().
			PaddingLeft(1).
			Background(accent).
			Foreground(lipgloss.Color("#1A1A1A")),

		URL: lipgloss.NewStyle().
			Foreground(subtle),

		Kind: lipgloss.NewStyle().
			Foreground(subtle).
			Width(10),

		Space: lipgloss.NewStyle().
			Bold(true),

		Status: lipgloss.NewStyle().
			Foreground(accent),

		Empty: lipgloss.NewStyle().
			Foreground(subtle),

		HintKey: lipgloss.NewStyle().
			Foreground(subtle),

		HintDesc: lipgloss.NewStyle().
			Foreground(subtle),
	}
}

// spaceColors maps collection colors to terminal colors.
var spaceColors = map[string]lipgloss.Color{
	"grey":   lipgloss.Color("245"),
	"blue":   lipgloss.Color("33"),
	"red":    lipgloss.Color("160"),
	"yellow": lipgloss.Color("178"),
	"green":  lipgloss.Color("35"),
	"pink":   lipgloss.Color("205"),
	"purple": lipgloss.Color("99"),
	"cyan":   lipgloss.Color("37"),
	"orange": lipgloss.Color("208"),
}
