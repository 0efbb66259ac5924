package theme

import "github.com/charmbracelet/lipgloss"

// Colors is the palette used for CLI output
type Colors struct {
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Text      lipgloss.Color
	TextMuted lipgloss.Color
	Warning   lipgloss.Color
}

// CurrentTheme is the active palette
var CurrentTheme = Colors{
	Primary:   lipgloss.Color("#00ff00"),
	Secondary: lipgloss.Color("#5fafff"),
	Text:      lipgloss.Color("#ffffff"),
	TextMuted: lipgloss.Color("#808080"),
	Warning:   lipgloss.Color("#ffaf00"),
}

// Prompt renders the input marker.
func Prompt(s string) string {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Primary).Bold(true).Render(s)
}

// Notice renders session status lines such as the saved notice.
func Notice(s string) string {
	return lipgloss.NewStyle().Foreground(CurrentTheme.Warning).Render(s)
}

func Muted(s string) string {
	return lipgloss.NewStyle().Foreground(CurrentTheme.TextMuted).Render(s)
}

// Header renders a section title with an underline.
func Header(s string) string {
	return lipgloss.NewStyle().
		Foreground(CurrentTheme.Text).
		Bold(true).
		Underline(true).
		Render(s)
}

// RoleLabel renders a message role: user in the primary color, the model
// in the secondary one.
func RoleLabel(role string) string {
	color := CurrentTheme.Secondary
	if role == "user" {
		color = CurrentTheme.Primary
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(role)
}

// Body indents message content under its role label, wrapped to width.
// A width of zero or less disables wrapping.
func Body(s string, width int) string {
	style := lipgloss.NewStyle().Foreground(CurrentTheme.Text).PaddingLeft(2)
	if width > 0 {
		style = style.Width(width)
	}
	return style.Render(s)
}
