// Package tui holds the terminal tools: a thoughts reader and a logo
// preview that runs the shadow controller on an in-memory page.
package tui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Palette of the site: near-black ink on off-white paper.
var (
	LightBackground = lipgloss.Color("#f4f1ea")
	LightForeground = lipgloss.Color("#030304")
	LightMuted      = lipgloss.Color("#8a8578")
	LightBorder     = lipgloss.Color("#d6d0c4")
	LightShadow     = lipgloss.Color("#5c5a55")

	DarkBackground = lipgloss.Color("#101012")
	DarkForeground = lipgloss.Color("#ece8df")
	DarkMuted      = lipgloss.Color("#77736b")
	DarkBorder     = lipgloss.Color("#33322f")
	DarkShadow     = lipgloss.Color("#45433f")

	Accent      = lipgloss.Color("#c0392b")
	Destructive = lipgloss.Color("#e53935")
)

// Theme holds the current color scheme.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Shadow     lipgloss.Color
	Accent     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Muted:      LightMuted,
		Border:     LightBorder,
		Shadow:     LightShadow,
		Accent:     Accent,
	}
}

// DarkTheme returns the dark mode theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Shadow:     DarkShadow,
		Accent:     Accent,
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from SHADOWSITE_DARK_MODE=1 or a dark
// COLORFGBG background, light otherwise.
func DetectTheme() Theme {
	if os.Getenv("SHADOWSITE_DARK_MODE") == "1" {
		return DarkTheme()
	}
	// COLORFGBG is "foreground;background"; ANSI 0-6 and 8 are dark.
	if parts := strings.Split(os.Getenv("COLORFGBG"), ";"); len(parts) == 2 {
		if bg, err := strconv.Atoi(parts[1]); err == nil && ((bg >= 0 && bg <= 6) || bg == 8) {
			return DarkTheme()
		}
	}
	return LightTheme()
}

// GlamourStyle is the glamour standard style matching the theme.
func (t Theme) GlamourStyle() string {
	if t.IsDark {
		return "dark"
	}
	return "light"
}

// Styles holds the styled components.
type Styles struct {
	Theme Theme

	Header lipgloss.Style
	Footer lipgloss.Style
	Title  lipgloss.Style
	Date   lipgloss.Style
	Body   lipgloss.Style
	Muted  lipgloss.Style
	Error  lipgloss.Style

	// Preview layers
	Logo    lipgloss.Style
	Path    lipgloss.Style
	Section lipgloss.Style
	Shadow  lipgloss.Style
	Divider lipgloss.Style
}

// NewStyles creates styles for theme.
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true).
			Padding(0, 1),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 1),

		Title: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Date: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Logo: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Path: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Section: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Shadow: lipgloss.NewStyle().
			Foreground(theme.Shadow),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),
	}
}

// DefaultStyles returns styles for the detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// RenderDivider returns a horizontal rule.
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
