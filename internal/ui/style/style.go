// Package style holds the colors and icons shared by the CLI and the log handler.
package style

import (
	"github.com/charmbracelet/lipgloss"
	"go.trai.ch/stashsync/internal/core/domain"
)

// Brand colors.
var (
	Iris   = lipgloss.Color("#8B5CF6")
	Slate  = lipgloss.Color("#667085")
	Green  = lipgloss.Color("#22A06B")
	Teal   = lipgloss.Color("#0E9384")
	Red    = lipgloss.Color("#D93025")
	Yellow = lipgloss.Color("#F59E0B")
)

// Icons.
const (
	Check   = "✓"
	Cross   = "✗"
	Warning = "!"
	Dot     = "●"
	Circle  = "○"
	Arrow   = "→"
)

// StatusColor returns the color used to render an item status.
func StatusColor(s domain.ItemStatus) lipgloss.Color {
	switch s {
	case domain.StatusFunded:
		return Green
	case domain.StatusAhead:
		return Teal
	case domain.StatusOnTrack:
		return Iris
	case domain.StatusBehind:
		return Red
	default:
		return Slate
	}
}

// StatusIcon returns the icon used to render an item status.
func StatusIcon(s domain.ItemStatus) string {
	switch s {
	case domain.StatusFunded, domain.StatusAhead, domain.StatusOnTrack:
		return Check
	case domain.StatusBehind:
		return Warning
	default:
		return Circle
	}
}

// Effect returns the icon for an invalidation tier.
func Effect(refetchNow bool) string {
	if refetchNow {
		return Dot
	}
	return Circle
}
