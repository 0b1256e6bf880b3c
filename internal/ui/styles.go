// Package ui provides terminal styling for ideas CLI output.
// Uses the Ayu color theme with adaptive light/dark mode support.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/idealoop/ideas/internal/types"
)

// Ayu theme color palette
var (
	ColorPass = lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	}
	ColorWarn = lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	}
	ColorFail = lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	}
	ColorMuted = lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	}
	ColorAccent = lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	}
	ColorActive = lipgloss.AdaptiveColor{
		Light: "#a37acc",
		Dark:  "#d2a6ff",
	}
)

var (
	PassStyle   = lipgloss.NewStyle().Foreground(ColorPass)
	WarnStyle   = lipgloss.NewStyle().Foreground(ColorWarn)
	FailStyle   = lipgloss.NewStyle().Foreground(ColorFail)
	MutedStyle  = lipgloss.NewStyle().Foreground(ColorMuted)
	AccentStyle = lipgloss.NewStyle().Foreground(ColorAccent)
	ActiveStyle = lipgloss.NewStyle().Foreground(ColorActive)
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
)

// statusStyles colours each idea status. Parked states share the warning colour.
var statusStyles = map[types.Status]lipgloss.Style{
	types.StatusDraft:        MutedStyle,
	types.StatusPending:      AccentStyle,
	types.StatusClaimed:      ActiveStyle,
	types.StatusExecuting:    ActiveStyle.Bold(true),
	types.StatusWaitingUser:  WarnStyle.Bold(true),
	types.StatusWaitingAgent: WarnStyle,
	types.StatusCompleted:    PassStyle,
	types.StatusFailed:       FailStyle,
	types.StatusCancelled:    MutedStyle.Strikethrough(true),
}

var kindStyles = map[types.MessageKind]lipgloss.Style{
	types.KindUserInput:     AccentStyle,
	types.KindAgentFeedback: ActiveStyle,
	types.KindSystemEvent:   MutedStyle,
}

// Status icons
const (
	IconPass = "✓"
	IconWarn = "⚠"
	IconFail = "✗"
	IconInfo = "ℹ"
)

const SeparatorLight = "──────────────────────────────────────────"

func render(style lipgloss.Style, s string) string {
	if !colorEnabled() {
		return s
	}
	return style.Render(s)
}

// RenderStatus renders a status name in its colour.
func RenderStatus(s types.Status) string {
	style, ok := statusStyles[s]
	if !ok {
		return string(s)
	}
	return render(style, string(s))
}

// RenderKind renders a message kind in its colour.
func RenderKind(k types.MessageKind) string {
	style, ok := kindStyles[k]
	if !ok {
		return string(k)
	}
	return render(style, string(k))
}

func RenderPass(s string) string   { return render(PassStyle, s) }
func RenderWarn(s string) string   { return render(WarnStyle, s) }
func RenderFail(s string) string   { return render(FailStyle, s) }
func RenderMuted(s string) string  { return render(MutedStyle, s) }
func RenderAccent(s string) string { return render(AccentStyle, s) }

// RenderHeader renders a section header in uppercase.
func RenderHeader(s string) string {
	return render(HeaderStyle, strings.ToUpper(s))
}

// RenderSeparator renders the light separator line in muted color
func RenderSeparator() string {
	return render(MutedStyle, SeparatorLight)
}
