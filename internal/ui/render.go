package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/idealoop/ideas/internal/engine"
	"github.com/idealoop/ideas/internal/types"
)

const timeFormat = "2006-01-02 15:04"

// WriteIdeaList prints one row per idea.
func WriteIdeaList(w io.Writer, ideas []*types.Idea) {
	if len(ideas) == 0 {
		fmt.Fprintln(w, RenderMuted("No ideas."))
		return
	}
	now := time.Now()
	width := 0
	for _, i := range ideas {
		width = max(width, len(string(i.Status)))
	}
	for _, i := range ideas {
		pad := strings.Repeat(" ", width-len(string(i.Status)))
		line := fmt.Sprintf("#%-4d %s%s  %s", i.ID, RenderStatus(i.Status), pad, Truncate(i.Content, DefaultTitleWidth))
		if i.OwnerAgent != "" {
			line += "  " + RenderMuted("@"+i.OwnerAgent)
		}
		line += "  " + RenderMuted(Age(now, i.UpdatedAt))
		fmt.Fprintln(w, line)
	}
}

// WriteIdea prints an idea header followed by its thread.
func WriteIdea(w io.Writer, idea *types.IdeaWithMessages) {
	fmt.Fprintf(w, "%s %s\n", RenderHeader(fmt.Sprintf("Idea #%d", idea.ID)), RenderStatus(idea.Status))
	fmt.Fprintln(w, idea.Content)
	meta := "created " + idea.CreatedAt.Local().Format(timeFormat) + ", updated " + idea.UpdatedAt.Local().Format(timeFormat)
	if idea.OwnerAgent != "" {
		meta += ", agent " + idea.OwnerAgent
	}
	fmt.Fprintln(w, RenderMuted(meta))
	if len(idea.Messages) == 0 {
		return
	}
	fmt.Fprintln(w, RenderSeparator())
	for _, m := range idea.Messages {
		WriteMessage(w, m)
	}
}

// WriteMessage prints one thread entry.
func WriteMessage(w io.Writer, m *types.Message) {
	stamp := RenderMuted(m.CreatedAt.Local().Format(timeFormat))
	fmt.Fprintf(w, "%s %s\n%s\n", stamp, RenderKind(m.Kind), Indent(m.Content, "  "))
}

// WriteChange prints the result of a lifecycle operation.
func WriteChange(w io.Writer, c *types.StatusChange) {
	if c.OldStatus == c.NewStatus {
		fmt.Fprintf(w, "%s #%d %s (%s)\n", RenderPass(IconPass), c.ID, c.Message, RenderStatus(c.NewStatus))
		return
	}
	fmt.Fprintf(w, "%s #%d %s -> %s  %s\n", RenderPass(IconPass), c.ID,
		RenderStatus(c.OldStatus), RenderStatus(c.NewStatus), RenderMuted(c.Message))
}

// WriteVerification prints the outcome of a thread replay check.
func WriteVerification(w io.Writer, v *engine.Verification) {
	if v.Consistent {
		fmt.Fprintf(w, "%s #%d thread replays to %s\n", RenderPass(IconPass), v.ID, RenderStatus(v.Status))
		return
	}
	fmt.Fprintf(w, "%s #%d stored %s: %s\n", RenderFail(IconFail), v.ID, RenderStatus(v.Status), v.Problem)
}

// Age renders how long ago t was, coarsely.
func Age(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
