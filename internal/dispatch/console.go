package dispatch

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/vburojevic/dwell/internal/domain"
)

var (
	reminderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	warningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	confirmStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Background(lipgloss.Color("1")).Padding(0, 1)
	bodyStyle     = lipgloss.NewStyle().Faint(true)
)

// Console writes interventions to a terminal. Warnings and confirmations ring
// the bell.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a console dispatcher writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// Fire implements Dispatcher.
func (c *Console) Fire(_ context.Context, iv *domain.Intervention) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var b strings.Builder
	switch iv.Kind {
	case domain.KindReminder:
		b.WriteString(reminderStyle.Render("⏰ " + iv.Title))
	case domain.KindConfirm:
		b.WriteString("\a")
		b.WriteString(confirmStyle.Render(iv.Title))
	default:
		b.WriteString("\a")
		b.WriteString(warningStyle.Render("⚠ " + iv.Title))
	}
	b.WriteString(" ")
	b.WriteString(iv.Message)
	if iv.ConfirmPhrase != "" {
		b.WriteString("\n")
		b.WriteString(bodyStyle.Render(fmt.Sprintf("  type to continue: %q", iv.ConfirmPhrase)))
	}
	b.WriteString("\n")

	_, err := io.WriteString(c.w, b.String())
	return err
}

// Name implements Dispatcher.
func (c *Console) Name() string { return "console" }
