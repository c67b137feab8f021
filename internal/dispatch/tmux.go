package dispatch

import (
	"context"
	"time"

	"github.com/vburojevic/dwell/internal/domain"
	"github.com/vburojevic/dwell/internal/tmux"
	"go.uber.org/zap"
)

// DefaultTmuxDuration is how long status-line messages stay visible.
const DefaultTmuxDuration = 10 * time.Second

type tmuxDisplay interface {
	DisplayMessage(message string, d time.Duration) error
	DisplayPopup(title, shellCommand string) error
}

// Tmux shows reminders and warnings on the tmux status line and opens a
// blocking popup for confirm-kind interventions.
type Tmux struct {
	display  tmuxDisplay
	duration time.Duration
	logger   *zap.Logger
}

// NewTmux creates a tmux dispatcher.
func NewTmux(m *tmux.Manager, duration time.Duration, logger *zap.Logger) *Tmux {
	if duration <= 0 {
		duration = DefaultTmuxDuration
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tmux{display: m, duration: duration, logger: logger}
}

// Fire implements Dispatcher.
func (t *Tmux) Fire(_ context.Context, iv *domain.Intervention) error {
	if iv.Kind != domain.KindConfirm {
		d := t.duration
		if iv.Kind == domain.KindWarning {
			d *= 3
		}
		return t.display.DisplayMessage(iv.Title+": "+iv.Message, d)
	}

	// the popup blocks until the phrase is typed
	script := tmux.ConfirmScript(iv.Message, iv.ConfirmPhrase)
	go func() {
		if err := t.display.DisplayPopup(iv.Title, script); err != nil {
			t.logger.Warn("tmux popup failed", zap.Int("level", iv.Level), zap.Error(err))
		}
	}()
	return nil
}

// Name implements Dispatcher.
func (t *Tmux) Name() string { return "tmux" }
