package dispatch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/vburojevic/dwell/internal/domain"
	"go.uber.org/zap"
)

// DefaultExecTimeout bounds a background intervention command.
const DefaultExecTimeout = 5 * time.Minute

// Exec runs a shell command per intervention with DWELL_* variables set.
// The command is started synchronously so a missing binary surfaces as a
// dispatch failure; waiting for it happens in the background so blocking
// dialogs don't hold up the monitor.
type Exec struct {
	Command string
	Timeout time.Duration
	logger  *zap.Logger
}

// NewExec creates an exec dispatcher.
func NewExec(command string, timeout time.Duration, logger *zap.Logger) *Exec {
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Exec{Command: command, Timeout: timeout, logger: logger}
}

// Fire implements Dispatcher.
func (e *Exec) Fire(_ context.Context, iv *domain.Intervention) error {
	// not tied to the tick context: the command may outlive the tick
	ctx, cancel := context.WithTimeout(context.Background(), e.Timeout)
	cmd := exec.CommandContext(ctx, "sh", "-c", e.Command)
	cmd.Env = append(os.Environ(), interventionEnv(iv)...)

	if err := cmd.Start(); err != nil {
		cancel()
		return fmt.Errorf("start %q: %w", e.Command, err)
	}

	go func() {
		defer cancel()
		if err := cmd.Wait(); err != nil {
			e.logger.Warn("intervention command failed",
				zap.String("command", e.Command),
				zap.Int("level", iv.Level),
				zap.String("app", string(iv.App)),
				zap.Error(err))
		}
	}()
	return nil
}

// Name implements Dispatcher.
func (e *Exec) Name() string { return "exec" }

func interventionEnv(iv *domain.Intervention) []string {
	return []string{
		"DWELL_LEVEL=" + strconv.Itoa(iv.Level),
		"DWELL_KIND=" + string(iv.Kind),
		"DWELL_APP=" + string(iv.App),
		"DWELL_APP_NAME=" + iv.AppName,
		"DWELL_ELAPSED=" + strconv.FormatInt(iv.ElapsedSeconds, 10),
		"DWELL_SESSION=" + strconv.Itoa(iv.Session),
		"DWELL_TITLE=" + iv.Title,
		"DWELL_MESSAGE=" + iv.Message,
		"DWELL_CONFIRM_PHRASE=" + iv.ConfirmPhrase,
		"DWELL_TIMESTAMP=" + iv.Timestamp,
	}
}
