// Package tmux shows messages and popups in a running tmux server.
package tmux

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/GianlucaP106/gotmux/gotmux"
)

// ErrNotAvailable is returned when no tmux binary or server can be used.
var ErrNotAvailable = errors.New("tmux not available")

// commander is the slice of gotmux used here.
type commander interface {
	Command(req ...string) (string, error)
}

// Manager issues display commands against one tmux target.
type Manager struct {
	tmux   commander
	target string // client or session, empty for tmux's default
}

// IsTmuxAvailable checks whether a tmux binary is on PATH.
func IsTmuxAvailable() bool {
	_, err := exec.LookPath("tmux")
	return err == nil
}

// InsideTmux reports whether this process runs inside a tmux client.
func InsideTmux() bool {
	return os.Getenv("TMUX") != ""
}

// NewManager connects to the default tmux server.
func NewManager(target string) (*Manager, error) {
	if !IsTmuxAvailable() {
		return nil, ErrNotAvailable
	}
	t, err := gotmux.DefaultTmux()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	return &Manager{tmux: t, target: target}, nil
}

// DisplayMessage shows a status-line message for d.
func (m *Manager) DisplayMessage(message string, d time.Duration) error {
	args := []string{"display-message"}
	if m.target != "" {
		args = append(args, "-c", m.target)
	}
	args = append(args, "-d", strconv.FormatInt(d.Milliseconds(), 10), escapeFormat(message))
	if _, err := m.tmux.Command(args...); err != nil {
		return fmt.Errorf("display-message: %w", err)
	}
	return nil
}

// DisplayPopup opens a popup running shellCommand and closes it when the
// command exits.
func (m *Manager) DisplayPopup(title, shellCommand string) error {
	args := []string{"display-popup", "-E", "-w", "70%", "-h", "40%", "-T", escapeFormat(title)}
	if m.target != "" {
		args = append(args, "-c", m.target)
	}
	args = append(args, shellCommand)
	if _, err := m.tmux.Command(args...); err != nil {
		return fmt.Errorf("display-popup: %w", err)
	}
	return nil
}

// ConfirmScript returns a shell loop that keeps asking until phrase is typed
// exactly.
func ConfirmScript(message, phrase string) string {
	return fmt.Sprintf(
		`printf '%%s\n\nType: %%s\n' %s %s; while IFS= read -r line; do [ "$line" = %s ] && exit 0; printf 'Type: %%s\n' %s; done`,
		shellQuote(message), shellQuote(phrase), shellQuote(phrase), shellQuote(phrase),
	)
}

// escapeFormat keeps tmux from expanding #{...} formats in user text.
func escapeFormat(s string) string {
	return strings.ReplaceAll(s, "#", "##")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}
