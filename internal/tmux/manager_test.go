package tmux

import (
	"errors"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) Command(req ...string) (string, error) {
	r.calls = append(r.calls, req)
	return "", r.err
}

func TestDisplayMessage(t *testing.T) {
	rec := &recorder{}
	m := &Manager{tmux: rec, target: "/dev/ttys001"}

	require.NoError(t, m.DisplayMessage("50% #done", 3*time.Second))
	require.Len(t, rec.calls, 1)
	assert.Equal(t, []string{"display-message", "-c", "/dev/ttys001", "-d", "3000", "50% ##done"}, rec.calls[0])
}

func TestDisplayPopupError(t *testing.T) {
	rec := &recorder{err: errors.New("no server running")}
	m := &Manager{tmux: rec}

	err := m.DisplayPopup("FINAL", "true")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "display-popup")
	assert.Equal(t, "true", rec.calls[0][len(rec.calls[0])-1])
}

func TestConfirmScriptAcceptsExactPhrase(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	script := ConfirmScript("It's late", "I choose to keep scrolling")

	cmd := exec.Command("sh", "-c", script)
	cmd.Stdin = strings.NewReader("nope\nI choose to keep scrolling\n")
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
	assert.Contains(t, string(out), "It's late")
	assert.Contains(t, string(out), "Type: I choose to keep scrolling")
}
