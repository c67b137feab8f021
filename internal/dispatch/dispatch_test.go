package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/dwell/internal/domain"
)

func intervention(kind domain.Kind, level int) *domain.Intervention {
	rung := domain.Rung{Level: level, After: time.Duration(level) * 15 * time.Minute, Kind: kind}
	return domain.NewIntervention("run-1", 1, rung, "com.instagram.android", "Instagram", rung.After, time.Now())
}

func TestMultiJoinsErrors(t *testing.T) {
	var calls []string
	ok := Func(func(context.Context, *domain.Intervention) error {
		calls = append(calls, "ok")
		return nil
	})
	bad := Func(func(context.Context, *domain.Intervention) error {
		calls = append(calls, "bad")
		return errors.New("rejected")
	})

	err := Multi{bad, ok, Nop{}}.Fire(context.Background(), intervention(domain.KindReminder, 1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "func: rejected")
	assert.Equal(t, []string{"bad", "ok"}, calls)

	assert.NoError(t, Multi{ok}.Fire(context.Background(), intervention(domain.KindReminder, 1)))
	assert.NoError(t, Multi{}.Fire(context.Background(), intervention(domain.KindReminder, 1)))
}

func TestConsole(t *testing.T) {
	buf := &bytes.Buffer{}
	c := NewConsole(buf)

	require.NoError(t, c.Fire(context.Background(), intervention(domain.KindReminder, 1)))
	out := buf.String()
	assert.Contains(t, out, "Remember your goal!")
	assert.Contains(t, out, "15m in Instagram")
	assert.NotContains(t, out, "\a")

	buf.Reset()
	require.NoError(t, c.Fire(context.Background(), intervention(domain.KindConfirm, 3)))
	out = buf.String()
	assert.True(t, strings.HasPrefix(out, "\a"))
	assert.Contains(t, out, domain.ConfirmPhrase)
	assert.Equal(t, "console", c.Name())
}

func TestExecPassesEnvironment(t *testing.T) {
	out := filepath.Join(t.TempDir(), "env.txt")
	e := NewExec(`printf '%s|%s|%s' "$DWELL_LEVEL" "$DWELL_APP_NAME" "$DWELL_KIND" > `+out, time.Minute, nil)

	require.NoError(t, e.Fire(context.Background(), intervention(domain.KindWarning, 2)))
	require.Eventually(t, func() bool {
		b, err := os.ReadFile(out)
		return err == nil && string(b) == "2|Instagram|warning"
	}, 5*time.Second, 20*time.Millisecond)
}

type fakeDisplay struct {
	mu       sync.Mutex
	messages []string
	popups   []string
	durs     []time.Duration
}

func (f *fakeDisplay) DisplayMessage(message string, d time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	f.durs = append(f.durs, d)
	return nil
}

func (f *fakeDisplay) DisplayPopup(title, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.popups = append(f.popups, title)
	return nil
}

func TestTmuxRoutesByKind(t *testing.T) {
	fake := &fakeDisplay{}
	d := &Tmux{display: fake, duration: time.Second}

	require.NoError(t, d.Fire(context.Background(), intervention(domain.KindReminder, 1)))
	require.NoError(t, d.Fire(context.Background(), intervention(domain.KindWarning, 2)))
	require.NoError(t, d.Fire(context.Background(), intervention(domain.KindConfirm, 3)))

	require.Eventually(t, func() bool {
		fake.mu.Lock()
		defer fake.mu.Unlock()
		return len(fake.popups) == 1
	}, time.Second, 10*time.Millisecond)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	require.Len(t, fake.messages, 2)
	assert.True(t, strings.HasPrefix(fake.messages[0], "Remember your goal!: "))
	assert.Equal(t, []time.Duration{time.Second, 3 * time.Second}, fake.durs)
	assert.Equal(t, "FINAL WARNING", fake.popups[0])
}
