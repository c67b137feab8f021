package sampler

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vburojevic/dwell/internal/domain"
)

func TestParseScript(t *testing.T) {
	in := `
# warm up
15m com.instagram.android
30s -   # home screen
1h com.google.android.youtube
`
	segs, err := ParseScript(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, segs, 3)
	assert.Equal(t, Segment{App: "com.instagram.android", Duration: 15 * time.Minute}, segs[0])
	assert.Equal(t, Segment{App: domain.None, Duration: 30 * time.Second}, segs[1])
	assert.Equal(t, time.Hour, segs[2].Duration)
}

func TestParseScriptErrors(t *testing.T) {
	for _, in := range []string{"15m", "soon com.x", "0s com.x", "1m com.x extra"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseScript(strings.NewReader(in))
			assert.Error(t, err)
		})
	}
}

func TestScriptSamplerReplay(t *testing.T) {
	origin := time.Date(2025, 12, 14, 22, 0, 0, 0, time.UTC)
	s := NewScriptSampler(origin, []Segment{
		{App: "a", Duration: 10 * time.Second},
		{App: domain.None, Duration: 5 * time.Second},
		{App: "b", Duration: 10 * time.Second},
	})
	assert.Equal(t, 25*time.Second, s.Total())

	cases := map[int]domain.AppID{-1: domain.None, 0: "a", 9: "a", 10: domain.None, 14: domain.None, 15: "b", 24: "b", 25: domain.None}
	for offset, want := range cases {
		end := origin.Add(time.Duration(offset) * time.Second)
		got, err := s.Sample(context.Background(), end.Add(-DefaultWindow), end)
		require.NoError(t, err)
		assert.Equal(t, want, got, "offset %d", offset)
	}
}
