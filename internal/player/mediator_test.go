package player

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMediatorHarness(t *testing.T, duration float64) (*engineHarness, *Mediator) {
	t.Helper()
	h := newEngineHarness(t, tracks("A", "B", "C"))
	h.playing(t, duration)
	return h, NewMediator(h.e, h.e.Timing())
}

func TestMediatorDoubleTapSeeksOnce(t *testing.T) {
	h, m := newMediatorHarness(t, 120)
	ctx := context.Background()
	require.NoError(t, h.e.SeekTo(ctx, 50))
	h.el.seeks = nil

	t0 := time.Unix(1000, 0)
	seeked, err := m.Tap(ctx, ZoneLeft, t0)
	require.NoError(t, err)
	assert.False(t, seeked, "a single tap does not seek")

	seeked, err = m.Tap(ctx, ZoneLeft, t0.Add(200*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, seeked)

	assert.Equal(t, []float64{40}, h.el.seeks)
	assert.Equal(t, 40.0, h.e.Snapshot().State.Position)
}

func TestMediatorTapPairs(t *testing.T) {
	t0 := time.Unix(1000, 0)
	ms := func(n int) time.Time { return t0.Add(time.Duration(n) * time.Millisecond) }

	tests := []struct {
		name  string
		taps  []Zone
		at    []time.Time
		seeks []float64
	}{
		{
			name:  "right double tap skips forward",
			taps:  []Zone{ZoneRight, ZoneRight},
			at:    []time.Time{ms(0), ms(300)},
			seeks: []float64{60},
		},
		{
			name: "taps outside the window are singles",
			taps: []Zone{ZoneLeft, ZoneLeft},
			at:   []time.Time{ms(0), ms(301)},
		},
		{
			name: "different zones do not pair",
			taps: []Zone{ZoneLeft, ZoneRight},
			at:   []time.Time{ms(0), ms(100)},
		},
		{
			name:  "third tap starts a new window",
			taps:  []Zone{ZoneLeft, ZoneLeft, ZoneLeft},
			at:    []time.Time{ms(0), ms(100), ms(200)},
			seeks: []float64{40},
		},
		{
			name:  "four quick taps are two doubles",
			taps:  []Zone{ZoneRight, ZoneRight, ZoneRight, ZoneRight},
			at:    []time.Time{ms(0), ms(100), ms(200), ms(300)},
			seeks: []float64{60, 70},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, m := newMediatorHarness(t, 120)
			ctx := context.Background()
			require.NoError(t, h.e.SeekTo(ctx, 50))
			h.el.seeks = nil

			for i, z := range tt.taps {
				_, err := m.Tap(ctx, z, tt.at[i])
				require.NoError(t, err)
			}
			if tt.seeks == nil {
				assert.Empty(t, h.el.seeks)
			} else {
				assert.Equal(t, tt.seeks, h.el.seeks)
			}
		})
	}
}

func TestMediatorDoubleTapClamps(t *testing.T) {
	h, m := newMediatorHarness(t, 120)
	ctx := context.Background()
	require.NoError(t, h.e.SeekTo(ctx, 4))

	t0 := time.Unix(1000, 0)
	_, _ = m.Tap(ctx, ZoneLeft, t0)
	_, _ = m.Tap(ctx, ZoneLeft, t0.Add(50*time.Millisecond))
	assert.Equal(t, 0.0, h.e.Snapshot().State.Position)
}

func TestMediatorKeys(t *testing.T) {
	h, m := newMediatorHarness(t, 120)
	ctx := context.Background()
	now := time.Unix(1000, 0)

	handled, err := m.Key(ctx, KeySpace, now)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, StatusPaused, h.e.Snapshot().State.Status)

	handled, err = m.Key(ctx, KeyRight, now)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 1, h.e.Snapshot().Index)

	handled, err = m.Key(ctx, KeyLeft, now)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, 0, h.e.Snapshot().Index)

	handled, err = m.Key(ctx, Key("q"), now)
	require.NoError(t, err)
	assert.False(t, handled, "unknown keys are left to the host")
}

func TestMediatorKeysNeedFocus(t *testing.T) {
	h, m := newMediatorHarness(t, 120)
	m.SetFocused(false)

	handled, err := m.Key(context.Background(), KeySpace, time.Now())
	require.NoError(t, err)
	assert.False(t, handled)
	assert.Equal(t, StatusPlaying, h.e.Snapshot().State.Status)
}

func TestMediatorExtraKeys(t *testing.T) {
	h, m := newMediatorHarness(t, 120)
	ctx := context.Background()
	now := time.Unix(1000, 0)

	_, err := m.Key(ctx, KeyDown, now)
	require.NoError(t, err)
	assert.Equal(t, 95, h.e.Snapshot().State.Volume)

	_, err = m.Key(ctx, KeyMute, now)
	require.NoError(t, err)
	assert.True(t, h.e.Snapshot().State.Muted)

	_, err = m.Key(ctx, KeyFaster, now)
	require.NoError(t, err)
	assert.Equal(t, 1.25, h.e.Snapshot().State.Rate)

	_, err = m.Key(ctx, KeySlower, now)
	require.NoError(t, err)
	_, err = m.Key(ctx, KeySlower, now)
	require.NoError(t, err)
	assert.Equal(t, 0.75, h.e.Snapshot().State.Rate)

	_, err = m.Key(ctx, KeyShuffle, now)
	require.NoError(t, err)
	_, err = m.Key(ctx, KeyRepeat, now)
	require.NoError(t, err)
	snap := h.e.Snapshot()
	assert.True(t, snap.Shuffled)
	assert.Equal(t, RepeatAll, snap.Repeat)
}

func TestMediatorScrubAndVolume(t *testing.T) {
	h, m := newMediatorHarness(t, 100)
	ctx := context.Background()
	now := time.Unix(1000, 0)

	require.NoError(t, m.Scrub(ctx, 0.5, now))
	assert.Equal(t, 50.0, h.e.Snapshot().State.Position)

	require.NoError(t, m.Volume(ctx, 0, now))
	assert.True(t, h.e.Snapshot().State.Muted)
}

func TestMediatorControlsAutoHide(t *testing.T) {
	_, m := newMediatorHarness(t, 100)
	t0 := time.Unix(1000, 0)

	m.Touch(t0)
	assert.True(t, m.ControlsVisible(StatusPlaying, t0.Add(2999*time.Millisecond)))
	assert.False(t, m.ControlsVisible(StatusPlaying, t0.Add(3*time.Second)))
	assert.True(t, m.ControlsVisible(StatusPaused, t0.Add(time.Hour)), "controls stay while not playing")
	assert.Equal(t, t0.Add(3*time.Second), m.HideAt())

	// any interaction resets the timer
	_, _ = m.Tap(context.Background(), ZoneRight, t0.Add(2*time.Second))
	assert.True(t, m.ControlsVisible(StatusPlaying, t0.Add(4*time.Second)))
}

func TestStepRate(t *testing.T) {
	assert.Equal(t, 1.25, StepRate(1.0, 1))
	assert.Equal(t, 0.75, StepRate(1.0, -1))
	assert.Equal(t, 2.0, StepRate(2.0, 1))
	assert.Equal(t, 0.25, StepRate(0.25, -1))
	assert.Equal(t, 1.5, StepRate(1.4, 1), "unknown rates snap to the nearest")
}

func TestTimingDefaults(t *testing.T) {
	got := Timing{SkipInterval: 5 * time.Second}.withDefaults()
	assert.Equal(t, 300*time.Millisecond, got.DoubleTapWindow)
	assert.Equal(t, 3*time.Second, got.ControlsHideDelay)
	assert.Equal(t, 5*time.Second, got.SkipInterval)
	assert.Equal(t, DefaultRestartThreshold, got.RestartThreshold)
}
