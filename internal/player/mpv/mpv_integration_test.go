//go:build integration

package mpv

import (
	"context"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/justchokingaround/archivist/internal/player"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lavfi sources need no network
const testSource = "av://lavfi:testsrc=duration=3:size=320x240:rate=30"

func checkMPVAvailable(t *testing.T) {
	if _, err := exec.LookPath("mpv"); err != nil {
		t.Skip("mpv not available, skipping integration tests")
	}
}

type eventLog struct {
	mu     sync.Mutex
	events []player.Event
}

func (l *eventLog) add(ev player.Event) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
}

func (l *eventLog) has(kind player.EventKind) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, ev := range l.events {
		if ev.Kind == kind {
			return true
		}
	}
	return false
}

func newTestElement(t *testing.T) (*Element, *eventLog) {
	t.Helper()
	checkMPVAvailable(t)

	p, err := NewElement(Options{Args: []string{"--vo=null", "--ao=null"}, PollInterval: 100 * time.Millisecond})
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	log := &eventLog{}
	p.OnEvent(log.add)
	return p, log
}

func TestElement_LoadReportsMetadata(t *testing.T) {
	p, log := newTestElement(t)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx, player.Candidate{URL: testSource}, 1, player.LoadOptions{Title: "test"}))
	assert.Eventually(t, func() bool { return log.has(player.EventMetadataReady) }, 10*time.Second, 100*time.Millisecond)
}

func TestElement_PlaysToEnd(t *testing.T) {
	p, log := newTestElement(t)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx, player.Candidate{URL: testSource}, 1, player.LoadOptions{}))
	require.Eventually(t, func() bool { return log.has(player.EventMetadataReady) }, 10*time.Second, 100*time.Millisecond)

	require.NoError(t, p.Play(ctx))
	assert.Eventually(t, func() bool { return log.has(player.EventEnded) }, 15*time.Second, 100*time.Millisecond)
	assert.True(t, log.has(player.EventTimeProgress))
}

func TestElement_SeekAndRate(t *testing.T) {
	p, log := newTestElement(t)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx, player.Candidate{URL: testSource}, 1, player.LoadOptions{}))
	require.Eventually(t, func() bool { return log.has(player.EventMetadataReady) }, 10*time.Second, 100*time.Millisecond)

	assert.NoError(t, p.Seek(ctx, 1.5))
	assert.NoError(t, p.SetRate(ctx, 1.5))
	assert.NoError(t, p.SetVolume(ctx, 0))
}

func TestElement_BadSourceFails(t *testing.T) {
	p, log := newTestElement(t)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx, player.Candidate{URL: "/nonexistent/archivist/missing.mp4"}, 1, player.LoadOptions{}))
	assert.Eventually(t, func() bool { return log.has(player.EventError) }, 10*time.Second, 100*time.Millisecond)
}

func TestElement_ReloadKeepsProcess(t *testing.T) {
	p, log := newTestElement(t)
	ctx := context.Background()

	require.NoError(t, p.Load(ctx, player.Candidate{URL: testSource}, 1, player.LoadOptions{}))
	p.mu.Lock()
	first := p.cmd
	p.mu.Unlock()

	require.NoError(t, p.Load(ctx, player.Candidate{URL: testSource}, 2, player.LoadOptions{}))
	p.mu.Lock()
	assert.Same(t, first, p.cmd)
	p.mu.Unlock()

	assert.Eventually(t, func() bool {
		log.mu.Lock()
		defer log.mu.Unlock()
		for _, ev := range log.events {
			if ev.Kind == player.EventMetadataReady && ev.Generation == 2 {
				return true
			}
		}
		return false
	}, 10*time.Second, 100*time.Millisecond)
}
