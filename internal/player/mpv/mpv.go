package mpv

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/diniamo/gopv"
	"github.com/justchokingaround/archivist/internal/config"
	"github.com/justchokingaround/archivist/internal/player"
)

// DefaultUserAgent avoids 403s from hosts that reject mpv's own agent
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Options configures the mpv element
type Options struct {
	Args           []string
	LoadUserConfig bool
	Debug          bool
	Volume         int
	UserAgent      string

	// PollInterval is how often playback properties are sampled
	PollInterval time.Duration
	// LoadTimeout bounds how long a source may take to report metadata
	LoadTimeout time.Duration
	// IdleGrace is how long mpv may stay idle after loadfile before the
	// source counts as failed
	IdleGrace time.Duration

	Logger *slog.Logger
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = 250 * time.Millisecond
	}
	if o.LoadTimeout <= 0 {
		o.LoadTimeout = 30 * time.Second
	}
	if o.IdleGrace <= 0 {
		o.IdleGrace = 1500 * time.Millisecond
	}
	if o.UserAgent == "" {
		o.UserAgent = DefaultUserAgent
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// Element implements player.Element with a single long-lived mpv
// process driven over JSON IPC. Sources are swapped with loadfile, so
// window position and volume survive track changes.
type Element struct {
	mu sync.Mutex

	// mpv process and IPC
	client    *gopv.Client
	cmd       *exec.Cmd
	ipcConfig *IPCConfig
	platform  Platform

	// Current source
	gen         player.Generation
	poll        pollState
	pauseWanted bool

	onEvent func(player.Event)

	// Control
	cancel  context.CancelFunc
	closing bool

	opts Options
}

// NewElement creates an mpv element. mpv is started on the first Load.
func NewElement(opts Options) (*Element, error) {
	platform := DetectPlatform()

	// Verify mpv executable is available
	if _, err := FindMPVExecutable(platform); err != nil {
		return nil, fmt.Errorf("mpv not found: %w", err)
	}

	return &Element{
		platform:    platform,
		pauseWanted: true,
		opts:        opts.withDefaults(),
	}, nil
}

// NewElementWithConfig creates an mpv element from the player section of
// the configuration
func NewElementWithConfig(cfg *config.Config, logger *slog.Logger) (*Element, error) {
	return NewElement(Options{
		Args:           cfg.Player.MPVArgs,
		LoadUserConfig: cfg.Player.LoadUserConfig,
		Debug:          cfg.Advanced.Debug,
		Volume:         cfg.Player.Volume,
		UserAgent:      cfg.Catalog.UserAgent,
		PollInterval:   cfg.Player.PollInterval,
		LoadTimeout:    cfg.Player.LoadTimeout,
		Logger:         logger,
	})
}

// OnEvent sets the event callback. It is called from the element's
// monitor goroutines, never from inside another Element method.
func (p *Element) OnEvent(callback func(player.Event)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onEvent = callback
}

// Load replaces the current file with src, paused
func (p *Element) Load(ctx context.Context, src player.Candidate, gen player.Generation, opts player.LoadOptions) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closing {
		return &player.ElementError{Kind: player.ErrorAborted, Err: errors.New("element closed")}
	}

	if err := p.ensureRunningLocked(ctx); err != nil {
		return &player.ElementError{Kind: player.ErrorAborted, Err: err}
	}

	if opts.UserAgent == "" {
		opts.UserAgent = p.opts.UserAgent
	}
	for _, prop := range loadProperties(opts) {
		if _, err := p.client.Request("set_property", prop.name, prop.value); err != nil {
			p.opts.Logger.Debug("failed to set mpv property", "property", prop.name, "error", err)
		}
	}

	// the next file must not start before the session asks for it
	if _, err := p.client.Request("set_property", "pause", true); err != nil {
		return fmt.Errorf("failed to pause before load: %w", err)
	}
	p.pauseWanted = true

	if _, err := p.client.Request("loadfile", src.URL, "replace"); err != nil {
		return &player.ElementError{Kind: player.ErrorUnsupported, Err: fmt.Errorf("loadfile %s: %w", src.URL, err)}
	}

	p.gen = gen
	p.poll = pollState{gen: gen, loadedAt: time.Now(), paused: true}

	p.opts.Logger.Debug("mpv loadfile", "url", src.URL, "format", src.Format, "generation", gen)
	return nil
}

// Play resumes playback
func (p *Element) Play(ctx context.Context) error {
	return p.setPause(false)
}

// Pause pauses playback
func (p *Element) Pause(ctx context.Context) error {
	return p.setPause(true)
}

func (p *Element) setPause(paused bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return player.ErrNotLoaded
	}
	if _, err := p.client.Request("set_property", "pause", paused); err != nil {
		return fmt.Errorf("failed to set pause: %w", err)
	}
	p.pauseWanted = paused
	return nil
}

// Seek moves the play head to seconds
func (p *Element) Seek(ctx context.Context, seconds float64) error {
	return p.setProperty("time-pos", seconds)
}

// SetVolume sets the mpv volume (0-100)
func (p *Element) SetVolume(ctx context.Context, volume int) error {
	return p.setProperty("volume", volume)
}

// SetRate sets the playback speed
func (p *Element) SetRate(ctx context.Context, rate float64) error {
	return p.setProperty("speed", rate)
}

func (p *Element) setProperty(name string, value any) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.client == nil {
		return player.ErrNotLoaded
	}
	if _, err := p.client.Request("set_property", name, value); err != nil {
		return fmt.Errorf("failed to set %s: %w", name, err)
	}
	return nil
}

// Close quits mpv and releases IPC resources
func (p *Element) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closing = true
	return p.stopLocked()
}

// ensureRunningLocked starts mpv and connects to it unless it is
// already running (must be called with lock held)
func (p *Element) ensureRunningLocked(ctx context.Context) error {
	if p.client != nil {
		return nil
	}

	mpvExec := GetMPVExecutable(p.platform)
	if _, err := exec.LookPath(mpvExec); err != nil {
		return fmt.Errorf("mpv executable not found in PATH (%s): %w", mpvExec, err)
	}

	ipcConfig, err := GetIPCConfig(p.platform)
	if err != nil {
		return fmt.Errorf("failed to generate IPC config: %w", err)
	}
	p.ipcConfig = ipcConfig

	cmd := exec.Command(mpvExec, p.buildMPVArgs()...)

	// Detach mpv from the terminal so it cannot interfere with the TUI
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	setupProcessAttributes(cmd)

	if err := cmd.Start(); err != nil {
		p.cleanupIPC()
		return fmt.Errorf("failed to start %s: %w", mpvExec, err)
	}
	p.cmd = cmd

	initCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := p.waitForIPC(initCtx); err != nil {
		_ = cmd.Process.Kill()
		p.cmd = nil
		p.cleanupIPC()
		return fmt.Errorf("timeout waiting for mpv IPC at %s: %w", ipcConfig.Address, err)
	}

	connStr := GetGopvConnectionString(ipcConfig)
	client, err := gopv.Connect(connStr, func(err error) {
		p.opts.Logger.Debug("mpv IPC error", "error", err)
	})
	if err != nil {
		_ = cmd.Process.Kill()
		p.cmd = nil
		p.cleanupIPC()
		return fmt.Errorf("failed to connect to mpv IPC at %s: %w", connStr, err)
	}
	p.client = client

	monitorCtx, monitorCancel := context.WithCancel(context.Background())
	p.cancel = monitorCancel
	go p.monitorPlayback(monitorCtx, client)
	go p.monitorProcess(cmd)

	p.opts.Logger.Info("mpv started", "ipc", ipcConfig.Address)
	return nil
}

// stopLocked stops mpv without locking (must be called with lock held)
func (p *Element) stopLocked() error {
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}

	// Ask mpv to quit and let gopv's reader close the connection on EOF
	if p.client != nil {
		client := p.client
		p.client = nil
		go func() {
			done := make(chan struct{})
			go func() {
				_, _ = client.Request("quit")
				close(done)
			}()
			select {
			case <-done:
			case <-time.After(500 * time.Millisecond):
			}
		}()
	}

	// monitorProcess owns Wait()
	if p.cmd != nil && p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	p.cmd = nil

	p.cleanupIPC()
	return nil
}

// cleanupIPC cleans up IPC resources (sockets, files, etc.)
func (p *Element) cleanupIPC() {
	if p.ipcConfig != nil && p.ipcConfig.IsSocket {
		_ = os.Remove(p.ipcConfig.Address)
	}
	p.ipcConfig = nil
}

// sampleLocked reads the properties the poll loop needs (must be called
// with lock held)
func (p *Element) sampleLocked(client *gopv.Client) (sample, error) {
	var s sample
	var failures int

	if v, err := client.Request("get_property", "time-pos"); err == nil {
		s.position, s.hasPosition = v.(float64)
	} else {
		failures++
	}
	if v, err := client.Request("get_property", "duration"); err == nil {
		s.duration, _ = v.(float64)
	} else {
		failures++
	}
	if v, err := client.Request("get_property", "pause"); err == nil {
		s.paused, _ = v.(bool)
	} else {
		failures++
	}
	if v, err := client.Request("get_property", "eof-reached"); err == nil {
		s.eof, _ = v.(bool)
	}
	if v, err := client.Request("get_property", "idle-active"); err == nil {
		s.idle, _ = v.(bool)
	} else {
		failures++
	}

	// Too many failures means the IPC connection is gone
	if failures >= 3 {
		return s, fmt.Errorf("IPC connection failed (failed to get %d properties)", failures)
	}
	s.pauseWanted = p.pauseWanted
	return s, nil
}

// monitorPlayback samples mpv and turns changes into events
func (p *Element) monitorPlayback(ctx context.Context, client *gopv.Client) {
	ticker := time.NewTicker(p.opts.PollInterval)
	defer ticker.Stop()

	var ipcFailures int
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		p.mu.Lock()
		if p.client != client {
			p.mu.Unlock()
			return
		}
		if p.poll.gen == 0 {
			p.mu.Unlock()
			continue
		}

		s, err := p.sampleLocked(client)
		if err != nil {
			p.mu.Unlock()
			ipcFailures++
			p.opts.Logger.Debug("mpv sample failed", "error", err, "failures", ipcFailures)
			continue
		}
		ipcFailures = 0

		next, events := derive(p.poll, s, time.Now(), p.opts.IdleGrace, p.opts.LoadTimeout)
		p.poll = next
		if next.paused != p.pauseWanted && next.metadata {
			// the user toggled pause inside the mpv window
			p.pauseWanted = next.paused
		}
		callback := p.onEvent
		p.mu.Unlock()

		if callback != nil {
			for _, ev := range events {
				callback(ev)
			}
		}
	}
}

// monitorProcess reports an mpv exit that nobody asked for
func (p *Element) monitorProcess(cmd *exec.Cmd) {
	err := cmd.Wait()

	p.mu.Lock()
	if p.cmd != cmd || p.closing {
		p.mu.Unlock()
		return
	}
	gen := p.gen
	callback := p.onEvent
	_ = p.stopLocked()
	p.mu.Unlock()

	if err == nil {
		err = errors.New("mpv exited")
	}
	p.opts.Logger.Warn("mpv process exited unexpectedly", "error", err)

	if callback != nil && gen != 0 {
		callback(player.Event{
			Kind:       player.EventError,
			Generation: gen,
			Err:        &player.ElementError{Kind: player.ErrorAborted, Err: fmt.Errorf("mpv process exited unexpectedly: %w", err)},
		})
	}
}

// buildMPVArgs builds the command-line arguments for the idle mpv process
func (p *Element) buildMPVArgs() []string {
	args := []string{
		GetMPVIPCArgument(p.ipcConfig),
		"--idle=yes",      // Keep mpv running between sources
		"--keep-open=yes", // Stay on the last frame so ended tracks can be replayed
		"--pause=yes",     // Sources start paused until the session plays them
		"--no-ytdl",       // Sources are direct downloads
	}

	if !p.opts.LoadUserConfig {
		args = append(args, "--no-config")
	}

	if !p.opts.Debug {
		args = append(args, "--msg-level=all=warn")
	}

	if p.opts.Volume > 0 {
		args = append(args, fmt.Sprintf("--volume=%d", p.opts.Volume))
	}

	return append(args, p.opts.Args...)
}

type property struct {
	name  string
	value any
}

// loadProperties returns the per-source properties set before loadfile
func loadProperties(opts player.LoadOptions) []property {
	props := []property{
		{name: "force-media-title", value: opts.Title},
		{name: "user-agent", value: opts.UserAgent},
		{name: "referrer", value: opts.Referer},
	}

	headers := make([]string, 0, len(opts.Headers))
	for key, value := range opts.Headers {
		if key != "User-Agent" && key != "Referer" {
			headers = append(headers, fmt.Sprintf("%s: %s", key, value))
		}
	}
	sort.Strings(headers)
	props = append(props, property{name: "http-header-fields", value: strings.Join(headers, ",")})

	return props
}

// waitForIPC waits for the IPC endpoint to accept connections
func (p *Element) waitForIPC(ctx context.Context) error {
	// Named pipes and TCP take longer (mpv.exe started from WSL)
	timeoutDuration := 5 * time.Second
	if p.ipcConfig.Type == IPCTCP || p.ipcConfig.Type == IPCNamedPipe {
		timeoutDuration = 10 * time.Second
	}

	timeout := time.After(timeoutDuration)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timeout:
			return fmt.Errorf("timeout waiting for IPC at %s after %v", p.ipcConfig.Address, timeoutDuration)
		case <-ticker.C:
			switch {
			case p.ipcConfig.IsSocket:
				if _, err := os.Stat(p.ipcConfig.Address); err == nil {
					// Socket exists, wait a bit more for it to be ready
					time.Sleep(200 * time.Millisecond)
					return nil
				}
			case p.ipcConfig.Type == IPCTCP:
				conn, err := net.DialTimeout("tcp", p.ipcConfig.Address, 200*time.Millisecond)
				if err == nil {
					_ = conn.Close()
					time.Sleep(300 * time.Millisecond)
					return nil
				}
			case p.ipcConfig.Type == IPCNamedPipe:
				if isPipeReady(p.ipcConfig.Address) {
					time.Sleep(200 * time.Millisecond)
					return nil
				}
			}
		}
	}
}
