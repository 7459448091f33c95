package tui

import (
	"context"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/browser"

	"github.com/justchokingaround/archivist/internal/clipboard"
	"github.com/justchokingaround/archivist/internal/player"
	"github.com/justchokingaround/archivist/internal/tui/common"
	"github.com/justchokingaround/archivist/internal/tui/styles"
)

// Engine is the playback surface the view drives
type Engine interface {
	player.Transport
	SelectTrack(ctx context.Context, i int) error
	Retry(ctx context.Context) error
	Tracks() []player.Track
	Subscribe(l player.Listener) func()
	Timing() player.Timing
}

// Options configures the now-playing view
type Options struct {
	Title     string // item title shown in the header
	Clipboard clipboard.Service
	OpenURL   func(url string) error // defaults to the system browser
	Logger    *slog.Logger
	Now       func() time.Time
}

type failure struct {
	track  player.Track
	source player.Candidate
	err    *player.PlaybackError
}

// Model is the now-playing view
type Model struct {
	ctx      context.Context
	engine   Engine
	mediator *player.Mediator
	signals  *signalQueue
	stop     func()

	title     string
	clipboard clipboard.Service
	openURL   func(string) error
	logger    *slog.Logger
	now       func() time.Time

	tracks   []player.Track
	labels   []string
	snapshot player.Snapshot

	keys     KeyMap
	help     help.Model
	progress progress.Model
	filter   *common.FuzzySearch

	width  int
	height int

	notice        string
	noticeTime    time.Time
	statusMsg     string
	statusMsgTime time.Time
	blocked       bool
	failure       *failure
}

// New creates the view and subscribes it to engine. Close releases the
// subscription.
func New(ctx context.Context, engine Engine, opts Options) *Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.OpenURL == nil {
		opts.OpenURL = browser.OpenURL
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.NewService(opts.Logger, "")
	}

	m := &Model{
		ctx:       ctx,
		engine:    engine,
		mediator:  player.NewMediator(engine, engine.Timing()),
		signals:   newSignalQueue(),
		title:     opts.Title,
		clipboard: opts.Clipboard,
		openURL:   opts.OpenURL,
		logger:    opts.Logger.With("component", "tui"),
		now:       opts.Now,
		tracks:    engine.Tracks(),
		snapshot:  engine.Snapshot(),
		keys:      DefaultKeyMap(),
		help:      help.New(),
		progress: progress.New(
			progress.WithGradient(string(styles.OxocarbonPurple), string(styles.OxocarbonTeal)),
			progress.WithWidth(40),
			progress.WithoutPercentage(),
		),
		filter: common.NewFuzzySearch(),
	}
	m.labels = make([]string, len(m.tracks))
	for i, t := range m.tracks {
		m.labels[i] = t.Title + " " + t.Artist
	}
	m.stop = engine.Subscribe(m.signals.push)
	m.mediator.Touch(m.now())
	return m
}

// Close unsubscribes the view from the engine
func (m *Model) Close() {
	if m.stop != nil {
		m.stop()
		m.stop = nil
	}
}

// Init starts listening for engine signals
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.signals.wait(m.ctx), m.scheduleHide())
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.progress.Width = max(10, msg.Width-30)
		m.filter.SetWidth(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case common.SignalsMsg:
		return m, m.handleSignals(msg)

	case common.ControlsTickMsg:
		// nothing to update, the view reads the mediator's clock
		return m, nil

	case common.ClearNoticeMsg:
		if m.now().Sub(m.noticeTime) >= noticeDuration {
			m.notice = ""
		}
		return m, nil

	case common.ClearStatusMsg:
		if m.now().Sub(m.statusMsgTime) >= time.Second {
			m.statusMsg = ""
		}
		return m, nil

	case common.CopiedMsg:
		if msg.Err != nil {
			m.setStatus("✗ Copy failed: " + msg.Err.Error())
		} else {
			m.setStatus("📋 URL copied to clipboard")
		}
		return m, m.clearStatusLater()

	case common.OpenedMsg:
		if msg.Err != nil {
			m.setStatus("✗ Could not open browser: " + msg.Err.Error())
		} else {
			m.setStatus("✓ Opened in browser")
		}
		return m, m.clearStatusLater()

	case common.CommandErrorMsg:
		m.logger.Warn("player command failed", "error", msg.Err)
		m.setStatus("⚠ " + msg.Err.Error())
		return m, m.clearStatusLater()
	}

	return m, nil
}

func (m *Model) setStatus(text string) {
	m.statusMsg = text
	m.statusMsgTime = m.now()
}

func (m *Model) clearStatusLater() tea.Cmd {
	return tea.Tick(2500*time.Millisecond, func(time.Time) tea.Msg {
		return common.ClearStatusMsg{}
	})
}
