package player

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/palcycle/internal/export"
	"github.com/san-kum/palcycle/internal/logging"
	"github.com/san-kum/palcycle/internal/render"
	"github.com/san-kum/palcycle/internal/scene"
	"github.com/san-kum/palcycle/internal/timeline"
)

const (
	statusLines  = 2
	minTimeScale = 1.0 / 16
	maxTimeScale = 86400.0
	halfBlock    = "▀"
)

type TickMsg time.Time

type sceneLoadedMsg struct {
	scene *scene.Scene
	path  string
	err   error
}

// Options configures a Model.
type Options struct {
	FPS       int
	TimeScale float64
	Theme     string
	// Scenes lists scene files the "n" key steps through.
	Scenes []string
	Load   func(path string) (*scene.Scene, error)
	Now    func() time.Time
	Logger *logging.Logger
}

// Model is the terminal render loop. Time of day starts at the wall clock
// and advances TimeScale times faster than the animation clock.
type Model struct {
	session   *Session
	opts      Options
	log       *logging.Logger
	todStart  uint32
	elapsed   time.Duration
	// scaled holds the time of day played under earlier scales, in seconds;
	// scaledAt is the elapsed time when the current scale took over.
	scaled    float64
	scaledAt  time.Duration
	last      time.Time
	running   bool
	timeScale float64
	theme     int
	styles    styles
	showHelp  bool

	width, height int
	cols, rows    int
	cells         []uint8
	cellsFor      *scene.Scene

	frame    Frame
	err      error
	sceneIdx int
}

// NewModel starts the loop at the current wall-clock time of day.
func NewModel(session *Session, opts Options) Model {
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.TimeScale <= 0 {
		opts.TimeScale = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Load == nil {
		opts.Load = scene.Load
	}
	log := opts.Logger
	if log == nil {
		log = logging.Discard()
	}

	now := opts.Now()
	theme := themeIndex(opts.Theme)
	m := Model{
		session:   session,
		opts:      opts,
		log:       log.With("component", "player"),
		todStart:  timeline.SecondsOfDay(now),
		last:      now,
		running:   true,
		timeScale: opts.TimeScale,
		theme:     theme,
		styles:    newStyles(Themes[theme]),
		width:     80,
		height:    24,
	}
	if sc := session.Scene(); sc != nil {
		for i, p := range opts.Scenes {
			if strings.Contains(p, sc.Name) {
				m.sceneIdx = i
			}
		}
	}
	m.layout()
	m.refresh()
	return m
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(time.Second/time.Duration(m.opts.FPS), func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Update handles input events and advances the clocks.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.advance()
			m.running = !m.running
		case "+", "=":
			m.setTimeScale(min(m.timeScale*2, maxTimeScale))
		case "-", "_":
			m.setTimeScale(max(m.timeScale/2, minTimeScale))
		case "r":
			m.elapsed = 0
			m.scaled = 0
			m.scaledAt = 0
			m.last = m.opts.Now()
			m.todStart = timeline.SecondsOfDay(m.last)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = newStyles(Themes[m.theme])
		case "n":
			if len(m.opts.Scenes) > 0 {
				m.sceneIdx = (m.sceneIdx + 1) % len(m.opts.Scenes)
				return m, m.loadScene(m.opts.Scenes[m.sceneIdx])
			}
		case "?":
			m.showHelp = !m.showHelp
		}
		m.refresh()
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		m.refresh()
	case sceneLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.log.Error("scene load failed", "path", msg.path, "error", msg.err)
			return m, nil
		}
		old := m.session.Swap(msg.scene)
		m.err = nil
		if old != nil {
			m.log.Info("scene swapped", "from", old.Name, "to", msg.scene.Name)
		}
		m.refresh()
	case TickMsg:
		m.advance()
		m.refresh()
		return m, m.tick()
	}
	return m, nil
}

func (m Model) loadScene(path string) tea.Cmd {
	load := m.opts.Load
	return func() tea.Msg {
		s, err := load(path)
		return sceneLoadedMsg{scene: s, path: path, err: err}
	}
}

// advance moves the animation clock by the wall time since the last call
// while running.
func (m *Model) advance() {
	now := m.opts.Now()
	if m.running {
		m.elapsed += now.Sub(m.last)
	}
	m.last = now
}

// setTimeScale applies scale from now on. Time already played keeps the
// scale it was played at.
func (m *Model) setTimeScale(scale float64) {
	m.advance()
	m.scaled += (m.elapsed - m.scaledAt).Seconds() * m.timeScale
	m.scaledAt = m.elapsed
	m.timeScale = scale
}

// TimeOfDay is the query time for the resolver.
func (m Model) TimeOfDay() uint32 {
	played := m.scaled + (m.elapsed-m.scaledAt).Seconds()*m.timeScale
	return uint32((uint64(m.todStart) + uint64(played)) % scene.SecondsPerDay)
}

// Clock is the animation clock in milliseconds.
func (m Model) Clock() uint64 {
	return uint64(m.elapsed.Milliseconds())
}

func (m *Model) refresh() {
	f, err := m.session.Frame(m.TimeOfDay(), m.Clock())
	if err != nil {
		m.err = err
		return
	}
	m.frame = f
	if f.Scene != m.cellsFor {
		m.layout()
	}
}

// layout fits the scene into the terminal. Each character cell shows two
// vertically stacked pixels.
func (m *Model) layout() {
	sc := m.session.Scene()
	m.cellsFor = sc
	if sc == nil {
		m.cells = nil
		return
	}
	maxCols := max(m.width, 1)
	maxPix := max(m.height-statusLines, 1) * 2

	cols := maxCols
	pix := cols * sc.Height / sc.Width
	if pix > maxPix {
		pix = maxPix
		cols = max(pix*sc.Width/sc.Height, 1)
	}
	pix = max(pix-pix%2, 2)

	m.cols, m.rows = cols, pix/2
	m.cells = render.SampleIndices(sc, cols, pix)
}

func (m Model) View() string {
	var b strings.Builder
	if m.frame.Scene != nil && len(m.cells) == m.cols*m.rows*2 {
		m.drawScene(&b)
	}
	b.WriteString(m.statusBar())
	if m.showHelp {
		b.WriteString("\n")
		b.WriteString(m.styles.help.Render("space pause  +/- time scale  n next scene  t theme  r reset  q quit"))
	}
	return b.String()
}

// drawScene writes half-block rows, merging runs of identical color pairs
// into one styled segment.
func (m Model) drawScene(b *strings.Builder) {
	t := &m.frame.Table
	for r := 0; r < m.rows; r++ {
		top := m.cells[(2*r)*m.cols : (2*r+1)*m.cols]
		bottom := m.cells[(2*r+1)*m.cols : (2*r+2)*m.cols]

		start := 0
		for x := 1; x <= m.cols; x++ {
			if x < m.cols && t[top[x]] == t[top[start]] && t[bottom[x]] == t[bottom[start]] {
				continue
			}
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(export.Hex(t[top[start]]))).
				Background(lipgloss.Color(export.Hex(t[bottom[start]])))
			b.WriteString(style.Render(strings.Repeat(halfBlock, x-start)))
			start = x
		}
		b.WriteString("\n")
	}
}

func (m Model) statusBar() string {
	s := m.styles
	state := s.status.Render("▶ playing")
	if !m.running {
		state = s.paused.Render("⏸ paused")
	}

	name := "-"
	if sc := m.session.Scene(); sc != nil {
		name = sc.Name
	}

	var next string
	if sc := m.session.Scene(); sc != nil {
		if bp, err := timeline.Next(sc.Timeline, m.TimeOfDay()); err == nil {
			next = fmt.Sprintf("%s at %s", bp.Palette, timeline.Format(bp.Seconds))
		}
	}

	line := strings.Join([]string{
		s.title.Render(name),
		s.label.Render("palette ") + s.value.Render(m.frame.Palette),
		s.label.Render("time ") + s.value.Render(timeline.Format(m.TimeOfDay())),
		s.label.Render("next ") + s.value.Render(next),
		s.label.Render("x") + s.value.Render(formatScale(m.timeScale)),
		state,
	}, "  ")

	if m.err != nil {
		line += "\n" + s.errs.Render(m.err.Error())
	}
	return line
}

func formatScale(v float64) string {
	if v >= 1 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.3g", v)
}
