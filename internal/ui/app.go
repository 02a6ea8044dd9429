package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/viral/internal/logging"
	"github.com/abelbrown/viral/internal/otel"
	"github.com/abelbrown/viral/internal/pipeline"
	"github.com/abelbrown/viral/internal/run"
	"github.com/abelbrown/viral/internal/selection"
)

// copiedFor is how long the "Copied" badge stays in the header.
const copiedFor = 2 * time.Second

// resultChrome is the number of lines around the result viewport:
// header, tabs, stat line, averages/meta line, status bar.
const resultChrome = 5

// ObsConfig groups observability dependencies.
type ObsConfig struct {
	Ring   *otel.RingBuffer
	Logger *otel.Logger
	Trace  bool // emit a trace event for every message
}

// Defaults are the initial values of the run form.
type Defaults struct {
	NumPosts int
	UseMock  bool
}

// AppConfig holds everything the App needs. Cmd funcs may be nil; the
// matching feature is then unavailable.
type AppConfig struct {
	Controller *run.Controller
	Context    context.Context
	Defaults   Defaults
	Features   Features

	SaveRun      func(req pipeline.RunRequest, result pipeline.RunResult) tea.Cmd
	LoadHistory  func() tea.Cmd
	LoadRun      func(id int64) tea.Cmd
	ClearHistory func() tea.Cmd
	Copy         func(text string) tea.Cmd

	Obs ObsConfig
}

// App is the root Bubble Tea model.
// IMPORTANT: App does NOT hold *store.Store. History arrives via messages.
type App struct {
	ctrl *run.Controller
	ctx  context.Context
	cfg  AppConfig
	obs  ObsConfig

	form     runForm
	spinner  spinner.Model
	viewport viewport.Model

	tab         Tab
	analyses    selection.List[pipeline.PostAnalysis]
	posts       selection.List[pipeline.GeneratedPost]
	lastRequest pipeline.RunRequest

	history historyView

	debugVisible bool
	copiedAt     time.Time
	notice       string // transient error not tied to a run

	width  int
	height int
	ready  bool
}

// NewAppWithConfig creates an App. A nil Controller gets one with no
// runner, which is only useful in tests that never submit.
func NewAppWithConfig(cfg AppConfig) App {
	ctrl := cfg.Controller
	if ctrl == nil {
		ctrl = run.NewController(nil, cfg.Obs.Logger)
	}
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}
	numPosts := cfg.Defaults.NumPosts
	if numPosts == 0 {
		numPosts = pipeline.DefaultPostCount
	}

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	sp.Style = RunningTitle

	return App{
		ctrl:     ctrl,
		ctx:      ctx,
		cfg:      cfg,
		obs:      cfg.Obs,
		form:     newRunForm(numPosts, cfg.Defaults.UseMock),
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
}

// Init starts the cursor blink.
func (a App) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages and returns the updated model and any commands.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.obs.Trace {
		a.obs.Logger.Emit(otel.Event{Level: otel.LevelDebug, Kind: otel.KindMsgReceived, Comp: "ui", Msg: fmt.Sprintf("%T", msg)})
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.viewport.Width = msg.Width
		a.viewport.Height = max(msg.Height-resultChrome, 1)
		a.syncViewport(false)
		return a, nil

	case spinner.TickMsg:
		if !a.ctrl.Running() {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case run.Finished:
		return a.handleFinished(msg)

	case RunSaved:
		if msg.Err != nil {
			logging.Error("Failed to archive run", "error", msg.Err)
			a.obs.Logger.Error(otel.KindHistoryError, "store", msg.Err)
			a.notice = "Run could not be saved to history"
			return a, nil
		}
		a.obs.Logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHistorySave, Comp: "store", RunID: msg.ID})
		return a, nil

	case HistoryLoaded:
		if msg.Err != nil {
			logging.Error("Failed to list history", "error", msg.Err)
			a.obs.Logger.Error(otel.KindHistoryError, "store", msg.Err)
			a.notice = "History could not be loaded"
			a.history.loading = false
			return a, nil
		}
		a.history.setRuns(msg.Runs)
		a.obs.Logger.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindHistoryLoad, Comp: "store", Count: len(msg.Runs)})
		return a, nil

	case RunLoaded:
		return a.handleRunLoaded(msg)

	case HistoryCleared:
		if msg.Err != nil {
			logging.Error("Failed to clear history", "error", msg.Err)
			a.obs.Logger.Error(otel.KindHistoryError, "store", msg.Err)
			a.notice = "History could not be cleared"
			return a, nil
		}
		a.history.setRuns(nil)
		a.obs.Logger.Info(otel.KindHistoryClear, "store", "history cleared")
		return a, nil

	case PostCopied:
		if msg.Err != nil {
			logging.Warn("Clipboard write failed", "error", msg.Err)
			a.obs.Logger.Error(otel.KindCopy, "ui", msg.Err)
			a.notice = "Could not copy to clipboard"
			return a, nil
		}
		at := time.Now()
		a.copiedAt = at
		a.obs.Logger.Info(otel.KindCopy, "ui", "post copied")
		return a, tea.Tick(copiedFor, func(time.Time) tea.Msg { return copiedExpired{At: at} })

	case copiedExpired:
		if msg.At.Equal(a.copiedAt) {
			a.copiedAt = time.Time{}
		}
		return a, nil
	}

	// Anything else (cursor blink) belongs to the form.
	if _, idle := a.ctrl.State().(run.Idle); idle {
		var cmd tea.Cmd
		a.form.niche, cmd = a.form.niche.Update(msg)
		var cmd2 tea.Cmd
		a.form.keywords, cmd2 = a.form.keywords.Update(msg)
		return a, tea.Batch(cmd, cmd2)
	}
	return a, nil
}

// handleFinished applies a pipeline response. On completion both lists are
// rebuilt with their first entry expanded and the generated tab is shown.
func (a App) handleFinished(msg run.Finished) (tea.Model, tea.Cmd) {
	var req pipeline.RunRequest
	if r, ok := a.ctrl.State().(run.Running); ok {
		req = r.Request
	}
	if !a.ctrl.Apply(msg) {
		return a, nil
	}
	result, _ := a.ctrl.Result()
	a.lastRequest = req
	a.showResult(result)
	if a.cfg.SaveRun != nil {
		return a, a.cfg.SaveRun(req, result)
	}
	return a, nil
}

func (a App) handleRunLoaded(msg RunLoaded) (tea.Model, tea.Cmd) {
	a.history.loading = false
	if msg.Err != nil {
		logging.Error("Failed to load run", "error", msg.Err)
		a.obs.Logger.Error(otel.KindHistoryError, "store", msg.Err)
		a.notice = "Run could not be loaded"
		return a, nil
	}
	if err := a.ctrl.Restore(msg.Run.Result); err != nil {
		a.notice = "Finish or cancel the current run first"
		return a, nil
	}
	a.lastRequest = msg.Run.Request
	a.form.fill(msg.Run.Request)
	a.history.visible = false
	a.showResult(msg.Run.Result)
	return a, nil
}

// showResult resets the tab and both selections for a fresh result.
func (a *App) showResult(result pipeline.RunResult) {
	a.tab = TabGenerated
	a.analyses = selection.New(result.Analyses)
	a.posts = selection.New(result.GeneratedPosts)
	a.notice = ""
	a.syncViewport(true)
}

// submit starts a run from req. Validation failures and in-flight rejects
// leave the state untouched.
func (a App) submit(req pipeline.RunRequest) (tea.Model, tea.Cmd) {
	cmd, err := a.ctrl.Submit(a.ctx, req)
	if err != nil {
		var verr *pipeline.ValidationError
		if errors.As(err, &verr) {
			a.notice = verr.Error()
		}
		return a, nil
	}
	a.notice = ""
	a.copiedAt = time.Time{}
	return a, tea.Batch(cmd, a.spinner.Tick)
}

// handleKeyMsg processes keyboard input.
func (a App) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.ForceQuit) {
		return a, tea.Quit
	}

	_, idle := a.ctrl.State().(run.Idle)
	typing := idle && !a.history.visible && a.form.typing()

	if !typing && key.Matches(msg, keys.Debug) {
		a.debugVisible = !a.debugVisible
		return a, nil
	}
	if a.debugVisible {
		if key.Matches(msg, keys.Quit) {
			return a, tea.Quit
		}
		return a, nil
	}

	if a.history.visible {
		return a.handleHistoryKey(msg)
	}

	switch a.ctrl.State().(type) {
	case run.Running:
		switch {
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Cancel):
			a.ctrl.Reset()
			return a, nil
		}
		return a, nil

	case run.Completed:
		return a.handleResultKey(msg)
	}

	return a.handleFormKey(msg, typing)
}

func (a App) handleFormKey(msg tea.KeyMsg, typing bool) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Submit):
		return a.submit(a.form.request())
	case !typing && key.Matches(msg, keys.Quit):
		return a, tea.Quit
	case a.cfg.Features.History && key.Matches(msg, keys.History) && (!typing || msg.Type == tea.KeyCtrlO):
		return a.openHistory()
	}

	a.notice = ""
	var cmd tea.Cmd
	a.form, cmd = a.form.update(msg)
	return a, cmd
}

func (a App) handleResultKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""
	switch {
	case key.Matches(msg, keys.Quit):
		return a, tea.Quit

	case key.Matches(msg, keys.Up):
		a.moveCursor(-1)
	case key.Matches(msg, keys.Down):
		a.moveCursor(1)
	case key.Matches(msg, keys.Expand):
		if a.tab == TabAnalysis {
			a.analyses.ToggleCursor()
		} else {
			a.posts.ToggleCursor()
		}
		a.syncViewport(true)

	case key.Matches(msg, keys.SwitchTab):
		a.setTab(1 - a.tab)
	case key.Matches(msg, keys.Generated):
		a.setTab(TabGenerated)
	case key.Matches(msg, keys.Analysis):
		a.setTab(TabAnalysis)

	case key.Matches(msg, keys.PageUp):
		a.viewport.SetYOffset(a.viewport.YOffset - a.viewport.Height/2)
	case key.Matches(msg, keys.PageDown):
		a.viewport.SetYOffset(a.viewport.YOffset + a.viewport.Height/2)

	case key.Matches(msg, keys.Copy):
		if a.tab != TabGenerated || a.cfg.Copy == nil || !a.cfg.Features.Clipboard {
			return a, nil
		}
		p, ok := a.posts.Current()
		if !ok {
			return a, nil
		}
		return a, a.cfg.Copy(p.PlainText())

	case key.Matches(msg, keys.Rerun):
		a.form.fill(a.lastRequest)
		return a.submit(a.lastRequest)

	case key.Matches(msg, keys.NewRun):
		a.ctrl.Reset()
		a.form.fill(a.lastRequest)
		a.form.setFocus(fieldNiche)
		a.copiedAt = time.Time{}
		return a, textinput.Blink

	case a.cfg.Features.History && key.Matches(msg, keys.History):
		return a.openHistory()
	}
	return a, nil
}

func (a *App) moveCursor(delta int) {
	if a.tab == TabAnalysis {
		a.analyses.Move(delta)
	} else {
		a.posts.Move(delta)
	}
	a.syncViewport(true)
}

func (a *App) setTab(t Tab) {
	if a.tab == t {
		return
	}
	a.tab = t
	a.obs.Logger.Info(otel.KindTab, "ui", t.String())
	a.viewport.GotoTop()
	a.syncViewport(true)
}

// renderList renders the active tab's list.
func (a App) renderList() rendered {
	if a.tab == TabAnalysis {
		return renderAnalyses(a.analyses, a.width)
	}
	return renderGenerated(a.posts, a.width)
}

// syncViewport refreshes the viewport content. With follow set, the
// cursor entry's title line is scrolled into view.
func (a *App) syncViewport(follow bool) {
	if _, ok := a.ctrl.State().(run.Completed); !ok {
		return
	}
	r := a.renderList()
	a.viewport.SetContent(r.content)
	if !follow {
		return
	}
	switch {
	case r.cursorLine < a.viewport.YOffset:
		a.viewport.SetYOffset(r.cursorLine)
	case r.cursorLine >= a.viewport.YOffset+a.viewport.Height:
		a.viewport.SetYOffset(r.cursorLine)
	}
}

// View renders the UI.
func (a App) View() string {
	if !a.ready {
		return "Loading..."
	}

	if a.debugVisible {
		overlay := debugOverlay(a.obs.Ring, a.width, a.height-1)
		return overlay + "\n" + debugStatusBar(a.width)
	}
	if a.history.visible {
		return a.history.view(a.width, a.height-1) + "\n" + a.statusBar()
	}

	var body string
	switch st := a.ctrl.State().(type) {
	case run.Running:
		body = a.runningView(st)
	case run.Completed:
		body = a.resultView(st.Result)
	default:
		body = a.formView()
	}
	return body + "\n" + a.statusBar()
}

func (a App) header() string {
	h := Header.Render("viral · LinkedIn content pipeline")
	if !a.copiedAt.IsZero() {
		h += " " + CopiedBadge.Render("Copied")
	}
	return h
}

func (a App) formView() string {
	var b strings.Builder
	b.WriteString(a.header() + "\n\n")
	b.WriteString(a.form.view(a.width) + "\n")
	if e := a.errorText(); e != "" {
		b.WriteString(ErrorStyle.Render("Error: "+e) + "\n")
	}
	return b.String()
}

func (a App) runningView(st run.Running) string {
	elapsed := time.Since(st.Started).Round(time.Second)
	var b strings.Builder
	b.WriteString(a.header() + "\n\n")
	b.WriteString("  " + a.spinner.View() + " " + RunningTitle.Render("Running pipeline for "+fmt.Sprintf("%q", st.Request.Niche)) + "\n\n")
	b.WriteString(MetaItem.Render(fmt.Sprintf("  Scraping %d posts, analysing sentiment and generating content… %s", st.Request.NumPosts, elapsed)) + "\n")
	b.WriteString(MetaItem.Render("  This can take a few minutes.") + "\n")
	return b.String()
}

func (a App) resultView(result pipeline.RunResult) string {
	extra := MetaItem.Render(" " + requestLine(a.lastRequest))
	if a.tab == TabAnalysis {
		extra = averagesLine(result.Analyses)
	}
	lines := []string{
		a.header(),
		tabBar(a.tab, result),
		statLine(result),
		extra,
		a.viewport.View(),
	}
	return strings.Join(lines, "\n")
}

func requestLine(req pipeline.RunRequest) string {
	if req.Niche == "" {
		return ""
	}
	s := "Niche: " + req.Niche
	if len(req.Keywords) > 0 {
		s += " · Keywords: " + strings.Join(req.Keywords, ", ")
	}
	return s
}

// errorText is the message to show: the transient notice first, then the
// last failed run.
func (a App) errorText() string {
	if a.notice != "" {
		return a.notice
	}
	return a.ctrl.Err()
}

func (a App) statusBar() string {
	var hints string
	switch a.ctrl.State().(type) {
	case run.Running:
		hints = hint(keys.Cancel, keys.Quit)
	case run.Completed:
		hints = hint(keys.Up, keys.Down, keys.Expand, keys.SwitchTab)
		if a.cfg.Features.Clipboard && a.tab == TabGenerated {
			hints += StatusBarText.Render("  ") + hint(keys.Copy)
		}
		hints += StatusBarText.Render("  ") + hint(keys.Rerun, keys.NewRun)
		if a.cfg.Features.History {
			hints += StatusBarText.Render("  ") + hint(keys.History)
		}
	default:
		hints = hint(keys.NextField, keys.Submit, keys.ForceQuit)
	}
	if a.history.visible {
		hints = hint(keys.Up, keys.Down, keys.Restore, keys.ClearHistory, keys.Back)
	}
	if _, idle := a.ctrl.State().(run.Idle); a.notice != "" && (a.history.visible || !idle) {
		hints = ErrorStyle.Render(a.notice) + " " + hints
	}
	return StatusBar.Width(a.width).Render(hints)
}

// State returns the controller state (for testing).
func (a App) State() run.State {
	return a.ctrl.State()
}

// ActiveTab returns the selected result tab (for testing).
func (a App) ActiveTab() Tab {
	return a.tab
}
