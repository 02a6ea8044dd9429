package ui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/viral/internal/pipeline"
	"github.com/abelbrown/viral/internal/run"
	"github.com/abelbrown/viral/internal/store"
)

type fakeRunner struct {
	result pipeline.RunResult
	err    error
	block  bool
	calls  int
	last   pipeline.RunRequest
}

func (f *fakeRunner) Run(ctx context.Context, req pipeline.RunRequest) (pipeline.RunResult, error) {
	f.calls++
	f.last = req
	if f.block {
		<-ctx.Done()
		return pipeline.RunResult{}, ctx.Err()
	}
	return f.result, f.err
}

// mockCmd records the cmd funcs the App calls.
type mockCmd struct {
	saved       []pipeline.RunRequest
	copied      []string
	historyLoad int
	loadedID    int64
	cleared     int
}

func (m *mockCmd) saveRun(req pipeline.RunRequest, result pipeline.RunResult) tea.Cmd {
	m.saved = append(m.saved, req)
	return func() tea.Msg { return RunSaved{ID: int64(len(m.saved))} }
}

func (m *mockCmd) loadHistory() tea.Cmd {
	m.historyLoad++
	return func() tea.Msg { return HistoryLoaded{Runs: historyRuns()} }
}

func (m *mockCmd) loadRun(id int64) tea.Cmd {
	m.loadedID = id
	return func() tea.Msg {
		return RunLoaded{Run: store.Run{
			RunSummary: store.RunSummary{ID: id, Niche: "B2B SaaS"},
			Request:    pipeline.NewRunRequest("B2B SaaS", "churn", 8, false),
			Result:     sampleResult(),
		}}
	}
}

func (m *mockCmd) clearHistory() tea.Cmd {
	m.cleared++
	return func() tea.Msg { return HistoryCleared{} }
}

func (m *mockCmd) copy(text string) tea.Cmd {
	m.copied = append(m.copied, text)
	return func() tea.Msg { return PostCopied{} }
}

func historyRuns() []store.RunSummary {
	return []store.RunSummary{
		{ID: 7, Niche: "AI tools", NumPosts: 5, UseMock: true, CreatedAt: time.Now(), Analyses: 2, Posts: 1, TopViralScore: 9},
		{ID: 3, Niche: "B2B SaaS", NumPosts: 8, CreatedAt: time.Now().Add(-time.Hour), Analyses: 2, Posts: 1},
	}
}

func sampleResult() pipeline.RunResult {
	return pipeline.RunResult{
		Analyses: []pipeline.PostAnalysis{
			{Author: "Maya Chen", Text: "AI agents shipped", Likes: 1200, OverallSentiment: 4, ToolUsefulness: 5, Source: pipeline.SourceMock},
			{Author: "Raj Patel", Text: "Hype check", Likes: 300, OverallSentiment: 2, ToolUsefulness: 3},
		},
		GeneratedPosts: []pipeline.GeneratedPost{
			{Hook: "Stop doing X", Body: "Do Y.", CTA: "Thoughts?", Hashtags: pipeline.StringList{"ai"}, Tone: pipeline.ToneBold, ViralScore: 9},
		},
	}
}

func newTestApp(runner *fakeRunner, mock *mockCmd) App {
	app := NewAppWithConfig(AppConfig{
		Controller:   run.NewController(runner, nil),
		Defaults:     Defaults{NumPosts: 5, UseMock: true},
		Features:     Features{History: true, Clipboard: true},
		SaveRun:      mock.saveRun,
		LoadHistory:  mock.loadHistory,
		LoadRun:      mock.loadRun,
		ClearHistory: mock.clearHistory,
		Copy:         mock.copy,
	})
	model, _ := app.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return model.(App)
}

func press(t *testing.T, app App, msg tea.KeyMsg) (App, tea.Cmd) {
	t.Helper()
	model, cmd := app.Update(msg)
	return model.(App), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	escKey   = tea.KeyMsg{Type: tea.KeyEsc}
	tabKey   = tea.KeyMsg{Type: tea.KeyTab}
)

// collect executes cmd and flattens batches. Only use with cmds that
// return immediately.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func finishedFrom(t *testing.T, cmd tea.Cmd) run.Finished {
	t.Helper()
	for _, msg := range collect(cmd) {
		if f, ok := msg.(run.Finished); ok {
			return f
		}
	}
	t.Fatal("command did not produce run.Finished")
	return run.Finished{}
}

// submitNiche types a niche and presses enter.
func submitNiche(t *testing.T, app App, niche string) (App, tea.Cmd) {
	t.Helper()
	app, _ = press(t, app, runes(niche))
	return press(t, app, enterKey)
}

// completeRun drives the app from the form to Completed.
func completeRun(t *testing.T, app App) App {
	t.Helper()
	app, cmd := submitNiche(t, app, "AI tools")
	model, _ := app.Update(finishedFrom(t, cmd))
	app = model.(App)
	if _, ok := app.State().(run.Completed); !ok {
		t.Fatalf("state = %T, want Completed", app.State())
	}
	return app
}

func TestAppInit(t *testing.T) {
	app := NewAppWithConfig(AppConfig{})
	if app.Init() == nil {
		t.Error("Init should start the cursor blink")
	}
	if app.View() != "Loading..." {
		t.Errorf("View before WindowSizeMsg = %q", app.View())
	}
}

func TestSubmitEmptyNicheStaysOnForm(t *testing.T) {
	runner := &fakeRunner{}
	app := newTestApp(runner, &mockCmd{})

	app, cmd := press(t, app, enterKey)

	if cmd != nil {
		t.Error("empty niche should not start a run")
	}
	if _, ok := app.State().(run.Idle); !ok {
		t.Fatalf("state = %T, want Idle", app.State())
	}
	if runner.calls != 0 {
		t.Errorf("runner called %d times", runner.calls)
	}
	if !strings.Contains(app.View(), "must not be empty") {
		t.Error("form should explain the missing niche")
	}
}

func TestSubmitSuccessShowsGeneratedTab(t *testing.T) {
	runner := &fakeRunner{result: pipeline.RunResult{
		Analyses: []pipeline.PostAnalysis{},
		GeneratedPosts: []pipeline.GeneratedPost{
			{Hook: "H", Body: "B", CTA: "C", Hashtags: pipeline.StringList{"ai"}, Tone: pipeline.ToneBold, ViralScore: 9},
		},
	}}
	mock := &mockCmd{}
	app := newTestApp(runner, mock)

	app, cmd := submitNiche(t, app, "AI tools")
	if _, ok := app.State().(run.Running); !ok {
		t.Fatalf("state = %T, want Running", app.State())
	}
	if !strings.Contains(app.View(), "Running pipeline") {
		t.Error("running view should show progress")
	}

	model, saveCmd := app.Update(finishedFrom(t, cmd))
	app = model.(App)

	if _, ok := app.State().(run.Completed); !ok {
		t.Fatalf("state = %T, want Completed", app.State())
	}
	if app.ActiveTab() != TabGenerated {
		t.Errorf("tab = %v, want generated", app.ActiveTab())
	}
	if !app.posts.IsExpanded(0) {
		t.Error("first generated post should be expanded")
	}
	if _, ok := app.analyses.Expanded(); ok {
		t.Error("empty analysis list should have nothing expanded")
	}
	if runner.last.Niche != "AI tools" || runner.last.NumPosts != 5 || !runner.last.UseMock {
		t.Errorf("request = %+v", runner.last)
	}
	if saveCmd == nil || len(mock.saved) != 1 || mock.saved[0].Niche != "AI tools" {
		t.Errorf("completed run should be archived, saved = %+v", mock.saved)
	}

	view := app.View()
	for _, want := range []string{"Generated (1)", "Analysis (0)", "9/10", "Bold", "#ai"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRunErrorShowsDetail(t *testing.T) {
	runner := &fakeRunner{err: &pipeline.PipelineError{Status: 429, Detail: "rate limited"}}
	app := newTestApp(runner, &mockCmd{})

	app, cmd := submitNiche(t, app, "AI tools")
	model, _ := app.Update(finishedFrom(t, cmd))
	app = model.(App)

	st, ok := app.State().(run.Idle)
	if !ok {
		t.Fatalf("state = %T, want Idle", app.State())
	}
	if st.Err != "rate limited" {
		t.Errorf("Err = %q, want %q", st.Err, "rate limited")
	}
	if !strings.Contains(app.View(), "rate limited") {
		t.Error("view should show the server detail")
	}
}

func TestTransportErrorShowsGenericMessage(t *testing.T) {
	runner := &fakeRunner{err: &pipeline.TransportError{Op: "post", Err: errors.New("connection refused")}}
	app := newTestApp(runner, &mockCmd{})

	app, cmd := submitNiche(t, app, "AI tools")
	model, _ := app.Update(finishedFrom(t, cmd))
	app = model.(App)

	view := app.View()
	if !strings.Contains(view, pipeline.GenericFailure) {
		t.Error("view should show the generic failure")
	}
	if strings.Contains(view, "connection refused") {
		t.Error("raw transport error must not be shown")
	}
}

func TestEscCancelsRunningRun(t *testing.T) {
	runner := &fakeRunner{block: true}
	app := newTestApp(runner, &mockCmd{})

	app, cmd := submitNiche(t, app, "AI tools")
	gen := app.ctrl.Gen()

	app, _ = press(t, app, escKey)
	if _, ok := app.State().(run.Idle); !ok {
		t.Fatalf("state = %T, want Idle", app.State())
	}

	// The cancelled request still reports back; it must be ignored.
	late := finishedFrom(t, cmd)
	if late.Gen != gen {
		t.Fatalf("late gen = %d, want %d", late.Gen, gen)
	}
	model, _ := app.Update(late)
	app = model.(App)
	st, ok := app.State().(run.Idle)
	if !ok || st.Err != "" {
		t.Errorf("state after late response = %#v, want clean Idle", app.State())
	}
}

func TestSecondSubmitWhileRunningIgnored(t *testing.T) {
	runner := &fakeRunner{block: true}
	app := newTestApp(runner, &mockCmd{})

	app, _ = submitNiche(t, app, "AI tools")
	gen := app.ctrl.Gen()
	app, cmd := press(t, app, enterKey)

	if cmd != nil {
		t.Error("enter while running should not issue a command")
	}
	if app.ctrl.Gen() != gen {
		t.Errorf("gen changed from %d to %d", gen, app.ctrl.Gen())
	}
	app.ctrl.Reset()
}

func TestTabSwitching(t *testing.T) {
	app := completeRun(t, newTestApp(&fakeRunner{result: sampleResult()}, &mockCmd{}))

	tests := []struct {
		key  tea.KeyMsg
		want Tab
	}{
		{tabKey, TabAnalysis},
		{tabKey, TabGenerated},
		{runes("2"), TabAnalysis},
		{runes("a"), TabAnalysis},
		{runes("1"), TabGenerated},
		{runes("g"), TabGenerated},
	}
	for _, tt := range tests {
		app, _ = press(t, app, tt.key)
		if app.ActiveTab() != tt.want {
			t.Errorf("after %q tab = %v, want %v", tt.key.String(), app.ActiveTab(), tt.want)
		}
	}

	app, _ = press(t, app, runes("2"))
	view := app.View()
	if !strings.Contains(view, "Maya Chen") || !strings.Contains(view, "avg sentiment") {
		t.Errorf("analysis tab should list analyses and averages:\n%s", view)
	}
}

func TestSelectionPerTab(t *testing.T) {
	app := completeRun(t, newTestApp(&fakeRunner{result: sampleResult()}, &mockCmd{}))

	app, _ = press(t, app, runes("2"))
	if !app.analyses.IsExpanded(0) {
		t.Fatal("first analysis should start expanded")
	}

	app, _ = press(t, app, runes("j"))
	app, _ = press(t, app, enterKey)
	if !app.analyses.IsExpanded(1) || app.analyses.IsExpanded(0) {
		t.Error("enter should expand the cursor entry and collapse the other")
	}

	app, _ = press(t, app, enterKey)
	if _, ok := app.analyses.Expanded(); ok {
		t.Error("second enter should collapse")
	}

	if !app.posts.IsExpanded(0) {
		t.Error("generated list selection must be independent")
	}

	app, _ = press(t, app, runes("k"))
	app, _ = press(t, app, runes("k"))
	if app.analyses.Cursor() != 0 {
		t.Errorf("cursor = %d, want clamped to 0", app.analyses.Cursor())
	}
}

func TestNewCompletionResetsTabAndSelection(t *testing.T) {
	runner := &fakeRunner{result: sampleResult()}
	app := completeRun(t, newTestApp(runner, &mockCmd{}))

	app, _ = press(t, app, runes("2"))
	app, _ = press(t, app, enterKey)

	app, cmd := press(t, app, runes("r"))
	if _, ok := app.State().(run.Running); !ok {
		t.Fatalf("rerun state = %T, want Running", app.State())
	}
	model, _ := app.Update(finishedFrom(t, cmd))
	app = model.(App)

	if app.ActiveTab() != TabGenerated {
		t.Errorf("tab = %v, want generated", app.ActiveTab())
	}
	if !app.analyses.IsExpanded(0) || !app.posts.IsExpanded(0) {
		t.Error("both lists should start with the first entry expanded")
	}
	if runner.calls != 2 || runner.last.Niche != "AI tools" {
		t.Errorf("rerun should resend the last request, calls=%d last=%+v", runner.calls, runner.last)
	}
}

func TestCopyPost(t *testing.T) {
	mock := &mockCmd{}
	app := completeRun(t, newTestApp(&fakeRunner{result: sampleResult()}, mock))

	app, cmd := press(t, app, runes("c"))
	if len(mock.copied) != 1 {
		t.Fatalf("copy called %d times", len(mock.copied))
	}
	want := "Stop doing X\n\nDo Y.\n\nThoughts?\n\n#ai"
	if mock.copied[0] != want {
		t.Errorf("copied %q, want %q", mock.copied[0], want)
	}

	model, tick := app.Update(cmd())
	app = model.(App)
	if tick == nil {
		t.Error("copy confirmation should schedule its expiry")
	}
	if !strings.Contains(app.View(), "Copied") {
		t.Error("header should show Copied")
	}

	model, _ = app.Update(copiedExpired{At: app.copiedAt.Add(-time.Second)})
	app = model.(App)
	if app.copiedAt.IsZero() {
		t.Error("an older timer must not hide the badge")
	}

	model, _ = app.Update(copiedExpired{At: app.copiedAt})
	app = model.(App)
	if strings.Contains(app.View(), "Copied") {
		t.Error("badge should be gone after expiry")
	}
}

func TestCopyOnlyOnGeneratedTab(t *testing.T) {
	mock := &mockCmd{}
	app := completeRun(t, newTestApp(&fakeRunner{result: sampleResult()}, mock))

	app, _ = press(t, app, runes("2"))
	_, cmd := press(t, app, runes("c"))
	if cmd != nil || len(mock.copied) != 0 {
		t.Error("c on the analysis tab should do nothing")
	}
}

func TestNewRunReturnsToFilledForm(t *testing.T) {
	app := completeRun(t, newTestApp(&fakeRunner{result: sampleResult()}, &mockCmd{}))

	app, _ = press(t, app, runes("n"))

	if _, ok := app.State().(run.Idle); !ok {
		t.Fatalf("state = %T, want Idle", app.State())
	}
	if app.form.niche.Value() != "AI tools" {
		t.Errorf("niche = %q, want previous value", app.form.niche.Value())
	}
	if !app.form.typing() {
		t.Error("niche field should have focus")
	}
}

func TestFormFields(t *testing.T) {
	runner := &fakeRunner{block: true}
	app := newTestApp(runner, &mockCmd{})

	app, _ = press(t, app, runes("AI tools"))
	app, _ = press(t, app, tabKey)
	app, _ = press(t, app, runes("agents, llm"))
	app, _ = press(t, app, tabKey)
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyRight})
	app, _ = press(t, app, tabKey)
	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	req := app.form.request()
	if req.Niche != "AI tools" {
		t.Errorf("niche = %q", req.Niche)
	}
	if len(req.Keywords) != 2 || req.Keywords[1] != "llm" {
		t.Errorf("keywords = %v", req.Keywords)
	}
	if req.NumPosts != 8 {
		t.Errorf("num_posts = %d, want 8", req.NumPosts)
	}
	if req.UseMock {
		t.Error("space on the source field should toggle mock off")
	}
}

func TestQuitKeys(t *testing.T) {
	app := newTestApp(&fakeRunner{}, &mockCmd{})

	// q types into the focused niche field.
	app, _ = press(t, app, runes("q"))
	if app.form.niche.Value() != "q" {
		t.Errorf("niche = %q, want %q", app.form.niche.Value(), "q")
	}

	_, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c should return tea.Quit")
	}
}

func TestHistoryRestore(t *testing.T) {
	mock := &mockCmd{}
	app := newTestApp(&fakeRunner{}, mock)

	app, cmd := press(t, app, tea.KeyMsg{Type: tea.KeyCtrlO})
	if !app.history.visible || mock.historyLoad != 1 {
		t.Fatal("ctrl+o should open history and load it")
	}
	model, _ := app.Update(cmd())
	app = model.(App)
	if len(app.history.runs) != 2 {
		t.Fatalf("history runs = %d", len(app.history.runs))
	}
	if !strings.Contains(app.View(), "B2B SaaS") {
		t.Error("history view should list runs")
	}

	app, _ = press(t, app, runes("j"))
	app, cmd = press(t, app, enterKey)
	if mock.loadedID != 3 {
		t.Fatalf("loaded id = %d, want 3", mock.loadedID)
	}
	model, _ = app.Update(cmd())
	app = model.(App)

	if app.history.visible {
		t.Error("restoring should close history")
	}
	if _, ok := app.State().(run.Completed); !ok {
		t.Fatalf("state = %T, want Completed", app.State())
	}
	if app.ActiveTab() != TabGenerated || !app.posts.IsExpanded(0) {
		t.Error("restored run should open on the generated tab")
	}
	if app.form.niche.Value() != "B2B SaaS" || app.form.numPosts() != 8 || app.form.useMock {
		t.Error("form should be filled from the restored request")
	}
}

func TestHistoryClearAndBack(t *testing.T) {
	mock := &mockCmd{}
	app := completeRun(t, newTestApp(&fakeRunner{result: sampleResult()}, mock))

	app, cmd := press(t, app, runes("h"))
	model, _ := app.Update(cmd())
	app = model.(App)

	app, cmd = press(t, app, runes("X"))
	if mock.cleared != 1 {
		t.Fatal("X should clear history")
	}
	model, _ = app.Update(cmd())
	app = model.(App)
	if len(app.history.runs) != 0 {
		t.Error("history should be empty after clear")
	}
	if !strings.Contains(app.View(), "No archived runs") {
		t.Error("empty history should say so")
	}

	app, _ = press(t, app, escKey)
	if app.history.visible {
		t.Error("esc should close history")
	}
	if _, ok := app.State().(run.Completed); !ok {
		t.Error("closing history should keep the current result")
	}
}

func TestHistoryErrorsShowNotice(t *testing.T) {
	app := newTestApp(&fakeRunner{}, &mockCmd{})

	model, _ := app.Update(RunSaved{Err: errors.New("disk full")})
	app = model.(App)
	if !strings.Contains(app.View(), "could not be saved") {
		t.Error("save failure should be reported")
	}
	if strings.Contains(app.View(), "disk full") {
		t.Error("raw store error must not be shown")
	}
}

func TestHistoryDisabled(t *testing.T) {
	app := NewAppWithConfig(AppConfig{Controller: run.NewController(&fakeRunner{}, nil)})
	model, _ := app.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	app = model.(App)

	app, _ = press(t, app, tea.KeyMsg{Type: tea.KeyCtrlO})
	if app.history.visible {
		t.Error("history should be unavailable without the feature")
	}
}
