package mockpipe

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/abelbrown/viral/internal/logging"
	"github.com/abelbrown/viral/internal/pipeline"
)

// Error details returned by the mock, matching the backend's wording.
const (
	DetailNicheRequired = "niche is required"
	DetailNoPosts       = "No posts found for the given inputs."
	DetailLiveDisabled  = "live scraping is not available in the mock server"
)

const (
	historyAnalysesLimit  = 50
	historyGeneratedLimit = 20
)

// Options tune the mock server.
type Options struct {
	// Delay simulates pipeline latency. The request context still cancels it.
	Delay time.Duration
	// Seed makes post selection deterministic. Zero uses a random seed.
	Seed uint64
}

// Server serves the pipeline HTTP contract from fixtures.
type Server struct {
	fixtures *Fixtures
	delay    time.Duration

	mu      sync.Mutex // guards rng, history and nextID
	rng     *rand.Rand
	history []historyEntry
	nextID  int64
}

type historyEntry struct {
	CreatedAt time.Time
	Niche     string
	Platform  string
	Analyses  []analysisWire
	Generated []pipeline.GeneratedPost
}

// analysisWire mirrors pipeline.PostAnalysis but lets common_questions be
// either an array or a JSON-encoded string, as the real backend sends both.
type analysisWire struct {
	URL              string `json:"url"`
	Author           string `json:"author"`
	AuthorTitle      string `json:"author_title,omitempty"`
	Text             string `json:"text"`
	Likes            int    `json:"likes"`
	Comments         int    `json:"comments"`
	Shares           int    `json:"shares"`
	Niche            string `json:"niche"`
	Source           string `json:"source"`
	OverallSentiment int    `json:"overall_sentiment"`
	ToolUsefulness   int    `json:"tool_usefulness"`
	CommonQuestions  any    `json:"common_questions"`
	KeyInsights      string `json:"key_insights"`
}

type runResponse struct {
	Success        bool                     `json:"success"`
	Message        string                   `json:"message"`
	Analyses       []analysisWire           `json:"analyses"`
	GeneratedPosts []pipeline.GeneratedPost `json:"generated_posts"`
	RunID          int64                    `json:"run_id"`
}

// NewServer creates a mock server over fixtures.
func NewServer(fixtures *Fixtures, opts Options) *Server {
	seed := opts.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	return &Server{
		fixtures: fixtures,
		delay:    opts.Delay,
		rng:      rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// Routes configures HTTP routes.
func (s *Server) Routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(loggingMiddleware)

	r.HandleFunc("/", s.healthHandler).Methods(http.MethodGet)

	// Registered on the root router so a wrong method yields 405, not 404.
	r.HandleFunc("/api/run", s.runHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/history", s.historyHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.clearHistoryHandler).Methods(http.MethodDelete)

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "viral mock pipeline",
		"version": logging.Version,
	})
}

func (s *Server) runHandler(w http.ResponseWriter, r *http.Request) {
	var req pipeline.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// Validation failures carry a list detail, like FastAPI's 422.
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"body"}, "msg": err.Error(), "type": "value_error.jsondecode"}},
		})
		return
	}

	niche := strings.TrimSpace(req.Niche)
	switch {
	case niche == "":
		writeDetail(w, http.StatusBadRequest, DetailNicheRequired)
		return
	case !req.UseMock:
		writeDetail(w, http.StatusServiceUnavailable, DetailLiveDisabled)
		return
	case req.NumPosts <= 0:
		writeDetail(w, http.StatusBadRequest, DetailNoPosts)
		return
	}
	if req.Platform == "" {
		req.Platform = pipeline.PlatformLinkedIn
	}

	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-r.Context().Done():
			logging.Debug("mock run abandoned by client", "niche", niche)
			return
		}
	}

	resp, ok := s.run(niche, req)
	if !ok {
		writeDetail(w, http.StatusBadRequest, DetailNoPosts)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// run selects posts, scores them and records the run in history.
func (s *Server) run(niche string, req pipeline.RunRequest) (runResponse, bool) {
	posts := filterPosts(s.fixtures.Posts, req.Keywords)
	if len(posts) == 0 {
		return runResponse{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.rng.Shuffle(len(posts), func(i, j int) { posts[i], posts[j] = posts[j], posts[i] })
	if len(posts) > req.NumPosts {
		posts = posts[:req.NumPosts]
	}

	analyses := make([]analysisWire, len(posts))
	for i, p := range posts {
		score := sentiment(p.Likes)
		var questions any = append([]string{}, s.fixtures.Questions...)
		if i%2 == 1 {
			// The backend stores questions as encoded text and sometimes
			// returns them that way.
			encoded, _ := json.Marshal(questions)
			questions = string(encoded)
		}
		analyses[i] = analysisWire{
			URL:              p.URL,
			Author:           p.Author,
			AuthorTitle:      p.AuthorTitle,
			Text:             p.Text,
			Likes:            p.Likes,
			Comments:         p.Comments,
			Shares:           p.Shares,
			Niche:            niche,
			Source:           pipeline.SourceMock,
			OverallSentiment: score,
			ToolUsefulness:   min(5, score),
			CommonQuestions:  questions,
			KeyInsights:      s.fixtures.Insights,
		}
	}

	generated := make([]pipeline.GeneratedPost, len(s.fixtures.Generated))
	for i, t := range s.fixtures.Generated {
		generated[i] = t.render(niche)
	}

	s.nextID++
	s.history = append(s.history, historyEntry{
		CreatedAt: time.Now().UTC(),
		Niche:     niche,
		Platform:  req.Platform,
		Analyses:  analyses,
		Generated: generated,
	})

	logging.Info("mock run", "niche", niche, "analyses", len(analyses), "generated", len(generated), "run_id", s.nextID)
	return runResponse{
		Success:        true,
		Message:        fmt.Sprintf("Pipeline completed. Analysed %d posts, generated %d viral posts.", len(analyses), len(generated)),
		Analyses:       analyses,
		GeneratedPosts: generated,
		RunID:          s.nextID,
	}, true
}

// filterPosts keeps posts mentioning any keyword. No keywords keeps all.
// The returned slice is a copy.
func filterPosts(posts []FixturePost, keywords []string) []FixturePost {
	var out []FixturePost
	for _, p := range posts {
		if len(keywords) == 0 || mentionsAny(p.Text, keywords) {
			out = append(out, p)
		}
	}
	return out
}

func mentionsAny(text string, keywords []string) bool {
	text = strings.ToLower(text)
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func (s *Server) historyHandler(w http.ResponseWriter, r *http.Request) {
	type historyAnalysis struct {
		analysisWire
		CreatedAt string `json:"created_at"`
		Platform  string `json:"platform"`
	}
	type historyPost struct {
		pipeline.GeneratedPost
		CreatedAt string `json:"created_at"`
		Niche     string `json:"niche"`
		Platform  string `json:"platform"`
	}

	s.mu.Lock()
	analyses := []historyAnalysis{}
	generated := []historyPost{}
	for i := len(s.history) - 1; i >= 0; i-- {
		h := s.history[i]
		at := h.CreatedAt.Format(time.RFC3339)
		for _, a := range h.Analyses {
			if len(analyses) < historyAnalysesLimit {
				analyses = append(analyses, historyAnalysis{analysisWire: a, CreatedAt: at, Platform: h.Platform})
			}
		}
		for _, g := range h.Generated {
			if len(generated) < historyGeneratedLimit {
				generated = append(generated, historyPost{GeneratedPost: g, CreatedAt: at, Niche: h.Niche, Platform: h.Platform})
			}
		}
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"analyses": analyses, "generated": generated})
}

func (s *Server) clearHistoryHandler(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "History cleared"})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("encode response", "err", err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.Info("request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "dur", time.Since(start))
	})
}
