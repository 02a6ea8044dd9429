// Package pipeline holds the wire types and HTTP client for the remote
// scrape → analyse → generate pipeline.
package pipeline

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// PlatformLinkedIn is the only platform the pipeline currently serves.
const PlatformLinkedIn = "LinkedIn"

// PostCounts are the allowed values for RunRequest.NumPosts, in display order.
var PostCounts = []int{3, 5, 8, 10}

// DefaultPostCount is used when the caller has no preference.
const DefaultPostCount = 5

// RunRequest is the body of POST /api/run.
type RunRequest struct {
	Niche    string   `json:"niche"`
	Platform string   `json:"platform"`
	Keywords []string `json:"keywords"`
	NumPosts int      `json:"num_posts"`
	UseMock  bool     `json:"use_mock"`
}

// NewRunRequest builds a request from raw form input. The niche is trimmed
// and keywordsCSV is split on commas with blanks dropped. The result still
// needs Validate before it is sent.
func NewRunRequest(niche, keywordsCSV string, numPosts int, useMock bool) RunRequest {
	return RunRequest{
		Niche:    strings.TrimSpace(niche),
		Platform: PlatformLinkedIn,
		Keywords: ParseKeywords(keywordsCSV),
		NumPosts: numPosts,
		UseMock:  useMock,
	}
}

// ParseKeywords splits a comma-separated list, trimming each entry and
// dropping empties. Never returns nil so the wire form is [] rather than null.
func ParseKeywords(csv string) []string {
	keywords := make([]string, 0)
	for _, k := range strings.Split(csv, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

// Validate reports whether the request may be issued.
func (r RunRequest) Validate() error {
	if strings.TrimSpace(r.Niche) == "" {
		return &ValidationError{Field: "niche", Reason: "must not be empty"}
	}
	if r.Platform != PlatformLinkedIn {
		return &ValidationError{Field: "platform", Reason: "must be " + PlatformLinkedIn}
	}
	if !validPostCount(r.NumPosts) {
		return &ValidationError{Field: "num_posts", Reason: "must be one of 3, 5, 8, 10"}
	}
	return nil
}

func validPostCount(n int) bool {
	for _, c := range PostCounts {
		if c == n {
			return true
		}
	}
	return false
}

// RunResult is the body of a successful POST /api/run.
// Analyses and GeneratedPosts are never nil after decoding.
type RunResult struct {
	Analyses       []PostAnalysis  `json:"analyses"`
	GeneratedPosts []GeneratedPost `json:"generated_posts"`
	Message        string          `json:"message,omitempty"`
	RunID          int64           `json:"run_id,omitempty"`
}

// UnmarshalJSON defaults missing or null arrays to empty slices.
func (r *RunResult) UnmarshalJSON(data []byte) error {
	type alias RunResult
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	if a.Analyses == nil {
		a.Analyses = []PostAnalysis{}
	}
	if a.GeneratedPosts == nil {
		a.GeneratedPosts = []GeneratedPost{}
	}
	*r = RunResult(a)
	return nil
}

// PostAnalysis is one scraped source post plus its sentiment analysis.
type PostAnalysis struct {
	Author           string     `json:"author,omitempty"`
	Text             string     `json:"text,omitempty"`
	URL              string     `json:"url,omitempty"`
	Likes            int        `json:"likes"`
	Comments         int        `json:"comments"`
	Shares           int        `json:"shares"`
	OverallSentiment Score      `json:"overall_sentiment"`
	ToolUsefulness   Score      `json:"tool_usefulness"`
	CommonQuestions  StringList `json:"common_questions"`
	KeyInsights      string     `json:"key_insights,omitempty"`
	Source           string     `json:"source,omitempty"`
}

// UnmarshalJSON tolerates fractional, quoted or null engagement counts.
func (a *PostAnalysis) UnmarshalJSON(data []byte) error {
	type alias PostAnalysis
	var w struct {
		alias
		Likes    wireInt `json:"likes"`
		Comments wireInt `json:"comments"`
		Shares   wireInt `json:"shares"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	w.alias.Likes = int(w.Likes)
	w.alias.Comments = int(w.Comments)
	w.alias.Shares = int(w.Shares)
	*a = PostAnalysis(w.alias)
	return nil
}

// SourceMock tags analyses built from synthetic data.
const SourceMock = "mock"

// IsMock reports whether the analysis came from mock data.
func (a PostAnalysis) IsMock() bool {
	return a.Source == SourceMock
}

// Tone is the style label on a generated post.
type Tone string

const (
	ToneBold         Tone = "Bold"
	ToneVulnerable   Tone = "Vulnerable"
	ToneDataDriven   Tone = "Data-Driven"
	ToneContrarian   Tone = "Contrarian"
	ToneStorytelling Tone = "Storytelling"
)

// Tones lists the recognised tones in canonical order.
var Tones = []Tone{ToneBold, ToneVulnerable, ToneDataDriven, ToneContrarian, ToneStorytelling}

// Known reports whether t is one of the recognised tones.
func (t Tone) Known() bool {
	for _, k := range Tones {
		if t == k {
			return true
		}
	}
	return false
}

// GeneratedPost is one piece of content produced by the pipeline.
type GeneratedPost struct {
	Hook       string     `json:"hook"`
	Body       string     `json:"body"`
	CTA        string     `json:"cta"`
	Hashtags   StringList `json:"hashtags"`
	Tone       Tone       `json:"tone"`
	ViralScore int        `json:"viral_score"`
}

// UnmarshalJSON strips leading '#' from hashtags and rounds a fractional
// viral score.
func (p *GeneratedPost) UnmarshalJSON(data []byte) error {
	type alias GeneratedPost
	var w struct {
		alias
		ViralScore wireInt `json:"viral_score"`
	}
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	a := w.alias
	a.ViralScore = int(w.ViralScore)
	tags := make(StringList, 0, len(a.Hashtags))
	for _, h := range a.Hashtags {
		if h = strings.TrimLeft(strings.TrimSpace(h), "#"); h != "" {
			tags = append(tags, h)
		}
	}
	a.Hashtags = tags
	*p = GeneratedPost(a)
	return nil
}

// HookLine returns the first line of the hook, or a placeholder.
func (p GeneratedPost) HookLine() string {
	line, _, _ := strings.Cut(p.Hook, "\n")
	if line = strings.TrimSpace(line); line == "" {
		return "Generated Post"
	}
	return line
}

// PlainText renders the post the way it is pasted into LinkedIn.
func (p GeneratedPost) PlainText() string {
	tags := make([]string, len(p.Hashtags))
	for i, h := range p.Hashtags {
		tags[i] = "#" + h
	}
	return strings.Join([]string{p.Hook, "", p.Body, "", p.CTA, "", strings.Join(tags, " ")}, "\n")
}

// Score is a 1–5 rating. Zero means the server did not send one.
type Score int

// ScoreMidpoint is substituted for a missing score.
const ScoreMidpoint = 3

// Value returns the score clamped to [1,5], or the midpoint when missing.
func (s Score) Value() int {
	switch {
	case s == 0:
		return ScoreMidpoint
	case s < 1:
		return 1
	case s > 5:
		return 5
	}
	return int(s)
}

// Missing reports whether the server omitted the score.
func (s Score) Missing() bool {
	return s == 0
}

// UnmarshalJSON accepts integers, floats (rounded) and null. Anything else
// decodes as missing rather than failing the whole response.
func (s *Score) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		*s = 0
		return nil
	}
	*s = Score(math.Round(f))
	return nil
}

// wireInt decodes a JSON number, rounding fractions. Numeric strings are
// accepted; null and anything else decode as 0.
type wireInt int

func (n *wireInt) UnmarshalJSON(data []byte) error {
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		var str string
		if json.Unmarshal(data, &str) != nil {
			*n = 0
			return nil
		}
		if f, err = strconv.ParseFloat(strings.TrimSpace(str), 64); err != nil {
			*n = 0
			return nil
		}
	}
	*n = wireInt(math.Round(f))
	return nil
}

// StringList is a list of strings that may arrive either as a JSON array
// or as a string holding a JSON-encoded array. It always decodes to the
// canonical slice form; malformed input decodes as empty.
type StringList []string

// UnmarshalJSON normalizes both wire shapes.
func (l *StringList) UnmarshalJSON(data []byte) error {
	*l = NormalizeStringList(data)
	return nil
}

// MarshalJSON always emits an array, never null.
func (l StringList) MarshalJSON() ([]byte, error) {
	if l == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(l))
}

// NormalizeStringList converts a raw wire value into a string slice.
// A JSON array of strings passes through; a JSON string is parsed as an
// encoded array; null, absent, or malformed input yields an empty list.
func NormalizeStringList(raw json.RawMessage) StringList {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return StringList{}
	}
	switch raw[0] {
	case '"':
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return StringList{}
		}
		encoded = strings.TrimSpace(encoded)
		if encoded == "" || encoded[0] == '"' {
			return StringList{}
		}
		return NormalizeStringList(json.RawMessage(encoded))
	case '[':
		var list []string
		if err := json.Unmarshal(raw, &list); err != nil {
			return StringList{}
		}
		if list == nil {
			return StringList{}
		}
		return StringList(list)
	}
	return StringList{}
}
