package pipeline

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestNewRunRequest(t *testing.T) {
	req := NewRunRequest("  B2B SaaS ", " viral content, ,thought leadership,, AI tools ", 8, true)

	if req.Niche != "B2B SaaS" {
		t.Errorf("Niche = %q, want trimmed", req.Niche)
	}
	if req.Platform != PlatformLinkedIn {
		t.Errorf("Platform = %q, want %q", req.Platform, PlatformLinkedIn)
	}
	want := []string{"viral content", "thought leadership", "AI tools"}
	if !reflect.DeepEqual(req.Keywords, want) {
		t.Errorf("Keywords = %v, want %v", req.Keywords, want)
	}
	if req.NumPosts != 8 || !req.UseMock {
		t.Errorf("NumPosts/UseMock not carried: %+v", req)
	}
}

func TestRunRequestWireForm(t *testing.T) {
	req := NewRunRequest("AI", "", 5, false)
	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"niche":"AI","platform":"LinkedIn","keywords":[],"num_posts":5,"use_mock":false}`
	if string(data) != want {
		t.Errorf("wire form = %s, want %s", data, want)
	}
}

func TestRunRequestValidate(t *testing.T) {
	tests := []struct {
		name  string
		req   RunRequest
		field string
	}{
		{"valid", NewRunRequest("AI", "", 3, true), ""},
		{"empty niche", NewRunRequest("", "", 5, true), "niche"},
		{"blank niche", NewRunRequest("   ", "", 5, true), "niche"},
		{"bad count", NewRunRequest("AI", "", 4, true), "num_posts"},
		{"bad platform", RunRequest{Niche: "AI", Platform: "X", NumPosts: 5}, "platform"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected *ValidationError, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %q, want %q", ve.Field, tt.field)
			}
		})
	}
}

func TestNormalizeStringList(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want StringList
	}{
		{"encoded string", `"[\"a\",\"b\"]"`, StringList{"a", "b"}},
		{"native array", `["a"]`, StringList{"a"}},
		{"malformed encoded", `"[\"a\","`, StringList{}},
		{"plain string", `"what is this"`, StringList{}},
		{"empty string", `""`, StringList{}},
		{"null", `null`, StringList{}},
		{"absent", ``, StringList{}},
		{"array of numbers", `[1,2]`, StringList{}},
		{"object", `{"a":1}`, StringList{}},
		{"double encoded", `"\"[\\\"a\\\"]\""`, StringList{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeStringList(json.RawMessage(tt.raw))
			if got == nil {
				t.Fatal("NormalizeStringList returned nil")
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NormalizeStringList(%s) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStringListIdempotent(t *testing.T) {
	first := NormalizeStringList(json.RawMessage(`"[\"x\",\"y\"]"`))
	encoded, err := json.Marshal(first)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	second := NormalizeStringList(encoded)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization not idempotent: %v vs %v", first, second)
	}

	var nilList StringList
	data, _ := json.Marshal(nilList)
	if string(data) != "[]" {
		t.Errorf("nil StringList marshals as %s, want []", data)
	}
}

func TestScore(t *testing.T) {
	tests := []struct {
		raw     string
		value   int
		missing bool
	}{
		{`4`, 4, false},
		{`4.6`, 5, false},
		{`null`, 3, true},
		{`"high"`, 3, true},
		{`9`, 5, false},
		{`-2`, 1, false},
	}
	for _, tt := range tests {
		var s Score
		if err := json.Unmarshal([]byte(tt.raw), &s); err != nil {
			t.Fatalf("Unmarshal(%s): %v", tt.raw, err)
		}
		if s.Value() != tt.value {
			t.Errorf("Score(%s).Value() = %d, want %d", tt.raw, s.Value(), tt.value)
		}
		if s.Missing() != tt.missing {
			t.Errorf("Score(%s).Missing() = %v, want %v", tt.raw, s.Missing(), tt.missing)
		}
	}
}

func TestDecodePostAnalysisDefaults(t *testing.T) {
	var a PostAnalysis
	body := `{"author":"Jane","text":"Hello","common_questions":"[\"How?\"]","source":"mock"}`
	if err := json.Unmarshal([]byte(body), &a); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if a.Likes != 0 || a.Comments != 0 {
		t.Errorf("counts should default to 0: %+v", a)
	}
	if !a.OverallSentiment.Missing() || a.OverallSentiment.Value() != 3 {
		t.Errorf("missing sentiment should default to 3, got %d", a.OverallSentiment.Value())
	}
	if !reflect.DeepEqual([]string(a.CommonQuestions), []string{"How?"}) {
		t.Errorf("CommonQuestions = %v", a.CommonQuestions)
	}
	if !a.IsMock() {
		t.Error("IsMock should be true for source=mock")
	}
}

func TestDecodeRunResultDefaultsArrays(t *testing.T) {
	var r RunResult
	if err := json.Unmarshal([]byte(`{"message":"ok"}`), &r); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if r.Analyses == nil || r.GeneratedPosts == nil {
		t.Fatalf("arrays should default to empty, got %+v", r)
	}
	if len(r.Analyses) != 0 || len(r.GeneratedPosts) != 0 {
		t.Errorf("arrays should be empty, got %+v", r)
	}

	if err := json.Unmarshal([]byte(`{"analyses":null,"generated_posts":null}`), &r); err != nil {
		t.Fatalf("unmarshal nulls: %v", err)
	}
	if r.Analyses == nil || r.GeneratedPosts == nil {
		t.Error("null arrays should default to empty")
	}
}

func TestGeneratedPost(t *testing.T) {
	var p GeneratedPost
	body := `{"hook":"Stop scrolling.\nSecond line","body":"B","cta":"C","hashtags":["#ai"," growth ",""],"tone":"Bold","viral_score":9}`
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual([]string(p.Hashtags), []string{"ai", "growth"}) {
		t.Errorf("Hashtags = %v", p.Hashtags)
	}
	if p.HookLine() != "Stop scrolling." {
		t.Errorf("HookLine = %q", p.HookLine())
	}
	if !p.Tone.Known() {
		t.Error("Bold should be a known tone")
	}
	if Tone("Sarcastic").Known() {
		t.Error("Sarcastic should not be a known tone")
	}

	want := "Stop scrolling.\nSecond line\n\nB\n\nC\n\n#ai #growth"
	if got := p.PlainText(); got != want {
		t.Errorf("PlainText = %q, want %q", got, want)
	}

	if (GeneratedPost{}).HookLine() != "Generated Post" {
		t.Error("empty hook should fall back to placeholder")
	}
}

func TestDecodeTolerantCounts(t *testing.T) {
	body := `{
		"analyses": [{"author":"A","likes":12.0,"comments":"7","shares":null,"overall_sentiment":4}],
		"generated_posts": [{"hook":"H","tone":"Bold","viral_score":8.5}]
	}`
	var r RunResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		t.Fatalf("fractional counts should not fail the response: %v", err)
	}
	a := r.Analyses[0]
	if a.Likes != 12 || a.Comments != 7 || a.Shares != 0 {
		t.Errorf("counts = %d/%d/%d, want 12/7/0", a.Likes, a.Comments, a.Shares)
	}
	if a.Author != "A" || a.OverallSentiment.Value() != 4 {
		t.Errorf("other fields lost: %+v", a)
	}
	if got := r.GeneratedPosts[0].ViralScore; got != 9 {
		t.Errorf("ViralScore = %d, want 9 (8.5 rounded)", got)
	}
	if r.GeneratedPosts[0].Tone != ToneBold {
		t.Errorf("Tone = %q", r.GeneratedPosts[0].Tone)
	}
}

func TestDecodeMalformedCountIsZero(t *testing.T) {
	var p GeneratedPost
	if err := json.Unmarshal([]byte(`{"hook":"H","viral_score":"very"}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if p.ViralScore != 0 || p.Hook != "H" {
		t.Errorf("post = %+v", p)
	}
}
