// Package mockpipe is a local stand-in for the content pipeline service.
// It serves the same HTTP contract from a fixed YAML corpus so the client
// can be run and tested without scraping or model credentials.
package mockpipe

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/abelbrown/viral/internal/pipeline"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the corpus the mock pipeline draws from.
type Fixtures struct {
	Posts     []FixturePost     `yaml:"posts"`
	Questions []string          `yaml:"questions"`
	Insights  string            `yaml:"insights"`
	Generated []FixtureTemplate `yaml:"generated"`
}

// FixturePost is one sample source post.
type FixturePost struct {
	URL         string `yaml:"url"`
	Author      string `yaml:"author"`
	AuthorTitle string `yaml:"author_title"`
	Text        string `yaml:"text"`
	Likes       int    `yaml:"likes"`
	Comments    int    `yaml:"comments"`
	Shares      int    `yaml:"shares"`
}

// FixtureTemplate is a generated post with {niche} and {tag} placeholders.
type FixtureTemplate struct {
	Hook       string   `yaml:"hook"`
	Body       string   `yaml:"body"`
	CTA        string   `yaml:"cta"`
	Hashtags   []string `yaml:"hashtags"`
	ViralScore int      `yaml:"viral_score"`
	Tone       string   `yaml:"tone"`
}

// LoadFixtures parses a YAML corpus.
func LoadFixtures(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	if len(f.Posts) == 0 {
		return nil, fmt.Errorf("fixtures have no posts")
	}
	return &f, nil
}

// DefaultFixtures returns the embedded corpus.
func DefaultFixtures() *Fixtures {
	f, err := LoadFixtures(defaultFixtures)
	if err != nil {
		panic(err)
	}
	return f
}

// sentiment scores a post from its reach the way the backend's offline
// fallback does.
func sentiment(likes int) int {
	switch {
	case likes > 10000:
		return 5
	case likes > 5000:
		return 4
	case likes > 1000:
		return 3
	}
	return 2
}

func (t FixtureTemplate) render(niche string) pipeline.GeneratedPost {
	tag := strings.ReplaceAll(niche, " ", "")
	r := strings.NewReplacer("{niche}", niche, "{tag}", tag)

	tags := make(pipeline.StringList, 0, len(t.Hashtags))
	for _, h := range t.Hashtags {
		if h = r.Replace(h); h != "" {
			tags = append(tags, h)
		}
	}
	return pipeline.GeneratedPost{
		Hook:       r.Replace(t.Hook),
		Body:       r.Replace(t.Body),
		CTA:        r.Replace(t.CTA),
		Hashtags:   tags,
		Tone:       pipeline.Tone(t.Tone),
		ViralScore: t.ViralScore,
	}
}
