// Package aggregate derives display statistics from a run result.
// Everything here is pure: no I/O, no state, recomputed on every render.
package aggregate

import (
	"math"

	"github.com/abelbrown/viral/internal/pipeline"
)

// Bucket is the color class assigned to a score.
type Bucket string

const (
	BucketPositive Bucket = "positive"
	BucketNeutral  Bucket = "neutral"
	BucketNegative Bucket = "negative"

	BucketTier1 Bucket = "tier-1"
	BucketTier2 Bucket = "tier-2"
	BucketTier3 Bucket = "tier-3"
)

// Threshold maps scores at or above Min to Tag.
type Threshold struct {
	Min float64
	Tag Bucket
}

// SentimentThresholds applies to 1–5 sentiment and usefulness scores.
var SentimentThresholds = []Threshold{
	{Min: 4, Tag: BucketPositive},
	{Min: 3, Tag: BucketNeutral},
}

// ViralThresholds applies to 1–10 viral scores.
var ViralThresholds = []Threshold{
	{Min: 9, Tag: BucketTier1},
	{Min: 8, Tag: BucketTier2},
}

// Classify returns the tag of the first threshold the score reaches, or
// fallback. Thresholds must be ordered highest Min first. Boundaries go to
// the higher bucket.
func Classify(score float64, thresholds []Threshold, fallback Bucket) Bucket {
	for _, t := range thresholds {
		if score >= t.Min {
			return t.Tag
		}
	}
	return fallback
}

// SentimentBucket classifies a 1–5 score or average.
func SentimentBucket(score float64) Bucket {
	return Classify(score, SentimentThresholds, BucketNegative)
}

// ViralBucket classifies a 1–10 viral score.
func ViralBucket(score int) Bucket {
	return Classify(float64(score), ViralThresholds, BucketTier3)
}

// Averages holds the mean scores across a set of analyses.
type Averages struct {
	Sentiment  float64
	Usefulness float64
}

// ComputeAverages returns mean sentiment and usefulness rounded to one
// decimal. Missing scores count as the midpoint. ok is false for an empty
// input so callers can render a "no data" state.
func ComputeAverages(analyses []pipeline.PostAnalysis) (avg Averages, ok bool) {
	if len(analyses) == 0 {
		return Averages{}, false
	}
	var sentiment, usefulness int
	for _, a := range analyses {
		sentiment += a.OverallSentiment.Value()
		usefulness += a.ToolUsefulness.Value()
	}
	n := float64(len(analyses))
	return Averages{
		Sentiment:  Round1(float64(sentiment) / n),
		Usefulness: Round1(float64(usefulness) / n),
	}, true
}

// Round1 rounds to one decimal place, halves away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Fraction returns value/max clamped to [0,1] for meter bars.
func Fraction(value, max float64) float64 {
	if max <= 0 {
		return 0
	}
	f := value / max
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

// ToneCount pairs a tone with how many generated posts used it.
type ToneCount struct {
	Tone  pipeline.Tone
	Count int
}

// Summary is the headline numbers for the stat bar.
type Summary struct {
	PostsAnalysed  int
	PostsGenerated int
	MockAnalyses   int
	TotalLikes     int
	TotalComments  int
	Tones          []ToneCount // known tones in canonical order, then unknown ones by first appearance
	TopViralScore  int
}

// Summarize computes the stat-bar summary for a result.
func Summarize(result pipeline.RunResult) Summary {
	s := Summary{
		PostsAnalysed:  len(result.Analyses),
		PostsGenerated: len(result.GeneratedPosts),
	}
	for _, a := range result.Analyses {
		if a.IsMock() {
			s.MockAnalyses++
		}
		s.TotalLikes += nonNegative(a.Likes)
		s.TotalComments += nonNegative(a.Comments)
	}

	counts := make(map[pipeline.Tone]int)
	var unknown []pipeline.Tone
	for _, p := range result.GeneratedPosts {
		if !p.Tone.Known() && counts[p.Tone] == 0 {
			unknown = append(unknown, p.Tone)
		}
		counts[p.Tone]++
		if p.ViralScore > s.TopViralScore {
			s.TopViralScore = p.ViralScore
		}
	}
	for _, t := range append(append([]pipeline.Tone{}, pipeline.Tones...), unknown...) {
		if n := counts[t]; n > 0 {
			s.Tones = append(s.Tones, ToneCount{Tone: t, Count: n})
		}
	}
	return s
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}
