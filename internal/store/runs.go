package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/abelbrown/viral/internal/pipeline"
)

// RunSummary is one row of the history list.
type RunSummary struct {
	ID        int64
	Niche     string
	Platform  string
	Keywords  []string
	NumPosts  int
	UseMock   bool
	CreatedAt time.Time

	Analyses      int
	Posts         int
	TopViralScore int
}

// Run is an archived run with its full result.
type Run struct {
	RunSummary
	Request pipeline.RunRequest
	Result  pipeline.RunResult
}

// SaveRun archives a completed run and returns its id.
// Thread-safe: acquires write lock.
func (s *Store) SaveRun(req pipeline.RunRequest, result pipeline.RunResult) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	keywords, err := json.Marshal(pipeline.StringList(req.Keywords))
	if err != nil {
		return 0, fmt.Errorf("encode keywords: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO runs (niche, platform, keywords, num_posts, use_mock, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, req.Niche, req.Platform, string(keywords), req.NumPosts, boolToInt(req.UseMock), result.Message, s.now())
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("run id: %w", err)
	}

	if err := insertAnalyses(tx, id, result.Analyses); err != nil {
		return 0, err
	}
	if err := insertPosts(tx, id, result.GeneratedPosts); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return id, nil
}

func insertAnalyses(tx *sql.Tx, runID int64, analyses []pipeline.PostAnalysis) error {
	stmt, err := tx.Prepare(`
		INSERT INTO analyses (
			run_id, position, author, text, url, likes, comments, shares,
			overall_sentiment, tool_usefulness, common_questions, key_insights, source
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare analyses: %w", err)
	}
	defer stmt.Close()

	for i, a := range analyses {
		questions, err := json.Marshal(a.CommonQuestions)
		if err != nil {
			return fmt.Errorf("encode questions: %w", err)
		}
		_, err = stmt.Exec(
			runID, i,
			a.Author, a.Text, a.URL,
			a.Likes, a.Comments, a.Shares,
			int(a.OverallSentiment), int(a.ToolUsefulness),
			string(questions), a.KeyInsights, a.Source,
		)
		if err != nil {
			return fmt.Errorf("insert analysis %d: %w", i, err)
		}
	}
	return nil
}

func insertPosts(tx *sql.Tx, runID int64, posts []pipeline.GeneratedPost) error {
	stmt, err := tx.Prepare(`
		INSERT INTO generated_posts (run_id, position, hook, body, cta, hashtags, tone, viral_score)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare posts: %w", err)
	}
	defer stmt.Close()

	for i, p := range posts {
		tags, err := json.Marshal(p.Hashtags)
		if err != nil {
			return fmt.Errorf("encode hashtags: %w", err)
		}
		if _, err := stmt.Exec(runID, i, p.Hook, p.Body, p.CTA, string(tags), string(p.Tone), p.ViralScore); err != nil {
			return fmt.Errorf("insert post %d: %w", i, err)
		}
	}
	return nil
}

const summaryColumns = `
	r.id, r.niche, r.platform, r.keywords, r.num_posts, r.use_mock, r.created_at,
	(SELECT COUNT(*) FROM analyses a WHERE a.run_id = r.id),
	(SELECT COUNT(*) FROM generated_posts g WHERE g.run_id = r.id),
	(SELECT COALESCE(MAX(viral_score), 0) FROM generated_posts g WHERE g.run_id = r.id)
`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (RunSummary, error) {
	var (
		rs       RunSummary
		keywords string
		useMock  int
	)
	err := row.Scan(
		&rs.ID, &rs.Niche, &rs.Platform, &keywords, &rs.NumPosts, &useMock, &rs.CreatedAt,
		&rs.Analyses, &rs.Posts, &rs.TopViralScore,
	)
	if err != nil {
		return RunSummary{}, err
	}
	rs.UseMock = useMock != 0
	rs.Keywords = []string(pipeline.NormalizeStringList(json.RawMessage(keywords)))
	return rs, nil
}

// ListRuns returns the most recent runs, newest first.
// Thread-safe: acquires read lock.
func (s *Store) ListRuns(limit int) ([]RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(`
		SELECT `+summaryColumns+`
		FROM runs r
		ORDER BY r.created_at DESC, r.id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		rs, err := scanSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rs)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

// LoadRun returns an archived run with its analyses and generated posts in
// their original order. The result's RunID is the archive id.
// Thread-safe: acquires read lock.
func (s *Store) LoadRun(id int64) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, err := scanSummary(s.db.QueryRow(`SELECT `+summaryColumns+` FROM runs r WHERE r.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, fmt.Errorf("load run %d: %w", id, err)
	}

	var message sql.NullString
	if err := s.db.QueryRow(`SELECT message FROM runs WHERE id = ?`, id).Scan(&message); err != nil {
		return Run{}, fmt.Errorf("load message: %w", err)
	}

	analyses, err := s.loadAnalyses(id)
	if err != nil {
		return Run{}, err
	}
	posts, err := s.loadPosts(id)
	if err != nil {
		return Run{}, err
	}

	keywords := rs.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return Run{
		RunSummary: rs,
		Request: pipeline.RunRequest{
			Niche:    rs.Niche,
			Platform: rs.Platform,
			Keywords: keywords,
			NumPosts: rs.NumPosts,
			UseMock:  rs.UseMock,
		},
		Result: pipeline.RunResult{
			Analyses:       analyses,
			GeneratedPosts: posts,
			Message:        message.String,
			RunID:          id,
		},
	}, nil
}

// Caller must hold s.mu.
func (s *Store) loadAnalyses(runID int64) ([]pipeline.PostAnalysis, error) {
	rows, err := s.db.Query(`
		SELECT author, text, url, likes, comments, shares,
			overall_sentiment, tool_usefulness, common_questions, key_insights, source
		FROM analyses
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer rows.Close()

	analyses := []pipeline.PostAnalysis{}
	for rows.Next() {
		var (
			a                     pipeline.PostAnalysis
			author, text, url     sql.NullString
			insights, source      sql.NullString
			sentiment, usefulness int
			questions             string
		)
		err := rows.Scan(&author, &text, &url, &a.Likes, &a.Comments, &a.Shares,
			&sentiment, &usefulness, &questions, &insights, &source)
		if err != nil {
			return nil, fmt.Errorf("scan analysis: %w", err)
		}
		a.Author = author.String
		a.Text = text.String
		a.URL = url.String
		a.KeyInsights = insights.String
		a.Source = source.String
		a.OverallSentiment = pipeline.Score(sentiment)
		a.ToolUsefulness = pipeline.Score(usefulness)
		a.CommonQuestions = pipeline.NormalizeStringList(json.RawMessage(questions))
		analyses = append(analyses, a)
	}
	return analyses, rows.Err()
}

// Caller must hold s.mu.
func (s *Store) loadPosts(runID int64) ([]pipeline.GeneratedPost, error) {
	rows, err := s.db.Query(`
		SELECT hook, body, cta, hashtags, tone, viral_score
		FROM generated_posts
		WHERE run_id = ?
		ORDER BY position
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	posts := []pipeline.GeneratedPost{}
	for rows.Next() {
		var (
			p    pipeline.GeneratedPost
			tags string
			tone string
		)
		if err := rows.Scan(&p.Hook, &p.Body, &p.CTA, &tags, &tone, &p.ViralScore); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		p.Tone = pipeline.Tone(tone)
		p.Hashtags = pipeline.NormalizeStringList(json.RawMessage(tags))
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// ClearHistory deletes every archived run.
// Thread-safe: acquires write lock.
func (s *Store) ClearHistory() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"generated_posts", "analyses", "runs"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
