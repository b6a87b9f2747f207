package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/threadtally/threadtally/internal/core/model"
)

const exampleSeparator = " | "

// Store persists imported documents and the latest published run output in
// sqlite. Documents are immutable once stored; a run's output replaces the
// previous one in a single transaction so readers never see a partial
// table.
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma journal_mode: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id          TEXT PRIMARY KEY,
			payload     TEXT NOT NULL,
			imported_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			id             TEXT PRIMARY KEY,
			started_at     TIMESTAMP NOT NULL,
			finished_at    TIMESTAMP NOT NULL,
			docs_processed INTEGER NOT NULL,
			docs_skipped   INTEGER NOT NULL,
			records        INTEGER NOT NULL,
			mentions       INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS leaderboard (
			run_id         TEXT NOT NULL,
			key            TEXT NOT NULL,
			name           TEXT NOT NULL,
			mentions       INTEGER NOT NULL,
			unique_threads INTEGER NOT NULL,
			vote_score     INTEGER NOT NULL,
			weighted_votes REAL NOT NULL,
			avg_vote       REAL NOT NULL,
			avg_doc_score  REAL NOT NULL,
			score_v2       REAL NOT NULL,
			variants       TEXT NOT NULL,
			PRIMARY KEY (run_id, key)
		);`,
		`CREATE TABLE IF NOT EXISTS candidates (
			run_id   TEXT NOT NULL,
			token    TEXT NOT NULL,
			count    INTEGER NOT NULL,
			examples TEXT NOT NULL,
			PRIMARY KEY (run_id, token)
		);`,
	}
	for _, q := range schema {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ImportDocuments stores documents, first import wins: re-imported ids are
// ignored so first-seen vote scores stay stable. Documents without an id
// are skipped. Returns (added, duplicates, skipped).
func (s *Store) ImportDocuments(docs []model.RawDocument) (int, int, int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, 0, 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO documents (id, payload, imported_at) VALUES (?, ?, ?)`)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("prepare import: %w", err)
	}
	defer stmt.Close()

	added, dups, skipped := 0, 0, 0
	now := time.Now().UTC()
	for _, doc := range docs {
		if doc.ID == "" {
			skipped++
			continue
		}
		payload, err := json.Marshal(doc)
		if err != nil {
			skipped++
			continue
		}
		res, err := stmt.Exec(doc.ID, string(payload), now)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, 0, 0, fmt.Errorf("insert document %s: %w", doc.ID, err)
		}
		if n == 0 {
			dups++
		} else {
			added++
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, 0, fmt.Errorf("commit import: %w", err)
	}
	return added, dups, skipped, nil
}

// Documents returns all stored documents in deterministic order
// (import time, then id) for the pipeline.
func (s *Store) Documents() ([]model.RawDocument, error) {
	rows, err := s.db.Query(`SELECT payload FROM documents ORDER BY imported_at, id`)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var docs []model.RawDocument
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		var doc model.RawDocument
		if err := json.Unmarshal([]byte(payload), &doc); err != nil {
			// Corrupt row; the pipeline degrades per-document, so skip it
			// here the same way.
			continue
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (s *Store) DocumentCount() (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM documents`).Scan(&n)
	return n, err
}

// PublishRun atomically replaces the published leaderboard and candidate
// list with this run's output and records the run row. Readers either see
// the previous run's complete table or this one's, never a mix.
func (s *Store) PublishRun(res *model.RunResult) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin publish: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM leaderboard`); err != nil {
		return fmt.Errorf("clear leaderboard: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM candidates`); err != nil {
		return fmt.Errorf("clear candidates: %w", err)
	}

	for _, st := range res.Stats {
		_, err := tx.Exec(
			`INSERT INTO leaderboard (run_id, key, name, mentions, unique_threads, vote_score, weighted_votes, avg_vote, avg_doc_score, score_v2, variants)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			res.RunID, st.Key, st.Name, st.Mentions, st.UniqueThreads, st.VoteScore,
			st.WeightedVotes, st.AvgVote, st.AvgDocScore, st.ScoreV2, st.Variants,
		)
		if err != nil {
			return fmt.Errorf("insert leaderboard row %s: %w", st.Key, err)
		}
	}

	for _, c := range res.Candidates {
		_, err := tx.Exec(
			`INSERT INTO candidates (run_id, token, count, examples) VALUES (?, ?, ?, ?)`,
			res.RunID, c.Token, c.Count, strings.Join(c.Examples, exampleSeparator),
		)
		if err != nil {
			return fmt.Errorf("insert candidate %s: %w", c.Token, err)
		}
	}

	_, err = tx.Exec(
		`INSERT INTO runs (id, started_at, finished_at, docs_processed, docs_skipped, records, mentions)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		res.RunID, res.StartedAt, res.FinishedAt, res.DocsProcessed, res.DocsSkipped, res.Records, res.Mentions,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit publish: %w", err)
	}
	return nil
}

// Leaderboard returns the latest published stats (key order) and the run
// id they belong to. An empty table is not an error.
func (s *Store) Leaderboard() ([]model.EntityStats, string, error) {
	rows, err := s.db.Query(
		`SELECT run_id, key, name, mentions, unique_threads, vote_score, weighted_votes, avg_vote, avg_doc_score, score_v2, variants
		 FROM leaderboard ORDER BY key`)
	if err != nil {
		return nil, "", fmt.Errorf("query leaderboard: %w", err)
	}
	defer rows.Close()

	var stats []model.EntityStats
	runID := ""
	for rows.Next() {
		var st model.EntityStats
		if err := rows.Scan(&runID, &st.Key, &st.Name, &st.Mentions, &st.UniqueThreads,
			&st.VoteScore, &st.WeightedVotes, &st.AvgVote, &st.AvgDocScore, &st.ScoreV2, &st.Variants); err != nil {
			return nil, "", fmt.Errorf("scan leaderboard row: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, runID, rows.Err()
}

// Candidates returns the latest published candidate tokens, most frequent
// first.
func (s *Store) Candidates() ([]model.Candidate, error) {
	rows, err := s.db.Query(`SELECT token, count, examples FROM candidates ORDER BY count DESC, token`)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var c model.Candidate
		var examples string
		if err := rows.Scan(&c.Token, &c.Count, &examples); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		if examples != "" {
			c.Examples = strings.Split(examples, exampleSeparator)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
