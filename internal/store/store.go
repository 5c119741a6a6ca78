// Package store persists the candidate corpus in SQLite and serves the
// semantic-search and enumeration queries the conversation flows consume.
// Vectors are stored next to the row; ranking runs over cosine similarity
// normalized to [0,1]. When the sqlite-vec extension is compiled in, an ANN
// virtual table takes over the ranking query.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"talentscout/internal/embedding"
)

// Candidate is one stored profile. Metadata carries the flat string fields
// (position, seniority, skills and so on) that filter matching enumerates.
type Candidate struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Document string            `json:"document"`
	Metadata map[string]string `json:"metadata"`
}

// SearchResult pairs a candidate with its similarity to the query, always
// in [0,1].
type SearchResult struct {
	Candidate
	Similarity float64
}

// Store wraps the SQLite handle. Safe for concurrent use.
type Store struct {
	db        *sql.DB
	mu        sync.RWMutex
	dbPath    string
	engine    embedding.Engine
	vectorExt bool
	log       *zap.Logger
}

// New opens (or creates) the candidate database at path.
func New(path string, engine embedding.Engine, log *zap.Logger) (*Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if engine == nil {
		return nil, fmt.Errorf("embedding engine is required")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			log.Debug("pragma failed", zap.String("pragma", pragma), zap.Error(err))
		}
	}

	s := &Store{db: db, dbPath: path, engine: engine, log: log}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	s.detectVecExtension()
	if s.vectorExt {
		log.Info("sqlite-vec extension detected, ANN ranking enabled")
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS candidates (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		document   TEXT NOT NULL,
		metadata   TEXT NOT NULL DEFAULT '{}',
		embedding  TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_candidates_name ON candidates(name);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add embeds and stores a single candidate. An existing row with the same
// id is replaced.
func (s *Store) Add(ctx context.Context, c Candidate) error {
	vec, err := s.engine.Embed(ctx, c.Document)
	if err != nil {
		return fmt.Errorf("failed to embed candidate %s: %w", c.ID, err)
	}
	return s.insert(ctx, c, vec)
}

// AddBatch embeds the documents concurrently, then inserts the rows in one
// transaction.
func (s *Store) AddBatch(ctx context.Context, cs []Candidate) error {
	if len(cs) == 0 {
		return nil
	}

	vecs := make([][]float32, len(cs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, c := range cs {
		g.Go(func() error {
			vec, err := s.engine.Embed(gctx, c.Document)
			if err != nil {
				return fmt.Errorf("failed to embed candidate %s: %w", c.ID, err)
			}
			vecs[i] = vec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for i, c := range cs {
		if err := s.insertTx(tx, c, vecs[i]); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	s.log.Info("candidate batch stored", zap.Int("count", len(cs)))
	return nil
}

func (s *Store) insert(ctx context.Context, c Candidate, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()
	if err := s.insertTx(tx, c, vec); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) insertTx(tx *sql.Tx, c Candidate, vec []float32) error {
	meta, err := json.Marshal(c.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", c.ID, err)
	}
	emb, err := json.Marshal(vec)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding for %s: %w", c.ID, err)
	}
	_, err = tx.Exec(`INSERT OR REPLACE INTO candidates (id, name, document, metadata, embedding)
		VALUES (?, ?, ?, ?, ?)`, c.ID, c.Name, c.Document, string(meta), string(emb))
	if err != nil {
		return fmt.Errorf("failed to insert candidate %s: %w", c.ID, err)
	}
	if s.vectorExt {
		if err := s.insertVecTx(tx, c.ID, string(emb)); err != nil {
			return err
		}
	}
	return nil
}

// SemanticSearch embeds the query and returns the n most similar candidates,
// best first. Similarity is (1+cosine)/2 so scores stay in [0,1].
func (s *Store) SemanticSearch(ctx context.Context, query string, n int) ([]SearchResult, error) {
	if n <= 0 {
		n = 10
	}
	qvec, err := s.engine.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	if s.vectorExt {
		if results, err := s.searchVec(ctx, qvec, n); err == nil {
			return results, nil
		} else {
			s.log.Warn("ANN search failed, falling back to scan", zap.Error(err))
		}
	}
	return s.searchScan(ctx, qvec, n)
}

func (s *Store) searchScan(ctx context.Context, qvec []float32, n int) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, document, metadata, embedding FROM candidates`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var c Candidate
		var metaJSON, embJSON string
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &metaJSON, &embJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
			s.log.Warn("skipping candidate with bad metadata", zap.String("id", c.ID), zap.Error(err))
			continue
		}
		var vec []float32
		if err := json.Unmarshal([]byte(embJSON), &vec); err != nil {
			s.log.Warn("skipping candidate with bad embedding", zap.String("id", c.ID), zap.Error(err))
			continue
		}
		sim, err := embedding.NormalizedSimilarity(qvec, vec)
		if err != nil {
			s.log.Warn("skipping candidate with mismatched embedding", zap.String("id", c.ID), zap.Error(err))
			continue
		}
		results = append(results, SearchResult{Candidate: c, Similarity: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Similarity > results[j].Similarity
	})
	if len(results) > n {
		results = results[:n]
	}
	return results, nil
}

// AllRecords returns a snapshot of every stored candidate, without vectors.
func (s *Store) AllRecords(ctx context.Context) ([]Candidate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, document, metadata FROM candidates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query candidates: %w", err)
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var c Candidate
		var metaJSON string
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &metaJSON); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
			c.Metadata = map[string]string{}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FieldValues returns the distinct non-empty values of one metadata field
// across the corpus, sorted. "name" enumerates candidate names. This feeds
// the enumeration handed to filter matching.
func (s *Store) FieldValues(ctx context.Context, field string) ([]string, error) {
	records, err := s.AllRecords(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var out []string
	add := func(v string) {
		v = strings.TrimSpace(v)
		if v == "" {
			return
		}
		if _, ok := seen[v]; ok {
			return
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	for _, r := range records {
		if field == "name" {
			add(r.Name)
			continue
		}
		if v, ok := r.Metadata[field]; ok {
			// comma-separated multi-value fields enumerate per value
			for _, part := range strings.Split(v, ",") {
				add(part)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}

// Count returns the number of stored candidates.
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM candidates`).Scan(&n)
	return n, err
}
