package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
)

// detectVecExtension probes for sqlite-vec and, when present, provisions the
// ANN virtual table. The extension is only registered when the binary is
// built with the sqlite_vec tag (see init_vec.go).
func (s *Store) detectVecExtension() {
	var version string
	if err := s.db.QueryRow(`SELECT vec_version()`).Scan(&version); err != nil {
		s.vectorExt = false
		return
	}
	ddl := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_candidates USING vec0(
			id TEXT PRIMARY KEY,
			embedding float[%d] distance_metric=cosine
		)`, s.engine.Dimensions())
	if _, err := s.db.Exec(ddl); err != nil {
		s.log.Warn("sqlite-vec present but virtual table creation failed; ANN disabled")
		s.vectorExt = false
		return
	}
	s.vectorExt = true
}

func (s *Store) insertVecTx(tx *sql.Tx, id, embJSON string) error {
	if _, err := tx.Exec(`DELETE FROM vec_candidates WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to clear vec row %s: %w", id, err)
	}
	if _, err := tx.Exec(`INSERT INTO vec_candidates (id, embedding) VALUES (?, ?)`, id, embJSON); err != nil {
		return fmt.Errorf("failed to insert vec row %s: %w", id, err)
	}
	return nil
}

// searchVec ranks through the vec0 KNN index. sqlite-vec reports cosine
// distance in [0,2]; similarity maps back as 1 - distance/2.
func (s *Store) searchVec(ctx context.Context, qvec []float32, n int) ([]SearchResult, error) {
	qJSON, err := json.Marshal(qvec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal query vector: %w", err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.document, c.metadata, v.distance
		FROM vec_candidates v
		JOIN candidates c ON c.id = v.id
		WHERE v.embedding MATCH ? AND v.k = ?
		ORDER BY v.distance`, string(qJSON), n)
	if err != nil {
		return nil, fmt.Errorf("ANN query failed: %w", err)
	}
	defer rows.Close()

	var results []SearchResult
	for rows.Next() {
		var c Candidate
		var metaJSON string
		var distance float64
		if err := rows.Scan(&c.ID, &c.Name, &c.Document, &metaJSON, &distance); err != nil {
			return nil, fmt.Errorf("failed to scan ANN row: %w", err)
		}
		if err := json.Unmarshal([]byte(metaJSON), &c.Metadata); err != nil {
			c.Metadata = map[string]string{}
		}
		results = append(results, SearchResult{Candidate: c, Similarity: 1 - distance/2})
	}
	return results, rows.Err()
}
