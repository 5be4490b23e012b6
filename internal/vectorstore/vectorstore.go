// Package vectorstore implements the vector store component (spec
// component C5): a SQLite-backed store of chunk metadata plus their
// embeddings, searchable by cosine similarity via sqlite-vec.
package vectorstore

import (
	"database/sql"
	"fmt"
	"sort"
	"time"

	sqlite_vec "github.com/asg017/sqlite-vec-go-bindings/cgo"
	_ "github.com/mattn/go-sqlite3"

	"github.com/jardhel/seu-claude/internal/chunker"
	"github.com/jardhel/seu-claude/internal/errs"
)

func init() {
	sqlite_vec.Auto()
}

// Store is the vector store (spec §3/§5 C5). One Store owns exactly one
// embedding dimension, enforced at Open time (invariant 5).
type Store struct {
	db         *sql.DB
	dimensions int
}

// Open opens (creating if absent) a SQLite database at path and ensures its
// schema matches dimensions. Re-opening an existing store at a different
// dimension is a StoreError (spec §3 invariant 5).
func Open(path string, dimensions int) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, errs.Store("open sqlite database", err)
	}

	if err := createSchema(db, dimensions); err != nil {
		db.Close()
		return nil, err
	}

	existing, err := readStoredDimensions(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if existing != 0 && existing != dimensions {
		db.Close()
		return nil, errs.Store(fmt.Sprintf("store at %s was created with dimension %d, cannot reopen at %d", path, existing, dimensions), nil)
	}
	if existing == 0 {
		if err := writeStoredDimensions(db, dimensions); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &Store{db: db, dimensions: dimensions}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// Dimensions reports the store's fixed embedding width.
func (s *Store) Dimensions() int { return s.dimensions }

func createSchema(db *sql.DB, dimensions int) error {
	tx, err := db.Begin()
	if err != nil {
		return errs.Store("begin schema transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(createChunksTable); err != nil {
		return errs.Store("create chunks table", err)
	}
	if _, err := tx.Exec(createMetadataTable); err != nil {
		return errs.Store("create metadata table", err)
	}
	if _, err := tx.Exec("CREATE INDEX IF NOT EXISTS idx_chunks_relpath ON chunks(relative_path)"); err != nil {
		return errs.Store("create relative_path index", err)
	}
	if err := tx.Commit(); err != nil {
		return errs.Store("commit schema transaction", err)
	}

	// vec0 virtual tables cannot be created inside a transaction.
	createVecSQL := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS chunks_vec USING vec0(
		chunk_id TEXT PRIMARY KEY,
		embedding float[%d]
	)`, dimensions)
	if _, err := db.Exec(createVecSQL); err != nil {
		return errs.Store("create vector index", err)
	}
	return nil
}

const createChunksTable = `
CREATE TABLE IF NOT EXISTS chunks (
	chunk_id TEXT PRIMARY KEY,
	file_path TEXT NOT NULL,
	relative_path TEXT NOT NULL,
	language TEXT NOT NULL,
	chunk_type TEXT NOT NULL,
	name TEXT,
	scope TEXT NOT NULL,
	start_line INTEGER NOT NULL,
	end_line INTEGER NOT NULL,
	code TEXT NOT NULL,
	index_text TEXT NOT NULL,
	docstring TEXT,
	token_estimate INTEGER NOT NULL,
	last_updated INTEGER NOT NULL
)`

const createMetadataTable = `
CREATE TABLE IF NOT EXISTS store_metadata (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

func readStoredDimensions(db *sql.DB) (int, error) {
	var raw string
	err := db.QueryRow("SELECT value FROM store_metadata WHERE key = 'embedding_dimensions'").Scan(&raw)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, errs.Store("read stored dimensions", err)
	}
	var dims int
	if _, err := fmt.Sscanf(raw, "%d", &dims); err != nil {
		return 0, errs.Store("parse stored dimensions", err)
	}
	return dims, nil
}

func writeStoredDimensions(db *sql.DB, dimensions int) error {
	_, err := db.Exec(`INSERT INTO store_metadata (key, value) VALUES ('embedding_dimensions', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, fmt.Sprintf("%d", dimensions))
	if err != nil {
		return errs.Store("write stored dimensions", err)
	}
	return nil
}

// Upsert writes chunks, replacing any existing row with the same id (spec
// §3 invariant 2). All chunks must carry a vector of the store's
// dimension.
func (s *Store) Upsert(chunks []chunker.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	for _, c := range chunks {
		if len(c.Vector) != s.dimensions {
			return errs.Store(fmt.Sprintf("chunk %s has vector dimension %d, store expects %d", c.ID, len(c.Vector), s.dimensions), nil)
		}
	}

	tx, err := s.db.Begin()
	if err != nil {
		return errs.Store("begin upsert transaction", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO chunks
		(chunk_id, file_path, relative_path, language, chunk_type, name, scope, start_line, end_line, code, index_text, docstring, token_estimate, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			file_path=excluded.file_path, relative_path=excluded.relative_path, language=excluded.language,
			chunk_type=excluded.chunk_type, name=excluded.name, scope=excluded.scope,
			start_line=excluded.start_line, end_line=excluded.end_line, code=excluded.code,
			index_text=excluded.index_text, docstring=excluded.docstring, token_estimate=excluded.token_estimate,
			last_updated=excluded.last_updated`)
	if err != nil {
		return errs.Store("prepare upsert statement", err)
	}
	defer stmt.Close()

	deleteVec, err := tx.Prepare("DELETE FROM chunks_vec WHERE chunk_id = ?")
	if err != nil {
		return errs.Store("prepare vector delete statement", err)
	}
	defer deleteVec.Close()

	insertVec, err := tx.Prepare("INSERT INTO chunks_vec (chunk_id, embedding) VALUES (?, ?)")
	if err != nil {
		return errs.Store("prepare vector insert statement", err)
	}
	defer insertVec.Close()

	for _, c := range chunks {
		var name any
		if c.Name != "" {
			name = c.Name
		}
		var doc any
		if c.Docstring != "" {
			doc = c.Docstring
		}
		if _, err := stmt.Exec(c.ID, c.FilePath, c.RelativePath, c.Language, string(c.Type), name, c.Scope,
			c.StartLine, c.EndLine, c.Code, c.IndexText, doc, c.TokenEstimate, c.LastUpdated.Unix()); err != nil {
			return errs.Store(fmt.Sprintf("upsert chunk %s", c.ID), err)
		}

		if _, err := deleteVec.Exec(c.ID); err != nil {
			return errs.Store(fmt.Sprintf("delete stale vector for chunk %s", c.ID), err)
		}
		embBytes, err := sqlite_vec.SerializeFloat32(c.Vector)
		if err != nil {
			return errs.Store(fmt.Sprintf("serialize vector for chunk %s", c.ID), err)
		}
		if _, err := insertVec.Exec(c.ID, embBytes); err != nil {
			return errs.Store(fmt.Sprintf("insert vector for chunk %s", c.ID), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Store("commit upsert transaction", err)
	}
	return nil
}

// DeleteByFile removes every chunk (and vector) belonging to relativePath.
// Used when a source file is deleted or its chunk set is being rebuilt
// (spec §3 invariant 3: deletion is atomic across C5-C8).
func (s *Store) DeleteByFile(relativePath string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Store("begin delete transaction", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT chunk_id FROM chunks WHERE relative_path = ?", relativePath)
	if err != nil {
		return errs.Store("query chunk ids for deletion", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return errs.Store("scan chunk id", err)
		}
		ids = append(ids, id)
	}
	rows.Close()

	if _, err := tx.Exec("DELETE FROM chunks WHERE relative_path = ?", relativePath); err != nil {
		return errs.Store("delete chunks", err)
	}
	if len(ids) > 0 {
		vecDel, err := tx.Prepare("DELETE FROM chunks_vec WHERE chunk_id = ?")
		if err != nil {
			return errs.Store("prepare vector delete statement", err)
		}
		defer vecDel.Close()
		for _, id := range ids {
			if _, err := vecDel.Exec(id); err != nil {
				return errs.Store(fmt.Sprintf("delete vector for chunk %s", id), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errs.Store("commit delete transaction", err)
	}
	return nil
}

// GetByFile returns every chunk currently stored for relativePath, ordered
// by start line.
func (s *Store) GetByFile(relativePath string) ([]chunker.Chunk, error) {
	rows, err := s.db.Query(selectChunkColumns+" FROM chunks WHERE relative_path = ? ORDER BY start_line", relativePath)
	if err != nil {
		return nil, errs.Store("query chunks by file", err)
	}
	defer rows.Close()
	return scanChunks(rows)
}

// GetByID returns the chunk with the given id, or ok=false if absent.
func (s *Store) GetByID(chunkID string) (chunker.Chunk, bool, error) {
	rows, err := s.db.Query(selectChunkColumns+" FROM chunks WHERE chunk_id = ?", chunkID)
	if err != nil {
		return chunker.Chunk{}, false, errs.Store("query chunk by id", err)
	}
	defer rows.Close()
	chunks, err := scanChunks(rows)
	if err != nil {
		return chunker.Chunk{}, false, err
	}
	if len(chunks) == 0 {
		return chunker.Chunk{}, false, nil
	}
	return chunks[0], true, nil
}

// SearchResult pairs a chunk with its similarity score in [0,1], 1 best.
type SearchResult struct {
	Chunk chunker.Chunk
	Score float64
}

// Search returns the topK chunks most similar to queryVector by cosine
// similarity. Ties are broken by ascending scope then id (spec §3).
func (s *Store) Search(queryVector []float32, topK int) ([]SearchResult, error) {
	if len(queryVector) != s.dimensions {
		return nil, errs.Store(fmt.Sprintf("query vector dimension %d does not match store dimension %d", len(queryVector), s.dimensions), nil)
	}
	if topK <= 0 {
		return nil, nil
	}

	queryBytes, err := sqlite_vec.SerializeFloat32(queryVector)
	if err != nil {
		return nil, errs.Store("serialize query vector", err)
	}

	rows, err := s.db.Query(`SELECT chunk_id, vec_distance_cosine(embedding, ?) AS distance
		FROM chunks_vec ORDER BY distance LIMIT ?`, queryBytes, topK*4)
	if err != nil {
		return nil, errs.Store("query vector index", err)
	}
	type hit struct {
		id       string
		distance float64
	}
	var hits []hit
	for rows.Next() {
		var h hit
		if err := rows.Scan(&h.id, &h.distance); err != nil {
			rows.Close()
			return nil, errs.Store("scan vector hit", err)
		}
		hits = append(hits, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterate vector hits", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, h := range hits {
		chunkRows, err := s.db.Query(selectChunkColumns+" FROM chunks WHERE chunk_id = ?", h.id)
		if err != nil {
			return nil, errs.Store("load chunk for hit", err)
		}
		chunks, err := scanChunks(chunkRows)
		if err != nil {
			return nil, err
		}
		if len(chunks) == 0 {
			continue // vector row outlived its metadata row; skip rather than fail the whole search
		}
		// cosine distance in [0,2] -> similarity in [0,1]
		similarity := 1 - h.distance/2
		results = append(results, SearchResult{Chunk: chunks[0], Score: similarity})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		if results[i].Chunk.Scope != results[j].Chunk.Scope {
			return results[i].Chunk.Scope < results[j].Chunk.Scope
		}
		return results[i].Chunk.ID < results[j].Chunk.ID
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats reports the total chunk count currently stored.
type Stats struct {
	TotalChunks int
	Dimensions  int
}

// Stats returns aggregate counters for the store.
func (s *Store) Stats() (Stats, error) {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return Stats{}, errs.Store("query chunk count", err)
	}
	return Stats{TotalChunks: count, Dimensions: s.dimensions}, nil
}

// LanguageCounts returns the number of chunks stored per language.
func (s *Store) LanguageCounts() (map[string]int, error) {
	rows, err := s.db.Query("SELECT language, COUNT(*) FROM chunks GROUP BY language")
	if err != nil {
		return nil, errs.Store("query language counts", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var lang string
		var n int
		if err := rows.Scan(&lang, &n); err != nil {
			return nil, errs.Store("scan language count row", err)
		}
		counts[lang] = n
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterate language count rows", err)
	}
	return counts, nil
}

const selectChunkColumns = `SELECT chunk_id, file_path, relative_path, language, chunk_type, name, scope,
	start_line, end_line, code, index_text, docstring, token_estimate, last_updated`

func scanChunks(rows *sql.Rows) ([]chunker.Chunk, error) {
	var out []chunker.Chunk
	for rows.Next() {
		var c chunker.Chunk
		var chunkType string
		var name, doc sql.NullString
		var lastUpdated int64
		if err := rows.Scan(&c.ID, &c.FilePath, &c.RelativePath, &c.Language, &chunkType, &name, &c.Scope,
			&c.StartLine, &c.EndLine, &c.Code, &c.IndexText, &doc, &c.TokenEstimate, &lastUpdated); err != nil {
			return nil, errs.Store("scan chunk row", err)
		}
		c.Type = chunker.Type(chunkType)
		c.Name = name.String
		c.Docstring = doc.String
		c.LastUpdated = time.Unix(lastUpdated, 0).UTC()
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, errs.Store("iterate chunk rows", err)
	}
	return out, nil
}
