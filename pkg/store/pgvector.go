package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/aurahq/aura/internal/models"
)

type StoreConfig struct {
	ConnString  string
	VectorDim   int
	MaxConns    int32
	PingTimeout time.Duration
}

// Store persists tenants, documents, chunk vectors and audit records in
// Postgres, using pgvector for nearest-neighbor search.
type Store struct {
	config StoreConfig
	pool   *pgxpool.Pool
	log    *slog.Logger
}

func NewWithConfig(ctx context.Context, config StoreConfig) (*Store, error) {
	if config.VectorDim == 0 {
		config.VectorDim = 768
	}
	if config.MaxConns == 0 {
		config.MaxConns = 10
	}
	if config.PingTimeout == 0 {
		config.PingTimeout = 5 * time.Second
	}

	poolConfig, err := pgxpool.ParseConfig(config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}
	poolConfig.MaxConns = config.MaxConns

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, config.PingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{
		config: config,
		pool:   pool,
		log:    slog.Default().With("component", "store"),
	}

	if err := s.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

func (s *Store) initialize(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("failed to create vector extension: %w", err)
	}

	statements := []string{
		`CREATE TABLE IF NOT EXISTS tenants (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL REFERENCES tenants(id),
			title VARCHAR(500) NOT NULL,
			content TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS document_chunks (
			id UUID PRIMARY KEY,
			document_id UUID NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
			tenant_id UUID NOT NULL,
			chunk_text TEXT NOT NULL,
			embedding vector(%d),
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.config.VectorDim),
		`CREATE TABLE IF NOT EXISTS ai_requests (
			id UUID PRIMARY KEY,
			tenant_id UUID NOT NULL,
			question TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS ai_responses (
			id UUID PRIMARY KEY,
			request_id UUID NOT NULL REFERENCES ai_requests(id),
			answer_json JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS documents_tenant_idx ON documents (tenant_id)`,
		`CREATE INDEX IF NOT EXISTS document_chunks_tenant_idx ON document_chunks (tenant_id)`,
		`CREATE INDEX IF NOT EXISTS ai_requests_tenant_idx ON ai_requests (tenant_id)`,
		`CREATE INDEX IF NOT EXISTS document_chunks_embedding_idx
			ON document_chunks
			USING ivfflat (embedding vector_cosine_ops)
			WITH (lists = 100)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	return nil
}

// Ping reports database reachability for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// CreateTenant registers a new tenant and returns its record.
func (s *Store) CreateTenant(ctx context.Context, name string) (models.Tenant, error) {
	tenant := models.Tenant{ID: uuid.New(), Name: name}

	err := s.pool.QueryRow(ctx,
		`INSERT INTO tenants (id, name) VALUES ($1, $2) RETURNING created_at`,
		tenant.ID, tenant.Name,
	).Scan(&tenant.CreatedAt)
	if err != nil {
		return models.Tenant{}, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.log.Info("created tenant", "tenant_id", tenant.ID, "name", tenant.Name)
	return tenant, nil
}

// TenantExists checks the isolation boundary before any pipeline work.
func (s *Store) TenantExists(ctx context.Context, tenantID uuid.UUID) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM tenants WHERE id = $1)`, tenantID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check tenant: %w", err)
	}
	return exists, nil
}

// InsertDocument stores a document and its chunk batch in one transaction.
func (s *Store) InsertDocument(ctx context.Context, doc models.Document, chunks []models.DocumentChunk) (models.Document, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx,
		`INSERT INTO documents (id, tenant_id, title, content)
		 VALUES ($1, $2, $3, $4)
		 RETURNING created_at`,
		doc.ID, doc.TenantID, doc.Title, doc.Content,
	).Scan(&doc.CreatedAt)
	if err != nil {
		return models.Document{}, fmt.Errorf("failed to insert document: %w", err)
	}

	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		batch.Queue(
			`INSERT INTO document_chunks (id, document_id, tenant_id, chunk_text, embedding)
			 VALUES ($1, $2, $3, $4, $5)`,
			chunk.ID, chunk.DocumentID, chunk.TenantID, chunk.ChunkText, chunk.Embedding,
		)
	}

	br := tx.SendBatch(ctx, batch)
	for i := 0; i < len(chunks); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return models.Document{}, fmt.Errorf("failed to insert chunk %d: %w", i, err)
		}
	}
	if err := br.Close(); err != nil {
		return models.Document{}, fmt.Errorf("failed to flush chunk batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return models.Document{}, fmt.Errorf("failed to commit document: %w", err)
	}

	s.log.Info("ingested document",
		"document_id", doc.ID, "tenant_id", doc.TenantID, "chunks", len(chunks))
	return doc, nil
}

// SearchChunks returns the topK nearest chunks for the tenant, best match
// first. The <=> operator is cosine distance in [0, 2].
func (s *Store) SearchChunks(ctx context.Context, tenantID uuid.UUID, queryVec []float32, topK int) ([]models.RetrievedChunk, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, document_id, chunk_text, embedding <=> $2 AS distance
		 FROM document_chunks
		 WHERE tenant_id = $1
		 ORDER BY embedding <=> $2
		 LIMIT $3`,
		tenantID, pgvector.NewVector(queryVec), topK,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to search chunks: %w", err)
	}
	defer rows.Close()

	var chunks []models.RetrievedChunk
	for rows.Next() {
		var chunk models.RetrievedChunk
		if err := rows.Scan(&chunk.ChunkID, &chunk.DocumentID, &chunk.ChunkText, &chunk.Distance); err != nil {
			return nil, fmt.Errorf("failed to scan chunk: %w", err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, rows.Err()
}

// SaveInteraction writes the audit request/response pair for one ask.
func (s *Store) SaveInteraction(ctx context.Context, tenantID uuid.UUID, question string, answer models.Answer) error {
	payload, err := json.Marshal(answer)
	if err != nil {
		return fmt.Errorf("failed to marshal answer: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	requestID := uuid.New()
	_, err = tx.Exec(ctx,
		`INSERT INTO ai_requests (id, tenant_id, question) VALUES ($1, $2, $3)`,
		requestID, tenantID, question,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit request: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO ai_responses (id, request_id, answer_json) VALUES ($1, $2, $3)`,
		uuid.New(), requestID, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit response: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit audit pair: %w", err)
	}
	return nil
}
