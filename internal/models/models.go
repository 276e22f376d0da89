package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ReasonInsufficientContext is the reason code attached to a refusal when no
// retrieved chunk passes the relevance gate.
const ReasonInsufficientContext = "insufficient_context"

// Tenant is the isolation boundary. Every document, chunk, cache entry and
// audit record is scoped to exactly one tenant.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Document is an ingested piece of source text. Immutable once stored.
type Document struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// DocumentChunk is one overlapping token window of a document, carrying its
// own embedding. Chunks are written in a batch at ingestion time and never
// mutated afterwards.
type DocumentChunk struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	TenantID   uuid.UUID
	ChunkText  string
	Embedding  pgvector.Vector
	CreatedAt  time.Time
}

// RetrievedChunk is a transient search result: a chunk together with its
// cosine distance from the query vector. Never persisted.
type RetrievedChunk struct {
	ChunkID    uuid.UUID
	DocumentID uuid.UUID
	ChunkText  string
	Distance   float64
}

// Answer is the normalized result of the question-answering pipeline.
// Invariant: when Answer is nil, Reason carries a code such as
// ReasonInsufficientContext; Citations is always non-nil so it serializes as
// a JSON array rather than null.
type Answer struct {
	Answer     *string  `json:"answer"`
	Citations  []string `json:"citations"`
	Confidence float64  `json:"confidence"`
	Reason     *string  `json:"reason"`
	Cached     bool     `json:"cached"`
}

// Refusal builds the well-formed answer returned when retrieval yields no
// usable evidence. A refusal is a normal outcome, not an error.
func Refusal() Answer {
	reason := ReasonInsufficientContext
	return Answer{
		Answer:     nil,
		Citations:  []string{},
		Confidence: 0.0,
		Reason:     &reason,
	}
}

// IsRefusal reports whether the answer declined to respond.
func (a Answer) IsRefusal() bool {
	return a.Answer == nil
}

// AuditRequest records one incoming question.
type AuditRequest struct {
	ID        uuid.UUID
	TenantID  uuid.UUID
	Question  string
	CreatedAt time.Time
}

// AuditResponse records the normalized answer payload produced for one
// AuditRequest. The pair is written for every ask that reaches the pipeline,
// refusals included; cache hits are never audited.
type AuditResponse struct {
	ID         uuid.UUID
	RequestID  uuid.UUID
	AnswerJSON []byte
	CreatedAt  time.Time
}
