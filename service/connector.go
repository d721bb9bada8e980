package service

import (
	"context"

	"askdb/models"
	"askdb/vector"
)

// DbConnector is the contract the pipeline has with the target database.
// Execution faults (syntax, missing object, permission, timeout) come
// back as opaque errors; the pipeline only forwards their text to the
// repair prompt.
type DbConnector interface {
	DatabaseName() string
	Schema() string
	ExecuteRawSQLToJSON(ctx context.Context, sqlText string) (string, error)
}

// ChatRepository records conversation turns. The orchestrator uses it
// fire-and-forget.
type ChatRepository interface {
	AddChatHistory(turn models.ChatTurn) error
}

// VectorSearcher is the read side of the vector index.
type VectorSearcher interface {
	Search(ctx context.Context, vec []float32, topK int, conditions []vector.Condition) ([]vector.ScoredPoint, error)
}

// DbMapProvider exposes the authoritative table list used for prompt
// grounding and topK sizing.
type DbMapProvider interface {
	GetDbMapFast(ctx context.Context) (*models.DatabaseMap, error)
}
