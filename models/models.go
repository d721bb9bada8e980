package models

const DefaultChatSessionID = "default-session"

// Intent tokens returned by the classifier. Anything outside this set is
// treated as IntentTextOnly.
const (
	IntentTextOnly    = "TEXT_ONLY"
	IntentTableOnly   = "TABLE_ONLY"
	IntentDrawGraphic = "DRAW_GRAPHIC"
)

type AskRequest struct {
	Question  string `json:"question" binding:"required"`
	SessionID string `json:"session_id,omitempty"`
}

type Answer struct {
	Answer         string `json:"answer,omitempty"`
	HTML           string `json:"html,omitempty"`
	DetectedIntent string `json:"detected_intent,omitempty"`
	ElapsedMinutes int    `json:"elapsed_minutes"`
	Error          string `json:"error,omitempty"`
}

// ChatTurn is one persisted conversation entry (role "user" or "assistant").
type ChatTurn struct {
	SessionID string `json:"session_id"`
	Role      string `json:"role"`
	Content   string `json:"content"`
	IsHTML    bool   `json:"is_html"`
	CreatedAt string `json:"created_at"`
}

type ChatSession struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TableInfo is one table in the database map, with the AI summary and the
// compact JSON description produced by the indexing job.
type TableInfo struct {
	Schema    string       `json:"schema"`
	Name      string       `json:"name"`
	Columns   []ColumnInfo `json:"columns,omitempty"`
	Relations []Relation   `json:"relations,omitempty"`
	AISummary string       `json:"ai_summary,omitempty"`
	RawJSON   string       `json:"raw_json,omitempty"`
}

type ColumnInfo struct {
	Name       string `json:"name"`
	DataType   string `json:"data_type"`
	IsNullable bool   `json:"is_nullable"`
	IsPrimary  bool   `json:"is_primary,omitempty"`
}

// Relation is a foreign key edge from this table to another.
type Relation struct {
	Column        string `json:"column"`
	RefTable      string `json:"ref_table"`
	RefColumn     string `json:"ref_column"`
	ConstraintRef string `json:"constraint,omitempty"`
}

type DatabaseMap struct {
	Database string      `json:"database"`
	Tables   []TableInfo `json:"tables"`
}
