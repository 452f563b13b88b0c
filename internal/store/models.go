package store

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID           string    `json:"id"` // UUID
	Email        string    `json:"email"`
	FullName     *string   `json:"full_name"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type Conversation struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ModuleID     *string   `json:"module_id"` // nil means a general conversation
	Title        string    `json:"title"`
	LastActivity time.Time `json:"last_activity"`
	CreatedAt    time.Time `json:"created_at"`
}

type Message struct {
	ID              string    `json:"id"`
	ConversationID  string    `json:"conversation_id"`
	IsUser          bool      `json:"is_user"`
	Content         string    `json:"content"`
	ToolsUsed       []string  `json:"tools_used"`
	QuestionContext *string   `json:"question_context"`
	CreatedAt       time.Time `json:"created_at"`
}

type Module struct {
	ID                 string    `json:"id"`
	UserID             string    `json:"user_id"`
	Name               string    `json:"name"`
	Code               *string   `json:"code"`
	Description        *string   `json:"description"`
	IsGlobal           bool      `json:"is_global"`
	SuggestedQuestions []string  `json:"suggested_questions"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ModuleContent is a document written by the module upload flow, keyed by module_id.
type ModuleContent struct {
	ID               string    `json:"id"`
	ModuleID         string    `json:"module_id"`
	UserID           string    `json:"user_id"`
	DocumentID       *string   `json:"document_id"`
	FileName         string    `json:"file_name"`
	FileType         string    `json:"file_type"`
	FileSize         int64     `json:"file_size"`
	ExtractedText    *string   `json:"extracted_text"`
	ProcessedContent *string   `json:"processed_content"`
	ProcessingStatus string    `json:"processing_status"`
	Summary          *string   `json:"summary"`
	CreatedAt        time.Time `json:"created_at"`
}

// ProcessedDocument is a document written by the standalone course upload flow, keyed by course_id.
type ProcessedDocument struct {
	ID               string    `json:"id"`
	CourseID         string    `json:"course_id"`
	UserID           string    `json:"user_id"`
	LLMWhispererID   *string   `json:"llm_whisperer_id"`
	OriginalFilename string    `json:"original_filename"`
	ProcessedText    string    `json:"processed_text"`
	Title            *string   `json:"title"`
	Description      *string   `json:"description"`
	IsApproved       bool      `json:"is_approved"`
	CreatedAt        time.Time `json:"created_at"`
}

type Setting struct {
	Key         string    `json:"setting_key"`
	Value       string    `json:"setting_value"`
	Description *string   `json:"description"`
	UpdatedBy   *string   `json:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at"`
}
