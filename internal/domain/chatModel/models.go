package chatModel

import "time"

// Relational entities backing the REST resources. These live in SQLite, the
// redis stores only hold hot state (jobs, recent history).

type User struct {
	Id        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Project struct {
	Id          string    `json:"id"`
	OwnerId     string    `json:"owner_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type Conversation struct {
	Id        string    `json:"id"`
	ProjectId string    `json:"project_id,omitempty"`
	UserId    string    `json:"user_id,omitempty"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

type Message struct {
	Id             string      `json:"id"`
	ConversationId string      `json:"conversation_id"`
	Role           MessageRole `json:"role"`
	Content        string      `json:"content"`
	Provider       string      `json:"provider,omitempty"`
	Model          string      `json:"model,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
}

type FileKind string

const (
	PDF  FileKind = "PDF"
	DOCX FileKind = "DOCX"
	TXT  FileKind = "TXT"
	ERR  FileKind = "ERROR"
)

type FileAttachment struct {
	Id          string    `json:"id"`
	ProjectId   string    `json:"project_id,omitempty"`
	Name        string    `json:"name"`
	Kind        FileKind  `json:"kind"`
	Text        string    `json:"text,omitempty"` //extracted content
	SizeBytes   int64     `json:"size_bytes"`
	UploadedAt  time.Time `json:"uploaded_at"`
	ExtractedAt time.Time `json:"extracted_at,omitempty"`
}

// UsageRecord is written once per routed completion, degraded or not.
type UsageRecord struct {
	Id               string    `json:"id"`
	UserId           string    `json:"user_id,omitempty"`
	ProjectId        string    `json:"project_id,omitempty"`
	ConversationId   string    `json:"conversation_id,omitempty"`
	Provider         string    `json:"provider"`
	Model            string    `json:"model,omitempty"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	LatencyMs        int64     `json:"latency_ms"`
	Degraded         bool      `json:"degraded"`
	CreatedAt        time.Time `json:"created_at"`
}

// UsageSummary is the aggregate the analytics endpoint returns.
type UsageSummary struct {
	Requests         int64            `json:"requests"`
	PromptTokens     int64            `json:"prompt_tokens"`
	CompletionTokens int64            `json:"completion_tokens"`
	Degraded         int64            `json:"degraded"`
	ByProvider       map[string]int64 `json:"by_provider"`
}
