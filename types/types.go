package types

// CategoryType scopes a category to one kind of content.
type CategoryType string

const (
	CategoryTopic    CategoryType = "topic"
	CategoryGrammar  CategoryType = "grammar"
	CategoryDocument CategoryType = "document"
)

func (t CategoryType) Valid() bool {
	switch t {
	case CategoryTopic, CategoryGrammar, CategoryDocument:
		return true
	}
	return false
}

// ChatMode is the conversational context of a chat.
type ChatMode string

const (
	ModeFreeTalk ChatMode = "free_talk"
	ModeGrammar  ChatMode = "grammar"
	ModeDocument ChatMode = "document"
)

func (m ChatMode) Valid() bool {
	switch m {
	case ModeFreeTalk, ModeGrammar, ModeDocument:
		return true
	}
	return false
}

// Role identifies the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Provider names an LLM backend.
type Provider string

const (
	ProviderOllama    Provider = "ollama"
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
	ProviderGemini    Provider = "gemini"
)

func (p Provider) Valid() bool {
	switch p {
	case ProviderOllama, ProviderOpenAI, ProviderAnthropic, ProviderGemini:
		return true
	}
	return false
}

// Category is a user defined grouping bucket.
type Category struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Type      CategoryType `json:"type"`
	CreatedAt string       `json:"created_at"`
	Metadata  string       `json:"metadata,omitempty"`
}

// Chat is a conversation. CategoryID is an explicit nullable reference.
type Chat struct {
	ID         string   `json:"id"`
	CategoryID *string  `json:"category_id"`
	Title      string   `json:"title"`
	Mode       ChatMode `json:"mode"`
	CreatedAt  string   `json:"created_at"`
	UpdatedAt  string   `json:"updated_at"`
	Metadata   string   `json:"metadata,omitempty"`
}

// Message is a single chat turn.
type Message struct {
	ID        string `json:"id"`
	ChatID    string `json:"chat_id"`
	Role      Role   `json:"role"`
	Content   string `json:"content"`
	CreatedAt string `json:"created_at"`
	Metadata  string `json:"metadata,omitempty"`
}

// Document is an uploaded file. Which fields are present depends on the
// call: the list carries id, filename and created_at, GetDocument adds the
// content and extraction results, and the upload reply carries the counts and
// a preview instead.
type Document struct {
	ID                 string   `json:"id"`
	Filename           string   `json:"filename"`
	Content            string   `json:"content,omitempty"`
	ExtractedWords     []string `json:"extracted_words,omitempty"`
	ExtractedSentences []string `json:"extracted_sentences,omitempty"`
	WordCount          int      `json:"word_count,omitempty"`
	SentenceCount      int      `json:"sentence_count,omitempty"`
	Preview            string   `json:"preview,omitempty"`
	CreatedAt          string   `json:"created_at,omitempty"`
}

type GrammarRule struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Examples    string `json:"examples,omitempty"`
	ChatID      string `json:"chat_id,omitempty"`
	CreatedAt   string `json:"created_at"`
}

// LLMConfig is the active model configuration. APIKey is write only: the
// backend answers with HasAPIKey instead of echoing the key.
type LLMConfig struct {
	Provider     Provider `json:"provider"`
	Model        string   `json:"model"`
	BaseURL      string   `json:"base_url"`
	APIKey       string   `json:"api_key,omitempty"`
	HasAPIKey    bool     `json:"has_api_key,omitempty"`
	APIKeySource string   `json:"api_key_source,omitempty"`
}

type WhisperConfig struct {
	Provider string `json:"provider"`
	Model    string `json:"model"`
	Language string `json:"language"`
	Task     string `json:"task,omitempty"`
}

// AppConfig is the GET /api/config payload.
type AppConfig struct {
	LLM               LLMConfig       `json:"llm"`
	Whisper           WhisperConfig   `json:"whisper"`
	EnvKeysConfigured map[string]bool `json:"env_keys_configured,omitempty"`
}

// ConfigUpdate is the status plus echoed config returned by config writes.
type ConfigUpdate[T any] struct {
	Status string `json:"status"`
	Config T      `json:"config"`
}

type ChatDetail struct {
	Chat     Chat      `json:"chat"`
	Messages []Message `json:"messages"`
}

// GrammarDetected annotates an assistant message with the rule the user's
// input matched.
type GrammarDetected struct {
	RuleName    string `json:"rule_name"`
	Explanation string `json:"explanation"`
}

type AssistantMessage struct {
	Message
	GrammarDetected *GrammarDetected `json:"grammar_detected,omitempty"`
}

type ChatResponse struct {
	UserMessage      Message          `json:"user_message"`
	AssistantMessage AssistantMessage `json:"assistant_message"`
}

type Transcription struct {
	Text         string   `json:"text"`
	OriginalText string   `json:"original_text"`
	Language     string   `json:"language,omitempty"`
	Confidence   *float64 `json:"confidence,omitempty"`
	WasCorrected bool     `json:"was_corrected"`
}

type TranscribeAndSendResult struct {
	Transcription Transcription `json:"transcription"`
	ChatResponse  ChatResponse  `json:"chat_response"`
}

type GrammarRuleCreated struct {
	RuleID     string `json:"rule_id"`
	ChatID     string `json:"chat_id"`
	CategoryID string `json:"category_id"`
}

type Health struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

type AudioFormats struct {
	Formats           []string `json:"formats"`
	MaxSizeMB         int      `json:"max_size_mb"`
	CorrectionEnabled bool     `json:"correction_enabled"`
	CorrectionInfo    string   `json:"correction_info,omitempty"`
}

// ServiceInfo is the GET / payload.
type ServiceInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Docs    string `json:"docs,omitempty"`
	Health  string `json:"health,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
