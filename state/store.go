package state

import (
	"time"

	"langteacher/types"

	"go.uber.org/zap"
)

// Store is the application's state container. It is created once by the
// application root and passed to whoever needs to read or write state.
type Store struct {
	// UI state. An empty CurrentMode or CurrentChatID means none selected.
	CurrentMode   *Cell[types.ChatMode]
	CurrentChatID *Cell[string]
	SidebarOpen   *Cell[bool]
	SettingsOpen  *Cell[bool]
	IsLoading     *Cell[bool]
	IsRecording   *Cell[bool]
	Error         *ErrorCell

	// Snapshots of server data as last applied by the caller.
	Chats          *Cell[[]types.Chat]
	Messages       *Cell[[]types.Message]
	Categories     *Cell[[]types.Category]
	Documents      *Cell[[]types.Document]
	GrammarRules   *Cell[[]types.GrammarRule]
	LLMConfig      *Cell[*types.LLMConfig]
	PendingGrammar *Cell[*types.GrammarDetected]

	TopicChats         *Derived[[]types.Chat]
	GrammarChats       *Derived[[]types.Chat]
	DocumentChats      *Derived[[]types.Chat]
	TopicCategories    *Derived[[]types.Category]
	GrammarCategories  *Derived[[]types.Category]
	DocumentCategories *Derived[[]types.Category]
	// CurrentChat is nil when CurrentChatID matches no loaded chat.
	CurrentChat *Derived[*types.Chat]
}

func NewStore(errorClearDelay time.Duration, logger *zap.Logger) *Store {
	s := &Store{
		CurrentMode:   NewCell(types.ChatMode("")),
		CurrentChatID: NewCell(""),
		SidebarOpen:   NewCell(true),
		SettingsOpen:  NewCell(false),
		IsLoading:     NewCell(false),
		IsRecording:   NewCell(false),
		Error:         NewErrorCell(errorClearDelay, logger),

		Chats:          NewCell([]types.Chat{}),
		Messages:       NewCell([]types.Message{}),
		Categories:     NewCell([]types.Category{}),
		Documents:      NewCell([]types.Document{}),
		GrammarRules:   NewCell([]types.GrammarRule{}),
		LLMConfig:      NewCell[*types.LLMConfig](nil),
		PendingGrammar: NewCell[*types.GrammarDetected](nil),
	}

	s.TopicChats = chatsWithMode(s.Chats, types.ModeFreeTalk)
	s.GrammarChats = chatsWithMode(s.Chats, types.ModeGrammar)
	s.DocumentChats = chatsWithMode(s.Chats, types.ModeDocument)
	s.TopicCategories = categoriesOfType(s.Categories, types.CategoryTopic)
	s.GrammarCategories = categoriesOfType(s.Categories, types.CategoryGrammar)
	s.DocumentCategories = categoriesOfType(s.Categories, types.CategoryDocument)
	s.CurrentChat = Derive2[[]types.Chat, string](s.Chats, s.CurrentChatID, FindChat)

	return s
}

func chatsWithMode(chats Readable[[]types.Chat], mode types.ChatMode) *Derived[[]types.Chat] {
	return Derive(chats, func(c []types.Chat) []types.Chat { return FilterChatsByMode(c, mode) })
}

func categoriesOfType(categories Readable[[]types.Category], t types.CategoryType) *Derived[[]types.Category] {
	return Derive(categories, func(c []types.Category) []types.Category { return FilterCategoriesByType(c, t) })
}

// Close stops the pending error clear, if any.
func (s *Store) Close() {
	s.Error.Close()
}
