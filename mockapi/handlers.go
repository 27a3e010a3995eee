package mockapi

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"langteacher/types"
	"langteacher/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

var supportedAudioFormats = []string{".wav", ".mp3", ".m4a", ".ogg", ".webm", ".flac"}

// The fake only extracts plain text; PDF and image OCR need the real service.
var textDocumentFormats = []string{".txt", ".md"}

const (
	maxStoredWords     = 500
	maxStoredSentences = 100
	previewRunes       = 500
)

func (s *Server) info(c *gin.Context) {
	c.JSON(http.StatusOK, types.ServiceInfo{Name: serviceName, Version: serviceVersion, Docs: "/docs", Health: "/health"})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, types.Health{Status: "healthy", Timestamp: s.now().Format("2006-01-02T15:04:05"), Version: serviceVersion})
}

func (s *Server) getConfig(c *gin.Context) {
	s.mu.Lock()
	llm := s.llm
	whisper := s.whisper
	s.mu.Unlock()

	hasKey := llm.APIKey != ""
	llm.APIKey = ""
	llm.HasAPIKey = hasKey
	if hasKey {
		llm.APIKeySource = "config"
	}
	whisper.Task = ""
	c.JSON(http.StatusOK, types.AppConfig{
		LLM:     llm,
		Whisper: whisper,
		EnvKeysConfigured: map[string]bool{
			"gemini":    false,
			"openai":    false,
			"anthropic": false,
		},
	})
}

func (s *Server) updateConfig(c *gin.Context) {
	var req types.LLMConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !req.Provider.Valid() {
		respondWithError(c, http.StatusUnprocessableEntity, "Input should be 'ollama', 'openai', 'anthropic' or 'gemini'")
		return
	}

	s.mu.Lock()
	s.llm = types.LLMConfig{Provider: req.Provider, Model: req.Model, BaseURL: req.BaseURL, APIKey: req.APIKey}
	s.mu.Unlock()

	c.JSON(http.StatusOK, types.ConfigUpdate[types.LLMConfig]{
		Status: "ok",
		Config: types.LLMConfig{
			Provider:  req.Provider,
			Model:     req.Model,
			BaseURL:   req.BaseURL,
			HasAPIKey: req.APIKey != "",
		},
	})
}

func (s *Server) updateWhisper(c *gin.Context) {
	var req types.WhisperConfig
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.Task == "" {
		req.Task = "transcribe"
	}

	s.mu.Lock()
	s.whisper = req
	s.mu.Unlock()

	c.JSON(http.StatusOK, types.ConfigUpdate[types.WhisperConfig]{Status: "ok", Config: req})
}

func (s *Server) listCategories(c *gin.Context) {
	filter := types.CategoryType(c.Query("type"))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.Category{}
	for _, cat := range s.categories {
		if filter == "" || cat.Type == filter {
			out = append(out, cat)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createCategory(c *gin.Context) {
	var req struct {
		Name string             `json:"name"`
		Type types.CategoryType `json:"type"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !req.Type.Valid() {
		respondWithError(c, http.StatusUnprocessableEntity, "Input should be 'topic', 'grammar' or 'document'")
		return
	}

	s.mu.Lock()
	cat := s.addCategoryLocked(req.Name, req.Type)
	s.mu.Unlock()

	c.JSON(http.StatusOK, cat)
}

func (s *Server) addCategoryLocked(name string, t types.CategoryType) types.Category {
	cat := types.Category{ID: utils.NewID(), Name: name, Type: t, CreatedAt: s.timestamp()}
	s.categories = append(s.categories, cat)
	return cat
}

func (s *Server) deleteCategory(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	s.categories = removeWhere(s.categories, func(cat types.Category) bool { return cat.ID == id })
	s.mu.Unlock()

	c.JSON(http.StatusOK, types.StatusResponse{Status: "deleted"})
}

func (s *Server) listChats(c *gin.Context) {
	mode := types.ChatMode(c.Query("mode"))
	categoryID := c.Query("category_id")

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []types.Chat{}
	for _, chat := range s.chats {
		if mode != "" && chat.Mode != mode {
			continue
		}
		if categoryID != "" && (chat.CategoryID == nil || *chat.CategoryID != categoryID) {
			continue
		}
		out = append(out, chat)
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) createChat(c *gin.Context) {
	var req struct {
		Title      string         `json:"title"`
		Mode       types.ChatMode `json:"mode"`
		CategoryID *string        `json:"category_id"`
		DocumentID *string        `json:"document_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if !req.Mode.Valid() {
		respondWithError(c, http.StatusUnprocessableEntity, "Input should be 'free_talk', 'grammar' or 'document'")
		return
	}

	s.mu.Lock()
	chat := s.addChatLocked(req.Title, req.Mode, req.CategoryID)
	s.mu.Unlock()

	c.JSON(http.StatusOK, chat)
}

func (s *Server) addChatLocked(title string, mode types.ChatMode, categoryID *string) types.Chat {
	now := s.timestamp()
	chat := types.Chat{
		ID:         utils.NewID(),
		CategoryID: categoryID,
		Title:      title,
		Mode:       mode,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.chats = append(s.chats, chat)
	return chat
}

func (s *Server) findChatLocked(id string) (types.Chat, bool) {
	for _, chat := range s.chats {
		if chat.ID == id {
			return chat, true
		}
	}
	return types.Chat{}, false
}

func (s *Server) getChat(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	chat, ok := s.findChatLocked(id)
	if !ok {
		respondWithError(c, http.StatusNotFound, "Chat not found")
		return
	}
	msgs := append([]types.Message{}, s.messages[id]...)
	c.JSON(http.StatusOK, types.ChatDetail{Chat: chat, Messages: msgs})
}

func (s *Server) deleteChat(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	s.chats = removeWhere(s.chats, func(chat types.Chat) bool { return chat.ID == id })
	delete(s.messages, id)
	s.mu.Unlock()

	c.JSON(http.StatusOK, types.StatusResponse{Status: "deleted"})
}

func (s *Server) sendMessage(c *gin.Context) {
	var req struct {
		ChatID        string `json:"chat_id"`
		Content       string `json:"content"`
		DetectGrammar *bool  `json:"detect_grammar"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, err.Error())
		return
	}
	detect := req.DetectGrammar == nil || *req.DetectGrammar

	resp, ok := s.reply(c.Param("id"), req.Content, detect)
	if !ok {
		respondWithError(c, http.StatusNotFound, "Chat not found")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// reply stores the user message and a canned assistant answer.
func (s *Server) reply(chatID, content string, detectGrammar bool) (types.ChatResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.findChatLocked(chatID); !ok {
		return types.ChatResponse{}, false
	}

	now := s.timestamp()
	user := types.Message{ID: utils.NewID(), ChatID: chatID, Role: types.RoleUser, Content: content, CreatedAt: now}
	assistant := types.AssistantMessage{
		Message: types.Message{
			ID:        utils.NewID(),
			ChatID:    chatID,
			Role:      types.RoleAssistant,
			Content:   "Du hast gesagt: " + content,
			CreatedAt: now,
		},
	}
	if detectGrammar {
		lower := strings.ToLower(content)
		for _, trigger := range s.triggers {
			if trigger.Phrase != "" && strings.Contains(lower, strings.ToLower(trigger.Phrase)) {
				annotation := trigger.Annotation
				assistant.GrammarDetected = &annotation
				break
			}
		}
	}

	s.messages[chatID] = append(s.messages[chatID], user, assistant.Message)
	for i := range s.chats {
		if s.chats[i].ID == chatID {
			s.chats[i].UpdatedAt = now
		}
	}
	return types.ChatResponse{UserMessage: user, AssistantMessage: assistant}, true
}

// transcription reads the uploaded audio as UTF-8 text; the fake has no
// speech engine.
func (s *Server) transcription(c *gin.Context) (types.Transcription, bool) {
	header, err := c.FormFile("audio")
	if err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, "Field required: audio")
		return types.Transcription{}, false
	}
	if !hasSupportedAudioExt(header.Filename) {
		respondWithError(c, http.StatusBadRequest,
			"Invalid audio file. Supported formats: "+strings.Join(supportedAudioFormats, ", "))
		return types.Transcription{}, false
	}

	f, err := header.Open()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return types.Transcription{}, false
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return types.Transcription{}, false
	}

	text := strings.TrimSpace(string(data))
	language := c.PostForm("language")
	if language == "" {
		language = "de"
	}
	confidence := 1.0
	return types.Transcription{
		Text:         text,
		OriginalText: text,
		Language:     language,
		Confidence:   &confidence,
		WasCorrected: false,
	}, true
}

func (s *Server) transcribe(c *gin.Context) {
	t, ok := s.transcription(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t)
}

func (s *Server) transcribeAndSend(c *gin.Context) {
	chatID := c.PostForm("chat_id")
	if chatID == "" {
		respondWithError(c, http.StatusUnprocessableEntity, "Field required: chat_id")
		return
	}
	detect := true
	if raw := c.PostForm("detect_grammar"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			respondWithError(c, http.StatusUnprocessableEntity, "Input should be a valid boolean")
			return
		}
		detect = parsed
	}

	t, ok := s.transcription(c)
	if !ok {
		return
	}
	if t.Text == "" {
		respondWithError(c, http.StatusBadRequest, "Could not transcribe any speech from the audio")
		return
	}

	resp, ok := s.reply(chatID, t.Text, detect)
	if !ok {
		respondWithError(c, http.StatusNotFound, "Chat not found")
		return
	}
	c.JSON(http.StatusOK, types.TranscribeAndSendResult{Transcription: t, ChatResponse: resp})
}

func (s *Server) audioFormats(c *gin.Context) {
	c.JSON(http.StatusOK, types.AudioFormats{
		Formats:           supportedAudioFormats,
		MaxSizeMB:         25,
		CorrectionEnabled: true,
		CorrectionInfo:    "LLM-based correction fixes accent and pronunciation errors",
	})
}

func hasSupportedAudioExt(filename string) bool {
	return hasExt(filename, supportedAudioFormats)
}

func hasTextExt(filename string) bool {
	return hasExt(filename, textDocumentFormats)
}

func hasExt(filename string, exts []string) bool {
	lower := strings.ToLower(filename)
	for _, ext := range exts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

func (s *Server) listDocuments(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]types.Document, 0, len(s.documents))
	for _, d := range s.documents {
		// The list view carries no extraction payload.
		out = append(out, types.Document{ID: d.ID, Filename: d.Filename, CreatedAt: d.CreatedAt})
	}
	c.JSON(http.StatusOK, out)
}

// uploadDocument answers with the backend's upload summary: counts and a
// preview, not the stored document.
func (s *Server) uploadDocument(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, http.StatusUnprocessableEntity, "Field required: file")
		return
	}
	if !hasTextExt(header.Filename) {
		respondWithError(c, http.StatusBadRequest, "Unsupported file type. Use PDF, images, or text files.")
		return
	}
	f, err := header.Open()
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		respondWithError(c, http.StatusInternalServerError, err.Error())
		return
	}

	text := string(data)
	if strings.TrimSpace(text) == "" {
		respondWithError(c, http.StatusBadRequest, "Could not extract text from document")
		return
	}

	words := uniqueWords(text)
	sents := sentences(text)
	stored := types.Document{
		ID:                 utils.NewID(),
		Filename:           header.Filename,
		Content:            text,
		ExtractedWords:     capped(words, maxStoredWords),
		ExtractedSentences: capped(sents, maxStoredSentences),
		CreatedAt:          s.timestamp(),
	}

	s.mu.Lock()
	s.documents = append(s.documents, stored)
	s.mu.Unlock()

	s.logger.Debug("Mock document stored", zap.String("filename", stored.Filename), zap.Int("words", len(words)))
	c.JSON(http.StatusOK, gin.H{
		"id":             stored.ID,
		"filename":       stored.Filename,
		"word_count":     len(words),
		"sentence_count": len(sents),
		"preview":        preview(text),
	})
}

func (s *Server) getDocument(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.documents {
		if d.ID == id {
			c.JSON(http.StatusOK, d)
			return
		}
	}
	respondWithError(c, http.StatusNotFound, "Document not found")
}

func (s *Server) deleteDocument(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	s.documents = removeWhere(s.documents, func(d types.Document) bool { return d.ID == id })
	s.mu.Unlock()

	c.JSON(http.StatusOK, types.StatusResponse{Status: "deleted"})
}

func (s *Server) listGrammarRules(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c.JSON(http.StatusOK, append([]types.GrammarRule{}, s.rules...))
}

// createGrammarRule mirrors the backend: it reuses or creates a grammar
// category named after the rule and always creates a new learning chat.
func (s *Server) createGrammarRule(c *gin.Context) {
	name := c.Query("rule_name")
	if name == "" {
		respondWithError(c, http.StatusUnprocessableEntity, "Field required: rule_name")
		return
	}
	description := c.Query("description")

	s.mu.Lock()
	defer s.mu.Unlock()

	var categoryID string
	for _, cat := range s.categories {
		if cat.Type == types.CategoryGrammar && cat.Name == name {
			categoryID = cat.ID
			break
		}
	}
	if categoryID == "" {
		categoryID = s.addCategoryLocked(name, types.CategoryGrammar).ID
	}

	catRef := categoryID
	chat := s.addChatLocked("Learning: "+name, types.ModeGrammar, &catRef)
	rule := types.GrammarRule{
		ID:          utils.NewID(),
		Name:        name,
		Description: description,
		ChatID:      chat.ID,
		CreatedAt:   s.timestamp(),
	}
	s.rules = append(s.rules, rule)

	c.JSON(http.StatusOK, types.GrammarRuleCreated{RuleID: rule.ID, ChatID: chat.ID, CategoryID: categoryID})
}

func (s *Server) deleteGrammarRule(c *gin.Context) {
	id := c.Param("id")

	s.mu.Lock()
	s.rules = removeWhere(s.rules, func(r types.GrammarRule) bool { return r.ID == id })
	s.mu.Unlock()

	c.JSON(http.StatusOK, types.StatusResponse{Status: "deleted"})
}

func removeWhere[T any](items []T, drop func(T) bool) []T {
	out := items[:0:0]
	for _, v := range items {
		if !drop(v) {
			out = append(out, v)
		}
	}
	return out
}

func uniqueWords(text string) []string {
	seen := map[string]bool{}
	out := []string{}
	for _, w := range strings.Fields(text) {
		w = strings.ToLower(strings.Trim(w, ".,;:!?\"'()"))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	return out
}

func sentences(text string) []string {
	out := []string{}
	start := 0
	for i, r := range text {
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				out = append(out, s)
			}
			start = i + 1
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

func capped[T any](items []T, max int) []T {
	if len(items) > max {
		return items[:max]
	}
	return items
}

func preview(text string) string {
	runes := []rune(text)
	if len(runes) > previewRunes {
		return string(runes[:previewRunes]) + "..."
	}
	return text
}
