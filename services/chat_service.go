package services

import (
	"context"
	"io"

	"langteacher/apiclient"
	"langteacher/state"
	"langteacher/types"

	"go.uber.org/zap"
)

// LoadChats replaces the chat collection with every chat.
func (a *App) LoadChats(ctx context.Context) error {
	defer a.begin()()
	chats, err := a.api.GetChats(ctx, "", "")
	if err != nil {
		return a.fail(ctx, "load_chats", err)
	}
	a.state.Chats.Set(chats)
	return nil
}

// CreateChat creates a chat, appends it and opens it with an empty history.
func (a *App) CreateChat(ctx context.Context, title string, mode types.ChatMode, categoryID, documentID string) (*types.Chat, error) {
	defer a.begin()()
	chat, err := a.api.CreateChat(ctx, title, mode, categoryID, documentID)
	if err != nil {
		return nil, a.fail(ctx, "create_chat", err)
	}
	state.Append(a.state.Chats, *chat)
	a.selectChat(chat.ID, chat.Mode, []types.Message{})
	return chat, nil
}

// OpenChat loads a chat's history and makes it the current chat. The chat
// collection itself is left untouched.
func (a *App) OpenChat(ctx context.Context, id string) (*types.ChatDetail, error) {
	defer a.begin()()
	detail, err := a.api.GetChat(ctx, id)
	if err != nil {
		return nil, a.fail(ctx, "open_chat", err)
	}
	a.selectChat(detail.Chat.ID, detail.Chat.Mode, detail.Messages)
	return detail, nil
}

func (a *App) selectChat(id string, mode types.ChatMode, messages []types.Message) {
	a.state.PendingGrammar.Set(nil)
	a.state.Messages.Set(messages)
	a.state.CurrentMode.Set(mode)
	a.state.CurrentChatID.Set(id)
}

// CloseChat deselects the current chat.
func (a *App) CloseChat() {
	a.state.CurrentChatID.Set("")
	a.state.Messages.Set([]types.Message{})
	a.state.PendingGrammar.Set(nil)
}

// SelectMode switches the conversational mode and closes the open chat.
func (a *App) SelectMode(mode types.ChatMode) {
	a.CloseChat()
	a.state.CurrentMode.Set(mode)
}

func (a *App) DeleteChat(ctx context.Context, id string) error {
	defer a.begin()()
	if err := a.api.DeleteChat(ctx, id); err != nil {
		return a.fail(ctx, "delete_chat", err)
	}
	state.RemoveFunc(a.state.Chats, func(c types.Chat) bool { return c.ID == id })
	if a.state.CurrentChatID.Get() == id {
		a.CloseChat()
	}
	return nil
}

// SendMessage posts content to the current chat and appends both messages.
func (a *App) SendMessage(ctx context.Context, content string) (*types.ChatResponse, error) {
	chatID := a.state.CurrentChatID.Get()
	if chatID == "" {
		return nil, a.fail(ctx, "send_message", ErrNoChatSelected)
	}

	defer a.begin()()
	resp, err := a.api.SendMessage(ctx, chatID, content, a.detectGrammar())
	if err != nil {
		return nil, a.fail(ctx, "send_message", err)
	}
	a.applyChatResponse(chatID, resp)
	return resp, nil
}

// applyChatResponse appends the exchange if chatID is still open. A reply
// for a chat the user navigated away from is dropped; it is persisted
// server side and shows up on the next OpenChat.
func (a *App) applyChatResponse(chatID string, resp *types.ChatResponse) {
	if a.state.CurrentChatID.Get() != chatID {
		a.logger.Debug("Discarding reply for inactive chat", zap.String("chat_id", chatID))
		return
	}
	state.Append(a.state.Messages, resp.UserMessage, resp.AssistantMessage.Message)
	if g := resp.AssistantMessage.GrammarDetected; g != nil {
		annotation := *g
		a.state.PendingGrammar.Set(&annotation)
	}
}

// DismissGrammar clears the pending grammar annotation.
func (a *App) DismissGrammar() {
	a.state.PendingGrammar.Set(nil)
}

// StartRecording flags that the microphone is capturing.
func (a *App) StartRecording() {
	a.state.IsRecording.Set(true)
}

// Transcribe stops recording and transcribes audio without sending it.
func (a *App) Transcribe(ctx context.Context, audio io.Reader) (*types.Transcription, error) {
	a.state.IsRecording.Set(false)

	defer a.begin()()
	t, err := a.api.TranscribeAudio(ctx, audio, apiclient.TranscribeOptions{Language: a.defaultLanguage()})
	if err != nil {
		return nil, a.fail(ctx, "transcribe", err)
	}
	return t, nil
}

// TranscribeAndSend stops recording, then transcribes audio and posts it to
// the current chat in one backend round trip.
func (a *App) TranscribeAndSend(ctx context.Context, audio io.Reader) (*types.TranscribeAndSendResult, error) {
	a.state.IsRecording.Set(false)
	chatID := a.state.CurrentChatID.Get()
	if chatID == "" {
		return nil, a.fail(ctx, "transcribe_and_send", ErrNoChatSelected)
	}

	defer a.begin()()
	result, err := a.api.TranscribeAndSend(ctx, audio, chatID, a.detectGrammar(),
		apiclient.TranscribeOptions{Language: a.defaultLanguage()})
	if err != nil {
		return nil, a.fail(ctx, "transcribe_and_send", err)
	}
	a.applyChatResponse(chatID, &result.ChatResponse)
	return result, nil
}
