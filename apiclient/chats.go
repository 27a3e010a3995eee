package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apierrors "langteacher/errors"
	"langteacher/types"
)

// createChatPayload omits unset associations entirely.
type createChatPayload struct {
	Title      string         `json:"title"`
	Mode       types.ChatMode `json:"mode"`
	CategoryID string         `json:"category_id,omitempty"`
	DocumentID string         `json:"document_id,omitempty"`
}

type sendMessagePayload struct {
	ChatID        string `json:"chat_id"`
	Content       string `json:"content"`
	DetectGrammar bool   `json:"detect_grammar"`
}

// GetChats lists chats. Empty filters are left out of the query string.
func (c *Client) GetChats(ctx context.Context, mode types.ChatMode, categoryID string) ([]types.Chat, error) {
	if mode != "" && !mode.Valid() {
		return nil, apierrors.NewInvalidInput("unknown chat mode %q", mode)
	}
	return list[types.Chat](ctx, c, &request{
		method: http.MethodGet,
		path:   "/api/chats",
		query:  queryOf("mode", string(mode), "category_id", categoryID),
	})
}

// CreateChat creates a chat. categoryID and documentID are optional and are
// not sent when empty.
func (c *Client) CreateChat(ctx context.Context, title string, mode types.ChatMode, categoryID, documentID string) (*types.Chat, error) {
	if !mode.Valid() {
		return nil, apierrors.NewInvalidInput("unknown chat mode %q", mode)
	}
	return call[types.Chat](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/chats",
		body: jsonBody{createChatPayload{
			Title:      title,
			Mode:       mode,
			CategoryID: categoryID,
			DocumentID: documentID,
		}},
	})
}

// GetChat returns the chat and its full message history in server order.
func (c *Client) GetChat(ctx context.Context, id string) (*types.ChatDetail, error) {
	if err := requireID("chat", id); err != nil {
		return nil, err
	}
	detail, err := call[types.ChatDetail](ctx, c, &request{
		method: http.MethodGet,
		path:   "/api/chats/" + url.PathEscape(id),
	})
	if err != nil {
		return nil, err
	}
	if detail.Messages == nil {
		detail.Messages = []types.Message{}
	}
	return detail, nil
}

func (c *Client) DeleteChat(ctx context.Context, id string) error {
	if err := requireID("chat", id); err != nil {
		return err
	}
	return c.do(ctx, &request{
		method: http.MethodDelete,
		path:   "/api/chats/" + url.PathEscape(id),
	}, nil)
}

// SendMessage posts a user message and returns it together with the
// generated assistant reply.
func (c *Client) SendMessage(ctx context.Context, chatID, content string, detectGrammar bool) (*types.ChatResponse, error) {
	if err := requireID("chat", chatID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, apierrors.NewInvalidInput("message content is required")
	}
	return call[types.ChatResponse](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/chats/" + url.PathEscape(chatID) + "/messages",
		body: jsonBody{sendMessagePayload{
			ChatID:        chatID,
			Content:       content,
			DetectGrammar: detectGrammar,
		}},
	})
}
