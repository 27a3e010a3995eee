package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apierrors "langteacher/errors"
	"langteacher/types"
)

func (c *Client) GetGrammarRules(ctx context.Context) ([]types.GrammarRule, error) {
	return list[types.GrammarRule](ctx, c, &request{method: http.MethodGet, path: "/api/grammar-rules"})
}

// CreateGrammarRule creates a rule. The backend also creates a grammar chat
// and category for it. All inputs travel in the query string; the POST has no
// body.
func (c *Client) CreateGrammarRule(ctx context.Context, ruleName, description, fromChatID string) (*types.GrammarRuleCreated, error) {
	if strings.TrimSpace(ruleName) == "" {
		return nil, apierrors.NewInvalidInput("rule name is required")
	}
	return call[types.GrammarRuleCreated](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/grammar-rules",
		query:  queryOf("rule_name", ruleName, "description", description, "from_chat_id", fromChatID),
	})
}

func (c *Client) DeleteGrammarRule(ctx context.Context, id string) error {
	if err := requireID("grammar rule", id); err != nil {
		return err
	}
	return c.do(ctx, &request{
		method: http.MethodDelete,
		path:   "/api/grammar-rules/" + url.PathEscape(id),
	}, nil)
}
