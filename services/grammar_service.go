package services

import (
	"context"

	"langteacher/state"
	"langteacher/types"
)

func (a *App) LoadGrammarRules(ctx context.Context) error {
	defer a.begin()()
	rules, err := a.api.GetGrammarRules(ctx)
	if err != nil {
		return a.fail(ctx, "load_grammar_rules", err)
	}
	a.state.GrammarRules.Set(rules)
	return nil
}

// CreateGrammarRule creates a rule. The backend also creates a chat and
// possibly a category, so rules, chats and categories are reloaded.
// Concurrent duplicate calls are not deduplicated.
func (a *App) CreateGrammarRule(ctx context.Context, ruleName, description, fromChatID string) (*types.GrammarRuleCreated, error) {
	defer a.begin()()
	created, err := a.api.CreateGrammarRule(ctx, ruleName, description, fromChatID)
	if err != nil {
		return nil, a.fail(ctx, "create_grammar_rule", err)
	}

	for _, reload := range []func(context.Context) error{a.LoadGrammarRules, a.LoadChats, a.LoadCategories} {
		if err := reload(ctx); err != nil {
			return created, err
		}
	}
	return created, nil
}

func (a *App) DeleteGrammarRule(ctx context.Context, id string) error {
	defer a.begin()()
	if err := a.api.DeleteGrammarRule(ctx, id); err != nil {
		return a.fail(ctx, "delete_grammar_rule", err)
	}
	state.RemoveFunc(a.state.GrammarRules, func(r types.GrammarRule) bool { return r.ID == id })
	return nil
}
