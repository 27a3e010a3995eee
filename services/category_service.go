package services

import (
	"context"

	"langteacher/state"
	"langteacher/types"
)

// LoadCategories replaces the category collection with every category.
func (a *App) LoadCategories(ctx context.Context) error {
	defer a.begin()()
	cats, err := a.api.GetCategories(ctx, "")
	if err != nil {
		return a.fail(ctx, "load_categories", err)
	}
	a.state.Categories.Set(cats)
	return nil
}

func (a *App) CreateCategory(ctx context.Context, name string, categoryType types.CategoryType) (*types.Category, error) {
	defer a.begin()()
	cat, err := a.api.CreateCategory(ctx, name, categoryType)
	if err != nil {
		return nil, a.fail(ctx, "create_category", err)
	}
	state.Append(a.state.Categories, *cat)
	return cat, nil
}

func (a *App) DeleteCategory(ctx context.Context, id string) error {
	defer a.begin()()
	if err := a.api.DeleteCategory(ctx, id); err != nil {
		return a.fail(ctx, "delete_category", err)
	}
	state.RemoveFunc(a.state.Categories, func(c types.Category) bool { return c.ID == id })
	return nil
}
