package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	apierrors "langteacher/errors"
	"langteacher/types"
)

type createCategoryPayload struct {
	Name string             `json:"name"`
	Type types.CategoryType `json:"type"`
}

// GetCategories lists categories. An empty categoryType lists all of them.
func (c *Client) GetCategories(ctx context.Context, categoryType types.CategoryType) ([]types.Category, error) {
	if categoryType != "" && !categoryType.Valid() {
		return nil, apierrors.NewInvalidInput("unknown category type %q", categoryType)
	}
	return list[types.Category](ctx, c, &request{
		method: http.MethodGet,
		path:   "/api/categories",
		query:  queryOf("type", string(categoryType)),
	})
}

func (c *Client) CreateCategory(ctx context.Context, name string, categoryType types.CategoryType) (*types.Category, error) {
	if strings.TrimSpace(name) == "" {
		return nil, apierrors.NewInvalidInput("category name is required")
	}
	if !categoryType.Valid() {
		return nil, apierrors.NewInvalidInput("unknown category type %q", categoryType)
	}
	return call[types.Category](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/categories",
		body:   jsonBody{createCategoryPayload{Name: name, Type: categoryType}},
	})
}

func (c *Client) DeleteCategory(ctx context.Context, id string) error {
	if err := requireID("category", id); err != nil {
		return err
	}
	return c.do(ctx, &request{
		method: http.MethodDelete,
		path:   "/api/categories/" + url.PathEscape(id),
	}, nil)
}
