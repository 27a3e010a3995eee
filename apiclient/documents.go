package apiclient

import (
	"context"
	"io"
	"net/http"
	"net/url"

	apierrors "langteacher/errors"
	"langteacher/types"
	"langteacher/utils"
)

func (c *Client) GetDocuments(ctx context.Context) ([]types.Document, error) {
	return list[types.Document](ctx, c, &request{method: http.MethodGet, path: "/api/documents"})
}

// UploadDocument sends content as a multipart file. Extraction fields of the
// returned document may still be empty.
func (c *Client) UploadDocument(ctx context.Context, filename string, content io.Reader) (*types.Document, error) {
	if content == nil {
		return nil, apierrors.NewInvalidInput("document content is required")
	}
	name := utils.SanitizeFilename(filename)
	if name == "" {
		return nil, apierrors.NewInvalidInput("invalid document filename %q", filename)
	}
	return call[types.Document](ctx, c, &request{
		method: http.MethodPost,
		path:   "/api/documents/upload",
		body: &formBody{files: []formFile{
			{field: documentField, filename: name, content: content},
		}},
		fallback: fallbackDocumentUpload,
	})
}

func (c *Client) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	if err := requireID("document", id); err != nil {
		return nil, err
	}
	return call[types.Document](ctx, c, &request{
		method: http.MethodGet,
		path:   "/api/documents/" + url.PathEscape(id),
	})
}

func (c *Client) DeleteDocument(ctx context.Context, id string) error {
	if err := requireID("document", id); err != nil {
		return err
	}
	return c.do(ctx, &request{
		method: http.MethodDelete,
		path:   "/api/documents/" + url.PathEscape(id),
	}, nil)
}
