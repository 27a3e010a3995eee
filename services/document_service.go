package services

import (
	"context"
	"io"

	"langteacher/state"
	"langteacher/types"
)

// LoadDocuments replaces the document collection.
func (a *App) LoadDocuments(ctx context.Context) error {
	defer a.begin()()
	docs, err := a.api.GetDocuments(ctx)
	if err != nil {
		return a.fail(ctx, "load_documents", err)
	}
	a.state.Documents.Set(docs)
	return nil
}

func (a *App) UploadDocument(ctx context.Context, filename string, content io.Reader) (*types.Document, error) {
	defer a.begin()()
	doc, err := a.api.UploadDocument(ctx, filename, content)
	if err != nil {
		return nil, a.fail(ctx, "upload_document", err)
	}
	state.Append(a.state.Documents, *doc)
	return doc, nil
}

// GetDocument fetches one document with its extraction results. The
// collection is not modified.
func (a *App) GetDocument(ctx context.Context, id string) (*types.Document, error) {
	defer a.begin()()
	doc, err := a.api.GetDocument(ctx, id)
	if err != nil {
		return nil, a.fail(ctx, "get_document", err)
	}
	return doc, nil
}

func (a *App) DeleteDocument(ctx context.Context, id string) error {
	defer a.begin()()
	if err := a.api.DeleteDocument(ctx, id); err != nil {
		return a.fail(ctx, "delete_document", err)
	}
	state.RemoveFunc(a.state.Documents, func(d types.Document) bool { return d.ID == id })
	return nil
}
