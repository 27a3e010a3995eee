package services

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"langteacher/apiclient"
	"langteacher/config"
	apierrors "langteacher/errors"
	"langteacher/state"
	"langteacher/types"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Backend is the remote surface the application uses. *apiclient.Client
// implements it.
type Backend interface {
	GetConfig(ctx context.Context) (*types.AppConfig, error)
	UpdateConfig(ctx context.Context, cfg types.LLMConfig) (*types.ConfigUpdate[types.LLMConfig], error)
	UpdateWhisperConfig(ctx context.Context, cfg types.WhisperConfig) (*types.ConfigUpdate[types.WhisperConfig], error)

	GetCategories(ctx context.Context, categoryType types.CategoryType) ([]types.Category, error)
	CreateCategory(ctx context.Context, name string, categoryType types.CategoryType) (*types.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	GetChats(ctx context.Context, mode types.ChatMode, categoryID string) ([]types.Chat, error)
	CreateChat(ctx context.Context, title string, mode types.ChatMode, categoryID, documentID string) (*types.Chat, error)
	GetChat(ctx context.Context, id string) (*types.ChatDetail, error)
	DeleteChat(ctx context.Context, id string) error
	SendMessage(ctx context.Context, chatID, content string, detectGrammar bool) (*types.ChatResponse, error)

	TranscribeAudio(ctx context.Context, audio io.Reader, opts apiclient.TranscribeOptions) (*types.Transcription, error)
	TranscribeAndSend(ctx context.Context, audio io.Reader, chatID string, detectGrammar bool, opts apiclient.TranscribeOptions) (*types.TranscribeAndSendResult, error)

	GetDocuments(ctx context.Context) ([]types.Document, error)
	UploadDocument(ctx context.Context, filename string, content io.Reader) (*types.Document, error)
	GetDocument(ctx context.Context, id string) (*types.Document, error)
	DeleteDocument(ctx context.Context, id string) error

	GetGrammarRules(ctx context.Context) ([]types.GrammarRule, error)
	CreateGrammarRule(ctx context.Context, ruleName, description, fromChatID string) (*types.GrammarRuleCreated, error)
	DeleteGrammarRule(ctx context.Context, id string) error

	HealthCheck(ctx context.Context) (*types.Health, error)
}

var _ Backend = (*apiclient.Client)(nil)

// ErrNoChatSelected is returned by chat operations when no chat is open.
var ErrNoChatSelected = apierrors.NewInvalidInput("no chat selected")

// App applies backend results to the state store. List operations replace
// collections, create operations append, delete operations remove locally
// once the backend confirmed. Failures are shown through the store's error
// cell and returned to the caller.
type App struct {
	api    Backend
	state  *state.Store
	cfg    *config.Config
	logger *zap.Logger

	inFlight atomic.Int64
}

func NewApp(api Backend, store *state.Store, cfg *config.Config, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		api:    api,
		state:  store,
		cfg:    cfg,
		logger: logger,
	}
}

// State returns the store the app writes to.
func (a *App) State() *state.Store {
	return a.state
}

// begin marks an operation in flight. IsLoading stays true until the last
// overlapping operation calls the returned func. No App lock is held while
// the flag is written, so IsLoading subscribers may call back into the App.
func (a *App) begin() func() {
	if a.inFlight.Add(1) == 1 {
		a.syncLoading()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			if a.inFlight.Add(-1) == 0 {
				a.syncLoading()
			}
		})
	}
}

// syncLoading writes the flag from the counter at write time, so racing
// transitions settle on the current count whatever order they run in.
func (a *App) syncLoading() {
	a.state.IsLoading.Update(func(bool) bool { return a.inFlight.Load() > 0 })
}

// fail routes err to the error cell and returns it wrapped with op.
// Cancelled calls are dropped silently: the caller has lost interest in the
// result.
func (a *App) fail(ctx context.Context, op string, err error) error {
	wrapped := apierrors.WrapError(err, op)
	if ctx.Err() != nil || errors.Is(err, context.Canceled) {
		a.logger.Debug("Operation abandoned", zap.String("operation", op), zap.Error(err))
		return wrapped
	}
	a.logger.Warn("Operation failed",
		zap.String("operation", op),
		zap.Int("status", apierrors.StatusCode(err)),
		zap.Error(err))
	a.state.Error.SetError(wrapped)
	return wrapped
}

func (a *App) detectGrammar() bool {
	if a.cfg == nil {
		return true
	}
	return a.cfg.DetectGrammar
}

func (a *App) defaultLanguage() string {
	if a.cfg == nil {
		return ""
	}
	return a.cfg.DefaultLanguage
}

// Refresh loads config, categories, chats, documents and grammar rules in
// parallel and returns the first failure.
func (a *App) Refresh(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { _, err := a.LoadConfig(ctx); return err })
	g.Go(func() error { return a.LoadCategories(ctx) })
	g.Go(func() error { return a.LoadChats(ctx) })
	g.Go(func() error { return a.LoadDocuments(ctx) })
	g.Go(func() error { return a.LoadGrammarRules(ctx) })
	return g.Wait()
}

func (a *App) HealthCheck(ctx context.Context) (*types.Health, error) {
	defer a.begin()()
	health, err := a.api.HealthCheck(ctx)
	if err != nil {
		return nil, a.fail(ctx, "health_check", err)
	}
	return health, nil
}
