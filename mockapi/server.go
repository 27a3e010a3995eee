package mockapi

import (
	"context"
	"net/http"
	"sync"
	"time"

	"langteacher/types"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	serviceName    = "Language Teacher API"
	serviceVersion = "2.0.0"
	timeLayout     = "2006-01-02 15:04:05"
)

// GrammarTrigger makes the fake assistant annotate any user message that
// contains Phrase.
type GrammarTrigger struct {
	Phrase     string
	Annotation types.GrammarDetected
}

// DefaultGrammarTriggers is what New installs.
var DefaultGrammarTriggers = []GrammarTrigger{
	{
		Phrase: "weil",
		Annotation: types.GrammarDetected{
			RuleName:    "Nebensatz mit weil",
			Explanation: "After 'weil' the conjugated verb moves to the end of the clause.",
		},
	},
}

// Server is an in-memory stand-in for the language teacher backend. It
// implements the same HTTP contract so the client can be exercised without
// the real service.
type Server struct {
	router *gin.Engine
	logger *zap.Logger

	mu         sync.Mutex
	categories []types.Category
	chats      []types.Chat
	messages   map[string][]types.Message
	documents  []types.Document
	rules      []types.GrammarRule
	llm        types.LLMConfig
	whisper    types.WhisperConfig
	triggers   []GrammarTrigger
	now        func() time.Time
}

func New(logger *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("Mock API request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	})

	s := &Server{
		router:   router,
		logger:   logger,
		messages: make(map[string][]types.Message),
		llm: types.LLMConfig{
			Provider: types.ProviderOllama,
			Model:    "llama3.2",
			BaseURL:  "http://localhost:11434",
		},
		whisper: types.WhisperConfig{
			Provider: "faster-whisper",
			Model:    "base",
			Language: "de",
			Task:     "transcribe",
		},
		triggers: DefaultGrammarTriggers,
		now:      time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/", s.info)
	s.router.GET("/health", s.health)

	cfg := s.router.Group("/api/config")
	cfg.GET("", s.getConfig)
	cfg.POST("", s.updateConfig)
	cfg.POST("/whisper", s.updateWhisper)

	categories := s.router.Group("/api/categories")
	categories.GET("", s.listCategories)
	categories.POST("", s.createCategory)
	categories.DELETE("/:id", s.deleteCategory)

	chats := s.router.Group("/api/chats")
	chats.GET("", s.listChats)
	chats.POST("", s.createChat)
	chats.GET("/:id", s.getChat)
	chats.DELETE("/:id", s.deleteChat)
	chats.POST("/:id/messages", s.sendMessage)

	audio := s.router.Group("/api/audio")
	audio.POST("/transcribe", s.transcribe)
	audio.POST("/transcribe-and-send", s.transcribeAndSend)
	audio.GET("/formats", s.audioFormats)

	documents := s.router.Group("/api/documents")
	documents.GET("", s.listDocuments)
	documents.POST("/upload", s.uploadDocument)
	documents.GET("/:id", s.getDocument)
	documents.DELETE("/:id", s.deleteDocument)

	rules := s.router.Group("/api/grammar-rules")
	rules.GET("", s.listGrammarRules)
	rules.POST("", s.createGrammarRule)
	rules.DELETE("/:id", s.deleteGrammarRule)
}

// Handler exposes the router, e.g. for httptest.NewServer.
func (s *Server) Handler() http.Handler {
	return s.router
}

// SetGrammarTriggers replaces the phrases that produce grammar annotations.
func (s *Server) SetGrammarTriggers(triggers []GrammarTrigger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.triggers = triggers
}

// Start serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context, addr string) error {
	s.logger.Info("Starting mock API server", zap.String("address", addr))

	srv := &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Mock API server failed to start", zap.Error(err))
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down mock API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(timeLayout)
}

// respondWithError answers with the backend's {detail} failure shape.
func respondWithError(c *gin.Context, statusCode int, detail string) {
	c.JSON(statusCode, gin.H{"detail": detail})
}
