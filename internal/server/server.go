package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"ai-router/internal/catalogue"
	"ai-router/internal/config"
	"ai-router/internal/metrics"
	"ai-router/internal/provider"
	"ai-router/internal/router"
	"ai-router/internal/translator"
)

const (
	serviceName         = "ai-router"
	maxBodyBytes        = 1 << 20 // 1 MiB
	shutdownGracePeriod = 10 * time.Second
	readTimeout         = 30 * time.Second
	writeTimeout        = 45 * time.Second
	idleTimeout         = 120 * time.Second
)

var availableEndpoints = []string{"/health", "/chat", "/completions", "/models", "/metrics"}

// recommendedProviders pins the suggested local and cloud providers; the
// model is each provider's catalogue default.
var recommendedProviders = map[string]catalogue.ProviderID{
	string(catalogue.ClassLocal): catalogue.Ollama,
	string(catalogue.ClassCloud): catalogue.Gemini,
}

// StatusFunc reports per-provider availability for the model listing.
type StatusFunc func(ctx context.Context) map[string]bool

// Deps are the collaborators the HTTP layer serves.
type Deps struct {
	Router    *router.Router
	Catalogue *catalogue.Catalogue
	Status    StatusFunc
	Metrics   *metrics.Recorder
	Now       func() time.Time
}

type Server struct {
	cfg     config.Config
	deps    Deps
	app     *echo.Echo
	address string
}

// New constructs an HTTP server wired with routing and middleware.
func New(cfg config.Config, deps Deps) (*Server, error) {
	if deps.Router == nil {
		return nil, errors.New("router must not be nil")
	}
	if deps.Catalogue == nil {
		return nil, errors.New("catalogue must not be nil")
	}
	if deps.Status == nil {
		deps.Status = func(context.Context) map[string]bool { return map[string]bool{} }
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = jsonErrorHandler

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogLatency: true,
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			slog.Info("request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"error", v.Error,
			)
			return nil
		},
	}))
	e.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'none'; frame-ancestors 'none'; form-action 'none'",
	}))

	srv := &Server{
		cfg:     cfg,
		deps:    deps,
		app:     e,
		address: fmt.Sprintf(":%d", cfg.Server.Port),
	}

	srv.registerRoutes()

	return srv, nil
}

// Handler exposes the routed echo instance.
func (s *Server) Handler() http.Handler {
	return s.app
}

// Run starts the HTTP server and blocks until the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	printStartupBanner(s.cfg)
	slog.Info("starting server", "addr", s.address)

	httpServer := &http.Server{
		Addr:         s.address,
		Handler:      s.app,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		IdleTimeout:  idleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := s.app.StartServer(httpServer); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGracePeriod)
		defer cancel()
		if err := s.app.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		slog.Info("server shutdown complete")
		return nil
	case err := <-errCh:
		return err
	}
}

func (s *Server) registerRoutes() {
	s.app.GET("/health", s.handleHealth)
	s.app.POST("/chat", s.handleChat)
	s.app.POST("/completions", s.handleCompletions)
	s.app.GET("/models", s.handleModels)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	}
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status":    "healthy",
		"service":   serviceName,
		"timestamp": s.deps.Now().UTC().Format(time.RFC3339Nano),
	})
}

func (s *Server) handleChat(c echo.Context) error {
	var req translator.ChatRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return withExample(err)
	}

	env, err := s.deps.Router.Route(c.Request().Context(), req.ToUnified())
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, env)
}

func (s *Server) handleCompletions(c echo.Context) error {
	var req translator.CompletionRequest
	if err := decodeRequestBody(c, &req); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, translator.MockCompletion(req, s.deps.Now()))
}

type modelEntry struct {
	ID       string `json:"id"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
	Default  bool   `json:"default"`
}

type modelsResponse struct {
	Success        bool              `json:"success"`
	Models         []modelEntry      `json:"models"`
	ProviderStatus map[string]bool   `json:"provider_status"`
	Recommended    map[string]string `json:"recommended"`
}

func (s *Server) handleModels(c echo.Context) error {
	listing := s.deps.Catalogue.ListAll()

	resp := modelsResponse{
		Success:        true,
		Models:         make([]modelEntry, 0, len(listing)),
		ProviderStatus: s.deps.Status(c.Request().Context()),
		Recommended:    map[string]string{},
	}

	for _, row := range listing {
		resp.Models = append(resp.Models, modelEntry{
			ID:       row.Model,
			Provider: string(row.Provider),
			Type:     string(row.Class),
			Default:  row.IsDefault,
		})
	}

	for class, id := range recommendedProviders {
		if model, ok := s.deps.Catalogue.DefaultModelFor(id); ok {
			resp.Recommended[class] = fmt.Sprintf("%s/%s", id, model)
		}
	}

	return c.JSON(http.StatusOK, resp)
}

func decodeRequestBody[T any](c echo.Context, target *T) error {
	req := c.Request()
	defer req.Body.Close()

	req.Body = http.MaxBytesReader(c.Response(), req.Body, maxBodyBytes)

	decoder := json.NewDecoder(req.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) {
			return requestError{
				Status:  http.StatusBadRequest,
				Message: "request body is required",
			}
		}
		return requestError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("invalid JSON payload: %v", err),
		}
	}

	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "request body must contain a single JSON object",
		}
	}
	return nil
}

type requestError struct {
	Status  int
	Message string
	Example any
}

func (e requestError) Error() string {
	return e.Message
}

type errorBody struct {
	Error              string   `json:"error"`
	Example            any      `json:"example,omitempty"`
	AvailableEndpoints []string `json:"available_endpoints,omitempty"`
}

func withExample(err error) error {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		reqErr.Example = translator.ChatExample
		return reqErr
	}
	return err
}

func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var reqErr requestError
	if errors.As(err, &reqErr) {
		_ = c.JSON(reqErr.Status, errorBody{Error: reqErr.Message, Example: reqErr.Example})
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		switch he.Code {
		case http.StatusNotFound:
			_ = c.JSON(he.Code, errorBody{Error: "Endpoint not found", AvailableEndpoints: availableEndpoints})
		default:
			_ = c.JSON(he.Code, errorBody{Error: http.StatusText(he.Code)})
		}
		return
	}

	slog.Error("unhandled server error", "err", err)
	_ = c.JSON(http.StatusInternalServerError, errorBody{Error: "Internal server error"})
}

func toHTTPError(err error) error {
	var reqErr requestError
	if errors.As(err, &reqErr) {
		return reqErr
	}

	if errors.Is(err, provider.ErrInvalidRequest) {
		return requestError{
			Status:  http.StatusBadRequest,
			Message: "Missing 'message' in request body",
			Example: translator.ChatExample,
		}
	}

	return err
}

func printStartupBanner(cfg config.Config) {
	host := "127.0.0.1"
	configured := func(key string) string {
		if key != "" {
			return "configured"
		}
		return "not configured (mock fallback)"
	}

	fmt.Println()
	fmt.Println("ai-router ready")
	fmt.Printf("Listening on http://%s:%d\n", host, cfg.Server.Port)
	fmt.Println("Providers:")
	fmt.Printf("  ollama    local  %s\n", cfg.Providers.Ollama.BaseURL)
	fmt.Printf("  gemini    cloud  %s\n", configured(cfg.Providers.Gemini.APIKey))
	fmt.Printf("  openai    cloud  %s\n", configured(cfg.Providers.OpenAI.APIKey))
	fmt.Printf("  anthropic cloud  %s\n", configured(cfg.Providers.Anthropic.APIKey))
	fmt.Println("Endpoints:")
	fmt.Println("  GET  /health")
	fmt.Println("  POST /chat")
	fmt.Println("  POST /completions")
	fmt.Println("  GET  /models")
	fmt.Println("  GET  /metrics")
	fmt.Printf("Example:\n  curl http://%s:%d/chat -H 'Content-Type: application/json' -d '{\"message\":\"What is AI?\",\"provider\":\"ollama\"}'\n\n", host, cfg.Server.Port)
}
