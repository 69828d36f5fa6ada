package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"browser-guide/internal/application/port/output"
	"browser-guide/internal/domain/entity"

	"github.com/go-chi/chi/v5"
)

const (
	DefaultUpstreamURL = "https://openrouter.ai/api/v1/chat/completions"
	DefaultRelayModel  = "arcee-ai/trinity-mini:free"

	defaultTemperature = 0.2
	defaultMaxTokens   = 500
	defaultReferer     = "http://localhost"
	maxBodyBytes       = 1 << 20
)

// ControlHandler executes one raw inbound control message.
type ControlHandler interface {
	Execute(ctx context.Context, raw []byte) (entity.ControlReply, error)
}

type Config struct {
	Addr string
	// APIKey is the upstream key; it never leaves the server.
	APIKey       string
	UpstreamURL  string
	DefaultModel string
	HTTPClient   *http.Client
}

func DefaultConfig(apiKey string) Config {
	return Config{
		Addr:         ":5000",
		APIKey:       apiKey,
		UpstreamURL:  DefaultUpstreamURL,
		DefaultModel: DefaultRelayModel,
		HTTPClient:   &http.Client{Timeout: 2 * time.Minute},
	}
}

// Server hosts the chat relay, the health check and, when a handler is set,
// the control endpoint.
type Server struct {
	cfg     Config
	control ControlHandler
	logger  output.LoggerPort
}

func New(cfg Config, control ControlHandler, logger output.LoggerPort) *Server {
	if cfg.UpstreamURL == "" {
		cfg.UpstreamURL = DefaultUpstreamURL
	}
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = DefaultRelayModel
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &Server{cfg: cfg, control: control, logger: logger}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestLogger(s.logger))
	r.Use(corsMiddleware)

	r.Get("/health", s.health)
	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.chat)
		if s.control != nil {
			r.Post("/control", s.controlMessage)
		}
	})
	return r
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.cfg.APIKey == "" {
		s.logger.Warn("OPENROUTER_API_KEY is not set; /api/chat will refuse requests")
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("HTTP server shutdown error", "error", err)
		}
		return nil
	}
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

type chatRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	Temperature *float64        `json:"temperature"`
	MaxTokens   *int            `json:"max_tokens"`
}

type upstreamRequest struct {
	Model       string          `json:"model"`
	Messages    json.RawMessage `json:"messages"`
	Temperature float64         `json:"temperature"`
	MaxTokens   int             `json:"max_tokens"`
}

// chat forwards a chat-completion request upstream with the server key and
// returns the upstream body untouched.
func (s *Server) chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil || len(req.Messages) == 0 || string(req.Messages) == "null" {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if s.cfg.APIKey == "" {
		writeError(w, http.StatusInternalServerError, "Server not configured")
		return
	}

	up := upstreamRequest{
		Model:       s.cfg.DefaultModel,
		Messages:    req.Messages,
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if req.Model != "" {
		up.Model = req.Model
	}
	if req.Temperature != nil {
		up.Temperature = *req.Temperature
	}
	if req.MaxTokens != nil {
		up.MaxTokens = *req.MaxTokens
	}

	payload, err := json.Marshal(up)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	upReq, err := http.NewRequestWithContext(r.Context(), http.MethodPost, s.cfg.UpstreamURL, bytes.NewReader(payload))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	referer := r.Header.Get("Referer")
	if referer == "" {
		referer = defaultReferer
	}
	upReq.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	upReq.Header.Set("HTTP-Referer", referer)
	upReq.Header.Set("Content-Type", "application/json")

	resp, err := s.cfg.HTTPClient.Do(upReq)
	if err != nil {
		s.logger.Error("Upstream request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if resp.StatusCode != http.StatusOK {
		s.logger.Warn("Upstream returned an error", "status", resp.StatusCode, "model", up.Model)
		writeJSON(w, resp.StatusCode, map[string]string{"error": "API error", "details": string(body)})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func (s *Server) controlMessage(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request")
		return
	}

	reply, err := s.control.Execute(r.Context(), raw)
	if err != nil {
		status := http.StatusInternalServerError
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr),
			errors.Is(err, entity.ErrUnknownAction), errors.Is(err, entity.ErrEmptyGoal):
			status = http.StatusBadRequest
		}
		if reply.Error == "" {
			reply.Error = err.Error()
		}
		writeJSON(w, status, reply)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
