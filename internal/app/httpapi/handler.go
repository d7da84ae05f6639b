// Package httpapi exposes the application services over HTTP.
package httpapi

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/eatrite/backend/internal/app"
	"github.com/eatrite/backend/internal/app/domain/identity"
	"github.com/eatrite/backend/internal/app/domain/preference"
	scansvc "github.com/eatrite/backend/internal/app/services/scan"
	"github.com/eatrite/backend/internal/config"
	"github.com/eatrite/backend/internal/errors"
	"github.com/eatrite/backend/internal/httputil"
	"github.com/eatrite/backend/internal/logging"
	"github.com/eatrite/backend/internal/metrics"
	"github.com/eatrite/backend/internal/middleware"
)

// Handler routes API requests to the application services.
type Handler struct {
	cfg     *config.Config
	app     *app.Application
	log     *logging.Logger
	metrics *metrics.Metrics

	cors        *middleware.CORSMiddleware
	rateLimiter *middleware.RateLimiter
	auth        *middleware.AuthMiddleware
}

// New creates the HTTP handler for the given application.
func New(cfg *config.Config, application *app.Application, log *logging.Logger, m *metrics.Metrics) *Handler {
	if log == nil {
		log = logging.NewDefault("httpapi")
	}
	if m == nil {
		m = metrics.New()
	}

	rl := middleware.NewRateLimiter(cfg.RateLimitPerSecond, cfg.RateLimitBurst, log)

	// Scan endpoints accept anonymous calls; analysis then skips
	// personalization.
	optional := []string{
		cfg.APIPrefix + "/scan-image",
		cfg.APIPrefix + "/analyze",
	}

	return &Handler{
		cfg:         cfg,
		app:         application,
		log:         log,
		metrics:     m,
		cors:        middleware.NewCORSMiddleware(cfg.AllowedOrigins()),
		rateLimiter: rl,
		auth:        middleware.NewAuthMiddleware(application.Tokens, log, optional),
	}
}

// Router builds the route table.
func (h *Handler) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware("api", h.metrics))

	router.HandleFunc("/", h.handleRoot).Methods(http.MethodGet)
	router.Handle("/metrics", h.metrics.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix(h.cfg.APIPrefix).Subrouter()
	api.HandleFunc("/health", h.handleHealth).Methods(http.MethodGet)
	api.HandleFunc("/auth/register", h.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", h.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/auth/login-json", h.handleLoginJSON).Methods(http.MethodPost)

	protected := api.NewRoute().Subrouter()
	protected.Use(mux.MiddlewareFunc(h.auth.Handler))
	protected.HandleFunc("/auth/me", h.handleMe).Methods(http.MethodGet)
	protected.HandleFunc("/preferences", h.handleGetPreferences).Methods(http.MethodGet)
	protected.HandleFunc("/preferences", h.handleCreatePreferences).Methods(http.MethodPost)
	protected.HandleFunc("/preferences", h.handleUpdatePreferences).Methods(http.MethodPut)
	protected.HandleFunc("/preferences", h.handleDeletePreferences).Methods(http.MethodDelete)
	protected.HandleFunc("/scan-image", h.handleScanImage).Methods(http.MethodPost)
	protected.HandleFunc("/analyze", h.handleAnalyze).Methods(http.MethodPost)
	protected.HandleFunc("/scan-history", h.handleScanHistory).Methods(http.MethodGet)

	return router
}

// HTTPHandler wraps the router with the outer middleware chain. CORS sits
// outside the router so preflight requests short-circuit before routing, and
// the rate limiter runs ahead of authentication, so it throttles every caller
// by remote address.
func (h *Handler) HTTPHandler() http.Handler {
	var handler http.Handler = h.Router()
	handler = h.rateLimiter.Handler(handler)
	handler = h.cors.Handler(handler)
	handler = middleware.LoggingMiddleware(h.log)(handler)
	return handler
}

// StartCleanup begins periodic pruning of rate-limiter state.
func (h *Handler) StartCleanup(interval time.Duration) {
	h.rateLimiter.StartCleanup(interval)
}

// Stop releases the handler's background resources.
func (h *Handler) Stop() {
	h.rateLimiter.Stop()
}

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "Welcome to " + h.cfg.AppName,
		"version": h.cfg.Version,
		"docs":    "/docs",
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"service":   h.cfg.AppName,
	})
}

type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name,omitempty"`
}

type userPayload struct {
	ID        string     `json:"id"`
	Email     string     `json:"email"`
	FullName  string     `json:"full_name,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

func toUserPayload(user identity.User) userPayload {
	payload := userPayload{ID: user.ID, Email: user.Email, FullName: user.FullName}
	if !user.CreatedAt.IsZero() {
		created := user.CreatedAt
		payload.CreatedAt = &created
	}
	return payload
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	user, err := h.app.Auth.Register(r.Context(), req.Email, req.Password, req.FullName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "User registered successfully",
		"user":    toUserPayload(user),
	})
}

// handleLogin implements the OAuth2 password form flow used by the mobile
// client: username carries the email.
func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.WriteError(w, errors.InvalidInput("Invalid form body"))
		return
	}
	email := r.PostFormValue("username")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		httputil.WriteError(w, errors.InvalidInput("username and password are required"))
		return
	}

	_, accessToken, err := h.app.Auth.Login(r.Context(), email, password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"access_token": accessToken,
		"token_type":   "bearer",
	})
}

type loginJSONRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) handleLoginJSON(w http.ResponseWriter, r *http.Request) {
	var req loginJSONRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.WriteError(w, errors.InvalidInput("email and password are required"))
		return
	}

	user, accessToken, err := h.app.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": accessToken,
		"token_type":   "bearer",
		"user":         toUserPayload(user),
	})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.app.Auth.CurrentUser(r.Context(), middleware.GetBearerToken(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toUserPayload(user))
}

type preferencesRequest struct {
	Allergies           []string `json:"allergies"`
	DietaryRestrictions []string `json:"dietary_restrictions"`
	HealthGoals         *string  `json:"health_goals"`
}

func (r preferencesRequest) input() preference.Input {
	return preference.Input{
		Allergies:           r.Allergies,
		DietaryRestrictions: r.DietaryRestrictions,
		HealthGoals:         r.HealthGoals,
	}
}

func (h *Handler) handleGetPreferences(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.app.Preferences.Get(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prefs)
}

func (h *Handler) handleCreatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	prefs, err := h.app.Preferences.Create(r.Context(), middleware.GetUserID(r.Context()), req.input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prefs)
}

func (h *Handler) handleUpdatePreferences(w http.ResponseWriter, r *http.Request) {
	var req preferencesRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	prefs, err := h.app.Preferences.Update(r.Context(), middleware.GetUserID(r.Context()), req.input())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, prefs)
}

func (h *Handler) handleDeletePreferences(w http.ResponseWriter, r *http.Request) {
	if err := h.app.Preferences.Delete(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"message": "User preferences deleted successfully",
	})
}

func (h *Handler) handleScanImage(w http.ResponseWriter, r *http.Request) {
	// Cap the request body a little above the image limit so multipart
	// framing overhead does not reject a maximum-size image.
	r.Body = http.MaxBytesReader(w, r.Body, scansvc.MaxImageBytes+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		if isBodyTooLarge(err) {
			httputil.WriteError(w, errors.PayloadTooLarge("File too large. Maximum size is 10 MB."))
			return
		}
		httputil.WriteError(w, errors.InvalidInput("Invalid file type. Please upload an image file."))
		return
	}
	defer file.Close()

	size, err := io.Copy(io.Discard, file)
	if err != nil {
		if isBodyTooLarge(err) {
			httputil.WriteError(w, errors.PayloadTooLarge("File too large. Maximum size is 10 MB."))
			return
		}
		httputil.WriteError(w, errors.Internal("Failed to read upload", err))
		return
	}

	result, err := h.app.Scans.ScanImage(header.Header.Get("Content-Type"), size)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req scansvc.AnalyzeRequest
	if err := httputil.DecodeJSON(r.Body, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	analysis, err := h.app.Scans.Analyze(r.Context(), req, middleware.GetUserID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, analysis)
}

func (h *Handler) handleScanHistory(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	offset := queryInt(r, "offset", 0)
	httputil.WriteJSON(w, http.StatusOK, h.app.Scans.History(limit, offset))
}

// isBodyTooLarge reports whether err came from the MaxBytesReader cap.
func isBodyTooLarge(err error) bool {
	var maxBytesErr *http.MaxBytesError
	return stderrors.As(err, &maxBytesErr)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
