package web

import (
	"context"
	"crypto/subtle"
	"net/http"

	"treasury-bot/internal/app"

	"github.com/go-chi/chi/v5"
)

// Handler wires the webhook, the reminder trigger and the ops API onto one
// chi router.
type Handler struct {
	svc           app.ApplicationService
	seen          *seenStore
	limiter       *senderLimiter
	jwtSecret     string
	adminPassword string
	cronSecret    string
	router        chi.Router
}

type Config struct {
	JWTSecret     string
	AdminPassword string
	CronSecret    string
	// SenderPerMinute bounds how many messages one phone may submit; zero
	// falls back to a sane default.
	SenderPerMinute int
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, cfg Config) http.Handler {
	perMinute := cfg.SenderPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}

	h := &Handler{
		svc:           svc,
		seen:          newSeenStore(),
		limiter:       newSenderLimiter(perMinute, perMinute),
		jwtSecret:     cfg.JWTSecret,
		adminPassword: cfg.AdminPassword,
		cronSecret:    cfg.CronSecret,
	}

	// Background maintenance, independent of request handling.
	h.seen.startSweep(context.Background())
	h.limiter.startCleanup(context.Background())

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger)
	r.Use(Recoverer)
	r.Use(RequestBodyLimit(1 << 20)) // 1 MB

	r.Get("/api/health", h.health)
	r.Post("/api/auth/login", h.login)

	// Inbound chat gateway events.
	r.Post("/webhooks/whatsapp/messages-upsert", h.handleMessagesUpsert)

	// Scheduler endpoint, guarded by its own shared secret.
	r.Get("/api/cron/notify-payables", h.notifyPayables)

	r.Group(func(r chi.Router) {
		r.Use(h.RequireAuth)
		r.Get("/api/stats", h.stats)
		r.Get("/api/tenants/{id}/context", h.tenantContext)
	})

	h.router = r
	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// stats exposes the dedup cache size plus the pipeline counters.
func (h *Handler) stats(w http.ResponseWriter, _ *http.Request) {
	type statsResponse struct {
		app.Stats
		DedupEntries int `json:"dedup_entries"`
	}
	writeJSON(w, statsResponse{
		Stats:        h.svc.Stats(),
		DedupEntries: h.seen.size(),
	})
}

// tenantContext returns the rendered grounding menu for one tenant, useful
// when debugging why the model picked a wrong id.
func (h *Handler) tenantContext(w http.ResponseWriter, r *http.Request) {
	tenantID := chi.URLParam(r, "id")
	menu, err := h.svc.TenantMenu(r.Context(), tenantID)
	if err != nil {
		writeError(w, r, "tenant context unavailable", "NOT_FOUND", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]string{
		"categories": menu.Categories,
		"accounts":   menu.Accounts,
		"staff":      menu.Staff,
	})
}

// notifyPayables triggers the due-payables reminder run. Called by an
// external scheduler with a bearer secret.
func (h *Handler) notifyPayables(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)
	if h.cronSecret == "" ||
		subtle.ConstantTimeCompare([]byte(token), []byte(h.cronSecret)) != 1 {
		writeError(w, r, "unauthorized", "UNAUTHORIZED", http.StatusUnauthorized)
		return
	}

	result, err := h.svc.NotifyDuePayables(r.Context())
	if err != nil {
		writeError(w, r, "reminder run failed", "INTERNAL_ERROR", http.StatusInternalServerError)
		return
	}

	type cronResponse struct {
		Success bool `json:"success"`
		*app.ReminderResult
	}
	writeJSON(w, cronResponse{Success: true, ReminderResult: result})
}
