package api

import (
	"context"
	"dbuilder/internal/channels"
	"dbuilder/internal/pool"
	"dbuilder/internal/types"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
)

var errNoPlatform = types.Err(types.ErrUnavailable, nil, "platform access is not configured")

// Response messages, one per outcome of a mutating call.
const (
	MsgUpdated   = "UPDATED"
	MsgUnchanged = "UNCHANGED"
	MsgAdded     = "ADDED"
	MsgRemoved   = "REMOVED"
	MsgCleared   = "CLEARED"
	MsgOK        = "OK"
)

// Platform is what the handler needs from the social platform side.
type Platform interface {
	ListGuildsForUser(ctx context.Context, identity string) ([]types.Guild, error)
	ListOwnedGuilds(ctx context.Context, identity string) ([]types.Guild, error)
	CheckOwner(ctx context.Context, identity, guildID string) (bool, error)
	ListCategories(ctx context.Context, tenant string) ([]types.Category, error)
	InvalidateGuilds(ctx context.Context, identity string) error
}

type Handler struct {
	Names    *pool.Service
	Channels *channels.Associations
	Registry *channels.Registry
	// Platform may be nil, in which case the platform and category routes answer 503.
	Platform Platform
}

func NewHandler(names *pool.Service, assoc *channels.Associations, registry *channels.Registry, platform Platform) *Handler {
	return &Handler{
		Names:    names,
		Channels: assoc,
		Registry: registry,
		Platform: platform,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recover)
	r.Use(middleware.RealIP)
	r.Use(AccessLog)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", IdentityHeader, RequestIDHeader},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Get("/users/{identity}/guilds", h.handleListGuilds)

	r.Route("/guilds/{tenant}", func(r chi.Router) {
		r.Get("/", h.handleCheckGuild)
		r.Put("/", h.handleMarkGuild(true))
		r.Delete("/", h.handleMarkGuild(false))
	})

	r.Route("/{tenant}", func(r chi.Router) {
		r.Get("/names", h.handleListNames)
		// {id} is a reservation id on GET and a custom name on PUT and DELETE.
		r.Get("/names/{id}", h.handlePickName)
		r.Put("/names/{id}", h.handleAddName)
		r.Delete("/names/{id}", h.handleRemoveName)

		r.Get("/channels/{channelId}", h.handleChannelName)
		r.Put("/channels/{channelId}", h.handleAssignChannel)
		r.Delete("/channels/{channelId}", h.handleClearChannel)

		r.Group(func(r chi.Router) {
			r.Use(h.requireOwner)
			r.Get("/categories", h.handleListCategories)
			r.Get("/categories/{categoryId}", h.handleCheckCategory)
			r.Put("/categories/{categoryId}", h.handleSetCategory(true))
			r.Delete("/categories/{categoryId}", h.handleSetCategory(false))
		})
	})
	return r
}

// requireOwner rejects callers that do not own the tenant's guild. Ownership cannot be proven without a
// Platform, so every call is rejected then.
func (h *Handler) requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Platform == nil {
			writeError(w, r, errNoPlatform)
			return
		}
		identity := r.Header.Get(IdentityHeader)
		if identity == "" {
			writeError(w, r, types.Err(types.ErrUnauthorized, nil, "missing %s header", IdentityHeader))
			return
		}
		ok, err := h.Platform.CheckOwner(r.Context(), identity, chi.URLParam(r, "tenant"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !ok {
			writeError(w, r, types.Err(types.ErrForbidden, nil, "caller does not own this guild"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) handlePickName(w http.ResponseWriter, r *http.Request) {
	pick, err := h.Names.PickWithReservation(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, pick)
}

func (h *Handler) handleAddName(w http.ResponseWriter, r *http.Request) {
	added, err := h.Names.Allocator.AddCustom(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, added, MsgAdded)
}

func (h *Handler) handleRemoveName(w http.ResponseWriter, r *http.Request) {
	removed, err := h.Names.Allocator.RemoveCustom(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, removed, MsgRemoved)
}

func (h *Handler) handleListNames(w http.ResponseWriter, r *http.Request) {
	page, err := h.Names.Allocator.ListCustom(r.Context(), chi.URLParam(r, "tenant"), r.URL.Query().Get("cursor"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, page)
}

func (h *Handler) handleChannelName(w http.ResponseWriter, r *http.Request) {
	name, ok, err := h.Channels.ChannelName(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "channelId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, types.Err(types.ErrNotFound, nil, "channel has no name"))
		return
	}
	writeOK(w, r, map[string]string{"name": name})
}

type assignRequest struct {
	ReservationID string `json:"reservationId"`
}

func (h *Handler) handleAssignChannel(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		writeError(w, r, types.Err(types.ErrInvalidInput, err, "read error"))
		return
	}
	var req assignRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, r, types.Err(types.ErrInvalidInput, err, "invalid json"))
		return
	}
	if req.ReservationID == "" {
		writeError(w, r, types.Err(types.ErrInvalidInput, nil, "reservationId is required"))
		return
	}
	changed, err := h.Channels.AssignReservation(r.Context(), chi.URLParam(r, "tenant"), req.ReservationID, chi.URLParam(r, "channelId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, changed, MsgUpdated)
}

func (h *Handler) handleClearChannel(w http.ResponseWriter, r *http.Request) {
	cleared, err := h.Channels.ClearChannel(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "channelId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeMessage(w, r, cleared, MsgCleared)
}

func (h *Handler) handleListCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := h.Platform.ListCategories(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, map[string]any{"items": cats})
}

func (h *Handler) handleCheckCategory(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Registry.CheckCategory(r.Context(), chi.URLParam(r, "tenant"), chi.URLParam(r, "categoryId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		writeError(w, r, types.Err(types.ErrNotFound, nil, "category is not in the whitelist"))
		return
	}
	writeOK(w, r, map[string]string{"message": MsgOK})
}

func (h *Handler) handleSetCategory(whitelisted bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenant, category := chi.URLParam(r, "tenant"), chi.URLParam(r, "categoryId")
		var (
			changed bool
			err     error
		)
		if whitelisted {
			changed, err = h.Registry.WhitelistCategory(r.Context(), tenant, category)
		} else {
			changed, err = h.Registry.BlacklistCategory(r.Context(), tenant, category)
		}
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, r, changed, MsgOK)
	}
}

func (h *Handler) handleCheckGuild(w http.ResponseWriter, r *http.Request) {
	rec, err := h.Registry.CheckGuild(r.Context(), chi.URLParam(r, "tenant"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if rec == nil {
		writeError(w, r, types.Err(types.ErrNotFound, nil, "guild not found"))
		return
	}
	writeOK(w, r, rec)
}

func (h *Handler) handleMarkGuild(joined bool) http.HandlerFunc {
	msg := MsgUpdated
	if !joined {
		msg = MsgCleared
	}
	return func(w http.ResponseWriter, r *http.Request) {
		changed, err := h.Registry.MarkGuild(r.Context(), chi.URLParam(r, "tenant"), joined)
		if err != nil {
			writeError(w, r, err)
			return
		}
		writeMessage(w, r, changed, msg)
	}
}

// handleListGuilds lists the guilds of the calling identity; "owned=true" keeps only the owned ones and
// "refresh=true" drops the cached list first.
func (h *Handler) handleListGuilds(w http.ResponseWriter, r *http.Request) {
	if h.Platform == nil {
		writeError(w, r, errNoPlatform)
		return
	}
	identity := chi.URLParam(r, "identity")
	caller := r.Header.Get(IdentityHeader)
	if identity == "@me" {
		identity = caller
	}
	if caller == "" || caller != identity {
		writeError(w, r, types.Err(types.ErrForbidden, nil, "guilds of another identity"))
		return
	}
	ctx := r.Context()
	q := r.URL.Query()
	if q.Get("refresh") == "true" {
		if err := h.Platform.InvalidateGuilds(ctx, identity); err != nil {
			writeError(w, r, err)
			return
		}
	}
	var (
		guilds []types.Guild
		err    error
	)
	if q.Get("owned") == "true" {
		guilds, err = h.Platform.ListOwnedGuilds(ctx, identity)
	} else {
		guilds, err = h.Platform.ListGuildsForUser(ctx, identity)
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeOK(w, r, map[string]any{"items": guilds})
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, types.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, types.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, types.ErrExhausted), errors.Is(err, types.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := statusFor(err)
	msg := http.StatusText(code)
	if code < http.StatusInternalServerError {
		msg = err.Error()
	} else {
		log.WithError(err).WithFields(log.Fields{
			"requestID": requestID(r.Context()),
			"path":      r.URL.Path,
		}).Error("request failed")
	}
	writeJSON(w, r, code, errorBody{Error: msg, RequestID: requestID(r.Context())})
}

func writeMessage(w http.ResponseWriter, r *http.Request, changed bool, msg string) {
	if !changed {
		msg = MsgUnchanged
	}
	writeOK(w, r, map[string]string{"message": msg})
}

func writeOK(w http.ResponseWriter, r *http.Request, v any) {
	writeJSON(w, r, http.StatusOK, v)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, r *http.Request, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).WithField("requestID", requestID(r.Context())).Warn("failed to write response")
	}
}
