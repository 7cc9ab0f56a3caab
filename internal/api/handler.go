package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pos-backend/internal/auth"
	"pos-backend/internal/license"
	"pos-backend/internal/model"
	"pos-backend/internal/mw"
	"pos-backend/internal/pos"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

// Deps are the services the HTTP bridge exposes.
type Deps struct {
	Store   store.Store
	Auth    *auth.Service
	License *license.Authority
	Monitor *license.Monitor
	POS     *pos.Service
	WebPush *webpush.Options
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store         store.Store
	auth          *auth.Service
	license       *license.Authority
	monitor       *license.Monitor
	pos           *pos.Service
	subscriptions *repo.Repository[model.PushSubscription]
	webpush       *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	h := &Handler{
		store:   d.Store,
		auth:    d.Auth,
		license: d.License,
		monitor: d.Monitor,
		pos:     d.POS,
		webpush: d.WebPush,
	}
	if d.Store != nil {
		h.subscriptions = repo.New(d.Store, repo.PushSubscriptions)
	}
	return h
}

// respond writes the {"data": ...} envelope.
func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{"data": data})
}

// fail writes the {"error": {"message": ...}} envelope with a status
// derived from err.
func fail(c *gin.Context, err error) {
	status := errorStatus(err)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	mw.AbortWithError(c, status, err.Error())
}

func badRequest(c *gin.Context, err error) {
	mw.AbortWithError(c, http.StatusBadRequest, "invalid request: "+err.Error())
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrRawSQLUnsupported),
		errors.Is(err, store.ErrInvalidIdentifier),
		errors.Is(err, store.ErrMissingWhere),
		errors.Is(err, auth.ErrInvalidInput),
		errors.Is(err, auth.ErrInvalidRole),
		errors.Is(err, pos.ErrEmptyCart),
		errors.Is(err, pos.ErrInvalidQuantity),
		errors.Is(err, pos.ErrInvalidPriceLevel):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrSessionNotFound):
		return http.StatusUnauthorized
	case errors.Is(err, license.ErrActivationForbidden):
		return http.StatusForbidden
	case errors.Is(err, repo.ErrNotFound),
		errors.Is(err, auth.ErrUserNotFound),
		errors.Is(err, pos.ErrItemNotFound),
		errors.Is(err, pos.ErrPurchaseNotFound),
		errors.Is(err, pos.ErrSaleNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrEmailTaken),
		errors.Is(err, pos.ErrAlreadyPosted):
		return http.StatusConflict
	case errors.Is(err, pos.ErrInsufficientStock),
		errors.Is(err, pos.ErrInsufficientPayment),
		errors.Is(err, pos.ErrItemInactive),
		errors.Is(err, pos.ErrReturnExceedsSale):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// Health reports the process is serving and which backend it uses.
func (h *Handler) Health(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"status": "ok", "mode": h.store.Mode()})
}
