package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pos-backend/internal/model"
	"pos-backend/internal/mw"
	"pos-backend/internal/repo"
	"pos-backend/internal/store"
)

type putSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
	P256DH   string `json:"p256dh" binding:"required"`
	Auth     string `json:"auth" binding:"required"`
}

// PutSubscription creates the subscription for an endpoint or replaces its keys.
func (h *Handler) PutSubscription(c *gin.Context) {
	var req putSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	existing, err := h.subscriptions.FindOne(ctx, store.Where{"endpoint": req.Endpoint})
	switch {
	case errors.Is(err, repo.ErrNotFound):
		sub, err := h.subscriptions.Create(ctx, model.PushSubscription{
			Endpoint: req.Endpoint,
			P256DH:   req.P256DH,
			Auth:     req.Auth,
			UserID:   currentSession(c).User.ID,
		})
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusCreated, sub)
	case err != nil:
		fail(c, err)
	default:
		sub, err := h.subscriptions.Update(ctx, existing.ID, store.Row{"p256dh": req.P256DH, "auth": req.Auth})
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, sub)
	}
}

type deleteSubscriptionRequest struct {
	Endpoint string `json:"endpoint" binding:"required"`
}

// DeleteSubscription handles the deletion of a subscription.
func (h *Handler) DeleteSubscription(c *gin.Context) {
	var req deleteSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	if err := h.subscriptions.DeleteWhere(c.Request.Context(), store.Where{"endpoint": req.Endpoint}); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// rawQueryParam reads key from the query string without URL decoding, so
// an endpoint is matched exactly as the browser reported it.
func rawQueryParam(rawQuery, key string) (string, bool) {
	for _, kv := range strings.Split(rawQuery, "&") {
		if strings.HasPrefix(kv, key+"=") {
			return kv[len(key)+1:], true
		}
	}
	return "", false
}

// GetSubscription handles the retrieval of a subscription.
func (h *Handler) GetSubscription(c *gin.Context) {
	raw, ok := rawQueryParam(c.Request.URL.RawQuery, "endpoint")
	if !ok || raw == "" {
		mw.AbortWithError(c, http.StatusBadRequest, "endpoint is required")
		return
	}

	sub, err := h.subscriptions.FindOne(c.Request.Context(), store.Where{"endpoint": raw})
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, sub)
}
