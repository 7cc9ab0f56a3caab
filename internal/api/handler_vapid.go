package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-backend/internal/mw"
)

// GetVAPIDPublicKey returns the VAPID public key browsers subscribe with.
func (h *Handler) GetVAPIDPublicKey(c *gin.Context) {
	if h.webpush == nil || h.webpush.VAPIDPublicKey == "" {
		mw.AbortWithError(c, http.StatusServiceUnavailable, "vapid keys are not configured")
		return
	}

	respond(c, http.StatusOK, gin.H{"public_key": h.webpush.VAPIDPublicKey})
}
