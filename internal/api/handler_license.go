package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-backend/internal/license"
	"pos-backend/internal/store"
)

type activateRequest struct {
	LicenseKey string `json:"licenseKey" binding:"required"`
}

// GetHWID handles GET /api/license/hwid.
func (h *Handler) GetHWID(c *gin.Context) {
	respond(c, http.StatusOK, gin.H{"hwid": h.license.Fingerprint(c.Request.Context())})
}

// CheckLicense handles GET /api/license/check. Only the local desktop
// installation is licensed; remote mode always reports valid.
func (h *Handler) CheckLicense(c *gin.Context) {
	if h.store.Mode() == store.ModeRemote {
		respond(c, http.StatusOK, license.Validation{Valid: true})
		return
	}
	res, err := h.license.CheckStored(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	if h.monitor != nil {
		h.monitor.Set(res)
	}
	respond(c, http.StatusOK, res)
}

// ActivateLicense handles POST /api/license/activate. An invalid key is a
// normal answer whose data carries the reason.
func (h *Handler) ActivateLicense(c *gin.Context) {
	if h.store.Mode() == store.ModeRemote {
		fail(c, license.ErrActivationForbidden)
		return
	}
	var req activateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.license.Activate(c.Request.Context(), req.LicenseKey)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Valid && h.monitor != nil {
		h.monitor.Set(res)
	}
	respond(c, http.StatusOK, res)
}

// LicenseHistory handles GET /api/license/history.
func (h *Handler) LicenseHistory(c *gin.Context) {
	records, err := h.license.History(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, records)
}
