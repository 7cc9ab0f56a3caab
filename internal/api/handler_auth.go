package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pos-backend/internal/auth"
	"pos-backend/internal/mw"
)

const sessionKey = "session"

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type roleRequest struct {
	Role string `json:"role" binding:"required"`
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

// RequireSession rejects requests without a live session and stores the
// session in the gin context.
func (h *Handler) RequireSession(c *gin.Context) {
	token := bearerToken(c)
	if token == "" {
		mw.AbortWithError(c, http.StatusUnauthorized, auth.ErrSessionNotFound.Error())
		return
	}
	session, err := h.auth.CheckSession(c.Request.Context(), token)
	if err != nil {
		fail(c, err)
		return
	}
	c.Set(sessionKey, session)
	c.Next()
}

// RequireAdmin must run after RequireSession.
func (h *Handler) RequireAdmin(c *gin.Context) {
	if currentSession(c).Role != auth.RoleAdmin {
		mw.AbortWithError(c, http.StatusForbidden, "admin role required")
		return
	}
	c.Next()
}

func currentSession(c *gin.Context) auth.Session {
	if v, ok := c.Get(sessionKey); ok {
		return v.(auth.Session)
	}
	return auth.Session{}
}

// Login handles POST /api/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, session)
}

// Register handles POST /api/auth/register. New accounts are cashiers.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	session, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, session)
}

// Logout handles POST /api/auth/logout.
func (h *Handler) Logout(c *gin.Context) {
	h.auth.Logout(bearerToken(c))
	respond(c, http.StatusOK, true)
}

// Session handles GET /api/auth/session.
func (h *Handler) Session(c *gin.Context) {
	respond(c, http.StatusOK, currentSession(c))
}

// GetProfile handles GET /api/auth/profile.
func (h *Handler) GetProfile(c *gin.Context) {
	profile, role, err := h.auth.GetProfile(c.Request.Context(), currentSession(c).User.ID)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"profile": profile, "role": role})
}

// UpdateProfile handles PUT /api/auth/profile.
func (h *Handler) UpdateProfile(c *gin.Context) {
	var req auth.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	profile, err := h.auth.UpdateProfile(c.Request.Context(), currentSession(c).User.ID, req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, profile)
}

// ListUsers handles GET /api/users.
func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.auth.ListUsers(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, users)
}

// UpdateRole handles PUT /api/users/:id/role.
func (h *Handler) UpdateRole(c *gin.Context) {
	var req roleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.UpdateRole(c.Request.Context(), c.Param("id"), req.Role); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, true)
}

// DeleteUser handles DELETE /api/users/:id. Admins cannot delete themselves.
func (h *Handler) DeleteUser(c *gin.Context) {
	id := c.Param("id")
	if id == currentSession(c).User.ID {
		mw.AbortWithError(c, http.StatusBadRequest, "cannot delete the signed-in user")
		return
	}
	if err := h.auth.DeleteUser(c.Request.Context(), id); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, true)
}
