package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"pos-backend/internal/auth"
	"pos-backend/internal/mw"
	"pos-backend/internal/store"
)

// itemsWithCategories is a pseudo-table joining items with their category name.
const itemsWithCategories = "items_with_categories"

// Credentials never leave the auth service.
var hiddenTables = map[string]bool{"users": true}

// Tables that grant privileges; only admins write them through the bridge.
var adminWriteTables = map[string]bool{"user_roles": true, "app_license": true}

// allowTable aborts the request when the session may not use table.
func allowTable(c *gin.Context, table string, write bool) bool {
	name := strings.ToLower(table)
	if hiddenTables[name] {
		mw.AbortWithError(c, http.StatusForbidden, "table "+table+" is not available")
		return false
	}
	if write && adminWriteTables[name] && currentSession(c).Role != auth.RoleAdmin {
		mw.AbortWithError(c, http.StatusForbidden, "admin role required")
		return false
	}
	return true
}

type selectRequest struct {
	Table     string      `json:"table" binding:"required"`
	Where     store.Where `json:"where"`
	OrderBy   string      `json:"orderBy"`
	Ascending *bool       `json:"ascending"`
	Limit     int         `json:"limit"`
}

type selectOneRequest struct {
	Table string      `json:"table" binding:"required"`
	Where store.Where `json:"where"`
}

type writeRequest struct {
	Table string      `json:"table" binding:"required"`
	Data  store.Row   `json:"data"`
	Where store.Where `json:"where"`
}

type rawRequest struct {
	SQL    string `json:"sql" binding:"required"`
	Params []any  `json:"params"`
}

// DBSelect handles POST /api/db/select.
func (h *Handler) DBSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !allowTable(c, req.Table, false) {
		return
	}

	if req.Table == itemsWithCategories {
		items, err := h.pos.ItemsWithCategories(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		respond(c, http.StatusOK, items)
		return
	}

	opts := store.SelectOptions{Where: req.Where, OrderBy: req.OrderBy, Limit: req.Limit}
	if req.Ascending != nil {
		opts.Descending = !*req.Ascending
	}
	rows, err := h.store.Select(c.Request.Context(), req.Table, opts)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rows)
}

// DBSelectOne handles POST /api/db/selectOne. No match is data null.
func (h *Handler) DBSelectOne(c *gin.Context) {
	var req selectOneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !allowTable(c, req.Table, false) {
		return
	}
	row, err := h.store.SelectOne(c.Request.Context(), req.Table, req.Where)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, row)
}

// DBInsert handles POST /api/db/insert.
func (h *Handler) DBInsert(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !allowTable(c, req.Table, true) {
		return
	}
	row, err := h.store.Insert(c.Request.Context(), req.Table, req.Data)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, row)
}

// DBUpdate handles POST /api/db/update and returns the rows after the write.
func (h *Handler) DBUpdate(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !allowTable(c, req.Table, true) {
		return
	}
	rows, err := h.store.Update(c.Request.Context(), req.Table, req.Data, req.Where)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rows)
}

// DBDelete handles POST /api/db/delete.
func (h *Handler) DBDelete(c *gin.Context) {
	var req writeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if !allowTable(c, req.Table, true) {
		return
	}
	if err := h.store.Delete(c.Request.Context(), req.Table, req.Where); err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, true)
}

// DBQuery handles POST /api/db/query. Admin only.
func (h *Handler) DBQuery(c *gin.Context) {
	var req rawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rows, err := h.store.Query(c.Request.Context(), req.SQL, req.Params...)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, rows)
}

// DBRun handles POST /api/db/run. Admin only.
func (h *Handler) DBRun(c *gin.Context) {
	var req rawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.store.Run(c.Request.Context(), req.SQL, req.Params...)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, res)
}
