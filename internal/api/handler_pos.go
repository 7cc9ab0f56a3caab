package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"pos-backend/internal/pos"
)

// Checkout handles POST /api/pos/checkout. The cashier is the session user.
func (h *Handler) Checkout(c *gin.Context) {
	var req pos.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.CashierID = currentSession(c).User.ID
	receipt, err := h.pos.Checkout(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, receipt)
}

// CreatePurchase handles POST /api/pos/purchases.
func (h *Handler) CreatePurchase(c *gin.Context) {
	var req pos.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.CreatedBy = currentSession(c).User.ID
	doc, err := h.pos.CreatePurchase(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, doc)
}

// PostPurchase handles POST /api/pos/purchases/:id/post.
func (h *Handler) PostPurchase(c *gin.Context) {
	purchase, err := h.pos.PostPurchase(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, purchase)
}

// CreateReturn handles POST /api/pos/returns.
func (h *Handler) CreateReturn(c *gin.Context) {
	var req pos.ReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.CreatedBy = currentSession(c).User.ID
	doc, err := h.pos.CreateReturn(c.Request.Context(), req)
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusCreated, doc)
}

// ListItems handles GET /api/pos/items.
func (h *Handler) ListItems(c *gin.Context) {
	items, err := h.pos.ItemsWithCategories(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}

// NextItemCode handles GET /api/pos/items/next-code?category_id=.
func (h *Handler) NextItemCode(c *gin.Context) {
	code, err := h.pos.NextItemCode(c.Request.Context(), c.Query("category_id"))
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, gin.H{"code": code})
}

// LowStockItems handles GET /api/pos/items/low-stock.
func (h *Handler) LowStockItems(c *gin.Context) {
	items, err := h.pos.LowStockItems(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, items)
}
