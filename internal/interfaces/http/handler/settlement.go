package handler

import (
	auctionapp "github.com/Schooleo/BIF-AuctionHouse-sub000/internal/application/auction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SettlementHandler handles end-of-auction and settlement endpoints
type SettlementHandler struct {
	BaseHandler
	settling *auctionapp.SettlementService
}

// NewSettlementHandler creates a new SettlementHandler
func NewSettlementHandler(settling *auctionapp.SettlementService) *SettlementHandler {
	return &SettlementHandler{settling: settling}
}

// RegisterRoutes registers settlement routes on the API group
func (h *SettlementHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lots := rg.Group("/lots/:id")
	{
		lots.POST("/confirm", h.ConfirmWinner)
		lots.POST("/reject-leader", h.RejectLeader)
		lots.GET("/order", h.GetOrder)
	}
	orders := rg.Group("/orders")
	{
		orders.POST("/:id/cancel", h.CancelOrder)
	}
}

// ConfirmWinner settles an ended lot into an order for its leader
func (h *SettlementHandler) ConfirmWinner(c *gin.Context) {
	lotID, sellerID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	order, err := h.settling.ConfirmWinner(c.Request.Context(), lotID, sellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, order)
}

// RejectLeader denylists the current leader of an ended lot and recomputes
// the standing from the surviving bids
func (h *SettlementHandler) RejectLeader(c *gin.Context) {
	lotID, sellerID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	lot, err := h.settling.RejectLeader(c.Request.Context(), lotID, sellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lot)
}

// GetOrder returns the settlement order for a lot
func (h *SettlementHandler) GetOrder(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	order, err := h.settling.GetOrder(c.Request.Context(), lotID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// CancelOrder voids a settlement order, seller only
func (h *SettlementHandler) CancelOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	sellerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing user identity")
		return
	}

	order, err := h.settling.CancelOrder(c.Request.Context(), orderID, sellerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

func (h *SettlementHandler) lotAndUser(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return uuid.Nil, uuid.Nil, false
	}
	userID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing user identity")
		return uuid.Nil, uuid.Nil, false
	}
	return lotID, userID, true
}
