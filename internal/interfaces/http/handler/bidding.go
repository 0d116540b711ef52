package handler

import (
	auctionapp "github.com/Schooleo/BIF-AuctionHouse-sub000/internal/application/auction"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// BiddingHandler handles bid placement and proxy instruction endpoints
type BiddingHandler struct {
	BaseHandler
	bidding *auctionapp.BiddingService
	lots    *auctionapp.LotService
}

// NewBiddingHandler creates a new BiddingHandler
func NewBiddingHandler(bidding *auctionapp.BiddingService, lots *auctionapp.LotService) *BiddingHandler {
	return &BiddingHandler{bidding: bidding, lots: lots}
}

// RegisterRoutes registers bidding routes on the API group
func (h *BiddingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lots := rg.Group("/lots/:id")
	{
		lots.POST("/bids", h.PlaceBid)
		lots.PUT("/proxy", h.SetProxy)
		lots.GET("/proxy", h.GetProxy)
		lots.DELETE("/proxy", h.CancelProxy)
		lots.POST("/proxy/ack", h.AcknowledgeProxy)
	}
}

// PlaceBid places a manual bid on a lot
func (h *BiddingHandler) PlaceBid(c *gin.Context) {
	lotID, bidderID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	var req auctionapp.PlaceBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.bidding.PlaceBid(c.Request.Context(), lotID, bidderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// SetProxy registers or raises the caller's proxy instruction on a lot
func (h *BiddingHandler) SetProxy(c *gin.Context) {
	lotID, bidderID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	var req auctionapp.SetProxyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.bidding.SetProxy(c.Request.Context(), lotID, bidderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// GetProxy returns the caller's instruction on a lot
func (h *BiddingHandler) GetProxy(c *gin.Context) {
	lotID, bidderID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	proxy, err := h.lots.GetProxy(c.Request.Context(), lotID, bidderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, proxy)
}

// AcknowledgeProxy marks the lot's current bid history as seen
func (h *BiddingHandler) AcknowledgeProxy(c *gin.Context) {
	lotID, bidderID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	proxy, err := h.bidding.AcknowledgeProxy(c.Request.Context(), lotID, bidderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, proxy)
}

// CancelProxy deactivates the caller's instruction on a lot
func (h *BiddingHandler) CancelProxy(c *gin.Context) {
	lotID, bidderID, ok := h.lotAndUser(c)
	if !ok {
		return
	}

	if err := h.bidding.CancelProxy(c.Request.Context(), lotID, bidderID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *BiddingHandler) lotAndUser(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
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
