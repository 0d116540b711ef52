package handler

import (
	auctionapp "github.com/Schooleo/BIF-AuctionHouse-sub000/internal/application/auction"
	"github.com/Schooleo/BIF-AuctionHouse-sub000/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LotHandler handles lot catalog endpoints
type LotHandler struct {
	BaseHandler
	lots *auctionapp.LotService
}

// NewLotHandler creates a new LotHandler
func NewLotHandler(lots *auctionapp.LotService) *LotHandler {
	return &LotHandler{lots: lots}
}

// RegisterRoutes registers lot routes on the API group
func (h *LotHandler) RegisterRoutes(rg *gin.RouterGroup) {
	lots := rg.Group("/lots")
	{
		lots.POST("", h.Create)
		lots.GET("", h.List)
		lots.GET("/:id", h.GetByID)
		lots.GET("/:id/bids", h.ListBids)
	}
}

// Create publishes a new lot owned by the caller
func (h *LotHandler) Create(c *gin.Context) {
	sellerID, err := getUserID(c)
	if err != nil {
		h.Unauthorized(c, "Missing user identity")
		return
	}

	var req auctionapp.CreateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	lot, err := h.lots.Create(c.Request.Context(), sellerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, lot)
}

// GetByID returns the lot's live state
func (h *LotHandler) GetByID(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	lot, err := h.lots.GetByID(c.Request.Context(), lotID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, lot)
}

// List returns lots matching the query
func (h *LotHandler) List(c *gin.Context) {
	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	filter := auctionapp.LotListFilter{
		Status:   c.Query("status"),
		Page:     listReq.Page,
		PageSize: listReq.PageSize,
		OrderBy:  listReq.OrderBy,
		OrderDir: listReq.OrderDir,
	}
	if sellerStr := c.Query("seller_id"); sellerStr != "" {
		sellerID, err := uuid.Parse(sellerStr)
		if err != nil {
			h.BadRequest(c, "Invalid seller ID format")
			return
		}
		filter.SellerID = &sellerID
	}

	lots, total, err := h.lots.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, lots, total, filter.Page, filter.PageSize)
}

// ListBids returns the lot's bid ledger
func (h *LotHandler) ListBids(c *gin.Context) {
	lotID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid lot ID format")
		return
	}

	listReq := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&listReq); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if listReq.Page == 0 {
		listReq.Page = 1
	}
	if listReq.PageSize == 0 {
		listReq.PageSize = 20
	}

	bids, total, err := h.lots.ListBids(c.Request.Context(), lotID, listReq.Page, listReq.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, bids, total, listReq.Page, listReq.PageSize)
}
