package handler

import (
	"vaultmarket/internal/adapter/http/dto"
	"vaultmarket/internal/adapter/http/middleware"
	"vaultmarket/internal/core/domain"
	"vaultmarket/internal/core/ports"
	"vaultmarket/pkg/apperror"
	"vaultmarket/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CheckoutHandler handles the settlement endpoints.
type CheckoutHandler struct {
	settlementSvc ports.SettlementService
	feeSvc        ports.FeeService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(settlementSvc ports.SettlementService, feeSvc ports.FeeService) *CheckoutHandler {
	return &CheckoutHandler{
		settlementSvc: settlementSvc,
		feeSvc:        feeSvc,
	}
}

// Checkout handles POST /api/v1/checkout.
func (h *CheckoutHandler) Checkout(c *gin.Context) {
	buyerID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, apperror.ErrNotAuthenticated())
		return
	}

	var req dto.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	listingID, err := uuid.Parse(req.ListingID)
	if err != nil {
		response.Error(c, apperror.Validation("invalid listing_id"))
		return
	}

	order, err := h.settlementSvc.Checkout(c.Request.Context(), ports.CheckoutRequest{
		BuyerID:        buyerID,
		ListingID:      listingID,
		DeliveryOption: domain.DeliveryOption(req.DeliveryOption),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, dto.FromOrder(order))
}

// Estimate handles GET /api/v1/checkout/estimate. It is a public,
// non-committing price display.
func (h *CheckoutHandler) Estimate(c *gin.Context) {
	var req dto.EstimateRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.Error(c, apperror.Validation(err.Error()))
		return
	}

	basePrice, err := decimal.NewFromString(req.BasePrice)
	if err != nil || !basePrice.IsPositive() {
		response.Error(c, apperror.ErrInvalidAmount())
		return
	}

	buyerTier := domain.TierStandard
	if req.BuyerTier != "" {
		buyerTier = domain.Tier(req.BuyerTier)
	}
	sellerTier := domain.TierStandard
	if req.SellerTier != "" {
		sellerTier = domain.Tier(req.SellerTier)
	}

	fees := h.feeSvc.Estimate(basePrice, buyerTier, sellerTier)
	response.OK(c, dto.FromFeeBreakdown(fees))
}
