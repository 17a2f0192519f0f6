package handler

import (
	"net/http"

	"vendapos/internal/dto"
	"vendapos/internal/middleware"
	"vendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type SaleHandler struct {
	checkout service.CheckoutService
}

func NewSaleHandler(checkout service.CheckoutService) *SaleHandler {
	return &SaleHandler{checkout: checkout}
}

// Checkout godoc
// @Summary  Finalize a sale
// @Description Commits the sale atomically. A request whose idempotency key
// @Description was already committed returns the stored sale with 200.
// @Tags     sales
// @Accept   json
// @Produce  json
// @Param    sale body dto.CheckoutRequest true "Checkout data"
// @Success  201 {object} dto.SaleResponse
// @Failure  409 {object} apierror.APIError "insufficient stock"
// @Failure  422 {object} apierror.APIError
// @Router   /v1/sales [post]
func (h *SaleHandler) Checkout(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}

	resp, err := h.checkout.Checkout(c.Request.Context(), userID, claimsRegister(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.checkout.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SaleHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	resp, err := h.checkout.List(c.Request.Context(), filter)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel requires an elevated credential in the body; the operator's own
// token is not enough.
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CancelSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.checkout.Cancel(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Sync replays a batch of checkouts recorded while the terminal was offline.
func (h *SaleHandler) Sync(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.SyncBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	results, err := h.checkout.SyncBatch(c.Request.Context(), userID, claimsRegister(c), req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Park stores a checkout for the retry cron instead of committing it now.
// Terminals call this when the interactive attempt hit an infrastructure
// error but the local queue is about to be wiped.
func (h *SaleHandler) Park(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.checkout.EnqueuePending(c.Request.Context(), userID, req, nil)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *SaleHandler) ListPending(c *gin.Context) {
	entries, err := h.checkout.ListPending(c.Request.Context(), c.Query("status"))
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, entries)
}

func claimsRegister(c *gin.Context) *int {
	claims := middleware.GetClaims(c)
	if claims == nil {
		return nil
	}
	return claims.RegisterID
}
