package handler

import (
	"net/http"
	"strconv"

	"vendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type ClosureHandler struct {
	closures service.ClosureService
}

func NewClosureHandler(closures service.ClosureService) *ClosureHandler {
	return &ClosureHandler{closures: closures}
}

func (h *ClosureHandler) Get(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.closures.Get(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClosureHandler) GetBySession(c *gin.Context) {
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.closures.GetBySession(c.Request.Context(), sessionID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ClosureHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	closures, total, err := h.closures.List(c.Request.Context(), page, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": closures, "total": total, "page": page, "limit": limit})
}
