package handler

import (
	"net/http"
	"strconv"

	"vendapos/internal/apierror"
	"vendapos/internal/dto"
	"vendapos/internal/service"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessions service.SessionService
}

func NewSessionHandler(sessions service.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// Open godoc
// @Summary  Open a cash session on a register
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    session body dto.OpenSessionRequest true "Opening data"
// @Success  201 {object} dto.SessionResponse
// @Failure  409 {object} apierror.APIError "a session is already open"
// @Router   /v1/sessions [post]
func (h *SessionHandler) Open(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.OpenSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.Open(c.Request.Context(), userID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Current returns the open session for a register, 404-style when none.
func (h *SessionHandler) Current(c *gin.Context) {
	registerID, err := strconv.Atoi(c.Query("register_id"))
	if err != nil || registerID < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("register_id query parameter is required"))
		return
	}
	resp, err := h.sessions.Current(c.Request.Context(), registerID)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) AddResources(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AddResourcesRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.AddResources(c.Request.Context(), userID, sessionID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Close godoc
// @Summary  Close a cash session and produce its closure snapshot
// @Tags     sessions
// @Accept   json
// @Produce  json
// @Param    id path string true "Session id"
// @Param    body body dto.CloseSessionRequest true "Elevated authorization"
// @Success  200 {object} dto.ClosureResponse
// @Failure  401 {object} apierror.APIError "authorization rejected"
// @Router   /v1/sessions/{id}/close [post]
func (h *SessionHandler) Close(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	sessionID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req dto.CloseSessionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sessions.Close(c.Request.Context(), userID, sessionID, req)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	sessions, total, err := h.sessions.List(c.Request.Context(), page, limit)
	if err != nil {
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": sessions, "total": total, "page": page, "limit": limit})
}
