package meeting

import (
	"net/http"

	"tutorslot/internal/api"
	"tutorslot/internal/auth"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Create godoc
// @Summary      Open the video room for a booking
// @Description  Returns the open room if one exists. Either participant may call it.
// @Tags         meetings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body meeting.CreateRequest true "Booking"
// @Success      201 {object} meeting.Room
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /meetings [post]
func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req CreateRequest
	if !api.BindJSON(c, &req) {
		return
	}

	room, err := h.service.Create(c.Request.Context(), userID, req.BookingID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, room)
}

// @Summary      Join a room
// @Tags         meetings
// @Produce      json
// @Security     BearerAuth
// @Param        meetingID path string true "Meeting ID"
// @Success      200 {object} meeting.RoomState
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /meetings/{meetingID}/join [post]
func (h *Handler) Join(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	state, err := h.service.Join(c.Request.Context(), userID, c.Param("meetingID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary      Leave a room
// @Tags         meetings
// @Security     BearerAuth
// @Param        meetingID path string true "Meeting ID"
// @Success      204
// @Failure      404 {object} api.ErrorResponse
// @Router       /meetings/{meetingID}/leave [post]
func (h *Handler) Leave(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	if err := h.service.Leave(c.Request.Context(), userID, c.Param("meetingID")); err != nil {
		api.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      Who is in the room
// @Tags         meetings
// @Produce      json
// @Security     BearerAuth
// @Param        meetingID path string true "Meeting ID"
// @Success      200 {object} meeting.RoomState
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /meetings/{meetingID}/participants [get]
func (h *Handler) Participants(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	state, err := h.service.Participants(c.Request.Context(), userID, c.Param("meetingID"))
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// @Summary      End a room
// @Tags         meetings
// @Security     BearerAuth
// @Param        meetingID path string true "Meeting ID"
// @Success      204
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /meetings/{meetingID} [delete]
func (h *Handler) End(c *gin.Context) {
	userID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	if err := h.service.End(c.Request.Context(), userID, c.Param("meetingID")); err != nil {
		api.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
