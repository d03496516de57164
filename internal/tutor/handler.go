package tutor

import (
	"net/http"
	"strconv"

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

// @Summary      List tutors
// @Tags         tutors
// @Produce      json
// @Success      200 {array} tutor.Profile
// @Failure      500 {object} api.ErrorResponse
// @Router       /tutors [get]
func (h *Handler) ListTutors(c *gin.Context) {
	tutors, err := h.service.ListTutors(c.Request.Context())
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tutors)
}

// @Summary      Get tutor profile
// @Tags         tutors
// @Produce      json
// @Param        tutorID path int true "Tutor ID"
// @Success      200 {object} tutor.Profile
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutors/{tutorID} [get]
func (h *Handler) GetTutor(c *gin.Context) {
	tutorID, ok := api.ParamInt(c, "tutorID")
	if !ok {
		return
	}

	p, err := h.service.GetProfile(c.Request.Context(), tutorID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      Bookable start times
// @Description  Start times on the given date at which a lesson of the given length fits the tutor's availability.
// @Tags         tutors
// @Produce      json
// @Param        tutorID  path  int     true  "Tutor ID"
// @Param        date     query string  true  "Date (YYYY-MM-DD)"
// @Param        duration query int     false "Lesson length in minutes"
// @Success      200 {object} tutor.SlotsResponse
// @Failure      400 {object} api.ErrorResponse
// @Router       /tutors/{tutorID}/slots [get]
func (h *Handler) GetSlots(c *gin.Context) {
	tutorID, ok := api.ParamInt(c, "tutorID")
	if !ok {
		return
	}

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "date is required"})
		return
	}

	duration := 0
	if raw := c.Query("duration"); raw != "" {
		d, err := strconv.Atoi(raw)
		if err != nil || d <= 0 {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "duration must be a positive integer"})
			return
		}
		duration = d
	}

	resp, err := h.service.AvailableSlots(c.Request.Context(), tutorID, date, duration)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Update own tutor profile
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body tutor.UpsertProfileRequest true "Profile"
// @Success      200 {object} tutor.Profile
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Router       /tutor/profile [put]
func (h *Handler) UpsertProfile(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req UpsertProfileRequest
	if !api.BindJSON(c, &req) {
		return
	}

	p, err := h.service.UpsertProfile(c.Request.Context(), tutorID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary      List own availability rules
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} tutor.AvailabilityRule
// @Router       /tutor/availability [get]
func (h *Handler) ListRules(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	rules, err := h.service.ListRules(c.Request.Context(), tutorID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rules)
}

// @Summary      Add availability rule
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body tutor.RuleRequest true "Weekly window"
// @Success      201 {object} tutor.AvailabilityRule
// @Failure      400 {object} api.ErrorResponse
// @Router       /tutor/availability [post]
func (h *Handler) CreateRule(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req RuleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), tutorID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rule)
}

// @Summary      Replace availability rule
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        ruleID  path int               true "Rule ID"
// @Param        request body tutor.RuleRequest true "Weekly window"
// @Success      200 {object} tutor.AvailabilityRule
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutor/availability/{ruleID} [put]
func (h *Handler) UpdateRule(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	ruleID, ok := api.ParamInt(c, "ruleID")
	if !ok {
		return
	}
	var req RuleRequest
	if !api.BindJSON(c, &req) {
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), tutorID, ruleID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rule)
}

// @Summary      Delete availability rule
// @Tags         tutor
// @Security     BearerAuth
// @Param        ruleID path int true "Rule ID"
// @Success      204
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutor/availability/{ruleID} [delete]
func (h *Handler) DeleteRule(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	ruleID, ok := api.ParamInt(c, "ruleID")
	if !ok {
		return
	}

	if err := h.service.DeleteRule(c.Request.Context(), tutorID, ruleID); err != nil {
		api.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary      List own blocked intervals
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} tutor.BlockedInterval
// @Router       /tutor/blocked [get]
func (h *Handler) ListBlocked(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	blocked, err := h.service.ListBlocked(c.Request.Context(), tutorID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, blocked)
}

// @Summary      Block a time range
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body tutor.BlockedRequest true "Absolute interval"
// @Success      201 {object} tutor.BlockedInterval
// @Failure      400 {object} api.ErrorResponse
// @Router       /tutor/blocked [post]
func (h *Handler) CreateBlocked(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req BlockedRequest
	if !api.BindJSON(c, &req) {
		return
	}

	b, err := h.service.CreateBlocked(c.Request.Context(), tutorID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// @Summary      Remove a blocked interval
// @Tags         tutor
// @Security     BearerAuth
// @Param        blockedID path int true "Blocked interval ID"
// @Success      204
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutor/blocked/{blockedID} [delete]
func (h *Handler) DeleteBlocked(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	blockedID, ok := api.ParamInt(c, "blockedID")
	if !ok {
		return
	}

	if err := h.service.DeleteBlocked(c.Request.Context(), tutorID, blockedID); err != nil {
		api.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
