package homework

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

// Assign godoc
// @Summary      Assign homework to a student
// @Description  Files are referenced by URL. The student gets an email.
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body homework.AssignRequest true "Assignment"
// @Success      201 {object} homework.Assignment
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutor/homework [post]
func (h *Handler) Assign(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	var req AssignRequest
	if !api.BindJSON(c, &req) {
		return
	}

	a, err := h.service.Assign(c.Request.Context(), tutorID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// @Summary      Homework I assigned
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} homework.Assignment
// @Router       /tutor/homework [get]
func (h *Handler) ListAssigned(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	assignments, err := h.service.ListForTutor(c.Request.Context(), tutorID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// @Summary      My homework
// @Tags         homework
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} homework.Assignment
// @Router       /homework [get]
func (h *Handler) ListMine(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}

	assignments, err := h.service.ListForStudent(c.Request.Context(), studentID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, assignments)
}

// @Summary      Submit homework
// @Tags         homework
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        assignmentID path int true "Assignment ID"
// @Param        request body homework.SubmitRequest true "Submission"
// @Success      201 {object} homework.Submission
// @Failure      400 {object} api.ErrorResponse
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /homework/{assignmentID}/submissions [post]
func (h *Handler) Submit(c *gin.Context) {
	studentID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := api.ParamInt(c, "assignmentID")
	if !ok {
		return
	}
	var req SubmitRequest
	if !api.BindJSON(c, &req) {
		return
	}

	sub, err := h.service.Submit(c.Request.Context(), studentID, assignmentID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sub)
}

// @Summary      Submissions for an assignment
// @Tags         tutor
// @Produce      json
// @Security     BearerAuth
// @Param        assignmentID path int true "Assignment ID"
// @Success      200 {array} homework.Submission
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutor/homework/{assignmentID}/submissions [get]
func (h *Handler) ListSubmissions(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	assignmentID, ok := api.ParamInt(c, "assignmentID")
	if !ok {
		return
	}

	submissions, err := h.service.Submissions(c.Request.Context(), tutorID, assignmentID)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, submissions)
}

// @Summary      Grade a submission
// @Tags         tutor
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        submissionID path int true "Submission ID"
// @Param        request body homework.GradeRequest true "Grade"
// @Success      200 {object} homework.Submission
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Router       /tutor/submissions/{submissionID}/grade [post]
func (h *Handler) Grade(c *gin.Context) {
	tutorID, ok := auth.MustUserID(c)
	if !ok {
		return
	}
	submissionID, ok := api.ParamInt(c, "submissionID")
	if !ok {
		return
	}
	var req GradeRequest
	if !api.BindJSON(c, &req) {
		return
	}

	sub, err := h.service.Grade(c.Request.Context(), tutorID, submissionID, req)
	if err != nil {
		api.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sub)
}
