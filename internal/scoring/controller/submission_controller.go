package controller

import (
	"strconv"
	"time"

	"flagforge/internal/scoring/repository"
	"flagforge/internal/scoring/service"
	"flagforge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// SubmissionController handles flag submission HTTP endpoints.
type SubmissionController struct {
	submissionService *service.SubmissionService
}

// NewSubmissionController creates a new SubmissionController.
func NewSubmissionController(submissionService *service.SubmissionService) *SubmissionController {
	return &SubmissionController{submissionService: submissionService}
}

// Submit handles a flag submission for a challenge.
func (h *SubmissionController) Submit(c *gin.Context) {
	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || challengeID <= 0 {
		response.BadRequest(c, "Invalid challenge id")
		return
	}

	var req SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	result, err := h.submissionService.Submit(c.Request.Context(), service.SubmitInput{
		UserID:      c.GetInt64("user_id"),
		Username:    c.GetString("username"),
		ChallengeID: challengeID,
		Attempt:     req.Flag,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, SubmitResponse{
		SubmissionID:   result.SubmissionID,
		ChallengeID:    result.ChallengeID,
		ChallengeTitle: result.ChallengeTitle,
		Correct:        result.Correct,
		AwardedPoints:  result.AwardedPoints,
		SubmittedAt:    result.SubmittedAt.UTC().Format(time.RFC3339),
	})
}

// List handles the caller's full submission history.
func (h *SubmissionController) List(c *gin.Context) {
	views, err := h.submissionService.ListByUser(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toSubmissionResponses(views))
}

// ListSolved handles the caller's correct submissions.
func (h *SubmissionController) ListSolved(c *gin.Context) {
	views, err := h.submissionService.ListSolvedByUser(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, toSubmissionResponses(views))
}

// SubmitRequest defines the flag submission payload.
type SubmitRequest struct {
	Flag string `json:"flag" binding:"required"`
}

// SubmitResponse defines the flag submission response payload.
type SubmitResponse struct {
	SubmissionID   string `json:"submission_id"`
	ChallengeID    int64  `json:"challenge_id"`
	ChallengeTitle string `json:"challenge_title"`
	Correct        bool   `json:"correct"`
	AwardedPoints  int    `json:"awarded_points"`
	SubmittedAt    string `json:"submitted_at"`
}

// SubmissionResponse defines one history row.
type SubmissionResponse struct {
	ID             string `json:"id"`
	ChallengeID    int64  `json:"challenge_id"`
	ChallengeTitle string `json:"challenge_title"`
	Correct        bool   `json:"correct"`
	AwardedPoints  int    `json:"awarded_points"`
	SubmittedAt    string `json:"submitted_at"`
}

func toSubmissionResponses(views []*repository.SubmissionView) []SubmissionResponse {
	out := make([]SubmissionResponse, 0, len(views))
	for _, view := range views {
		out = append(out, SubmissionResponse{
			ID:             view.ID,
			ChallengeID:    view.ChallengeID,
			ChallengeTitle: view.ChallengeTitle,
			Correct:        view.Correct,
			AwardedPoints:  view.AwardedPoints,
			SubmittedAt:    view.SubmittedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}
