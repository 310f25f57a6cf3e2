package controller

import (
	"strconv"

	"flagforge/internal/challenge/service"
	"flagforge/pkg/utils/response"

	"github.com/gin-gonic/gin"
)

// ChallengeController handles challenge catalog HTTP endpoints.
type ChallengeController struct {
	challengeService *service.ChallengeService
}

// NewChallengeController creates a new ChallengeController.
func NewChallengeController(challengeService *service.ChallengeService) *ChallengeController {
	return &ChallengeController{challengeService: challengeService}
}

// List handles challenge listing with optional category and difficulty
// filters.
func (h *ChallengeController) List(c *gin.Context) {
	views, err := h.challengeService.List(
		c.Request.Context(),
		c.Query("category"),
		c.Query("difficulty"),
	)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, views)
}

// Get handles a single challenge query.
func (h *ChallengeController) Get(c *gin.Context) {
	challengeID, ok := parseID(c)
	if !ok {
		return
	}

	view, err := h.challengeService.GetByID(c.Request.Context(), challengeID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// Create handles challenge creation. Admin only.
func (h *ChallengeController) Create(c *gin.Context) {
	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	view, err := h.challengeService.Create(c.Request.Context(), service.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		Points:        req.Points,
		Flag:          req.Flag,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// Update handles challenge modification. Admin only.
func (h *ChallengeController) Update(c *gin.Context) {
	challengeID, ok := parseID(c)
	if !ok {
		return
	}

	var req ChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request parameters")
		return
	}

	view, err := h.challengeService.Update(c.Request.Context(), challengeID, service.UpdateInput{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Difficulty:    req.Difficulty,
		Points:        req.Points,
		Flag:          req.Flag,
		AttachmentURL: req.AttachmentURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, view)
}

// Delete handles challenge removal. Admin only.
func (h *ChallengeController) Delete(c *gin.Context) {
	challengeID, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.challengeService.Delete(c.Request.Context(), challengeID); err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMessage(c, "Delete success", nil)
}

func parseID(c *gin.Context) (int64, bool) {
	challengeID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || challengeID <= 0 {
		response.BadRequest(c, "Invalid challenge id")
		return 0, false
	}
	return challengeID, true
}

// ChallengeRequest defines the create and update payload. Flag is
// write-only: it is hashed on arrival and never echoed back.
type ChallengeRequest struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description"`
	Category      string `json:"category" binding:"required"`
	Difficulty    string `json:"difficulty" binding:"required"`
	Points        int    `json:"points"`
	Flag          string `json:"flag"`
	AttachmentURL string `json:"attachment_url"`
}
