package handler

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"tasktracker/internal/model"
	"tasktracker/internal/repository"

	"github.com/gin-gonic/gin"
)

const maxNameLength = 100

type ProfileHandler struct {
	repo repository.UserRepositoryInterface
}

func NewProfileHandler(repo repository.UserRepositoryInterface) *ProfileHandler {
	return &ProfileHandler{repo: repo}
}

// UpdateProfileRequest fields are trimmed; an empty value leaves the stored
// name unchanged.
type UpdateProfileRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

type ProfileResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
}

func toProfileResponse(user *model.User) ProfileResponse {
	return ProfileResponse{
		ID:        user.ID.String(),
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
}

// GetProfile godoc
// @Summary      Current user's profile
// @Tags         Profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]ProfileResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.repo.GetByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toProfileResponse(user)})
}

// UpdateProfile godoc
// @Summary      Update first and last name
// @Tags         Profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      UpdateProfileRequest  true  "Names"
// @Success      200   {object}  map[string]ProfileResponse
// @Failure      400   {object}  map[string]string
// @Router       /api/profile [put]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	changes := map[string]interface{}{}
	for column, value := range map[string]*string{"first_name": req.FirstName, "last_name": req.LastName} {
		if value == nil {
			continue
		}
		trimmed := strings.TrimSpace(*value)
		if trimmed == "" {
			continue
		}
		if utf8.RuneCountInString(trimmed) > maxNameLength {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Name must be at most 100 characters"})
			return
		}
		changes[column] = trimmed
	}

	user, err := h.repo.UpdateProfile(c.Request.Context(), userID, changes)
	if errors.Is(err, repository.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"profile": toProfileResponse(user)})
}
