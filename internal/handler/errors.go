package handler

import (
	"errors"
	"net/http"

	"circleup/backend/internal/domain"

	"github.com/gin-gonic/gin"
)

// abortWithError maps typed domain errors to HTTP statuses. Anything
// unrecognized is a 500; the gorm logger already recorded the cause.
func abortWithError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, domain.ErrUnauthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not allowed"})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
	case errors.Is(err, domain.ErrAlreadyFriends):
		c.JSON(http.StatusConflict, gin.H{"error": "Already friends"})
	case errors.Is(err, domain.ErrRequestSent):
		c.JSON(http.StatusConflict, gin.H{"error": "Request already sent"})
	case errors.Is(err, domain.ErrAlreadyProcessed):
		c.JSON(http.StatusConflict, gin.H{"error": "Already processed"})
	case errors.Is(err, domain.ErrAlreadyMember):
		c.JSON(http.StatusConflict, gin.H{"error": "Already a member"})
	case errors.Is(err, domain.ErrNotAMember):
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
	case errors.Is(err, domain.ErrGroupDisbanded):
		c.JSON(http.StatusGone, gin.H{"error": "Group has been disbanded"})
	case errors.Is(err, domain.ErrLeaderCannotLeave):
		c.JSON(http.StatusConflict, gin.H{"error": "Leader must transfer leadership or disband first"})
	case errors.Is(err, domain.ErrCannotKickSelf):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Leader cannot kick themselves"})
	case errors.Is(err, domain.ErrTargetNotMember):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Target is not a member"})
	case errors.Is(err, domain.ErrDepthExceeded):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Repost chain too deep"})
	case errors.Is(err, domain.ErrUserDeactivated):
		c.JSON(http.StatusGone, gin.H{"error": "User is deactivated"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
