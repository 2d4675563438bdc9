package handler

import (
	"net/http"
	"strconv"
	"time"

	"circleup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// FriendRequestResponse describes one edge of the friendship ledger as seen
// from the requesting side.
type FriendRequestResponse struct {
	ID         uint       `json:"id"`
	User       UserCard   `json:"user"`
	CreatedAt  time.Time  `json:"created_at"`
	AcceptedAt *time.Time `json:"accepted_at,omitempty"`
}

// UserCard is the compact user summary embedded in lists.
type UserCard struct {
	ID          uint   `json:"id"`
	Nickname    string `json:"nickname"`
	DisplayName string `json:"display_name,omitempty"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

func newUserCard(user models.User) UserCard {
	return UserCard{
		ID:          user.ID,
		Nickname:    user.Nickname,
		DisplayName: user.DisplayName,
		AvatarURL:   user.AvatarURL,
	}
}

// RelationsOverviewResponse buckets a user's edges by state and direction.
type RelationsOverviewResponse struct {
	Friends  []FriendRequestResponse `json:"friends"`
	Incoming []FriendRequestResponse `json:"incoming_requests"`
	Outgoing []FriendRequestResponse `json:"outgoing_requests"`
}

func newFriendRequestResponse(edge models.Friendship, viewerID uint) FriendRequestResponse {
	other := edge.Requester
	if edge.RequesterID == viewerID {
		other = edge.Addressee
	}
	return FriendRequestResponse{
		ID:         edge.ID,
		User:       newUserCard(other),
		CreatedAt:  edge.CreatedAt,
		AcceptedAt: edge.AcceptedAt,
	}
}

// endregion

// SendFriendRequest godoc
// @Summary      Send friend request
// @Description  Sends a friend request to another user. If that user already has a pending request toward the sender, the pair is auto-accepted.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      201  {object}  map[string]string "{"status": "pending_sent"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Target user not found"
// @Failure      409  {object}  ErrorResponse "Already friends or request already sent"
// @Router       /users/{id}/request [post]
func SendFriendRequest(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	status, err := friendSvc.Request(c.Request.Context(), viewerID.(uint), uint(targetUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"status": string(status)})
}

// AcceptFriendRequest godoc
// @Summary      Accept friend request
// @Description  Accepts a pending friend request. Only the invited party may respond.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request accepted"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the invited party"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Already processed"
// @Router       /friendships/{id}/accept [post]
func AcceptFriendRequest(c *gin.Context) {
	respondToFriendRequest(c, true, "Request accepted")
}

// DeclineFriendRequest godoc
// @Summary      Decline friend request
// @Description  Declines a pending friend request. The edge is kept so either party can re-send later.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  map[string]string "{"message": "Request declined"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      403  {object}  ErrorResponse "Not the invited party"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Already processed"
// @Router       /friendships/{id}/decline [post]
func DeclineFriendRequest(c *gin.Context) {
	respondToFriendRequest(c, false, "Request declined")
}

func respondToFriendRequest(c *gin.Context, accept bool, message string) {
	viewerID, _ := c.Get("userID")
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	if err := friendSvc.Respond(c.Request.Context(), viewerID.(uint), uint(requestID), accept); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// RemoveFriend godoc
// @Summary      Remove friend
// @Description  Deletes the relationship with another user outright, whatever its state. A later request starts fresh.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      200  {object}  map[string]string "{"message": "Relation removed"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Relation not found"
// @Router       /users/{id}/remove [post]
func RemoveFriend(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	if err := friendSvc.Remove(c.Request.Context(), viewerID.(uint), uint(targetUserID)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Relation removed"})
}

// GetRelations godoc
// @Summary      Get relations overview
// @Description  Lists the current user's friends and pending requests by direction.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  RelationsOverviewResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/me/relations [get]
func GetRelations(c *gin.Context) {
	viewerID, _ := c.Get("userID")

	overview, err := friendSvc.Overview(c.Request.Context(), viewerID.(uint))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := RelationsOverviewResponse{
		Friends:  []FriendRequestResponse{},
		Incoming: []FriendRequestResponse{},
		Outgoing: []FriendRequestResponse{},
	}
	for _, e := range overview.Friends {
		resp.Friends = append(resp.Friends, newFriendRequestResponse(e, viewerID.(uint)))
	}
	for _, e := range overview.Incoming {
		resp.Incoming = append(resp.Incoming, newFriendRequestResponse(e, viewerID.(uint)))
	}
	for _, e := range overview.Outgoing {
		resp.Outgoing = append(resp.Outgoing, newFriendRequestResponse(e, viewerID.(uint)))
	}

	c.JSON(http.StatusOK, resp)
}

// GetRelationStatus godoc
// @Summary      Get relation status with a user
// @Description  Returns the viewer-relative friendship status for one other user.
// @Tags         friendship
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Target User ID"
// @Success      200  {object}  map[string]string "{"status": "friends"}"
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /users/{id}/relation [get]
func GetRelationStatus(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	targetUserID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target user ID"})
		return
	}

	status, err := friendSvc.Status(c.Request.Context(), viewerID.(uint), uint(targetUserID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": string(status)})
}
