package handler

import (
	"net/http"
	"strconv"
	"time"

	"circleup/backend/internal/database"
	"circleup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type GroupInput struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	TagIDs      []uint `json:"tag_ids"` // IDs of the tags to associate with the group
}

type GroupUpdateInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	PortraitURL *string `json:"portrait_url"`
}

type InviteInput struct {
	InviteeID uint `json:"invitee_id" binding:"required"`
}

type KickInput struct {
	UserIDs []uint `json:"user_ids" binding:"required"`
}

type TransferInput struct {
	NewLeaderID uint `json:"new_leader_id" binding:"required"`
}

type GroupResponse struct {
	ID          uint          `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	PortraitURL string        `json:"portrait_url,omitempty"`
	LeaderID    uint          `json:"leader_id"`
	IsDisbanded bool          `json:"is_disbanded"`
	Tags        []TagResponse `json:"tags"`
	CreatedAt   time.Time     `json:"created_at"`
}

type GroupMemberResponse struct {
	User     UserCard  `json:"user"`
	IsLeader bool      `json:"is_leader"`
	JoinedAt time.Time `json:"joined_at"`
}

type InvitationResponse struct {
	ID        uint                    `json:"id"`
	GroupID   uint                    `json:"group_id"`
	GroupName string                  `json:"group_name"`
	Inviter   UserCard                `json:"inviter"`
	Status    models.InvitationStatus `json:"status"`
	CreatedAt time.Time               `json:"created_at"`
}

func newGroupResponse(group models.Group) GroupResponse {
	var tagResponses []TagResponse
	for _, tag := range group.Tags {
		if tag != nil {
			tagResponses = append(tagResponses, newTagResponse(*tag))
		}
	}

	return GroupResponse{
		ID:          group.ID,
		Name:        group.Name,
		Description: group.Description,
		PortraitURL: group.PortraitURL,
		LeaderID:    group.LeaderID,
		IsDisbanded: group.IsDisbanded,
		Tags:        tagResponses,
		CreatedAt:   group.CreatedAt,
	}
}

// endregion

// CreateGroup godoc
// @Summary      Create a new group
// @Description  Founds a group. The creator becomes leader and first member atomically.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GroupInput true "Group Info"
// @Success      201  {object}  GroupResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /groups [post]
func CreateGroup(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input GroupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var tags []*models.Tag
	if len(input.TagIDs) > 0 {
		if err := database.DB.Find(&tags, input.TagIDs).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid tag IDs"})
			return
		}
	}

	group, err := groupSvc.Create(c.Request.Context(), userID.(uint), input.Name, input.Description, tags)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newGroupResponse(*group))
}

// SearchGroups godoc
// @Summary      Search for groups
// @Description  Gets a paginated list of active groups, optionally filtered by name.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        q     query string false "Search query for group name"
// @Param        page  query int    false "Page number" default(1)
// @Param        limit query int    false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[GroupResponse]
// @Router       /groups [get]
func SearchGroups(c *gin.Context) {
	page, limit := pageParams(c)

	var groups []models.Group
	var totalItems int64

	query := database.DB.Model(&models.Group{}).Where("is_disbanded = ?", false)
	if q := c.Query("q"); q != "" {
		query = query.Where("name ILIKE ?", "%"+q+"%")
	}

	if err := query.Count(&totalItems).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count groups"})
		return
	}
	if err := query.Preload("Tags").Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).Find(&groups).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve groups"})
		return
	}

	responses := []GroupResponse{}
	for _, group := range groups {
		responses = append(responses, newGroupResponse(group))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, totalItems, page, limit))
}

// GetGroupByID godoc
// @Summary      Get a group by ID
// @Description  Gets full details for a single group, including its roster.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} GroupResponse
// @Failure      404 {object} ErrorResponse "Group not found"
// @Router       /groups/{id} [get]
func GetGroupByID(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var group models.Group
	if err := database.DB.Preload("Tags").First(&group, uint(groupID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	c.JSON(http.StatusOK, newGroupResponse(group))
}

// GetGroupMembers godoc
// @Summary      List group members
// @Description  Lists the current roster of a group. Disbanded groups read as empty.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {array} GroupMemberResponse
// @Failure      404 {object} ErrorResponse "Group not found"
// @Router       /groups/{id}/members [get]
func GetGroupMembers(c *gin.Context) {
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var group models.Group
	if err := database.DB.First(&group, uint(groupID)).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Group not found"})
		return
	}

	members, err := groupSvc.Members(c.Request.Context(), uint(groupID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := []GroupMemberResponse{}
	for _, m := range members {
		responses = append(responses, GroupMemberResponse{
			User:     newUserCard(m.User),
			IsLeader: m.UserID == group.LeaderID,
			JoinedAt: m.JoinedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// JoinGroup godoc
// @Summary      Join a group
// @Description  Joins an active group. Former members may rejoin freely.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} map[string]string "{"message": "Joined group successfully"}"
// @Failure      404 {object} ErrorResponse "Group not found"
// @Failure      409 {object} ErrorResponse "Already a member"
// @Failure      410 {object} ErrorResponse "Group disbanded"
// @Router       /groups/{id}/join [post]
func JoinGroup(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	if err := groupSvc.Join(c.Request.Context(), uint(groupID), userID.(uint)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Joined group successfully"})
}

// LeaveGroup godoc
// @Summary      Leave a group
// @Description  Leaves a group. The leader must transfer leadership or disband instead.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} map[string]string "{"message": "Left group successfully"}"
// @Failure      403 {object} ErrorResponse "Not a member"
// @Failure      404 {object} ErrorResponse "Group not found"
// @Failure      409 {object} ErrorResponse "Leader cannot leave"
// @Router       /groups/{id}/leave [post]
func LeaveGroup(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	if err := groupSvc.Leave(c.Request.Context(), uint(groupID), userID.(uint)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left group successfully"})
}

// UpdateGroup godoc
// @Summary      Update a group (Leader only)
// @Description  Renames a group or changes its portrait. Only the leader can perform this action.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      int              true  "Group ID"
// @Param        input body      GroupUpdateInput true  "New Group Info"
// @Success      200   {object}  GroupResponse
// @Failure      403   {object}  ErrorResponse "Only the leader can update the group"
// @Failure      404   {object}  ErrorResponse "Group not found"
// @Router       /groups/{id} [put]
func UpdateGroup(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var input GroupUpdateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := groupSvc.Update(c.Request.Context(), uint(groupID), userID.(uint),
		input.Name, input.Description, input.PortraitURL); err != nil {
		abortWithError(c, err)
		return
	}

	var group models.Group
	database.DB.Preload("Tags").First(&group, uint(groupID))
	c.JSON(http.StatusOK, newGroupResponse(group))
}

// InviteToGroup godoc
// @Summary      Invite a user to a group
// @Description  Creates or refreshes a pending invitation. The inviter must be a current member.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int         true "Group ID"
// @Param        input body InviteInput true "Invitee"
// @Success      201 {object} map[string]string "{"message": "Invitation sent"}"
// @Failure      403 {object} ErrorResponse "Inviter is not a member"
// @Failure      404 {object} ErrorResponse "Group or user not found"
// @Failure      409 {object} ErrorResponse "Invitee is already a member"
// @Failure      410 {object} ErrorResponse "Group disbanded"
// @Router       /groups/{id}/invite [post]
func InviteToGroup(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var input InviteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := groupSvc.Invite(c.Request.Context(), uint(groupID), userID.(uint), input.InviteeID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Invitation sent"})
}

// GetMyInvitations godoc
// @Summary      List my group invitations
// @Description  Lists the current user's group invitations, pending first.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} InvitationResponse
// @Router       /invitations [get]
func GetMyInvitations(c *gin.Context) {
	userID, _ := c.Get("userID")

	invitations, err := groupSvc.InvitationsFor(c.Request.Context(), userID.(uint))
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := []InvitationResponse{}
	for _, inv := range invitations {
		responses = append(responses, InvitationResponse{
			ID:        inv.ID,
			GroupID:   inv.GroupID,
			GroupName: inv.Group.Name,
			Inviter:   newUserCard(inv.Inviter),
			Status:    inv.Status,
			CreatedAt: inv.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}

// AcceptInvitation godoc
// @Summary      Accept a group invitation
// @Description  Accepts a pending invitation and joins the group. Tolerates having joined directly in the meantime.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Invitation ID"
// @Success      200 {object} map[string]string "{"message": "Invitation accepted"}"
// @Failure      403 {object} ErrorResponse "Not the invitee"
// @Failure      404 {object} ErrorResponse "Invitation not found"
// @Failure      409 {object} ErrorResponse "Already processed"
// @Failure      410 {object} ErrorResponse "Group disbanded"
// @Router       /invitations/{id}/accept [post]
func AcceptInvitation(c *gin.Context) {
	respondToInvitation(c, true, "Invitation accepted")
}

// DeclineInvitation godoc
// @Summary      Decline a group invitation
// @Description  Declines a pending invitation. A member may re-invite later.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Invitation ID"
// @Success      200 {object} map[string]string "{"message": "Invitation declined"}"
// @Failure      403 {object} ErrorResponse "Not the invitee"
// @Failure      404 {object} ErrorResponse "Invitation not found"
// @Failure      409 {object} ErrorResponse "Already processed"
// @Router       /invitations/{id}/decline [post]
func DeclineInvitation(c *gin.Context) {
	respondToInvitation(c, false, "Invitation declined")
}

func respondToInvitation(c *gin.Context, accept bool, message string) {
	userID, _ := c.Get("userID")
	invitationID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid invitation ID"})
		return
	}

	if err := groupSvc.RespondInvitation(c.Request.Context(), userID.(uint), uint(invitationID), accept); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message})
}

// KickMembers godoc
// @Summary      Kick members from a group (Leader only)
// @Description  Removes members in one batch. The count reflects how many were actually removed.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int       true "Group ID"
// @Param        input body KickInput true "User IDs to remove"
// @Success      200 {object} map[string]int64 "{"removed": 2}"
// @Failure      400 {object} ErrorResponse "Leader cannot kick themselves"
// @Failure      403 {object} ErrorResponse "Only the leader can kick members"
// @Failure      404 {object} ErrorResponse "Group not found"
// @Router       /groups/{id}/kick [post]
func KickMembers(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var input KickInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	removed, err := groupSvc.Kick(c.Request.Context(), uint(groupID), userID.(uint), input.UserIDs)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"removed": removed})
}

// TransferLeadership godoc
// @Summary      Transfer group leadership (Leader only)
// @Description  Hands leadership to another current member. The former leader stays on the roster.
// @Tags         groups
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int           true "Group ID"
// @Param        input body TransferInput true "New leader"
// @Success      200 {object} map[string]string "{"message": "Leadership transferred"}"
// @Failure      400 {object} ErrorResponse "Target is not a member"
// @Failure      403 {object} ErrorResponse "Only the leader can transfer leadership"
// @Failure      404 {object} ErrorResponse "Group not found"
// @Router       /groups/{id}/transfer [post]
func TransferLeadership(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var input TransferInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := groupSvc.TransferLeadership(c.Request.Context(), uint(groupID), userID.(uint), input.NewLeaderID); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Leadership transferred"})
}

// DisbandGroup godoc
// @Summary      Disband a group (Leader only)
// @Description  Irreversibly disbands the group, removing members, invitations and message history together.
// @Tags         groups
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} map[string]string "{"message": "Group disbanded"}"
// @Failure      403 {object} ErrorResponse "Only the leader can disband the group"
// @Failure      404 {object} ErrorResponse "Group not found"
// @Failure      410 {object} ErrorResponse "Group already disbanded"
// @Router       /groups/{id}/disband [post]
func DisbandGroup(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	if err := groupSvc.Disband(c.Request.Context(), uint(groupID), userID.(uint)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Group disbanded"})
}
