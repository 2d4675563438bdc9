package handler

import (
	"io"
	"net/http"
	"strconv"
	"time"

	"circleup/backend/internal/hub"
	"circleup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type MessageInput struct {
	Content string `json:"content" binding:"required"`
}

type MessageResponse struct {
	ID        uint               `json:"id"`
	Sender    *UserCard          `json:"sender,omitempty"`
	Type      models.MessageType `json:"type"`
	Content   string             `json:"content"`
	CreatedAt time.Time          `json:"created_at"`
}

func newMessageResponse(msg models.Message) MessageResponse {
	resp := MessageResponse{
		ID:        msg.ID,
		Type:      msg.Type,
		Content:   msg.Content,
		CreatedAt: msg.CreatedAt,
	}
	if msg.SenderID != nil && msg.Sender.ID != 0 {
		card := newUserCard(msg.Sender)
		resp.Sender = &card
	}
	return resp
}

// endregion

// SendGroupMessage godoc
// @Summary      Send a group message
// @Description  Writes a message to a group conversation. The sender must be an active member of a non-disbanded group.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int          true "Group ID"
// @Param        input body MessageInput true "Message"
// @Success      201 {object} MessageResponse
// @Failure      403 {object} ErrorResponse "Not a member"
// @Failure      404 {object} ErrorResponse "Group not found"
// @Failure      410 {object} ErrorResponse "Group disbanded"
// @Router       /groups/{id}/messages [post]
func SendGroupMessage(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := messageSvc.SendToGroup(c.Request.Context(), userID.(uint), uint(groupID), input.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := newMessageResponse(*msg)
	hub.GlobalHub.Broadcast(hub.GroupChannel(uint(groupID)), hub.Event{Type: "message", Payload: resp})

	c.JSON(http.StatusCreated, resp)
}

// GetGroupMessages godoc
// @Summary      Get group message history
// @Description  Pages through a group's messages, newest first. Members only.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Group ID"
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[MessageResponse]
// @Failure      403 {object} ErrorResponse "Not a member"
// @Router       /groups/{id}/messages [get]
func GetGroupMessages(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}
	page, limit := pageParams(c)

	msgs, total, err := messageSvc.GroupHistory(c.Request.Context(), userID.(uint), uint(groupID), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := []MessageResponse{}
	for _, msg := range msgs {
		responses = append(responses, newMessageResponse(msg))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, total, page, limit))
}

// SendDirectMessage godoc
// @Summary      Send a direct message
// @Description  Writes a direct message to another active user.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int          true "Recipient User ID"
// @Param        input body MessageInput true "Message"
// @Success      201 {object} MessageResponse
// @Failure      404 {object} ErrorResponse "Recipient not found"
// @Failure      410 {object} ErrorResponse "Recipient deactivated"
// @Router       /users/{id}/messages [post]
func SendDirectMessage(c *gin.Context) {
	userID, _ := c.Get("userID")
	recipientID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid recipient ID"})
		return
	}

	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := messageSvc.SendDirect(c.Request.Context(), userID.(uint), uint(recipientID), input.Content)
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := newMessageResponse(*msg)
	hub.GlobalHub.Broadcast(hub.DirectChannel(userID.(uint), uint(recipientID)), hub.Event{Type: "message", Payload: resp})

	c.JSON(http.StatusCreated, resp)
}

// GetDirectMessages godoc
// @Summary      Get direct message history
// @Description  Pages through the conversation between the current user and one other user.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  int true  "Other User ID"
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[MessageResponse]
// @Router       /users/{id}/messages [get]
func GetDirectMessages(c *gin.Context) {
	userID, _ := c.Get("userID")
	otherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	page, limit := pageParams(c)

	msgs, total, err := messageSvc.DirectHistory(c.Request.Context(), userID.(uint), uint(otherID), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := []MessageResponse{}
	for _, msg := range msgs {
		responses = append(responses, newMessageResponse(msg))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, total, page, limit))
}

// StreamGroupMessages godoc
// @Summary      Stream group messages (SSE)
// @Description  Subscribes to a group conversation over Server-Sent Events. Members only.
// @Tags         messages
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Failure      403 {object} ErrorResponse "Not a member"
// @Router       /groups/{id}/stream [get]
func StreamGroupMessages(c *gin.Context) {
	userID, _ := c.Get("userID")
	groupID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid group ID"})
		return
	}

	member, err := messageSvc.Groups.IsActiveMember(c.Request.Context(), uint(groupID), userID.(uint))
	if err != nil {
		abortWithError(c, err)
		return
	}
	if !member {
		c.JSON(http.StatusForbidden, gin.H{"error": "Not a member of this group"})
		return
	}

	streamChannel(c, hub.GroupChannel(uint(groupID)))
}

// StreamDirectMessages godoc
// @Summary      Stream direct messages (SSE)
// @Description  Subscribes to the direct conversation with one other user over Server-Sent Events.
// @Tags         messages
// @Produce      text/event-stream
// @Security     BearerAuth
// @Param        id path int true "Other User ID"
// @Router       /users/{id}/stream [get]
func StreamDirectMessages(c *gin.Context) {
	userID, _ := c.Get("userID")
	otherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	streamChannel(c, hub.DirectChannel(userID.(uint), uint(otherID)))
}

func streamChannel(c *gin.Context, channel string) {
	client := make(hub.Client, 16)
	hub.GlobalHub.Subscribe(channel, client)
	defer hub.GlobalHub.Unsubscribe(channel, client)

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	c.Stream(func(w io.Writer) bool {
		select {
		case msg, ok := <-client:
			if !ok {
				return false
			}
			c.SSEvent("message", string(msg))
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
