package handler

import (
	"net/http"
	"strconv"
	"time"

	"circleup/backend/internal/models"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

type PostInput struct {
	Content    string            `json:"content"`
	Images     []string          `json:"images"`
	Visibility models.Visibility `json:"visibility" binding:"required,oneof=public friends private"`
}

type RepostInput struct {
	Content    string            `json:"content"`
	Images     []string          `json:"images"`
	Visibility models.Visibility `json:"visibility" binding:"required,oneof=public friends private"`
}

type PostResponse struct {
	ID             uint              `json:"id"`
	Author         UserCard          `json:"author"`
	Content        string            `json:"content,omitempty"`
	Images         []string          `json:"images,omitempty"`
	Visibility     models.Visibility `json:"visibility"`
	OriginalPostID *uint             `json:"original_post_id,omitempty"`
	RootPostID     *uint             `json:"root_post_id,omitempty"`
	Depth          int               `json:"depth"`
	RepostCount    int64             `json:"repost_count"`
	CreatedAt      time.Time         `json:"created_at"`

	// Original is the immediate parent when this post is a repost. A
	// deleted parent renders as a tombstone instead of vanishing.
	Original *RepostParentResponse `json:"original,omitempty"`
}

// RepostParentResponse is the compact parent summary embedded in a repost.
type RepostParentResponse struct {
	ID      uint     `json:"id"`
	Author  UserCard `json:"author,omitempty"`
	Content string   `json:"content,omitempty"`
	Deleted bool     `json:"deleted,omitempty"`
}

func newPostResponse(post models.Post) PostResponse {
	return PostResponse{
		ID:             post.ID,
		Author:         newUserCard(post.Author),
		Content:        post.Content,
		Images:         []string(post.Images),
		Visibility:     post.Visibility,
		OriginalPostID: post.OriginalPostID,
		RootPostID:     post.RootPostID,
		Depth:          post.Depth,
		RepostCount:    post.RepostCount,
		CreatedAt:      post.CreatedAt,
	}
}

// endregion

// viewerIDPtr returns the authenticated user id, or nil for anonymous
// readers on optionally-authenticated routes.
func viewerIDPtr(c *gin.Context) *uint {
	if v, ok := c.Get("userID"); ok {
		id := v.(uint)
		return &id
	}
	return nil
}

// CreatePost godoc
// @Summary      Create a post
// @Description  Publishes an original post with a visibility scope.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body PostInput true "Post content"
// @Success      201  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /posts [post]
func CreatePost(c *gin.Context) {
	userID, _ := c.Get("userID")

	var input PostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := postSvc.Create(c.Request.Context(), userID.(uint), input.Content, input.Images, input.Visibility)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPostResponse(*post))
}

// Repost godoc
// @Summary      Repost a post
// @Description  Creates a repost of an existing post. The lineage root is flattened and the chain depth is bounded.
// @Tags         posts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path int         true "Original Post ID"
// @Param        input body RepostInput true "Repost content"
// @Success      201  {object}  PostResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      404  {object}  ErrorResponse "Original post not found"
// @Failure      422  {object}  ErrorResponse "Repost chain too deep"
// @Router       /posts/{id}/repost [post]
func Repost(c *gin.Context) {
	userID, _ := c.Get("userID")
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	var input RepostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := postSvc.Repost(c.Request.Context(), userID.(uint), uint(postID), input.Content, input.Images, input.Visibility)
	if err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newPostResponse(*post))
}

// GetPost godoc
// @Summary      Get a post
// @Description  Resolves one post under the visibility rules. Invisible posts read as not found.
// @Tags         posts
// @Produce      json
// @Param        id path int true "Post ID"
// @Success      200  {object}  PostResponse
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [get]
func GetPost(c *gin.Context) {
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	post, err := postSvc.Get(c.Request.Context(), viewerIDPtr(c), uint(postID))
	if err != nil {
		abortWithError(c, err)
		return
	}

	resp := newPostResponse(*post)
	if post.IsRepost() {
		if parent, err := postSvc.Original(c.Request.Context(), post); err == nil && parent != nil {
			summary := RepostParentResponse{ID: parent.ID}
			if parent.DeletedAt.Valid {
				summary.Deleted = true
			} else {
				summary.Author = newUserCard(parent.Author)
				summary.Content = parent.Content
			}
			resp.Original = &summary
		}
	}

	c.JSON(http.StatusOK, resp)
}

// DeletePost godoc
// @Summary      Delete a post
// @Description  Soft-deletes a post. Reposts of it keep their captured lineage.
// @Tags         posts
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Post ID"
// @Success      200  {object}  map[string]string "{"message": "Post deleted"}"
// @Failure      403  {object}  ErrorResponse "Only the author can delete a post"
// @Failure      404  {object}  ErrorResponse
// @Router       /posts/{id} [delete]
func DeletePost(c *gin.Context) {
	userID, _ := c.Get("userID")
	postID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid post ID"})
		return
	}

	if err := postSvc.Delete(c.Request.Context(), userID.(uint), uint(postID)); err != nil {
		abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Post deleted"})
}

// GetFeed godoc
// @Summary      Get the feed
// @Description  Pages through everything the viewer may see, newest first. Anonymous viewers see only public posts.
// @Tags         posts
// @Produce      json
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[PostResponse]
// @Router       /feed [get]
func GetFeed(c *gin.Context) {
	page, limit := pageParams(c)

	posts, total, err := postSvc.Feed(c.Request.Context(), viewerIDPtr(c), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := []PostResponse{}
	for _, post := range posts {
		responses = append(responses, newPostResponse(post))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, total, page, limit))
}

// GetUserPosts godoc
// @Summary      Get a user's posts
// @Description  The feed predicate restricted to one author's posts.
// @Tags         posts
// @Produce      json
// @Param        id    path  int true  "Author User ID"
// @Param        page  query int false "Page number" default(1)
// @Param        limit query int false "Items per page" default(10)
// @Success      200 {object} PaginatedResponse[PostResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /users/{id}/posts [get]
func GetUserPosts(c *gin.Context) {
	authorID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}
	page, limit := pageParams(c)

	posts, total, err := postSvc.Profile(c.Request.Context(), viewerIDPtr(c), uint(authorID), page, limit)
	if err != nil {
		abortWithError(c, err)
		return
	}

	responses := []PostResponse{}
	for _, post := range posts {
		responses = append(responses, newPostResponse(post))
	}

	c.JSON(http.StatusOK, NewPaginatedResponse(responses, total, page, limit))
}
