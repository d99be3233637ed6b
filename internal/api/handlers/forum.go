package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shepherd-church/shepherd/internal/service"
)

type ForumHandler struct {
	svc *service.ForumService
}

func NewForumHandler(svc *service.ForumService) *ForumHandler {
	return &ForumHandler{svc: svc}
}

// ListPosts godoc
// @Summary List forum posts
// @Description Pinned posts first, then newest first
// @Tags forum
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.ForumPost
// @Router /forum/posts [get]
func (h *ForumHandler) ListPosts(c *gin.Context) {
	posts, err := h.svc.ListPosts()
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// CreatePost godoc
// @Summary Create a forum post
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param post body service.PostInput true "Post"
// @Success 201 {object} models.ForumPost
// @Failure 400 {object} ErrorResponse
// @Router /forum/posts [post]
func (h *ForumHandler) CreatePost(c *gin.Context) {
	var req service.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	post, err := h.svc.CreatePost(req, currentUser(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

// GetPost godoc
// @Summary Get a forum post with its comments
// @Tags forum
// @Security BearerAuth
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.ForumPost
// @Failure 404 {object} ErrorResponse
// @Router /forum/posts/{id} [get]
func (h *ForumHandler) GetPost(c *gin.Context) {
	post, err := h.svc.GetPost(c.Param("id"))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// UpdatePost godoc
// @Summary Update a forum post
// @Description Authors may edit their own posts; admins may edit any
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param post body service.PostInput true "Post"
// @Success 200 {object} models.ForumPost
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forum/posts/{id} [put]
func (h *ForumHandler) UpdatePost(c *gin.Context) {
	var req service.PostInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	post, err := h.svc.UpdatePost(c.Param("id"), req, currentUser(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// DeletePost godoc
// @Summary Delete a forum post
// @Tags forum
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forum/posts/{id} [delete]
func (h *ForumHandler) DeletePost(c *gin.Context) {
	if err := h.svc.DeletePost(c.Param("id"), currentUser(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddComment godoc
// @Summary Comment on a forum post
// @Tags forum
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param comment body service.CommentInput true "Comment"
// @Success 201 {object} models.ForumComment
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forum/posts/{id}/comments [post]
func (h *ForumHandler) AddComment(c *gin.Context) {
	var req service.CommentInput
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	comment, err := h.svc.AddComment(c.Param("id"), req, currentUser(c))
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// DeleteComment godoc
// @Summary Delete a forum comment
// @Tags forum
// @Security BearerAuth
// @Param id path string true "Comment ID"
// @Success 204
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /forum/comments/{id} [delete]
func (h *ForumHandler) DeleteComment(c *gin.Context) {
	if err := h.svc.DeleteComment(c.Param("id"), currentUser(c)); err != nil {
		handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
