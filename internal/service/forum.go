package service

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shepherd-church/shepherd/internal/audit"
	"github.com/shepherd-church/shepherd/internal/models"
	"gorm.io/gorm"
)

// ForumService contains the business logic for the discussion forum.
type ForumService struct {
	db *gorm.DB
}

// NewForumService creates a new ForumService.
func NewForumService(db *gorm.DB) *ForumService {
	return &ForumService{db: db}
}

// canModerate reports whether user may change content written by authorID.
func canModerate(user *models.User, authorID uuid.UUID) bool {
	return user.Role.Elevated() || user.ID == authorID
}

// ListPosts returns posts with pinned ones first, then newest first.
func (s *ForumService) ListPosts() ([]models.ForumPost, error) {
	var posts []models.ForumPost
	if err := s.db.Preload("Author").
		Order("pinned DESC, created_at DESC").
		Find(&posts).Error; err != nil {
		return nil, err
	}
	return posts, nil
}

// GetPost returns a post with its comments in posting order.
func (s *ForumService) GetPost(id string) (*models.ForumPost, error) {
	postID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	var post models.ForumPost
	if err := s.db.Preload("Author").
		Preload("Comments", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		Preload("Comments.Author").
		Where("id = ?", postID).
		First(&post).Error; err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

// CreatePost publishes a new post. Only admins may pin.
func (s *ForumService) CreatePost(in PostInput, author *models.User) (*models.ForumPost, error) {
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	post := models.ForumPost{
		AuthorID: author.ID,
		Title:    in.Title,
		Body:     in.Body,
		Pinned:   in.Pinned && author.Role.Elevated(),
	}
	if err := s.db.Create(&post).Error; err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	post.Author = *author

	audit.LogAction(s.db, author.ID, audit.ActionCreatePost, audit.Resource("post", post.ID), map[string]interface{}{
		"title": post.Title,
	})
	return &post, nil
}

// UpdatePost edits a post. Authors may edit their own posts; admins may edit
// any post and change pinning.
func (s *ForumService) UpdatePost(id string, in PostInput, user *models.User) (*models.ForumPost, error) {
	post, err := s.GetPost(id)
	if err != nil {
		return nil, err
	}
	if !canModerate(user, post.AuthorID) {
		return nil, ErrForbidden
	}
	in.Title = strings.TrimSpace(in.Title)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"title": in.Title,
		"body":  in.Body,
	}
	if user.Role.Elevated() {
		updates["pinned"] = in.Pinned
	}
	if err := s.db.Model(post).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("update post: %w", err)
	}

	audit.LogAction(s.db, user.ID, audit.ActionUpdatePost, audit.Resource("post", post.ID), map[string]interface{}{
		"title": in.Title,
	})
	return s.GetPost(id)
}

// DeletePost removes a post and its comments.
func (s *ForumService) DeletePost(id string, user *models.User) error {
	post, err := s.GetPost(id)
	if err != nil {
		return err
	}
	if !canModerate(user, post.AuthorID) {
		return ErrForbidden
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", post.ID).Delete(&models.ForumComment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		if err := tx.Delete(&models.ForumPost{}, "id = ?", post.ID).Error; err != nil {
			return fmt.Errorf("delete post: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	audit.LogAction(s.db, user.ID, audit.ActionDeletePost, audit.Resource("post", post.ID), map[string]interface{}{
		"title": post.Title,
	})
	return nil
}

// AddComment replies to a post.
func (s *ForumService) AddComment(postID string, in CommentInput, author *models.User) (*models.ForumComment, error) {
	post, err := s.GetPost(postID)
	if err != nil {
		return nil, err
	}
	in.Body = strings.TrimSpace(in.Body)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	comment := models.ForumComment{
		PostID:   post.ID,
		AuthorID: author.ID,
		Body:     in.Body,
	}
	if err := s.db.Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	comment.Author = *author
	return &comment, nil
}

// DeleteComment removes a comment. Authors may remove their own comments;
// admins may remove any.
func (s *ForumService) DeleteComment(id string, user *models.User) error {
	commentID, err := parseID(id)
	if err != nil {
		return err
	}
	var comment models.ForumComment
	if err := s.db.Where("id = ?", commentID).First(&comment).Error; err != nil {
		return notFound(err)
	}
	if !canModerate(user, comment.AuthorID) {
		return ErrForbidden
	}
	if err := s.db.Delete(&comment).Error; err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}

	audit.LogAction(s.db, user.ID, audit.ActionDeleteComment, audit.Resource("comment", comment.ID), map[string]interface{}{
		"post_id": comment.PostID,
	})
	return nil
}
