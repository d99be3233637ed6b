package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ForumPost is a discussion thread
type ForumPost struct {
	ID        uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	AuthorID  uuid.UUID      `gorm:"type:text;not null;index" json:"author_id"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Title     string         `gorm:"not null" json:"title"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	Pinned    bool           `gorm:"not null;default:false" json:"pinned"`
	Comments  []ForumComment `gorm:"foreignKey:PostID" json:"comments,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// ForumComment is a reply to a ForumPost
type ForumComment struct {
	ID        uuid.UUID      `gorm:"type:text;primary_key" json:"id"`
	PostID    uuid.UUID      `gorm:"type:text;not null;index" json:"post_id"`
	AuthorID  uuid.UUID      `gorm:"type:text;not null" json:"author_id"`
	Author    User           `gorm:"foreignKey:AuthorID" json:"author,omitempty"`
	Body      string         `gorm:"type:text;not null" json:"body"`
	CreatedAt time.Time      `json:"created_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// BeforeCreate hook to generate UUID
func (p *ForumPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// BeforeCreate hook to generate UUID
func (c *ForumComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
