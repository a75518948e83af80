package models

import (
	"time"
	"unicode/utf8"
)

// Post is a text entry with an optional image, optionally filed under a group.
type Post struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Text         string    `gorm:"type:text;not null" json:"text"`
	PubDate      time.Time `gorm:"autoCreateTime;index:idx_posts_pub_date" json:"pub_date"`
	UpdatedAt    time.Time `json:"updated_at"`
	AuthorID     uint      `gorm:"not null;index" json:"author_id"`
	GroupID      *uint     `gorm:"index" json:"group_id,omitempty"`
	Image        string    `gorm:"size:255" json:"image,omitempty"`
	ImagePreview string    `gorm:"size:255" json:"image_preview,omitempty"`

	Author User   `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Group  *Group `gorm:"foreignKey:GroupID;constraint:OnDelete:SET NULL" json:"group,omitempty"`
}

// Excerpt returns at most n characters of the post text.
func (p Post) Excerpt(n int) string {
	if utf8.RuneCountInString(p.Text) <= n {
		return p.Text
	}
	return string([]rune(p.Text)[:n])
}

// HasImage reports whether an image was uploaded with the post.
func (p Post) HasImage() bool {
	return p.Image != ""
}
