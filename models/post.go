package models

import "time"

// Post is a publication by an author, optionally tagged to a group.
// CreatedAt is server-assigned on insert and never changes afterwards.
type Post struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	AuthorID  uint      `gorm:"index;not null" json:"author_id"`
	GroupID   *uint     `gorm:"index" json:"group_id"`
	ImageRef  string    `gorm:"size:512" json:"image_ref,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Author    User      `gorm:"foreignKey:AuthorID" json:"author"`
	Group     *Group    `json:"group,omitempty"`
	Comments  []Comment `json:"comments,omitempty"`
}
