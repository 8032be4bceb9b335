package models

import "time"

// Follow is a directed edge in the social graph: UserID follows AuthorID.
// The (user, author) pair is unique; a user never follows themselves.
type Follow struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index;uniqueIndex:idx_follow_user_author;not null" json:"user_id"`
	AuthorID  uint      `gorm:"index;uniqueIndex:idx_follow_user_author;not null" json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}
