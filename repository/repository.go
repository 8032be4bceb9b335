// Package repository is the only path to storage. It owns the feed ordering
// contract and the cascade policy for every relation; nothing relies on
// database-level foreign key actions.
package repository

import (
	"gorm.io/gorm"
)

// feedOrder orders newest first; ties on created_at break by ascending id so
// pagination is deterministic across pages.
const feedOrder = "created_at DESC, id ASC"

// PostFilter narrows ListPosts/CountPosts. Zero value selects all posts.
// AuthorIDs supports the followed-authors feed; an empty non-nil slice
// matches nothing.
type PostFilter struct {
	GroupID   *uint
	AuthorID  *uint
	AuthorIDs []uint
}

// Repository provides read/write access to all entities over a single
// gorm connection handle.
type Repository struct {
	db *gorm.DB
}

// New creates a Repository bound to the given database handle.
func New(db *gorm.DB) *Repository {
	return &Repository{db: db}
}
