package repository

import (
	"context"

	"github.com/quietpage/inkwell/models"
)

// ListComments returns a post's comments, newest first.
func (r *Repository) ListComments(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Preload("Author").
		Where("post_id = ?", postID).
		Order(feedOrder).
		Find(&comments).Error
	if err != nil {
		return nil, wrap("list comments", err)
	}
	return comments, nil
}

// CreateComment inserts a new comment on a post.
func (r *Repository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return wrap("create comment", err)
	}
	return nil
}
