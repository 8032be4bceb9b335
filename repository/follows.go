package repository

import (
	"context"

	"github.com/quietpage/inkwell/models"
)

// FollowExists reports whether userID already follows authorID.
func (r *Repository) FollowExists(ctx context.Context, userID, authorID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Count(&count).Error
	if err != nil {
		return false, wrap("follow exists", err)
	}
	return count > 0, nil
}

// CreateFollow inserts the (user, author) edge. A duplicate edge surfaces
// as ErrConflict via the unique index.
func (r *Repository) CreateFollow(ctx context.Context, userID, authorID uint) error {
	edge := models.Follow{UserID: userID, AuthorID: authorID}
	if err := r.db.WithContext(ctx).Create(&edge).Error; err != nil {
		return wrap("create follow", err)
	}
	return nil
}

// DeleteFollow removes the (user, author) edge if present. Deleting a
// missing edge is not an error.
func (r *Repository) DeleteFollow(ctx context.Context, userID, authorID uint) error {
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND author_id = ?", userID, authorID).
		Delete(&models.Follow{}).Error
	if err != nil {
		return wrap("delete follow", err)
	}
	return nil
}

// ListFollowedAuthorIDs returns the ids of every author userID follows.
func (r *Repository) ListFollowedAuthorIDs(ctx context.Context, userID uint) ([]uint, error) {
	authorIDs := []uint{}
	err := r.db.WithContext(ctx).
		Model(&models.Follow{}).
		Where("user_id = ?", userID).
		Pluck("author_id", &authorIDs).Error
	if err != nil {
		return nil, wrap("list followed authors", err)
	}
	return authorIDs, nil
}
