package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quietpage/inkwell/models"
)

func (r *Repository) applyPostFilter(q *gorm.DB, f PostFilter) *gorm.DB {
	if f.GroupID != nil {
		q = q.Where("group_id = ?", *f.GroupID)
	}
	if f.AuthorID != nil {
		q = q.Where("author_id = ?", *f.AuthorID)
	}
	if f.AuthorIDs != nil {
		q = q.Where("author_id IN ?", f.AuthorIDs)
	}
	return q
}

// ListPosts returns a window of posts matching the filter, newest first.
func (r *Repository) ListPosts(ctx context.Context, f PostFilter, limit, offset int) ([]models.Post, error) {
	var posts []models.Post
	q := r.applyPostFilter(r.db.WithContext(ctx), f).
		Preload("Author").
		Preload("Group").
		Order(feedOrder).
		Limit(limit).
		Offset(offset)
	if err := q.Find(&posts).Error; err != nil {
		return nil, wrap("list posts", err)
	}
	return posts, nil
}

// CountPosts returns the number of posts matching the filter.
func (r *Repository) CountPosts(ctx context.Context, f PostFilter) (int64, error) {
	var total int64
	q := r.applyPostFilter(r.db.WithContext(ctx).Model(&models.Post{}), f)
	if err := q.Count(&total).Error; err != nil {
		return 0, wrap("count posts", err)
	}
	return total, nil
}

// GetPost loads a post with its author and group.
func (r *Repository) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Group").
		First(&post, id).Error
	if err != nil {
		return nil, wrap("get post", err)
	}
	return &post, nil
}

// CreatePost inserts a new post. CreatedAt is assigned by gorm on insert.
func (r *Repository) CreatePost(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return wrap("create post", err)
	}
	return nil
}

// UpdatePost persists edits to text, group and image reference. CreatedAt
// and AuthorID are never touched.
func (r *Repository) UpdatePost(ctx context.Context, post *models.Post) error {
	err := r.db.WithContext(ctx).
		Model(&models.Post{ID: post.ID}).
		Select("text", "group_id", "image_ref").
		Updates(map[string]interface{}{
			"text":      post.Text,
			"group_id":  post.GroupID,
			"image_ref": post.ImageRef,
		}).Error
	if err != nil {
		return wrap("update post", err)
	}
	return nil
}

// DeletePost removes a post and cascades to its comments in one transaction.
func (r *Repository) DeletePost(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Post{}, id).Error
	})
	if err != nil {
		return wrap("delete post", err)
	}
	return nil
}
