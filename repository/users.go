package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quietpage/inkwell/models"
)

// GetAuthor resolves a user by username.
func (r *Repository) GetAuthor(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if err != nil {
		return nil, wrap("get author", err)
	}
	return &user, nil
}

// GetUser loads a user by id.
func (r *Repository) GetUser(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		return nil, wrap("get user", err)
	}
	return &user, nil
}

// CreateUser inserts a new user. Usernames are unique.
func (r *Repository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return wrap("create user", err)
	}
	return nil
}

// DeleteUser removes a user and everything hanging off them: their posts
// (with those posts' comments), their own comments elsewhere, and follow
// edges in both directions.
func (r *Repository) DeleteUser(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var postIDs []uint
		if err := tx.Model(&models.Post{}).
			Where("author_id = ?", id).
			Pluck("id", &postIDs).Error; err != nil {
			return err
		}
		if len(postIDs) > 0 {
			if err := tx.Where("post_id IN ?", postIDs).Delete(&models.Comment{}).Error; err != nil {
				return err
			}
			if err := tx.Delete(&models.Post{}, postIDs).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("author_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ? OR author_id = ?", id, id).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, id).Error
	})
	if err != nil {
		return wrap("delete user", err)
	}
	return nil
}
