package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/quietpage/inkwell/models"
)

// GetGroup resolves a group by its slug.
func (r *Repository) GetGroup(ctx context.Context, slug string) (*models.Group, error) {
	var group models.Group
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&group).Error
	if err != nil {
		return nil, wrap("get group", err)
	}
	return &group, nil
}

// GetGroupByID loads a group by primary key.
func (r *Repository) GetGroupByID(ctx context.Context, id uint) (*models.Group, error) {
	var group models.Group
	if err := r.db.WithContext(ctx).First(&group, id).Error; err != nil {
		return nil, wrap("get group by id", err)
	}
	return &group, nil
}

// CreateGroup inserts a new group. Slugs are unique.
func (r *Repository) CreateGroup(ctx context.Context, group *models.Group) error {
	if err := r.db.WithContext(ctx).Create(group).Error; err != nil {
		return wrap("create group", err)
	}
	return nil
}

// DeleteGroup removes a group and detaches its posts: referencing posts
// survive with a null group, they are not deleted.
func (r *Repository) DeleteGroup(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Post{}).
			Where("group_id = ?", id).
			Update("group_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Group{}, id).Error
	})
	if err != nil {
		return wrap("delete group", err)
	}
	return nil
}
