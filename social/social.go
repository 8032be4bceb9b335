// Package social manages follow edges between users and authors.
// Both mutations are idempotent: calling them redundantly changes nothing
// beyond the final state, so the HTTP layer can retry them freely.
package social

import (
	"context"
	"errors"

	"github.com/quietpage/inkwell/repository"
)

// Service creates and removes follow edges.
type Service struct {
	repo *repository.Repository
}

// NewService creates a social graph service over the repository.
func NewService(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

// Follow makes userID follow the author behind authorUsername. Returns
// repository.ErrNotFound when the username does not resolve. Following
// yourself and following an already-followed author are both silent no-ops.
func (s *Service) Follow(ctx context.Context, userID uint, authorUsername string) error {
	author, err := s.repo.GetAuthor(ctx, authorUsername)
	if err != nil {
		return err
	}
	if userID == author.ID {
		return nil
	}
	exists, err := s.repo.FollowExists(ctx, userID, author.ID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = s.repo.CreateFollow(ctx, userID, author.ID)
	if errors.Is(err, repository.ErrConflict) {
		// Lost a race against an identical follow; the edge exists, done.
		return nil
	}
	return err
}

// Unfollow removes the edge towards authorUsername if it exists.
func (s *Service) Unfollow(ctx context.Context, userID uint, authorUsername string) error {
	author, err := s.repo.GetAuthor(ctx, authorUsername)
	if err != nil {
		return err
	}
	if userID == author.ID {
		return nil
	}
	return s.repo.DeleteFollow(ctx, userID, author.ID)
}

// IsFollowing reports whether userID follows authorID. Anonymous actors
// (userID zero) are never following anyone; storage is not consulted.
func (s *Service) IsFollowing(ctx context.Context, userID, authorID uint) (bool, error) {
	if userID == 0 {
		return false, nil
	}
	return s.repo.FollowExists(ctx, userID, authorID)
}

// FollowedAuthorIDs returns the ids of every author userID follows.
func (s *Service) FollowedAuthorIDs(ctx context.Context, userID uint) ([]uint, error) {
	return s.repo.ListFollowedAuthorIDs(ctx, userID)
}
