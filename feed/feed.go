// Package feed assembles paginated, recency-ordered views of posts.
// It is purely read-only; response caching for the global feed happens in
// the HTTP layer in front of it.
package feed

import (
	"context"
	"strconv"

	"github.com/quietpage/inkwell/models"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/social"
)

// PageSize is the fixed number of posts per feed page.
const PageSize = 10

type filterKind int

const (
	filterAll filterKind = iota
	filterGroup
	filterAuthor
	filterFollowedBy
)

// Filter selects which posts a feed shows.
type Filter struct {
	kind     filterKind
	slug     string
	username string
	userID   uint
}

// All selects every post.
func All() Filter { return Filter{kind: filterAll} }

// ByGroup selects posts tagged to the group with the given slug.
func ByGroup(slug string) Filter { return Filter{kind: filterGroup, slug: slug} }

// ByAuthor selects posts written by the given username.
func ByAuthor(username string) Filter { return Filter{kind: filterAuthor, username: username} }

// FollowedBy selects posts written by authors the given user follows.
func FollowedBy(userID uint) Filter { return Filter{kind: filterFollowedBy, userID: userID} }

// Page is one window of a feed plus pagination metadata.
type Page struct {
	Posts      []models.Post `json:"posts"`
	Number     int           `json:"number"`
	TotalPages int           `json:"total_pages"`
	TotalItems int64         `json:"total_items"`
	HasNext    bool          `json:"has_next"`
	HasPrev    bool          `json:"has_prev"`
}

// Assembler builds feed pages from the repository and the social graph.
type Assembler struct {
	repo   *repository.Repository
	social *social.Service
}

// NewAssembler creates a feed assembler.
func NewAssembler(repo *repository.Repository, socialSvc *social.Service) *Assembler {
	return &Assembler{repo: repo, social: socialSvc}
}

// Page returns the requested page of the filtered feed. Pages are 1-based;
// a number past the end clamps to the last page instead of failing. An
// unresolvable group slug or username returns repository.ErrNotFound.
func (a *Assembler) Page(ctx context.Context, f Filter, number int) (*Page, error) {
	postFilter, empty, err := a.resolve(ctx, f)
	if err != nil {
		return nil, err
	}
	if empty {
		return &Page{Posts: []models.Post{}, Number: 1, TotalPages: 1}, nil
	}

	total, err := a.repo.CountPosts(ctx, postFilter)
	if err != nil {
		return nil, err
	}
	totalPages := int((total + PageSize - 1) / PageSize)
	if totalPages < 1 {
		totalPages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > totalPages {
		number = totalPages
	}

	posts, err := a.repo.ListPosts(ctx, postFilter, PageSize, (number-1)*PageSize)
	if err != nil {
		return nil, err
	}
	return &Page{
		Posts:      posts,
		Number:     number,
		TotalPages: totalPages,
		TotalItems: total,
		HasNext:    number < totalPages,
		HasPrev:    number > 1,
	}, nil
}

// resolve turns a feed filter into a repository filter. The second return
// is true when the feed is known to be empty without querying posts (a user
// following nobody).
func (a *Assembler) resolve(ctx context.Context, f Filter) (repository.PostFilter, bool, error) {
	switch f.kind {
	case filterGroup:
		group, err := a.repo.GetGroup(ctx, f.slug)
		if err != nil {
			return repository.PostFilter{}, false, err
		}
		return repository.PostFilter{GroupID: &group.ID}, false, nil
	case filterAuthor:
		author, err := a.repo.GetAuthor(ctx, f.username)
		if err != nil {
			return repository.PostFilter{}, false, err
		}
		return repository.PostFilter{AuthorID: &author.ID}, false, nil
	case filterFollowedBy:
		authorIDs, err := a.social.FollowedAuthorIDs(ctx, f.userID)
		if err != nil {
			return repository.PostFilter{}, false, err
		}
		if len(authorIDs) == 0 {
			return repository.PostFilter{}, true, nil
		}
		return repository.PostFilter{AuthorIDs: authorIDs}, false, nil
	default:
		return repository.PostFilter{}, false, nil
	}
}

// ParsePage reads a 1-based page number from a query value. Anything
// non-numeric or below one falls back to page one; numbers past the end
// are clamped later by Page.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 1
	}
	return n
}
