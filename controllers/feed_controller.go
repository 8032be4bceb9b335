package controllers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quietpage/inkwell/cache"
	"github.com/quietpage/inkwell/feed"
	"github.com/quietpage/inkwell/middleware"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/social"
	"github.com/quietpage/inkwell/utils"
)

// FeedController serves the four feed contexts: global, group, author
// profile and followed authors.
type FeedController struct {
	assembler *feed.Assembler
	social    *social.Service
	repo      *repository.Repository
	cache     cache.Cache
}

// NewFeedController creates a new FeedController instance.
func NewFeedController(assembler *feed.Assembler, socialSvc *social.Service, repo *repository.Repository, c cache.Cache) *FeedController {
	return &FeedController{assembler: assembler, social: socialSvc, repo: repo, cache: c}
}

// Index renders the global feed. The rendered body is cached in the single
// feed slot; a hit is returned verbatim regardless of the page parameter.
func (f *FeedController) Index(ctx *gin.Context) {
	if b, ok := f.cache.Get(); ok {
		ctx.Data(http.StatusOK, "application/json", b)
		return
	}

	page, err := f.assembler.Page(ctx, feed.All(), feed.ParsePage(ctx.Query("page")))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50010, "failed to load feed")
		return
	}

	wrapper := utils.JSONResponse{Code: 0, Message: "success", Data: gin.H{"page_obj": page}}
	b, err := json.Marshal(wrapper)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50011, "failed to render feed")
		return
	}
	f.cache.Set(b)
	ctx.Data(http.StatusOK, "application/json", b)
}

// GroupFeed renders the feed of one group, addressed by slug.
func (f *FeedController) GroupFeed(ctx *gin.Context) {
	slug := ctx.Param("slug")
	group, err := f.repo.GetGroup(ctx, slug)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40410, "group not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50012, "failed to load group")
		return
	}

	page, err := f.assembler.Page(ctx, feed.ByGroup(slug), feed.ParsePage(ctx.Query("page")))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50013, "failed to load group feed")
		return
	}
	utils.Success(ctx, gin.H{"group": group, "page_obj": page})
}

// Profile renders an author's feed plus whether the current actor follows them.
func (f *FeedController) Profile(ctx *gin.Context) {
	username := ctx.Param("username")
	author, err := f.repo.GetAuthor(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40411, "profile not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50014, "failed to load profile")
		return
	}

	page, err := f.assembler.Page(ctx, feed.ByAuthor(username), feed.ParsePage(ctx.Query("page")))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50015, "failed to load profile feed")
		return
	}

	actorID, _ := middleware.ActorID(ctx)
	following, err := f.social.IsFollowing(ctx, actorID, author.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50016, "failed to load follow state")
		return
	}

	utils.Success(ctx, gin.H{"author": author, "page_obj": page, "following": following})
}

// FollowIndex renders the feed of posts from authors the actor follows.
func (f *FeedController) FollowIndex(ctx *gin.Context) {
	actorID, ok := middleware.ActorID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}
	page, err := f.assembler.Page(ctx, feed.FollowedBy(actorID), feed.ParsePage(ctx.Query("page")))
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50017, "failed to load followed feed")
		return
	}
	utils.Success(ctx, gin.H{"page_obj": page})
}
