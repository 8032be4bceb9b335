package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/quietpage/inkwell/middleware"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/social"
	"github.com/quietpage/inkwell/utils"
)

const followIndexPath = "/follow/"

// FollowController toggles follow edges. Both endpoints are idempotent and
// always land on the followed-authors feed.
type FollowController struct {
	social *social.Service
}

// NewFollowController creates a new FollowController instance.
func NewFollowController(socialSvc *social.Service) *FollowController {
	return &FollowController{social: socialSvc}
}

// Follow subscribes the actor to an author's posts.
func (f *FollowController) Follow(ctx *gin.Context) {
	actorID, ok := middleware.ActorID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	if err := f.social.Follow(ctx, actorID, ctx.Param("username")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40430, "profile not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to follow")
		return
	}
	ctx.Redirect(http.StatusFound, followIndexPath)
}

// Unfollow removes the actor's subscription to an author.
func (f *FollowController) Unfollow(ctx *gin.Context) {
	actorID, ok := middleware.ActorID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	if err := f.social.Unfollow(ctx, actorID, ctx.Param("username")); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40431, "profile not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to unfollow")
		return
	}
	ctx.Redirect(http.StatusFound, followIndexPath)
}
