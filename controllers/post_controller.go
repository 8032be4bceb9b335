package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/quietpage/inkwell/cache"
	"github.com/quietpage/inkwell/middleware"
	"github.com/quietpage/inkwell/models"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/utils"
)

// PostController manages the post lifecycle: detail view, create, edit and
// comments. Every successful post mutation invalidates the feed cache
// before the response goes out.
type PostController struct {
	repo      *repository.Repository
	cache     cache.Cache
	mediaRoot string
}

// NewPostController creates a new PostController instance.
func NewPostController(repo *repository.Repository, c cache.Cache, mediaRoot string) *PostController {
	return &PostController{repo: repo, cache: c, mediaRoot: mediaRoot}
}

func postDetailPath(id uint) string {
	return fmt.Sprintf("/posts/%d/", id)
}

func parseID(raw string) (uint, bool) {
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// Detail renders a post with its comments.
func (p *PostController) Detail(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40420, "post not found")
		return
	}

	post, err := p.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40420, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to load post")
		return
	}

	comments, err := p.repo.ListComments(ctx, post.ID)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to load comments")
		return
	}

	utils.Success(ctx, gin.H{"post": post, "comments": comments})
}

// postForm is the validated input for create and edit.
type postForm struct {
	text     string
	groupID  *uint
	imageRef string
	errors   map[string]string
}

// bindPostForm reads and validates the form fields. Validation failures are
// collected rather than returned so the form can be re-rendered with the
// offending input preserved; only storage failures come back as an error.
func (p *PostController) bindPostForm(ctx *gin.Context) (postForm, error) {
	form := postForm{errors: map[string]string{}}

	form.text = utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if form.text == "" {
		form.errors["text"] = "text cannot be empty"
	}

	if raw := strings.TrimSpace(ctx.PostForm("group_id")); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			form.errors["group_id"] = "invalid group"
		} else if _, err := p.repo.GetGroupByID(ctx, id); err != nil {
			if !errors.Is(err, repository.ErrNotFound) {
				return form, err
			}
			form.errors["group_id"] = "unknown group"
		} else {
			form.groupID = &id
		}
	}

	if file, header, err := ctx.Request.FormFile("image"); err == nil {
		defer file.Close()
		ref, err := utils.SaveImage(file, header, p.mediaRoot)
		if err != nil {
			form.errors["image"] = "could not store image"
		} else {
			form.imageRef = ref
		}
	}

	return form, nil
}

func renderPostForm(ctx *gin.Context, form postForm, isEdit bool) {
	utils.Success(ctx, gin.H{
		"form": gin.H{
			"text":     form.text,
			"group_id": form.groupID,
			"errors":   form.errors,
		},
		"is_edit": isEdit,
	})
}

// CreateForm renders an empty post form.
func (p *PostController) CreateForm(ctx *gin.Context) {
	renderPostForm(ctx, postForm{errors: map[string]string{}}, false)
}

// Create persists a new post for the actor and redirects to their profile.
func (p *PostController) Create(ctx *gin.Context) {
	actorID, ok := middleware.ActorID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return
	}

	form, err := p.bindPostForm(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50027, "failed to validate post")
		return
	}
	if len(form.errors) > 0 {
		renderPostForm(ctx, form, false)
		return
	}

	post := models.Post{
		Text:     form.text,
		AuthorID: actorID,
		GroupID:  form.groupID,
		ImageRef: form.imageRef,
	}
	if err := p.repo.CreatePost(ctx, &post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to create post")
		return
	}

	p.cache.Invalidate()

	username, _ := middleware.ActorUsername(ctx)
	ctx.Redirect(http.StatusFound, "/profile/"+username+"/")
}

// loadOwnedPost fetches the post behind :id and enforces ownership. A
// non-owner is redirected to the detail view with no explicit error, so the
// response never reveals who owns the post.
func (p *PostController) loadOwnedPost(ctx *gin.Context) (*models.Post, bool) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40421, "post not found")
		return nil, false
	}

	post, err := p.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40421, "post not found")
			return nil, false
		}
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to load post")
		return nil, false
	}

	actorID, ok := middleware.ActorID(ctx)
	if !ok {
		ctx.Redirect(http.StatusFound, middleware.LoginPath)
		return nil, false
	}
	if post.AuthorID != actorID {
		ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
		return nil, false
	}
	return post, true
}

// EditForm renders the edit form pre-filled with the post's current values.
func (p *PostController) EditForm(ctx *gin.Context) {
	post, ok := p.loadOwnedPost(ctx)
	if !ok {
		return
	}
	renderPostForm(ctx, postForm{text: post.Text, groupID: post.GroupID, errors: map[string]string{}}, true)
}

// Edit applies the owner's changes and redirects to the post detail view.
func (p *PostController) Edit(ctx *gin.Context) {
	post, ok := p.loadOwnedPost(ctx)
	if !ok {
		return
	}

	form, err := p.bindPostForm(ctx)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50028, "failed to validate post")
		return
	}
	if len(form.errors) > 0 {
		renderPostForm(ctx, form, true)
		return
	}

	post.Text = form.text
	post.GroupID = form.groupID
	if form.imageRef != "" {
		post.ImageRef = form.imageRef
	}
	if err := p.repo.UpdatePost(ctx, post); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}

	p.cache.Invalidate()
	ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
}

// Delete removes the actor's post, cascading to its comments, and redirects
// to their profile. The feed cache is invalidated before the redirect goes
// out, like every other post mutation.
func (p *PostController) Delete(ctx *gin.Context) {
	post, ok := p.loadOwnedPost(ctx)
	if !ok {
		return
	}

	if err := p.repo.DeletePost(ctx, post.ID); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50029, "failed to delete post")
		return
	}

	p.cache.Invalidate()

	username, _ := middleware.ActorUsername(ctx)
	ctx.Redirect(http.StatusFound, "/profile/"+username+"/")
}

// Comment appends a comment to a post and redirects to its detail view.
// Anonymous actors are redirected the same way with nothing persisted, and
// so is a blank comment; the redirect target never differs.
func (p *PostController) Comment(ctx *gin.Context) {
	id, ok := parseID(ctx.Param("id"))
	if !ok {
		utils.Error(ctx, http.StatusNotFound, 40422, "post not found")
		return
	}

	post, err := p.repo.GetPost(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, 40422, "post not found")
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	actorID, authed := middleware.ActorID(ctx)
	text := utils.Sanitize(strings.TrimSpace(ctx.PostForm("text")))
	if authed && text != "" {
		comment := models.Comment{PostID: post.ID, AuthorID: actorID, Text: text}
		if err := p.repo.CreateComment(ctx, &comment); err != nil {
			utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to create comment")
			return
		}
	}

	ctx.Redirect(http.StatusFound, postDetailPath(post.ID))
}
