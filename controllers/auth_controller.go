package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/quietpage/inkwell/middleware"
	"github.com/quietpage/inkwell/models"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/utils"
)

const sessionDuration = 24 * time.Hour

// AuthController handles signup, login and logout. It only exists to
// produce an authenticated actor; everything else treats identity as given.
type AuthController struct {
	repo *repository.Repository
}

// NewAuthController creates a new AuthController instance.
func NewAuthController(repo *repository.Repository) *AuthController {
	return &AuthController{repo: repo}
}

func setSession(ctx *gin.Context, userID uint, username string) error {
	token, err := utils.NewSessionToken(userID, username, sessionDuration)
	if err != nil {
		return err
	}
	ctx.SetCookie(middleware.SessionCookie, token, int(sessionDuration.Seconds()), "/", "", false, true)
	return nil
}

// SignupForm renders an empty signup form context.
func (a *AuthController) SignupForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"form": gin.H{"username": "", "email": ""}})
}

// Signup registers a user and starts a session.
func (a *AuthController) Signup(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	email := strings.TrimSpace(ctx.PostForm("email"))
	password := ctx.PostForm("password")

	formErrors := map[string]string{}
	if username == "" {
		formErrors["username"] = "username cannot be empty"
	}
	if len(password) < 8 {
		formErrors["password"] = "password must be at least 8 characters"
	}
	if len(formErrors) > 0 {
		utils.Success(ctx, gin.H{"form": gin.H{"username": username, "email": email, "errors": formErrors}})
		return
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to create user")
		return
	}

	user := models.User{Username: username, Email: email, PasswordHash: hash}
	if err := a.repo.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			formErrors["username"] = "username already taken"
			utils.Success(ctx, gin.H{"form": gin.H{"username": username, "email": email, "errors": formErrors}})
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to create user")
		return
	}

	if err := setSession(ctx, user.ID, user.Username); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to start session")
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// LoginForm renders an empty login form context.
func (a *AuthController) LoginForm(ctx *gin.Context) {
	utils.Success(ctx, gin.H{"form": gin.H{"username": ""}})
}

// Login verifies credentials and starts a session. Bad credentials re-render
// the form with one generic message.
func (a *AuthController) Login(ctx *gin.Context) {
	username := strings.TrimSpace(ctx.PostForm("username"))
	password := ctx.PostForm("password")

	invalid := func() {
		utils.Success(ctx, gin.H{"form": gin.H{
			"username": username,
			"errors":   map[string]string{"__all__": "invalid username or password"},
		}})
	}

	user, err := a.repo.GetAuthor(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			invalid()
			return
		}
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to log in")
		return
	}
	if !utils.CheckPassword(user.PasswordHash, password) {
		invalid()
		return
	}

	if err := setSession(ctx, user.ID, user.Username); err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to start session")
		return
	}
	ctx.Redirect(http.StatusFound, "/")
}

// Logout clears the session cookie.
func (a *AuthController) Logout(ctx *gin.Context) {
	ctx.SetCookie(middleware.SessionCookie, "", -1, "/", "", false, true)
	ctx.Redirect(http.StatusFound, "/")
}
