package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/quietpage/inkwell/cache"
	"github.com/quietpage/inkwell/config"
	"github.com/quietpage/inkwell/models"
	"github.com/quietpage/inkwell/repository"
	"github.com/quietpage/inkwell/utils"
)

func setupTestServer(t *testing.T) (*gin.Engine, *repository.Repository, *cache.Memory, *gorm.DB) {
	t.Helper()
	config.SetForTesting(config.AppConfig{
		AppPort:        "8080",
		JWTSecret:      "test-secret-key",
		GinMode:        "test",
		MediaRoot:      t.TempDir(),
		AllowedOrigins: []string{"*"},
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.Group{}, &models.Post{}, &models.Comment{}, &models.Follow{},
	))

	feedCache := cache.NewMemory()
	return SetupRouter(db, feedCache), repository.New(db), feedCache, db
}

func seedUser(t *testing.T, repo *repository.Repository, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username}
	require.NoError(t, repo.CreateUser(context.Background(), user))
	return user
}

func sessionCookie(t *testing.T, user *models.User) *http.Cookie {
	t.Helper()
	token, err := utils.NewSessionToken(user.ID, user.Username, time.Hour)
	require.NoError(t, err)
	return &http.Cookie{Name: "session", Value: token}
}

func doGet(r *gin.Engine, path string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func doPostForm(r *gin.Engine, path string, form url.Values, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

type feedPayload struct {
	Data struct {
		PageObj struct {
			Posts []struct {
				ID       uint   `json:"id"`
				Text     string `json:"text"`
				AuthorID uint   `json:"author_id"`
			} `json:"posts"`
			Number     int `json:"number"`
			TotalPages int `json:"total_pages"`
		} `json:"page_obj"`
		Following *bool `json:"following"`
	} `json:"data"`
}

func decodeFeed(t *testing.T, w *httptest.ResponseRecorder) feedPayload {
	t.Helper()
	var payload feedPayload
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &payload))
	return payload
}

func TestPublishEditScenario(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()

	// u1 signs up through the real flow and publishes a post.
	w := doPostForm(r, "/auth/signup/", url.Values{
		"username": {"u1"},
		"email":    {"u1@example.com"},
		"password": {"password123"},
	}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	u1, err := repo.GetAuthor(ctx, "u1")
	require.NoError(t, err)
	u1Cookie := sessionCookie(t, u1)

	w = doPostForm(r, "/create/", url.Values{"text": {"Test post"}}, u1Cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/u1/", w.Header().Get("Location"))

	// The new post leads the global feed.
	w = doGet(r, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeFeed(t, w)
	require.NotEmpty(t, feed.Data.PageObj.Posts)
	assert.Equal(t, "Test post", feed.Data.PageObj.Posts[0].Text)
	postID := feed.Data.PageObj.Posts[0].ID

	// The owner edits it; the detail view reflects the change.
	detailPath := fmt.Sprintf("/posts/%d/", postID)
	w = doPostForm(r, fmt.Sprintf("/posts/%d/edit/", postID), url.Values{"text": {"Edited"}}, u1Cookie)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))

	w = doGet(r, detailPath, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Edited")

	// A different user's edit attempt silently bounces to the detail view.
	u2 := seedUser(t, repo, "u2")
	w = doPostForm(r, fmt.Sprintf("/posts/%d/edit/", postID), url.Values{"text": {"Hijacked"}}, sessionCookie(t, u2))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))

	post, err := repo.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", post.Text)
}

func TestCreateRequiresLogin(t *testing.T) {
	r, _, _, _ := setupTestServer(t)

	w := doGet(r, "/create/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))

	w = doPostForm(r, "/create/", url.Values{"text": {"drive-by"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))
}

func TestCreateEmptyTextRerendersForm(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	u1 := seedUser(t, repo, "u1")

	w := doPostForm(r, "/create/", url.Values{"text": {"   "}}, sessionCookie(t, u1))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "text cannot be empty")

	total, err := repo.CountPosts(context.Background(), repository.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestAnonymousCommentIsIgnored(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")
	post := &models.Post{Text: "commentable", AuthorID: u1.ID, CreatedAt: time.Now()}
	require.NoError(t, repo.CreatePost(ctx, post))

	commentPath := fmt.Sprintf("/posts/%d/comment/", post.ID)
	w := doPostForm(r, commentPath, url.Values{"text": {"anonymous yelling"}}, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, fmt.Sprintf("/posts/%d/", post.ID), w.Header().Get("Location"))

	comments, err := repo.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	// The same request with a session does append the comment.
	w = doPostForm(r, commentPath, url.Values{"text": {"signed comment"}}, sessionCookie(t, u1))
	require.Equal(t, http.StatusFound, w.Code)
	comments, err = repo.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "signed comment", comments[0].Text)
}

func TestFollowEndpoints(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")
	seedUser(t, repo, "u2")
	u1Cookie := sessionCookie(t, u1)

	// Anonymous follow attempts land on the login page.
	w := doGet(r, "/profile/u2/follow/", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))

	// Following twice leaves exactly one edge.
	for i := 0; i < 2; i++ {
		w = doGet(r, "/profile/u2/follow/", u1Cookie)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/follow/", w.Header().Get("Location"))
	}
	ids, err := repo.ListFollowedAuthorIDs(ctx, u1.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// Self-follow never creates an edge.
	w = doGet(r, "/profile/u1/follow/", u1Cookie)
	require.Equal(t, http.StatusFound, w.Code)
	ids, err = repo.ListFollowedAuthorIDs(ctx, u1.ID)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// Unfollow is idempotent too.
	for i := 0; i < 2; i++ {
		w = doGet(r, "/profile/u2/unfollow/", u1Cookie)
		require.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/follow/", w.Header().Get("Location"))
	}
	ids, err = repo.ListFollowedAuthorIDs(ctx, u1.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestFollowedFeed(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")
	u2 := seedUser(t, repo, "u2")
	u1Cookie := sessionCookie(t, u1)

	require.NoError(t, repo.CreatePost(ctx, &models.Post{Text: "from u2", AuthorID: u2.ID, CreatedAt: time.Now()}))
	require.NoError(t, repo.CreatePost(ctx, &models.Post{Text: "own post", AuthorID: u1.ID, CreatedAt: time.Now()}))

	// Empty follow set renders an empty feed.
	w := doGet(r, "/follow/", u1Cookie)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeFeed(t, w)
	assert.Empty(t, feed.Data.PageObj.Posts)

	require.NoError(t, repo.CreateFollow(ctx, u1.ID, u2.ID))

	w = doGet(r, "/follow/", u1Cookie)
	require.Equal(t, http.StatusOK, w.Code)
	feed = decodeFeed(t, w)
	require.Len(t, feed.Data.PageObj.Posts, 1)
	assert.Equal(t, "from u2", feed.Data.PageObj.Posts[0].Text)
}

func TestProfileShowsFollowState(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")
	u2 := seedUser(t, repo, "u2")

	w := doGet(r, "/profile/u2/", sessionCookie(t, u1))
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeFeed(t, w)
	require.NotNil(t, feed.Data.Following)
	assert.False(t, *feed.Data.Following)

	require.NoError(t, repo.CreateFollow(ctx, u1.ID, u2.ID))

	w = doGet(r, "/profile/u2/", sessionCookie(t, u1))
	feed = decodeFeed(t, w)
	require.NotNil(t, feed.Data.Following)
	assert.True(t, *feed.Data.Following)
}

func TestProfilePagination(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 13; i++ {
		post := &models.Post{Text: fmt.Sprintf("post %d", i), AuthorID: u1.ID, CreatedAt: base.Add(time.Duration(i) * time.Minute)}
		require.NoError(t, repo.CreatePost(ctx, post))
	}

	w := doGet(r, "/profile/u1/?page=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeFeed(t, w)
	assert.Len(t, feed.Data.PageObj.Posts, 3)
	assert.Equal(t, 2, feed.Data.PageObj.Number)

	// Junk and out-of-range page values clamp instead of failing.
	w = doGet(r, "/profile/u1/?page=banana", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, decodeFeed(t, w).Data.PageObj.Number)

	w = doGet(r, "/profile/u1/?page=99", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, decodeFeed(t, w).Data.PageObj.Number)
}

func TestNotFoundRoutes(t *testing.T) {
	r, _, _, _ := setupTestServer(t)

	assert.Equal(t, http.StatusNotFound, doGet(r, "/group/missing/", nil).Code)
	assert.Equal(t, http.StatusNotFound, doGet(r, "/profile/nobody/", nil).Code)
	assert.Equal(t, http.StatusNotFound, doGet(r, "/posts/9999/", nil).Code)
	assert.Equal(t, http.StatusNotFound, doGet(r, "/no/such/page/", nil).Code)
}

func TestGroupFeedEndpoint(t *testing.T) {
	r, repo, _, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")

	group := &models.Group{Title: "Go", Slug: "go", Description: "gophers"}
	require.NoError(t, repo.CreateGroup(ctx, group))
	require.NoError(t, repo.CreatePost(ctx, &models.Post{Text: "tagged", AuthorID: u1.ID, GroupID: &group.ID, CreatedAt: time.Now()}))

	w := doGet(r, "/group/go/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	feed := decodeFeed(t, w)
	require.Len(t, feed.Data.PageObj.Posts, 1)
	assert.Equal(t, "tagged", feed.Data.PageObj.Posts[0].Text)
}

func TestFeedCacheLifecycle(t *testing.T) {
	r, repo, feedCache, _ := setupTestServer(t)
	u1 := seedUser(t, repo, "u1")
	u1Cookie := sessionCookie(t, u1)

	// First render fills the slot.
	w := doGet(r, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := feedCache.Get()
	assert.True(t, ok)

	// A post creation empties it before the response returns.
	w = doPostForm(r, "/create/", url.Values{"text": {"fresh"}}, u1Cookie)
	require.Equal(t, http.StatusFound, w.Code)
	_, ok = feedCache.Get()
	assert.False(t, ok)

	// A stale slot is served verbatim until something invalidates it: the
	// accepted window between a write and its invalidation.
	feedCache.Set([]byte(`{"code":0,"message":"success","data":{"stale":true}}`))
	w = doGet(r, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"stale":true`)

	// Editing the post clears the stale slot too.
	post, err := repo.GetPost(context.Background(), 1)
	require.NoError(t, err)
	w = doPostForm(r, fmt.Sprintf("/posts/%d/edit/", post.ID), url.Values{"text": {"edited"}}, u1Cookie)
	require.Equal(t, http.StatusFound, w.Code)
	_, ok = feedCache.Get()
	assert.False(t, ok)
}

func TestDeletePost(t *testing.T) {
	r, repo, feedCache, _ := setupTestServer(t)
	ctx := context.Background()
	u1 := seedUser(t, repo, "u1")
	u2 := seedUser(t, repo, "u2")

	post := &models.Post{Text: "doomed", AuthorID: u1.ID, CreatedAt: time.Now()}
	require.NoError(t, repo.CreatePost(ctx, post))
	require.NoError(t, repo.CreateComment(ctx, &models.Comment{PostID: post.ID, AuthorID: u2.ID, Text: "attached"}))

	deletePath := fmt.Sprintf("/posts/%d/delete/", post.ID)
	detailPath := fmt.Sprintf("/posts/%d/", post.ID)

	// Anonymous delete attempts land on the login page.
	w := doPostForm(r, deletePath, nil, nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login/", w.Header().Get("Location"))

	// A non-owner bounces to the detail view with the post intact.
	w = doPostForm(r, deletePath, nil, sessionCookie(t, u2))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, detailPath, w.Header().Get("Location"))
	_, err := repo.GetPost(ctx, post.ID)
	require.NoError(t, err)

	// Fill the cache slot, then delete as the owner: the slot must read as
	// a miss before the redirect comes back.
	w = doGet(r, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	_, ok := feedCache.Get()
	require.True(t, ok)

	w = doPostForm(r, deletePath, nil, sessionCookie(t, u1))
	require.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/profile/u1/", w.Header().Get("Location"))

	_, ok = feedCache.Get()
	assert.False(t, ok)

	_, err = repo.GetPost(ctx, post.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	comments, err := repo.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	// Deleting an already-gone post is a plain 404.
	w = doPostForm(r, deletePath, nil, sessionCookie(t, u1))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateGroupLookupFailure(t *testing.T) {
	r, repo, _, db := setupTestServer(t)
	u1 := seedUser(t, repo, "u1")
	u1Cookie := sessionCookie(t, u1)

	// A missing group id stays a validation message.
	w := doPostForm(r, "/create/", url.Values{"text": {"hello"}, "group_id": {"999"}}, u1Cookie)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "unknown group")

	// A broken groups table makes the lookup a storage failure, which must
	// surface as a server error rather than a validation message.
	require.NoError(t, db.Migrator().DropTable(&models.Group{}))

	w = doPostForm(r, "/create/", url.Values{"text": {"hello"}, "group_id": {"1"}}, u1Cookie)
	require.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "unknown group")

	total, err := repo.CountPosts(context.Background(), repository.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
}
