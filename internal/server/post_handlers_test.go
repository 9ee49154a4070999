package server

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type formBody struct {
	IsEdit bool `json:"is_edit"`
	Form   struct {
		Fields []struct {
			Name   string   `json:"name"`
			Value  string   `json:"value"`
			Errors []string `json:"errors"`
		} `json:"fields"`
	} `json:"form"`
}

func (f formBody) field(name string) (value string, errs []string) {
	for _, fld := range f.Form.Fields {
		if fld.Name == name {
			return fld.Value, fld.Errors
		}
	}
	return "", nil
}

func TestPostCreate(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	author := testutil.CreateUser(t, s.db, "author")
	group := testutil.CreateGroup(t, s.db, "cats")
	cookie := sessionFor(t, s, author)

	t.Run("form", func(t *testing.T) {
		resp := get(t, app, "/create/", cookie)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body formBody
		decode(t, resp, &body)
		assert.False(t, body.IsEdit)
		assert.Len(t, body.Form.Fields, 3)
	})

	t.Run("valid", func(t *testing.T) {
		resp := submitForm(t, app, "/create/", cookie, url.Values{
			"text":  {"a post about cats"},
			"group": {strconv.FormatUint(uint64(group.ID), 10)},
		})
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/profile/author/", resp.Header.Get("Location"))

		var post models.Post
		require.NoError(t, s.db.Where("text = ?", "a post about cats").First(&post).Error)
		assert.Equal(t, author.ID, post.AuthorID)
		require.NotNil(t, post.GroupID)
		assert.Equal(t, group.ID, *post.GroupID)
	})

	t.Run("invalid re-renders the form", func(t *testing.T) {
		var before int64
		require.NoError(t, s.db.Model(&models.Post{}).Count(&before).Error)

		resp := submitForm(t, app, "/create/", cookie, url.Values{"text": {"  "}, "group": {"999"}})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var body formBody
		decode(t, resp, &body)
		_, textErrs := body.field("text")
		assert.NotEmpty(t, textErrs)

		var after int64
		require.NoError(t, s.db.Model(&models.Post{}).Count(&after).Error)
		assert.Equal(t, before, after)
	})
}

func TestPostCreateWithImage(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	author := testutil.CreateUser(t, s.db, "author")

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("text", "with a picture"))
	part, err := w.CreateFormFile("image", "small.png")
	require.NoError(t, err)
	_, err = part.Write(testutil.PNG(t, 8, 8))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/create/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Cookie", sessionFor(t, s, author))
	resp := doRequest(t, app, req)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var post models.Post
	require.NoError(t, s.db.Where("text = ?", "with a picture").First(&post).Error)
	require.NotEmpty(t, post.Image)

	img := get(t, app, "/media/"+post.Image, "")
	assert.Equal(t, http.StatusOK, img.StatusCode)
}

func TestPostEditByOwner(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	owner := testutil.CreateUser(t, s.db, "owner")
	post := testutil.CreatePost(t, s.db, owner, nil, "original", time.Now())
	cookie := sessionFor(t, s, owner)
	target := "/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/edit/"

	resp := get(t, app, target, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body formBody
	decode(t, resp, &body)
	assert.True(t, body.IsEdit)
	text, _ := body.field("text")
	assert.Equal(t, "original", text)

	resp = submitForm(t, app, target, cookie, url.Values{"text": {"edited"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, postPath(post.ID), resp.Header.Get("Location"))

	var stored models.Post
	require.NoError(t, s.db.First(&stored, post.ID).Error)
	assert.Equal(t, "edited", stored.Text)
	assert.Equal(t, post.CreatedAt.Unix(), stored.CreatedAt.Unix())
}

func TestPostEditByNonOwnerIsSilentlyDenied(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	owner := testutil.CreateUser(t, s.db, "owner")
	other := testutil.CreateUser(t, s.db, "other")
	post := testutil.CreatePost(t, s.db, owner, nil, "original", time.Now())
	target := "/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/edit/"

	resp := submitForm(t, app, target, sessionFor(t, s, other), url.Values{"text": {"hijacked"}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body formBody
	decode(t, resp, &body)
	assert.True(t, body.IsEdit)
	text, _ := body.field("text")
	assert.Equal(t, "hijacked", text)

	var stored models.Post
	require.NoError(t, s.db.First(&stored, post.ID).Error)
	assert.Equal(t, "original", stored.Text)
}

func TestPostEditByNonOwnerExplicitForbidden(t *testing.T) {
	cfg := testConfig(t)
	cfg.FeatureFlags = "explicit_forbidden_edit=on"
	s, app := newTestServer(t, cfg, nil)
	owner := testutil.CreateUser(t, s.db, "owner")
	other := testutil.CreateUser(t, s.db, "other")
	post := testutil.CreatePost(t, s.db, owner, nil, "original", time.Now())
	target := "/posts/" + strconv.FormatUint(uint64(post.ID), 10) + "/edit/"

	resp := submitForm(t, app, target, sessionFor(t, s, other), url.Values{"text": {"hijacked"}})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	var stored models.Post
	require.NoError(t, s.db.First(&stored, post.ID).Error)
	assert.Equal(t, "original", stored.Text)
}

func TestPostDetailAndComments(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	author := testutil.CreateUser(t, s.db, "author")
	reader := testutil.CreateUser(t, s.db, "reader")
	post := testutil.CreatePost(t, s.db, author, nil, "discuss", time.Now())
	base := postPath(post.ID)
	cookie := sessionFor(t, s, reader)

	for _, text := range []string{"first", "second", ""} {
		resp := submitForm(t, app, base+"comment/", cookie, url.Values{"text": {text}})
		require.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, base, resp.Header.Get("Location"))
	}

	resp := get(t, app, base, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Post struct {
			Text          string `json:"text"`
			CommentsCount int    `json:"comments_count"`
		} `json:"post"`
		AuthorPostsCount int64 `json:"author_posts_count"`
		Comments         []struct {
			Text string `json:"text"`
		} `json:"comments"`
		Form struct {
			Action string `json:"action"`
		} `json:"form"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "discuss", body.Post.Text)
	assert.Equal(t, 2, body.Post.CommentsCount)
	assert.EqualValues(t, 1, body.AuthorPostsCount)
	require.Len(t, body.Comments, 2)
	assert.Equal(t, "first", body.Comments[0].Text)
	assert.Equal(t, base+"comment/", body.Form.Action)

	resp = submitForm(t, app, "/posts/999/comment/", cookie, url.Values{"text": {"lost"}})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPostDelete(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	owner := testutil.CreateUser(t, s.db, "owner")
	other := testutil.CreateUser(t, s.db, "other")
	post := testutil.CreatePost(t, s.db, owner, nil, "short-lived", time.Now())
	target := postPath(post.ID) + "delete/"

	resp := submitForm(t, app, target, sessionFor(t, s, other), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = submitForm(t, app, target, sessionFor(t, s, owner), nil)
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/owner/", resp.Header.Get("Location"))

	assert.Equal(t, http.StatusNotFound, get(t, app, postPath(post.ID), "").StatusCode)
}

func TestUnknownResourcesAreNotFound(t *testing.T) {
	_, app := newTestServer(t, testConfig(t), nil)

	for _, target := range []string{
		"/group/missing/",
		"/profile/nobody/",
		"/posts/999/",
		"/posts/abc/",
		"/no/such/page/",
	} {
		t.Run(target, func(t *testing.T) {
			resp := get(t, app, target, "")
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			var body models.ErrorResponse
			decode(t, resp, &body)
			assert.Equal(t, models.CodeNotFound, body.Code)
		})
	}
}

func TestDeletedUserSessionIsRejected(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	ghost := testutil.CreateUser(t, s.db, "ghost")
	cookie := sessionFor(t, s, ghost)
	require.NoError(t, s.db.Delete(&models.User{}, ghost.ID).Error)

	resp := submitForm(t, app, "/create/", cookie, url.Values{"text": {"written by nobody"}})
	assert.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/auth/login/?next=/create/", resp.Header.Get("Location"))

	var cleared bool
	for _, c := range resp.Cookies() {
		if c.Name == sessionCookie {
			cleared = c.Value == ""
		}
	}
	assert.True(t, cleared, "stale session cookie is cleared")

	var count int64
	require.NoError(t, s.db.Model(&models.Post{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAnonymousWritesRedirectToLogin(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	author := testutil.CreateUser(t, s.db, "author")
	post := testutil.CreatePost(t, s.db, author, nil, "x", time.Now())
	edit := postPath(post.ID) + "edit/"

	tests := []struct {
		method string
		target string
		want   string
	}{
		{http.MethodGet, "/create/", "/auth/login/?next=/create/"},
		{http.MethodGet, edit, "/auth/login/?next=" + edit},
		{http.MethodPost, edit, "/auth/login/?next=" + edit},
		{http.MethodGet, "/follow/", "/auth/login/?next=/follow/"},
		{http.MethodGet, "/profile/author/follow/", "/auth/login/?next=/profile/author/follow/"},
		{http.MethodPost, postPath(post.ID) + "comment/", "/auth/login/?next=" + postPath(post.ID) + "comment/"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(""))
			resp := doRequest(t, app, req)
			assert.Equal(t, http.StatusFound, resp.StatusCode)
			assert.Equal(t, tt.want, resp.Header.Get("Location"))
		})
	}

	var stored models.Post
	require.NoError(t, s.db.First(&stored, post.ID).Error)
	assert.Equal(t, "x", stored.Text)
}
