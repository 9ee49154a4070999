package server

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

type pageBody struct {
	PageObj struct {
		Number   int   `json:"number"`
		NumPages int   `json:"num_pages"`
		Count    int64 `json:"count"`
		Items    []struct {
			ID     uint   `json:"id"`
			Text   string `json:"text"`
			Author struct {
				Username string `json:"username"`
			} `json:"author"`
		} `json:"items"`
	} `json:"page_obj"`
}

func TestIndexPagination(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	author := testutil.CreateUser(t, s.db, "author")
	testutil.CreatePosts(t, s.db, author, nil, 13)

	tests := []struct {
		target string
		number int
		items  int
	}{
		{"/", 1, 10},
		{"/?page=1", 1, 10},
		{"/?page=2", 2, 3},
		{"/?page=99", 2, 3},
		{"/?page=-4", 1, 10},
		{"/?page=abc", 1, 10},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			resp := get(t, app, tt.target, "")
			require.Equal(t, http.StatusOK, resp.StatusCode)

			var body pageBody
			decode(t, resp, &body)
			assert.Equal(t, tt.number, body.PageObj.Number)
			assert.Equal(t, 2, body.PageObj.NumPages)
			assert.EqualValues(t, 13, body.PageObj.Count)
			assert.Len(t, body.PageObj.Items, tt.items)
		})
	}
}

func TestGroupAndProfileFeeds(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	author := testutil.CreateUser(t, s.db, "author")
	reader := testutil.CreateUser(t, s.db, "reader")
	cats := testutil.CreateGroup(t, s.db, "cats")
	testutil.CreatePosts(t, s.db, author, cats, 12)
	testutil.CreatePost(t, s.db, reader, nil, "no group", time.Now())

	resp := get(t, app, "/group/cats/?page=2", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var group struct {
		Group struct {
			Slug string `json:"slug"`
		} `json:"group"`
		pageBody
	}
	decode(t, resp, &group)
	assert.Equal(t, "cats", group.Group.Slug)
	assert.EqualValues(t, 12, group.PageObj.Count)
	assert.Len(t, group.PageObj.Items, 2)

	require.NoError(t, s.db.Create(&models.Follow{UserID: reader.ID, AuthorID: author.ID}).Error)

	var profile struct {
		Following  bool  `json:"following"`
		PostsCount int64 `json:"posts_count"`
	}
	decode(t, get(t, app, "/profile/author/", sessionFor(t, s, reader)), &profile)
	assert.True(t, profile.Following)
	assert.EqualValues(t, 12, profile.PostsCount)

	decode(t, get(t, app, "/profile/author/", ""), &profile)
	assert.False(t, profile.Following)
}

func TestFollowFeedExcludesUnrelatedAuthors(t *testing.T) {
	s, app := newTestServer(t, testConfig(t), nil)
	reader := testutil.CreateUser(t, s.db, "reader")
	followed := testutil.CreateUser(t, s.db, "followed")
	stranger := testutil.CreateUser(t, s.db, "stranger")
	testutil.CreatePosts(t, s.db, followed, nil, 3)
	cookie := sessionFor(t, s, reader)

	resp := get(t, app, "/profile/followed/follow/", cookie)
	require.Equal(t, http.StatusFound, resp.StatusCode)

	var before pageBody
	decode(t, get(t, app, "/follow/", cookie), &before)
	require.Len(t, before.PageObj.Items, 3)

	testutil.CreatePost(t, s.db, stranger, nil, "unrelated", time.Now())

	var after pageBody
	decode(t, get(t, app, "/follow/", cookie), &after)
	assert.Len(t, after.PageObj.Items, 3)
	for _, item := range after.PageObj.Items {
		assert.Equal(t, "followed", item.Author.Username)
	}
}

func TestIndexCache(t *testing.T) {
	s, app, mr := newRedisTestServer(t)
	author := testutil.CreateUser(t, s.db, "author")
	testutil.CreatePosts(t, s.db, author, nil, 2)
	cookie := sessionFor(t, s, author)

	first := readBody(t, get(t, app, "/", ""))

	resp := submitForm(t, app, "/create/", cookie, url.Values{"text": {"fresh post"}})
	require.Equal(t, http.StatusFound, resp.StatusCode)
	assert.Equal(t, "/profile/author/", resp.Header.Get("Location"))

	cached := readBody(t, get(t, app, "/", ""))
	assert.Equal(t, first, cached, "cached page must not change within the TTL")

	t.Run("explicit clear", func(t *testing.T) {
		require.NoError(t, s.FeedCache().Clear(t.Context()))
		fresh := readBody(t, get(t, app, "/", ""))
		assert.NotEqual(t, first, fresh)
		assert.Contains(t, string(fresh), "fresh post")
	})

	t.Run("ttl expiry", func(t *testing.T) {
		before := readBody(t, get(t, app, "/", ""))
		testutil.CreatePost(t, s.db, author, nil, "after expiry", time.Now().Add(time.Hour))
		assert.Equal(t, before, readBody(t, get(t, app, "/", "")))

		mr.FastForward(21 * time.Second)
		assert.True(t, strings.Contains(string(readBody(t, get(t, app, "/", ""))), "after expiry"))
	})
}

func TestIndexCacheKeysByResolvedPage(t *testing.T) {
	s, app, mr := newRedisTestServer(t)
	author := testutil.CreateUser(t, s.db, "author")
	testutil.CreatePosts(t, s.db, author, nil, 2)

	first := readBody(t, get(t, app, "/?page=a1", ""))
	testutil.CreatePost(t, s.db, author, nil, "not yet visible", time.Now().Add(time.Hour))

	for _, target := range []string{"/", "/?page=1", "/?page=01", "/?page=a2", "/?page=-3", "/?page=%20%201"} {
		assert.Equal(t, first, readBody(t, get(t, app, target, "")), target)
	}
	assert.Equal(t, []string{s.FeedCache().Key("1")}, mr.Keys())

	get(t, app, "/?page=last", "")
	get(t, app, "/?page=99999999999999999999999", "")
	get(t, app, "/?page=2", "")
	get(t, app, "/?page=002", "")
	assert.Len(t, mr.Keys(), 3)
}

func TestIndexCacheFailsOpen(t *testing.T) {
	s, app, mr := newRedisTestServer(t)
	author := testutil.CreateUser(t, s.db, "author")
	testutil.CreatePosts(t, s.db, author, nil, 1)

	mr.Close()

	for i := 0; i < 3; i++ {
		start := time.Now()
		resp := get(t, app, "/", "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Less(t, time.Since(start), 500*time.Millisecond, "request %d waited on the dead cache", i)

		var body pageBody
		decode(t, resp, &body)
		assert.Len(t, body.PageObj.Items, 1)
	}
}

func TestIndexCacheFlagOff(t *testing.T) {
	cfg := testConfig(t)
	cfg.FeatureFlags = "index_cache=off"
	s, app := newTestServer(t, cfg, nil)
	author := testutil.CreateUser(t, s.db, "author")

	first := readBody(t, get(t, app, "/", ""))
	testutil.CreatePost(t, s.db, author, nil, "uncached", time.Now())
	assert.NotEqual(t, first, readBody(t, get(t, app, "/", "")))
}

func TestFeedSpansKeepRequestValues(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	prev := observability.Tracer
	observability.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)).Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })

	s, app := newTestServer(t, testConfig(t), nil)
	testutil.CreateGroup(t, s.db, "aaaaaaaa")
	testutil.CreateGroup(t, s.db, "bbbbbbbb")

	require.Equal(t, http.StatusOK, get(t, app, "/group/aaaaaaaa/?page=1111", "").StatusCode)
	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, get(t, app, "/group/bbbbbbbb/?page=2222", "").StatusCode)
	}

	var slugs []string
	for _, span := range recorder.Ended() {
		if span.Name() != "FeedService.GroupFeed" {
			continue
		}
		for _, kv := range span.Attributes() {
			if kv.Key == "slug" {
				slugs = append(slugs, kv.Value.AsString())
			}
		}
	}
	require.Len(t, slugs, 6)
	assert.Equal(t, "aaaaaaaa", slugs[0])
	for _, slug := range slugs[1:] {
		assert.Equal(t, "bbbbbbbb", slug)
	}
}
