package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func pageBody(count int, ids ...string) string {
	posts := make([]map[string]string, 0, len(ids))
	for _, id := range ids {
		posts = append(posts, map[string]string{"_id": id, "title": "title " + id, "content": "c", "imagePath": "", "creator": "u1"})
	}
	b, _ := json.Marshal(map[string]any{"message": "Posts fetched successfully!", "posts": posts, "maxPosts": count})
	return string(b)
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not finish")
		return nil
	}
}

func TestFetchPage_ReturnsStaleAndBroadcasts(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("pagesize"))
		if calls.Add(1) == 1 {
			_, _ = io.WriteString(w, pageBody(5, "a", "b"))
			return
		}
		_, _ = io.WriteString(w, pageBody(5, "c", "d"))
	}))
	defer srv.Close()

	s := NewPostService(srv.URL, srv.Client(), nil, nil)
	updates, cancel := s.Subscribe()
	defer cancel()

	stale, done := s.FetchPage(context.Background(), 2, 1)
	assert.Empty(t, stale.Posts)
	require.NoError(t, waitDone(t, done))

	got := <-updates
	assert.Equal(t, 5, got.PostCount)
	require.Len(t, got.Posts, 2)
	assert.Equal(t, "a", got.Posts[0].ID)
	assert.Equal(t, "title b", got.Posts[1].Title)

	stale, done = s.FetchPage(context.Background(), 2, 2)
	require.Len(t, stale.Posts, 2)
	assert.Equal(t, "a", stale.Posts[0].ID)
	require.NoError(t, waitDone(t, done))
	assert.Equal(t, "c", (<-updates).Posts[0].ID)
}

func TestFetchPage_LastArrivalWins(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			<-release
			_, _ = io.WriteString(w, pageBody(4, "first"))
			return
		}
		_, _ = io.WriteString(w, pageBody(4, "second"))
	}))
	defer srv.Close()

	s := NewPostService(srv.URL, srv.Client(), nil, nil)
	updates, cancel := s.Subscribe()
	defer cancel()

	_, slow := s.FetchPage(context.Background(), 1, 1)
	_, fast := s.FetchPage(context.Background(), 1, 2)
	require.NoError(t, waitDone(t, fast))
	assert.Equal(t, "second", s.Current().Posts[0].ID)

	close(release)
	require.NoError(t, waitDone(t, slow))

	assert.Equal(t, "first", (<-updates).Posts[0].ID)
	assert.Equal(t, "first", s.Current().Posts[0].ID)
}

func TestFetchPage_ErrorLeavesStateAlone(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"message":"Fetching posts failed!"}`)
	}))
	defer srv.Close()

	s := NewPostService(srv.URL, srv.Client(), nil, nil)
	updates, cancel := s.Subscribe()
	defer cancel()

	_, done := s.FetchPage(context.Background(), 2, 1)
	err := waitDone(t, done)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.StatusCode)
	assert.Equal(t, "Fetching posts failed!", httpErr.Message)

	select {
	case <-updates:
		t.Fatal("failed fetch must not broadcast")
	default:
	}
}

func TestFetchOne(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/posts/p1" {
			_, _ = io.WriteString(w, `{"_id":"p1","title":"Hello","content":"body","imagePath":"http://x/images/a.png","creator":"u1"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"message":"Post not found!"}`)
	}))
	defer srv.Close()

	s := NewPostService(srv.URL, srv.Client(), nil, nil)
	p, err := s.FetchOne(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, Post{ID: "p1", Title: "Hello", Content: "body", ImagePath: "http://x/images/a.png", Creator: "u1"}, p)

	_, err = s.FetchOne(context.Background(), "p2")
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Empty(t, s.Current().Posts)
}

type recorded struct {
	method      string
	path        string
	contentType string
	auth        string
	fields      map[string]string
	fileName    string
	fileType    string
	json        map[string]string
}

func recordingServer(t *testing.T, status int, body string) (*httptest.Server, func() recorded) {
	t.Helper()
	var mu sync.Mutex
	var last recorded
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path, contentType: r.Header.Get("Content-Type"), auth: r.Header.Get("Authorization")}
		switch {
		case strings.HasPrefix(rec.contentType, "multipart/form-data"):
			assert.NoError(t, r.ParseMultipartForm(1<<20))
			rec.fields = map[string]string{}
			for k, v := range r.MultipartForm.Value {
				rec.fields[k] = v[0]
			}
			if files := r.MultipartForm.File["image"]; len(files) == 1 {
				rec.fileName = files[0].Filename
				rec.fileType = files[0].Header.Get("Content-Type")
			}
		case rec.contentType == "application/json":
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&rec.json))
		}
		mu.Lock()
		last = rec
		mu.Unlock()
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, func() recorded {
		mu.Lock()
		defer mu.Unlock()
		return last
	}
}

func TestCreate_MultipartAndNavigate(t *testing.T) {
	srv, last := recordingServer(t, http.StatusCreated,
		`{"message":"Post added successfully","post":{"id":"p9","title":"Hello World","content":"body","imagePath":"http://h/images/hello-world-1.png"}}`)
	var navigated []string
	s := NewPostService(srv.URL, srv.Client(), staticToken("tok"), NavigatorFunc(func(p string) { navigated = append(navigated, p) }))

	p, err := s.Create(context.Background(), "Hello World", "body", &ImageFile{ContentType: "image/png", Data: []byte("png")})
	require.NoError(t, err)
	assert.Equal(t, "p9", p.ID)
	assert.Equal(t, []string{"/"}, navigated)

	rec := last()
	assert.Equal(t, http.MethodPost, rec.method)
	assert.Equal(t, "/api/posts", rec.path)
	assert.Equal(t, "Bearer tok", rec.auth)
	assert.Equal(t, map[string]string{"title": "Hello World", "content": "body"}, rec.fields)
	assert.Equal(t, "Hello World", rec.fileName)
	assert.Equal(t, "image/png", rec.fileType)
	assert.Empty(t, s.Current().Posts)
}

func TestCreate_FailureDoesNotNavigate(t *testing.T) {
	srv, _ := recordingServer(t, http.StatusUnauthorized, `{"message":"Auth failed!"}`)
	var navigated bool
	s := NewPostService(srv.URL, srv.Client(), nil, NavigatorFunc(func(string) { navigated = true }))

	_, err := s.Create(context.Background(), "Hello", "body", nil)
	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.False(t, navigated)
}

func TestUpdate_BodyDependsOnImage(t *testing.T) {
	srv, last := recordingServer(t, http.StatusOK, `{"message":"Update successful!"}`)
	s := NewPostService(srv.URL, srv.Client(), staticToken("tok"), nil)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, "p1", "Title", "body", ImagePath("http://h/images/old.png")))
	rec := last()
	assert.Equal(t, http.MethodPut, rec.method)
	assert.Equal(t, "/api/posts/p1", rec.path)
	assert.Equal(t, "application/json", rec.contentType)
	assert.Equal(t, map[string]string{"id": "p1", "title": "Title", "content": "body", "imagePath": "http://h/images/old.png"}, rec.json)

	require.NoError(t, s.Update(ctx, "p1", "Title", "body", ImageFile{Name: "new pic", ContentType: "image/jpeg", Data: []byte("jpg")}))
	rec = last()
	assert.True(t, strings.HasPrefix(rec.contentType, "multipart/form-data"))
	assert.Equal(t, map[string]string{"id": "p1", "title": "Title", "content": "body"}, rec.fields)
	assert.Equal(t, "new pic", rec.fileName)
	assert.Equal(t, "image/jpeg", rec.fileType)
}

func TestDelete(t *testing.T) {
	srv, last := recordingServer(t, http.StatusOK, `{"message":"Deletion successful!"}`)
	s := NewPostService(srv.URL, srv.Client(), staticToken("tok"), nil)

	require.NoError(t, s.Delete(context.Background(), "p1"))
	assert.Equal(t, http.MethodDelete, last().method)
	assert.Equal(t, "/api/posts/p1", last().path)
}

func TestHTTPError_Message(t *testing.T) {
	assert.Equal(t, "http 401: Not authorized!", (&HTTPError{StatusCode: 401, Message: "Not authorized!"}).Error())
	assert.Equal(t, "http 502", fmt.Sprint(&HTTPError{StatusCode: 502}))
}
