// Package client talks to the posts API and keeps the last fetched page for views.
//
// Mutations never patch the cached page. After Create, Update or Delete the
// caller must call FetchPage again to observe the change.
package client

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"sync"
)

const postsPath = "/api/posts"

// Post is the client-side post. The wire "_id" is exposed as ID.
type Post struct {
	ID        string
	Title     string
	Content   string
	ImagePath string
	Creator   string
}

type wirePost struct {
	ID        string `json:"_id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImagePath string `json:"imagePath"`
	Creator   string `json:"creator"`
}

func (w wirePost) post() Post {
	return Post{ID: w.ID, Title: w.Title, Content: w.Content, ImagePath: w.ImagePath, Creator: w.Creator}
}

// Page is one fetched page plus the collection size reported with it.
type Page struct {
	Posts     []Post
	PostCount int
}

func (p Page) clone() Page {
	out := Page{PostCount: p.PostCount, Posts: make([]Post, len(p.Posts))}
	copy(out.Posts, p.Posts)
	return out
}

// Image is the image argument of Update: either a new file or the path already stored.
type Image interface {
	isImage()
}

// ImageFile is an image to upload. An empty Name uploads under the post title.
type ImageFile struct {
	Name        string
	ContentType string
	Data        []byte
}

// ImagePath keeps the image the post already has.
type ImagePath string

func (ImageFile) isImage() {}
func (ImagePath) isImage() {}

// Navigator moves the UI after a successful create or update.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// PostService mediates every read and write between views and the posts API.
type PostService struct {
	api     *apiClient
	nav     Navigator
	mu      sync.Mutex
	page    Page
	updates *Broadcaster[Page]
}

// NewPostService builds a service against baseURL. hc may be nil; nav may be nil.
func NewPostService(baseURL string, hc *http.Client, tokens TokenSource, nav Navigator) *PostService {
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}
	return &PostService{
		api:     newAPIClient(baseURL, hc, tokens),
		nav:     nav,
		updates: NewBroadcaster[Page](),
	}
}

// Subscribe returns a channel receiving each new page snapshot.
func (s *PostService) Subscribe() (<-chan Page, func()) {
	return s.updates.Subscribe()
}

// FetchPage requests a page in the background and returns the page held before
// this call, which is stale. The fresh page reaches subscribers when the response
// arrives; done then yields nil or the request error and is closed.
//
// Requests are not serialised. When responses overtake each other the last one
// to arrive wins, not the last one requested.
func (s *PostService) FetchPage(ctx context.Context, pageSize, currentPage int) (Page, <-chan error) {
	s.mu.Lock()
	stale := s.page.clone()
	s.mu.Unlock()

	q := url.Values{}
	q.Set("pagesize", strconv.Itoa(pageSize))
	q.Set("page", strconv.Itoa(currentPage))
	path := postsPath + "?" + q.Encode()

	done := make(chan error, 1)
	go func() {
		defer close(done)
		var resp struct {
			Message  string     `json:"message"`
			Posts    []wirePost `json:"posts"`
			MaxPosts int        `json:"maxPosts"`
		}
		if err := s.api.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
			done <- err
			return
		}

		next := Page{PostCount: resp.MaxPosts, Posts: make([]Post, 0, len(resp.Posts))}
		for _, w := range resp.Posts {
			next.Posts = append(next.Posts, w.post())
		}

		// publishing under the lock keeps broadcast order equal to state order
		s.mu.Lock()
		s.page = next
		s.updates.Publish(next.clone())
		s.mu.Unlock()
		done <- nil
	}()
	return stale, done
}

// Current returns the page held right now.
func (s *PostService) Current() Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.page.clone()
}

// FetchOne loads a single post. It does not touch the cached page.
func (s *PostService) FetchOne(ctx context.Context, id string) (Post, error) {
	var w wirePost
	if err := s.api.doJSON(ctx, http.MethodGet, postsPath+"/"+url.PathEscape(id), nil, &w); err != nil {
		return Post{}, err
	}
	return w.post(), nil
}

// Create uploads a new post and navigates home on success.
// image may be nil to create a post without one.
func (s *PostService) Create(ctx context.Context, title, content string, image *ImageFile) (Post, error) {
	fields := [][2]string{{"title", title}, {"content", content}}
	body, contentType, err := multipartBody(fields, title, image)
	if err != nil {
		return Post{}, err
	}

	var resp struct {
		Message string `json:"message"`
		Post    struct {
			ID        string `json:"id"`
			Title     string `json:"title"`
			Content   string `json:"content"`
			ImagePath string `json:"imagePath"`
		} `json:"post"`
	}
	if err := s.api.do(ctx, http.MethodPost, postsPath, body, contentType, &resp); err != nil {
		return Post{}, err
	}
	s.nav.Navigate("/")
	return Post{
		ID:        resp.Post.ID,
		Title:     resp.Post.Title,
		Content:   resp.Post.Content,
		ImagePath: resp.Post.ImagePath,
	}, nil
}

// Update replaces a post. An ImageFile is sent as multipart; an ImagePath (or nil)
// is sent as JSON keeping that path. Navigates home on success.
func (s *PostService) Update(ctx context.Context, id, title, content string, image Image) error {
	path := postsPath + "/" + url.PathEscape(id)

	var err error
	switch img := image.(type) {
	case ImageFile:
		err = s.updateMultipart(ctx, path, id, title, content, &img)
	case *ImageFile:
		err = s.updateMultipart(ctx, path, id, title, content, img)
	case ImagePath:
		err = s.updateJSON(ctx, path, id, title, content, string(img))
	case nil:
		err = s.updateJSON(ctx, path, id, title, content, "")
	default:
		err = fmt.Errorf("unsupported image type %T", image)
	}
	if err != nil {
		return err
	}
	s.nav.Navigate("/")
	return nil
}

func (s *PostService) updateMultipart(ctx context.Context, path, id, title, content string, img *ImageFile) error {
	fields := [][2]string{{"id", id}, {"title", title}, {"content", content}}
	body, contentType, err := multipartBody(fields, title, img)
	if err != nil {
		return err
	}
	return s.api.do(ctx, http.MethodPut, path, body, contentType, nil)
}

func (s *PostService) updateJSON(ctx context.Context, path, id, title, content, imagePath string) error {
	payload := struct {
		ID        string `json:"id"`
		Title     string `json:"title"`
		Content   string `json:"content"`
		ImagePath string `json:"imagePath"`
	}{id, title, content, imagePath}
	return s.api.doJSON(ctx, http.MethodPut, path, payload, nil)
}

// Delete removes a post. Call FetchPage afterwards to see it gone.
func (s *PostService) Delete(ctx context.Context, id string) error {
	return s.api.doJSON(ctx, http.MethodDelete, postsPath+"/"+url.PathEscape(id), nil, nil)
}

// Close ends every subscription.
func (s *PostService) Close() {
	s.updates.Close()
}

func multipartBody(fields [][2]string, fallbackName string, image *ImageFile) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", err
		}
	}
	if image != nil {
		name := image.Name
		if name == "" {
			name = fallbackName
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, name))
		h.Set("Content-Type", image.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(image.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
