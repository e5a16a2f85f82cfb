package client

import (
	"context"
	"sync"
)

const (
	defaultPostsPerPage = 2
	defaultCurrentPage  = 1
)

// ListState is what a post list renders.
type ListState struct {
	Posts        []Post
	TotalPosts   int
	PostsPerPage int
	CurrentPage  int
	IsLoading    bool
	Err          error
}

// PostListView drives a paginated post list: idle, loading while a fetch is
// in flight, idle again when a page arrives. Failed fetches and deletes clear
// the loading flag here because no page will be broadcast for them.
type PostListView struct {
	posts  *PostService
	mu     sync.Mutex
	state  ListState
	cancel func()
	closed bool
	wg     sync.WaitGroup
}

// NewPostListView starts on page 1 with two posts per page.
func NewPostListView(posts *PostService) *PostListView {
	return &PostListView{
		posts: posts,
		state: ListState{PostsPerPage: defaultPostsPerPage, CurrentPage: defaultCurrentPage},
	}
}

// Init subscribes to page updates and loads the current page.
func (v *PostListView) Init(ctx context.Context) {
	updates, cancel := v.posts.Subscribe()
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		cancel()
		return
	}
	v.cancel = cancel
	v.wg.Add(1)
	v.mu.Unlock()

	go func() {
		defer v.wg.Done()
		for page := range updates {
			v.mu.Lock()
			v.state.Posts = page.Posts
			v.state.TotalPosts = page.PostCount
			v.state.IsLoading = false
			v.state.Err = nil
			v.mu.Unlock()
		}
	}()
	v.fetch(ctx)
}

// ChangePage reacts to a paginator event; pageIndex is zero-based.
func (v *PostListView) ChangePage(ctx context.Context, pageIndex, pageSize int) {
	v.mu.Lock()
	v.state.CurrentPage = pageIndex + 1
	v.state.PostsPerPage = pageSize
	v.mu.Unlock()
	v.fetch(ctx)
}

// Delete removes a post and reloads the current page.
func (v *PostListView) Delete(ctx context.Context, id string) error {
	v.setLoading()
	if err := v.posts.Delete(ctx, id); err != nil {
		v.fail(err)
		return err
	}
	v.fetch(ctx)
	return nil
}

// State returns a copy of the current view state.
func (v *PostListView) State() ListState {
	v.mu.Lock()
	defer v.mu.Unlock()
	st := v.state
	st.Posts = append([]Post(nil), v.state.Posts...)
	return st
}

// Close unsubscribes and waits for the update loop to stop.
// Fetches requested after Close are ignored.
func (v *PostListView) Close() {
	v.mu.Lock()
	v.closed = true
	cancel := v.cancel
	v.cancel = nil
	v.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	v.wg.Wait()
}

func (v *PostListView) fetch(ctx context.Context) {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.state.IsLoading = true
	size, current := v.state.PostsPerPage, v.state.CurrentPage
	// registered under mu so Close cannot start waiting between the check and Add
	v.wg.Add(1)
	v.mu.Unlock()

	_, done := v.posts.FetchPage(ctx, size, current)
	go func() {
		defer v.wg.Done()
		if err := <-done; err != nil {
			v.fail(err)
		}
	}()
}

func (v *PostListView) setLoading() {
	v.mu.Lock()
	v.state.IsLoading = true
	v.mu.Unlock()
}

func (v *PostListView) fail(err error) {
	v.mu.Lock()
	v.state.IsLoading = false
	v.state.Err = err
	v.mu.Unlock()
}
