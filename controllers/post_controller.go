package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/middleware"
	"github.com/cppla/postboard/models"
	"github.com/cppla/postboard/store"
	"github.com/cppla/postboard/utils"
)

// PostController manages CRUD operations for posts.
type PostController struct {
	posts store.PostStore
}

// NewPostController creates a new PostController instance.
func NewPostController(posts store.PostStore) *PostController {
	return &PostController{posts: posts}
}

type postRequest struct {
	Title     string `form:"title" json:"title" binding:"required,min=3"`
	Content   string `form:"content" json:"content" binding:"required"`
	ImagePath string `form:"imagePath" json:"imagePath"`
}

// CreatedPost is the post shape returned by CreatePost.
type CreatedPost struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Content   string `json:"content"`
	ImagePath string `json:"imagePath"`
}

// CreatePost stores a post authored by the caller. Any creator field in the body is ignored.
func (p *PostController) CreatePost(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed!")
		return
	}

	req, ok := bindPost(ctx)
	if !ok {
		return
	}

	post := models.Post{
		Title:   req.Title,
		Content: req.Content,
		Creator: userID,
	}
	if name, ok := middleware.UploadedImage(ctx); ok {
		post.ImagePath = imageURL(ctx, name)
	}

	created, err := p.posts.Create(ctx.Request.Context(), post)
	if err != nil {
		utils.Sugar.Errorw("create post failed", "creator", userID, "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Creating a post failed!")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Post added successfully",
		"post": CreatedPost{
			ID:        created.ID,
			Title:     created.Title,
			Content:   created.Content,
			ImagePath: created.ImagePath,
		},
	})
}

// ListPosts returns one page plus the total count. The two reads are independent,
// so maxPosts may disagree with the page under concurrent writes.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page := store.ParsePage(ctx.Query("pagesize"), ctx.Query("page"))

	posts, err := p.posts.List(ctx.Request.Context(), page)
	if err != nil {
		utils.Sugar.Errorw("list posts failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Fetching posts failed!")
		return
	}
	count, err := p.posts.Count(ctx.Request.Context())
	if err != nil {
		utils.Sugar.Errorw("count posts failed", "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Fetching posts failed!")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message":  "Posts fetched successfully!",
		"posts":    posts,
		"maxPosts": count,
	})
}

// GetPost returns a single post.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, err := p.posts.FindByID(ctx.Request.Context(), ctx.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.Error(ctx, http.StatusNotFound, "Post not found!")
			return
		}
		utils.Sugar.Errorw("get post failed", "id", ctx.Param("id"), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, "Fetching post failed!")
		return
	}
	ctx.JSON(http.StatusOK, post)
}

// UpdatePost replaces title, content and imagePath of a post the caller owns.
// A freshly uploaded image wins over the imagePath in the body.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed!")
		return
	}

	req, ok := bindPost(ctx)
	if !ok {
		return
	}

	update := models.PostUpdate{
		Title:     req.Title,
		Content:   req.Content,
		ImagePath: req.ImagePath,
	}
	if name, ok := middleware.UploadedImage(ctx); ok {
		update.ImagePath = imageURL(ctx, name)
	}

	filter := models.OwnerFilter{ID: ctx.Param("id"), Creator: userID}
	err := store.RequireMatch(p.posts.UpdateOne(ctx.Request.Context(), filter, update))
	writeOwnedResult(ctx, err, "Update successful!", "Couldn't update post!")
}

// DeletePost removes a post the caller owns.
func (p *PostController) DeletePost(ctx *gin.Context) {
	userID, ok := middleware.UserID(ctx)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, "Auth failed!")
		return
	}

	filter := models.OwnerFilter{ID: ctx.Param("id"), Creator: userID}
	err := store.RequireMatch(p.posts.DeleteOne(ctx.Request.Context(), filter))
	writeOwnedResult(ctx, err, "Deletion successful!", "Deleting post failed!")
}

// writeOwnedResult maps the outcome of an owner-filtered write.
// A missing post and someone else's post both answer 401.
func writeOwnedResult(ctx *gin.Context, err error, okMessage, failMessage string) {
	switch {
	case err == nil:
		utils.Message(ctx, http.StatusOK, okMessage)
	case errors.Is(err, store.ErrNotOwner):
		utils.Error(ctx, http.StatusUnauthorized, "Not authorized!")
	default:
		utils.Sugar.Errorw("post write failed", "id", ctx.Param("id"), "error", err)
		utils.Error(ctx, http.StatusInternalServerError, failMessage)
	}
}

func bindPost(ctx *gin.Context) (postRequest, bool) {
	var req postRequest
	if err := ctx.ShouldBind(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return req, false
	}
	req.Title = utils.SanitizePostField(req.Title)
	req.Content = utils.SanitizePostField(req.Content)
	if len([]rune(req.Title)) < 3 || req.Content == "" {
		utils.Error(ctx, http.StatusBadRequest, "invalid request payload")
		return req, false
	}
	return req, true
}

// imageURL builds <scheme>://<host>/images/<name> for a stored upload.
func imageURL(ctx *gin.Context, name string) string {
	scheme := "http"
	if ctx.Request.TLS != nil {
		scheme = "https"
	}
	if proto := ctx.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	return scheme + "://" + ctx.Request.Host + utils.ImageURLPrefix + name
}
