package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/postboard/utils"
)

const (
	// ImageField is the multipart field carrying the post image.
	ImageField = "image"
	// ContextImageFilenameKey holds the generated name of a stored upload.
	ContextImageFilenameKey = "image_filename"
	// ContextImagePathKey holds the on-disk path of a stored upload.
	ContextImagePathKey = "image_path"
)

// ImageUpload stores an optional "image" file before the handler runs.
// A rejected upload aborts the chain; requests without a file pass through untouched.
func ImageUpload(images *utils.ImageStore) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		fh, err := ctx.FormFile(ImageField)
		if err != nil {
			if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
				ctx.Next()
				return
			}
			utils.Error(ctx, http.StatusBadRequest, "invalid multipart body")
			ctx.Abort()
			return
		}

		path, filename, err := images.Save(fh)
		if err != nil {
			switch {
			case errors.Is(err, utils.ErrInvalidMIME):
				utils.Error(ctx, http.StatusBadRequest, "invalid mime type")
			case errors.Is(err, utils.ErrImageTooLarge):
				utils.Error(ctx, http.StatusRequestEntityTooLarge, "image too large")
			default:
				utils.Sugar.Errorw("store upload failed", "filename", fh.Filename, "error", err)
				utils.Error(ctx, http.StatusInternalServerError, "upload failed")
			}
			ctx.Abort()
			return
		}

		ctx.Set(ContextImagePathKey, path)
		ctx.Set(ContextImageFilenameKey, filename)
		ctx.Next()
	}
}

// UploadedImage returns the generated filename when an image was stored for this request.
func UploadedImage(ctx *gin.Context) (string, bool) {
	name := ctx.GetString(ContextImageFilenameKey)
	return name, name != ""
}
