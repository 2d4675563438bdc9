package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"circleup/backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxUploadSize caps individual image uploads at 8 MiB.
const maxUploadSize = 8 << 20

var allowedImageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

// region --- DTOs ---

type MediaUploadResponse struct {
	URL string `json:"url"`
}

// endregion

// UploadMedia godoc
// @Summary      Upload an image
// @Description  Stores an image file and returns the URL to reference it from posts, avatars or group portraits.
// @Tags         media
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        file formData file true "Image file (jpg, png, gif or webp, max 8 MiB)"
// @Success      201 {object} MediaUploadResponse
// @Failure      400 {object} ErrorResponse "Missing or invalid file"
// @Failure      413 {object} ErrorResponse "File too large"
// @Router       /media [post]
func UploadMedia(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}
	if file.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "File too large"})
		return
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedImageExts[ext] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported file type"})
		return
	}

	if err := os.MkdirAll(config.AppConfig.MediaDir, 0o755); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store file"})
		return
	}

	name := uuid.NewString() + ext
	dst := filepath.Join(config.AppConfig.MediaDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not store file"})
		return
	}

	c.JSON(http.StatusCreated, MediaUploadResponse{
		URL: fmt.Sprintf("%s/%s", strings.TrimRight(config.AppConfig.MediaBase, "/"), name),
	})
}
