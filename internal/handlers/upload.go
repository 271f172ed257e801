package handlers

import (
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
)

// imageField is the multipart form field carrying uploaded photos
const imageField = "image"

// openImage returns the uploaded image file, writing a 400 when missing or
// larger than maxBytes. The caller closes the file.
func openImage(c *gin.Context, maxBytes int64) (multipart.File, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	header, err := c.FormFile(imageField)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "A multipart \"image\" file is required",
			Details: map[string]interface{}{imageField: "required"},
		})
		return nil, false
	}

	if header.Size > maxBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "file_too_large",
			Message: "Image exceeds the upload limit",
		})
		return nil, false
	}

	file, err := header.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Could not read uploaded image",
		})
		return nil, false
	}

	return file, true
}
