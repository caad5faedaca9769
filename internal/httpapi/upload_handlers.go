package httpapi

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/backboneproto/corechat/internal/apperror"
)

func (a *App) handleUploadIntent(c *gin.Context) {
	var req uploadIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	res, err := a.Uploads.Intent(c.Request.Context(), currentUserID(c), req.OriginalName, req.MimeType)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (a *App) handleUploadComplete(c *gin.Context) {
	var req uploadCompleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, apperror.Validation(err.Error()))
		return
	}
	u, err := a.Uploads.Complete(c.Request.Context(), currentUserID(c), req.Key, req.OriginalName, req.MimeType, req.Size)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, uploadJSON(u))
}

// handleDirectUpload is the single-request upload path (small files, or
// storage drivers without a presign step), streaming the multipart body
// straight through to the storage backend.
func (a *App) handleDirectUpload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		writeError(c, apperror.Validation("file is required"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		writeError(c, apperror.Internal(err))
		return
	}
	defer f.Close()

	var body io.Reader = f
	mimeType := fileHeader.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	u, err := a.Uploads.DirectUpload(c.Request.Context(), currentUserID(c), fileHeader.Filename, mimeType, fileHeader.Size, body)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, uploadJSON(u))
}

func (a *App) handleGetUpload(c *gin.Context) {
	id := c.Param("id")
	u, err := a.Store.UploadGet(c.Request.Context(), id)
	if err != nil {
		writeError(c, apperror.NotFound("upload not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           u.ID,
		"originalName": u.OriginalName,
		"mimeType":     u.MimeType,
		"size":         u.Size,
		"url":          a.Uploads.ResolveURL(u.Key, u.OwnerID),
	})
}
