package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/wishbox-backend/internal/http/response"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
	"github.com/yungbote/wishbox-backend/internal/services"
)

type UploadHandler struct {
	log     *logger.Logger
	uploads services.UploadAuthorizer
}

func NewUploadHandler(log *logger.Logger, uploads services.UploadAuthorizer) *UploadHandler {
	return &UploadHandler{log: log.With("handler", "UploadHandler"), uploads: uploads}
}

type authorizeRequest struct {
	Key string `json:"key"`
}

type authorizeBatchRequest struct {
	Keys []string `json:"keys"`
}

// POST /api/uploads/authorize
func (h *UploadHandler) Authorize(c *gin.Context) {
	var req authorizeRequest
	if err := decodeStrict(c, &req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	auth, err := h.uploads.AuthorizeUpload(c.Request.Context(), req.Key)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, auth)
}

// POST /api/uploads/authorize-batch
func (h *UploadHandler) AuthorizeBatch(c *gin.Context) {
	var req authorizeBatchRequest
	if err := decodeStrict(c, &req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	auths, err := h.uploads.AuthorizeUploads(c.Request.Context(), req.Keys)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "no-store")
	response.RespondOK(c, gin.H{"uploads": auths})
}
