package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wishbox-backend/internal/http/response"
	"github.com/yungbote/wishbox-backend/internal/platform/apierr"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
	"github.com/yungbote/wishbox-backend/internal/services"
)

type WishHandler struct {
	log    *logger.Logger
	wishes services.WishService
}

func NewWishHandler(log *logger.Logger, wishes services.WishService) *WishHandler {
	return &WishHandler{log: log.With("handler", "WishHandler"), wishes: wishes}
}

type memoryRequest struct {
	ImageURL string  `json:"imageUrl"`
	Caption  *string `json:"caption"`
	Order    *int    `json:"order"`
}

type publishRequest struct {
	WishID           string          `json:"wishId"`
	SenderName       string          `json:"senderName"`
	RecipientName    string          `json:"recipientName"`
	Message          string          `json:"message"`
	EnvelopeImageURL string          `json:"envelopeImageUrl"`
	Memories         []memoryRequest `json:"memories"`
}

func (r publishRequest) toService() (services.PublishRequest, error) {
	raw := strings.TrimSpace(r.WishID)
	if raw == "" {
		return services.PublishRequest{}, fmt.Errorf("wishId is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return services.PublishRequest{}, fmt.Errorf("wishId is not a valid id")
	}
	out := services.PublishRequest{
		WishID:           id,
		SenderName:       r.SenderName,
		RecipientName:    r.RecipientName,
		Message:          r.Message,
		EnvelopeImageKey: r.EnvelopeImageURL,
		Memories:         make([]services.PublishMemory, 0, len(r.Memories)),
	}
	for i, m := range r.Memories {
		if m.Order == nil {
			return services.PublishRequest{}, fmt.Errorf("memories[%d].order is required", i)
		}
		out.Memories = append(out.Memories, services.PublishMemory{
			ImageKey: m.ImageURL,
			Caption:  m.Caption,
			Order:    *m.Order,
		})
	}
	return out, nil
}

type createDraftResponse struct {
	WishID    string    `json:"wishId"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// POST /api/upload-session
func (h *WishHandler) CreateUploadSession(c *gin.Context) {
	res, err := h.wishes.CreateDraft(c.Request.Context())
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	response.RespondCreated(c, createDraftResponse{WishID: res.WishID.String(), ExpiresAt: res.ExpiresAt})
}

// POST /api/wish/publish
func (h *WishHandler) Publish(c *gin.Context) {
	var req publishRequest
	if err := decodeStrict(c, &req); err != nil {
		respondInvalidRequest(c, err)
		return
	}
	in, err := req.toService()
	if err != nil {
		respondDomainError(c, h.log, apierr.Validation(err))
		return
	}
	res, err := h.wishes.Publish(c.Request.Context(), in)
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"slug": res.Slug})
}

// GET /api/wish/:slug
func (h *WishHandler) GetWish(c *gin.Context) {
	view, err := h.wishes.GetWishBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondDomainError(c, h.log, err)
		return
	}
	c.Header("Cache-Control", "private, max-age=60")
	response.RespondOK(c, gin.H{"wish": view})
}
