package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainagg "github.com/yungbote/wishbox-backend/internal/domain/aggregates"
	"github.com/yungbote/wishbox-backend/internal/http/middleware"
	"github.com/yungbote/wishbox-backend/internal/http/response"
	"github.com/yungbote/wishbox-backend/internal/platform/apierr"
	"github.com/yungbote/wishbox-backend/internal/platform/logger"
)

const maxRequestBytes = 64 << 10

var errStorageUnavailable = errors.New("storage is temporarily unavailable, please retry")

// respondDomainError is the single translation point from service and
// aggregate failures to the HTTP error envelope.
func respondDomainError(c *gin.Context, log *logger.Logger, err error) {
	status, code, public := classify(err)
	if status >= http.StatusInternalServerError && log != nil {
		log.Error("request failed", "path", c.FullPath(), "code", code, "error", err)
	}
	c.Set(middleware.ErrorCodeKey, code)
	response.RespondError(c, status, code, public)
}

func classify(err error) (int, string, error) {
	if ae, ok := apierr.As(err); ok {
		if ae.Status >= http.StatusInternalServerError {
			return ae.Status, ae.Code, errors.New(http.StatusText(ae.Status))
		}
		return ae.Status, ae.Code, ae
	}

	var aggErr *domainagg.Error
	if !errors.As(err, &aggErr) {
		return http.StatusServiceUnavailable, apierr.CodeStorageUnavailable, errStorageUnavailable
	}
	switch aggErr.Code {
	case domainagg.CodeValidation:
		return http.StatusBadRequest, apierr.CodeValidation, errors.New(aggErr.Message)
	case domainagg.CodeNotFound:
		return http.StatusNotFound, apierr.CodeNotFound, errors.New(aggErr.Message)
	case domainagg.CodePreconditionFailed:
		return http.StatusConflict, apierr.CodeAlreadyPublished, errors.New("wish is already published")
	case domainagg.CodeSlugGenerationFailed:
		return http.StatusServiceUnavailable, apierr.CodeSlugGenerationFailed, errors.New("could not assign a unique link, please retry")
	default:
		return http.StatusServiceUnavailable, apierr.CodeStorageUnavailable, errStorageUnavailable
	}
}

// decodeStrict reads exactly one JSON object from the request body and
// rejects unknown fields and trailing data.
func decodeStrict(c *gin.Context, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return fmt.Errorf("invalid JSON body: trailing data")
	}
	return nil
}

func respondInvalidRequest(c *gin.Context, err error) {
	c.Set(middleware.ErrorCodeKey, apierr.CodeInvalidRequest)
	response.RespondError(c, http.StatusBadRequest, apierr.CodeInvalidRequest, err)
}
