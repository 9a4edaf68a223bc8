package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/halcyonlabel/backend/internal/middleware"
	"github.com/halcyonlabel/backend/internal/services"
	"github.com/halcyonlabel/backend/pkg/validation"
	"go.uber.org/zap"
)

// DocumentFetcher produces a contract's PDF for an authenticated requester.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, requester *services.Requester, req services.DocumentRequest) (*services.DocumentResult, error)
}

type ContractHandler struct {
	documents DocumentFetcher
	log       *zap.Logger
}

func NewContractHandler(documents DocumentFetcher, log *zap.Logger) *ContractHandler {
	return &ContractHandler{documents: documents, log: log}
}

// GetDocument streams a contract's PDF
// GET /contracts/:id/document?generated=1&download=1
func (h *ContractHandler) GetDocument(c *gin.Context) {
	requester := middleware.CurrentRequester(c)
	if requester == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	id := validation.SanitizeString(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Contract id is required"})
		return
	}

	res, err := h.documents.FetchDocument(c.Request.Context(), requester, services.DocumentRequest{
		ContractID: id,
		Generated:  middleware.QueryFlag(c, "generated"),
		Download:   middleware.QueryFlag(c, "download"),
	})
	if err != nil {
		h.writeError(c, id, err)
		return
	}
	defer res.Body.Close()

	headers := map[string]string{
		"Content-Disposition": res.Disposition(),
		"X-Contract-Renderer": string(res.Source),
	}
	if res.NoStore {
		headers["Cache-Control"] = "no-store"
	}
	c.DataFromReader(http.StatusOK, res.Size, res.ContentType, res.Body, headers)
}

func (h *ContractHandler) writeError(c *gin.Context, id string, err error) {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	case errors.Is(err, services.ErrInvalidContractID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid contract id"})
	case errors.Is(err, services.ErrContractNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
	case errors.Is(err, services.ErrStoredFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract file not found"})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
	default:
		h.log.Error("contract document failed", zap.String("contract_id", id), zap.Error(err))
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract document"})
	}
}
