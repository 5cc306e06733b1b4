package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"validoc/internal/domain"
	"validoc/internal/export"
	"validoc/internal/service"
)

// DocumentHandler handles document upload and validation endpoints.
type DocumentHandler struct {
	documentService service.DocumentService
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(documentService service.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// documentResponse is the API view of a record with aggregated verdict fields.
type documentResponse struct {
	*domain.DocumentRecord
	OverallStatus domain.ValidationStatus `json:"overall_status"`
	AllErrors     []string                `json:"all_errors"`
	AllWarnings   []string                `json:"all_warnings"`
}

func toDocumentResponse(rec *domain.DocumentRecord) documentResponse {
	return documentResponse{
		DocumentRecord: rec,
		OverallStatus:  rec.OverallStatus(),
		AllErrors:      rec.AllErrors(),
		AllWarnings:    rec.AllWarnings(),
	}
}

// Upload handles POST /api/v1/documents
func (h *DocumentHandler) Upload(c *gin.Context) {
	docType := domain.DocumentType(c.PostForm("document_type"))
	if !docType.Valid() {
		RespondError(c, http.StatusBadRequest, "UNSUPPORTED_DOCUMENT_TYPE", "document_type must be cnh or rg")
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	rec, err := h.documentService.Upload(c.Request.Context(), &service.UploadDocumentInput{
		DocumentType: docType,
		FileName:     header.Filename,
		ContentType:  header.Header.Get("Content-Type"),
		Size:         header.Size,
		Body:         file,
	})
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondCreated(c, toDocumentResponse(rec))
}

// GetByID handles GET /api/v1/documents/:id
func (h *DocumentHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	rec, err := h.documentService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, toDocumentResponse(rec))
}

// List handles GET /api/v1/documents
func (h *DocumentHandler) List(c *gin.Context) {
	offset, limit := parsePagination(c)

	recs, total, err := h.documentService.List(c.Request.Context(), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	out := make([]documentResponse, len(recs))
	for i := range recs {
		out[i] = toDocumentResponse(&recs[i])
	}
	RespondPaginated(c, out, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// Verdict handles GET /api/v1/documents/:id/verdict
func (h *DocumentHandler) Verdict(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	rec, err := h.documentService.GetByID(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}
	if rec.Status != domain.ProcessingStatusCompleted {
		HandleError(c, domain.ErrRecordNotCompleted)
		return
	}

	RespondOK(c, gin.H{
		"id":             rec.ID,
		"document_type":  rec.DocumentType,
		"overall_status": rec.OverallStatus(),
		"verdict":        rec.Verdict,
		"all_errors":     rec.AllErrors(),
		"all_warnings":   rec.AllWarnings(),
		"validated_at":   rec.ValidatedAt,
	})
}

// Revalidate handles POST /api/v1/documents/:id/revalidate
func (h *DocumentHandler) Revalidate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	rec, err := h.documentService.Revalidate(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondAccepted(c, toDocumentResponse(rec))
}

// DownloadURL handles GET /api/v1/documents/:id/download
func (h *DocumentHandler) DownloadURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	url, err := h.documentService.DownloadURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"url": url})
}

// Delete handles DELETE /api/v1/documents/:id
func (h *DocumentHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid document id")
		return
	}

	if err := h.documentService.Delete(c.Request.Context(), id); err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, gin.H{"deleted": id})
}

// Export handles GET /api/v1/documents/export?format=csv|xlsx
func (h *DocumentHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "csv")
	if format != "csv" && format != "xlsx" {
		RespondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be csv or xlsx")
		return
	}

	recs, err := h.documentService.ListAll(c.Request.Context())
	if err != nil {
		HandleError(c, err)
		return
	}

	if format == "xlsx" {
		c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename("xlsx")+`"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := export.WriteXLSX(c.Writer, recs); err != nil {
			HandleError(c, err)
		}
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+export.BuildFilename("csv")+`"`)
	c.Header("Content-Type", "text/csv; charset=utf-8")
	if _, err := c.Writer.Write(export.BOM); err != nil {
		return
	}
	w := export.NewWriter(c.Writer)
	if err := w.WriteHeader(); err != nil {
		return
	}
	if err := w.WriteRecords(recs); err != nil {
		return
	}
	w.Flush()
}

func parsePagination(c *gin.Context) (offset, limit int) {
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return offset, limit
}
