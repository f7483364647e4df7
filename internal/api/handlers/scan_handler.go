package handlers

import (
	"io"

	"receipt-scanner/internal/dto"
	"receipt-scanner/internal/models"
	"receipt-scanner/internal/service"
	"receipt-scanner/pkg/security"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type ScanHandler struct {
	scanService   *service.ScanService
	auditor       *security.Auditor
	maxFileSizeMB int
	logger        *zap.Logger
}

func NewScanHandler(scanService *service.ScanService, auditor *security.Auditor, maxFileSizeMB int, logger *zap.Logger) *ScanHandler {
	return &ScanHandler{
		scanService:   scanService,
		auditor:       auditor,
		maxFileSizeMB: maxFileSizeMB,
		logger:        logger,
	}
}

// ScanReceipt godoc
// @Summary Scan a receipt image
// @Description Extract structured purchase data from a receipt photo and push it to Notion
// @Tags scan
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Receipt image (JPEG, PNG, GIF, WebP)"
// @Security Bearer
// @Success 200 {object} dto.ScanResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 413 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /scan [post]
func (h *ScanHandler) ScanReceipt(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		h.audit(c, "receipt_scan_rejected", map[string]any{"error": "file field missing"})
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": "File is required",
		})
	}

	contentType := file.Header.Get(fiber.HeaderContentType)
	if vErr := security.ValidateUpload(contentType, file.Size, h.maxFileSizeMB); vErr != nil {
		h.audit(c, "receipt_scan_rejected", map[string]any{
			"error":        vErr.Message,
			"content_type": contentType,
			"file_size":    file.Size,
		})
		return c.Status(vErr.Status).JSON(fiber.Map{
			"error": vErr.Message,
		})
	}

	src, err := file.Open()
	if err != nil {
		h.audit(c, "receipt_scan_rejected", map[string]any{"error": "failed to open file"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to open file",
		})
	}
	defer src.Close()

	imageBytes, err := io.ReadAll(src)
	if err != nil {
		h.audit(c, "receipt_scan_rejected", map[string]any{"error": "failed to read file"})
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Failed to read file",
		})
	}

	// The declared size can be absent or wrong; the real byte count is the
	// one that matters.
	if vErr := security.ValidateUpload(contentType, int64(len(imageBytes)), h.maxFileSizeMB); vErr != nil {
		h.audit(c, "receipt_scan_rejected", map[string]any{
			"error":     vErr.Message,
			"file_size": len(imageBytes),
		})
		return c.Status(vErr.Status).JSON(fiber.Map{
			"error": vErr.Message,
		})
	}

	h.audit(c, "receipt_scan_requested", map[string]any{
		"file_size":    len(imageBytes),
		"content_type": contentType,
	})

	receipt, result, err := h.scanService.ProcessScan(c.Context(), imageBytes)
	if err != nil {
		// Upstream detail stays in the logs and the audit trail; the caller
		// gets a generic message.
		h.logger.Error("Failed to process receipt", zap.String("error", security.Redact(err.Error())))
		h.audit(c, "receipt_scan_error", map[string]any{"error": err.Error()})
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Error processing receipt",
		})
	}

	return c.JSON(dto.ScanResponse{
		Status:         models.PublishStatusSuccess,
		ReceiptData:    receipt,
		NotionResponse: result,
	})
}

func (h *ScanHandler) audit(c *fiber.Ctx, eventType string, details map[string]any) {
	h.auditor.Record(c.Context(), security.Event{
		Type:      eventType,
		ClientIP:  c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
		Method:    c.Method(),
		Path:      c.Path(),
		Details:   details,
	})
}
