package service

import (
	"context"

	"receipt-scanner/internal/models"

	"go.uber.org/zap"
)

// ReceiptExtractor produces a validated receipt from raw image bytes.
type ReceiptExtractor interface {
	ExtractReceipt(ctx context.Context, imageBytes []byte) (*models.Receipt, error)
}

// ReceiptPublisher persists a receipt externally and reports the outcome in
// the result rather than as an error.
type ReceiptPublisher interface {
	Publish(ctx context.Context, receipt *models.Receipt) *models.PublishResult
}

// ScanService sequences the two external calls of the ingestion pipeline:
// extraction first, then publication, which consumes the extraction output.
type ScanService struct {
	extractor ReceiptExtractor
	publisher ReceiptPublisher
	logger    *zap.Logger
}

func NewScanService(extractor ReceiptExtractor, publisher ReceiptPublisher, logger *zap.Logger) *ScanService {
	return &ScanService{
		extractor: extractor,
		publisher: publisher,
		logger:    logger,
	}
}

// ProcessScan extracts a receipt from the image and publishes it. An
// extraction failure aborts the scan; a publication failure does not — it
// is carried back inside the PublishResult so the caller can still return
// the extracted data.
func (s *ScanService) ProcessScan(ctx context.Context, imageBytes []byte) (*models.Receipt, *models.PublishResult, error) {
	receipt, err := s.extractor.ExtractReceipt(ctx, imageBytes)
	if err != nil {
		return nil, nil, err
	}

	result := s.publisher.Publish(ctx, receipt)
	if result.Status != models.PublishStatusSuccess {
		s.logger.Warn("Receipt extracted but publication failed",
			zap.String("store", receipt.StoreName),
			zap.String("message", result.Message),
		)
	}

	return receipt, result, nil
}
