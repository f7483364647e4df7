package dto

import "receipt-scanner/internal/models"

type ScanResponse struct {
	Status         string                `json:"status"`
	ReceiptData    *models.Receipt       `json:"receipt_data"`
	NotionResponse *models.PublishResult `json:"notion_response"`
}

type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

type ServiceInfoResponse struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
}
