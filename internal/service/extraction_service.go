package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"receipt-scanner/internal/models"
	"receipt-scanner/pkg/config"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

// ErrNoAPIKey is returned when a scan arrives and no model credential is
// configured. The check is deliberately lazy so the service can start and
// answer health checks without the key.
var ErrNoAPIKey = fmt.Errorf("OPENAI_API_KEY is not configured")

// ExtractionService turns raw receipt image bytes into a validated Receipt
// using an OpenAI-style vision model with schema-constrained output.
type ExtractionService struct {
	cfg        *config.OpenAIConfig
	httpClient *http.Client
	schema     *jsonschema.Schema
	schemaDoc  map[string]any
	logger     *zap.Logger
}

func NewExtractionService(cfg *config.OpenAIConfig, logger *zap.Logger) (*ExtractionService, error) {
	schemaDoc := buildReceiptJSONSchema()

	raw, err := json.Marshal(schemaDoc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal receipt schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("receipt.schema.json", bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add receipt schema resource: %w", err)
	}
	schema, err := compiler.Compile("receipt.schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile receipt schema: %w", err)
	}

	return &ExtractionService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		schema:     schema,
		schemaDoc:  schemaDoc,
		logger:     logger,
	}, nil
}

// buildSystemInstruction describes the extraction task, the output schema
// and the category semantics to the model.
func buildSystemInstruction() string {
	parts := []string{
		"You are a receipt parser. You are given a photograph of a purchase receipt and must extract its data.",
		"Return ONLY JSON that matches the provided schema, with no markdown fences and no commentary.",
		"The date must be the receipt date in YYYY-MM-DD format.",
		"items, items_price and items_quantity are parallel arrays: entry N of each describes the same line item, and all three must have the same length.",
		"Keep line items in the order they appear on the receipt.",
		"reciept_category must be exactly one of: Happy Happy, Grocery, Eating out, Miscellaneous.",
		"Happy Happy is the category for any purchases for leisure, shopping, etc.",
		"Grocery is the category for grocery purchases.",
		"Eating out is the category for restaurant, cafe and takeaway purchases.",
		"Miscellaneous is the category for any purchases that do not fit the other categories.",
		"store_first_line, store_second_line and store_postcode are the store address; use null for any part that is not visible.",
		"discount is the total discount amount on the receipt; use null when no discount is shown.",
	}
	return strings.Join(parts, " ")
}

const extractionUserPrompt = "Analyze this receipt image and extract the information according to the specified format."

// ExtractReceipt issues exactly one request to the vision model and returns
// the validated Receipt. Upstream detail is logged here, never surfaced to
// the HTTP caller.
func (s *ExtractionService) ExtractReceipt(ctx context.Context, imageBytes []byte) (*models.Receipt, error) {
	if s.cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	rid := uuid.New().String()
	start := time.Now()
	s.logger.Info("Receipt extraction started",
		zap.String("req_id", rid),
		zap.String("model", s.cfg.Model),
		zap.Int("image_bytes", len(imageBytes)),
	)

	encoded := base64.StdEncoding.EncodeToString(imageBytes)
	requestBody := map[string]any{
		"model": s.cfg.Model,
		"messages": []map[string]any{
			{
				"role":    "system",
				"content": buildSystemInstruction(),
			},
			{
				"role": "user",
				"content": []map[string]any{
					{
						"type": "text",
						"text": extractionUserPrompt,
					},
					{
						"type": "image_url",
						"image_url": map[string]any{
							"url": "data:image/jpeg;base64," + encoded,
						},
					},
				},
			},
		},
		"response_format": map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "receipt",
				"strict": true,
				"schema": s.schemaDoc,
			},
		},
	}

	raw, err := s.post(ctx, strings.TrimRight(s.cfg.BaseURL, "/")+"/chat/completions", requestBody)
	if err != nil {
		s.logger.Error("Receipt extraction request failed",
			zap.String("req_id", rid),
			zap.Error(err),
			zap.Duration("elapsed", time.Since(start)),
		)
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &completion); err != nil {
		return nil, fmt.Errorf("failed to decode model response: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("no choices in model response")
	}

	content := strings.TrimSpace(completion.Choices[0].Message.Content)

	// The model is asked for schema-constrained output, but the shape is
	// still checked locally before the data flows any further.
	var doc any
	if err := json.Unmarshal([]byte(content), &doc); err != nil {
		return nil, fmt.Errorf("model output is not valid JSON: %w", err)
	}
	if err := s.schema.Validate(doc); err != nil {
		s.logger.Error("Model output failed schema validation",
			zap.String("req_id", rid),
			zap.Error(err),
		)
		return nil, fmt.Errorf("model output failed schema validation: %w", err)
	}

	var receipt models.Receipt
	if err := json.Unmarshal([]byte(content), &receipt); err != nil {
		return nil, fmt.Errorf("failed to unmarshal receipt: %w", err)
	}
	if err := receipt.Validate(); err != nil {
		return nil, fmt.Errorf("extracted receipt is invalid: %w", err)
	}

	s.logger.Info("Receipt extraction completed",
		zap.String("req_id", rid),
		zap.String("store", receipt.StoreName),
		zap.String("date", receipt.Date.String()),
		zap.Float64("total", receipt.Total),
		zap.String("category", string(receipt.Category)),
		zap.Int("items", len(receipt.Items)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return &receipt, nil
}

func (s *ExtractionService) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("model http error: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read model response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("model status %d: %s", resp.StatusCode, string(raw))
	}

	return raw, nil
}

// buildReceiptJSONSchema returns the Receipt schema as a generic map. It is
// passed to the model as a structured-output constraint and compiled
// locally to validate what comes back.
func buildReceiptJSONSchema() map[string]any {
	categories := make([]string, 0, 4)
	for _, c := range models.Categories() {
		categories = append(categories, string(c))
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"required": []string{
			"date", "total", "items", "items_price", "items_quantity",
			"reciept_category", "store_name", "store_first_line",
			"store_second_line", "store_postcode", "discount",
		},
		"properties": map[string]any{
			"date": map[string]any{
				"type":        "string",
				"pattern":     `^\d{4}-\d{2}-\d{2}$`,
				"description": "The date of the receipt in the format of YYYY-MM-DD",
			},
			"total": map[string]any{
				"type":        "number",
				"description": "The total amount of the receipt",
			},
			"items": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "The items on the receipt",
			},
			"items_price": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "number"},
				"description": "The price of each item",
			},
			"items_quantity": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "integer"},
				"description": "The quantity of each item",
			},
			"reciept_category": map[string]any{
				"type":        "string",
				"enum":        categories,
				"description": "The category of the receipt",
			},
			"store_name": map[string]any{
				"type":        "string",
				"description": "The name of the store",
			},
			"store_first_line": map[string]any{
				"type":        []string{"string", "null"},
				"description": "The first line of the address of the store",
			},
			"store_second_line": map[string]any{
				"type":        []string{"string", "null"},
				"description": "The second line of the address of the store",
			},
			"store_postcode": map[string]any{
				"type":        []string{"string", "null"},
				"description": "The postcode of the store",
			},
			"discount": map[string]any{
				"type":        []string{"number", "null"},
				"description": "The discount amount of the receipt",
			},
		},
	}
}
