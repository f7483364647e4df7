package service

import (
	"context"
	"fmt"

	"receipt-scanner/internal/models"
	"receipt-scanner/pkg/config"
	"receipt-scanner/pkg/security"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// placeholder sent for absent optional fields: the Notion schema has no
// native null for rich_text values.
const unknownPlaceholder = "Unknown"

const itemsDatabaseName = "Items Database"

// NotionService publishes validated receipts to Notion: one parent page in
// the transactions database plus a per-transaction inline items database
// holding one page per line item.
type NotionService struct {
	client *resty.Client
	cfg    *config.NotionConfig
	logger *zap.Logger
}

func NewNotionService(cfg *config.NotionConfig, logger *zap.Logger) *NotionService {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetAuthToken(cfg.Token).
		SetHeader("Notion-Version", cfg.Version).
		SetHeader("Content-Type", "application/json")

	return &NotionService{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

type notionObject struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Publish writes the receipt to Notion and reports the outcome. Publish
// failures are returned inside the result, never as an error: the caller
// embeds the result in its response either way. Partial writes (parent page
// created, some items missing) are not rolled back.
func (s *NotionService) Publish(ctx context.Context, receipt *models.Receipt) *models.PublishResult {
	page, err := s.createTransactionPage(ctx, receipt)
	if err != nil {
		return s.publishError(err)
	}
	s.logger.Info("Transaction page created",
		zap.String("page_id", page.ID),
		zap.String("store", receipt.StoreName),
	)

	itemsDB, err := s.createItemsDatabase(ctx, page.ID)
	if err != nil {
		return s.publishError(fmt.Errorf("transaction page %s created, items database failed: %w", page.ID, err))
	}
	s.logger.Info("Items database created",
		zap.String("database_id", itemsDB.ID),
		zap.Int("items", len(receipt.Items)),
	)

	if err := s.createItemPages(ctx, itemsDB.ID, receipt); err != nil {
		return s.publishError(fmt.Errorf("transaction page %s created, item entries incomplete: %w", page.ID, err))
	}

	return &models.PublishResult{
		Status:     models.PublishStatusSuccess,
		DatabaseID: s.cfg.TransactionsDatabaseID,
		PageID:     page.ID,
		PageURL:    page.URL,
		Message:    "Receipt successfully added to Notion database",
	}
}

func (s *NotionService) publishError(err error) *models.PublishResult {
	s.logger.Error("Failed to push receipt to Notion", zap.String("error", security.Redact(err.Error())))
	return &models.PublishResult{
		Status:  models.PublishStatusError,
		Message: fmt.Sprintf("Failed to push to Notion: %v", err),
	}
}

// createTransactionPage creates the parent entry in the transactions
// database. The Discount property is omitted entirely when the receipt has
// no discount; every other optional field falls back to "Unknown".
func (s *NotionService) createTransactionPage(ctx context.Context, receipt *models.Receipt) (*notionObject, error) {
	properties := map[string]any{
		"Store Name":        titleProperty(receipt.StoreName),
		"Store First Line":  richTextProperty(textOrUnknown(receipt.StoreFirstLine)),
		"Store Second Line": richTextProperty(textOrUnknown(receipt.StoreSecondLine)),
		"Store Postcode":    richTextProperty(textOrUnknown(receipt.StorePostcode)),
		"Total":             map[string]any{"number": receipt.Total},
		"Category":          map[string]any{"select": map[string]any{"name": string(receipt.Category)}},
		"Date":              map[string]any{"date": map[string]any{"start": receipt.Date.String()}},
	}
	if receipt.Discount != nil {
		properties["Discount"] = map[string]any{"number": *receipt.Discount}
	}

	body := map[string]any{
		"parent":     map[string]any{"database_id": s.cfg.TransactionsDatabaseID},
		"properties": properties,
	}

	var page notionObject
	if err := s.post(ctx, "/pages", body, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// createItemsDatabase creates the fresh per-transaction items database,
// parented under the just-created transaction page.
func (s *NotionService) createItemsDatabase(ctx context.Context, parentPageID string) (*notionObject, error) {
	body := map[string]any{
		"parent": map[string]any{"type": "page_id", "page_id": parentPageID},
		"title": []map[string]any{
			{"type": "text", "text": map[string]any{"content": itemsDatabaseName}},
		},
		"icon":      map[string]any{"type": "emoji", "emoji": "🧾"},
		"is_inline": true,
		"properties": map[string]any{
			"Item":     map[string]any{"title": map[string]any{}},
			"Price":    map[string]any{"number": map[string]any{"format": "pound"}},
			"Quantity": map[string]any{"number": map[string]any{"format": "number"}},
		},
	}

	var db notionObject
	if err := s.post(ctx, "/databases", body, &db); err != nil {
		return nil, err
	}
	return &db, nil
}

// createItemPages writes one page per line item, sequentially and in the
// order the items appear on the receipt.
func (s *NotionService) createItemPages(ctx context.Context, databaseID string, receipt *models.Receipt) error {
	for i, item := range receipt.Items {
		body := map[string]any{
			"parent": map[string]any{"database_id": databaseID},
			"properties": map[string]any{
				"Item":     titleProperty(item),
				"Price":    map[string]any{"number": receipt.ItemsPrice[i]},
				"Quantity": map[string]any{"number": receipt.ItemsQuantity[i]},
			},
		}
		if err := s.post(ctx, "/pages", body, nil); err != nil {
			return fmt.Errorf("item %d of %d (%s): %w", i+1, len(receipt.Items), item, err)
		}
	}
	return nil
}

// EnsureTransactionsDatabase resolves the transactions database at startup.
// When no database id is configured but a parent page is, a new
// transactions database is created under that page and adopted.
func (s *NotionService) EnsureTransactionsDatabase(ctx context.Context) error {
	if s.cfg.TransactionsDatabaseID != "" {
		return nil
	}
	if s.cfg.ParentPageID == "" {
		return fmt.Errorf("neither NOTION_TRANSACTIONS_DATABASE_ID nor PAGE_ID is configured")
	}

	options := make([]map[string]any, 0, 4)
	for _, c := range models.Categories() {
		options = append(options, map[string]any{"name": string(c), "color": "default"})
	}

	body := map[string]any{
		"parent": map[string]any{"page_id": s.cfg.ParentPageID},
		"title": []map[string]any{
			{"type": "text", "text": map[string]any{"content": "Transactions Database"}},
		},
		"is_inline": true,
		"properties": map[string]any{
			"Store Name":        map[string]any{"title": map[string]any{}},
			"Store First Line":  map[string]any{"rich_text": map[string]any{}},
			"Store Second Line": map[string]any{"rich_text": map[string]any{}},
			"Store Postcode":    map[string]any{"rich_text": map[string]any{}},
			"Total":             map[string]any{"number": map[string]any{"format": "number_with_commas"}},
			"Category":          map[string]any{"select": map[string]any{"options": options}},
			"Date":              map[string]any{"date": map[string]any{}},
			"Discount":          map[string]any{"number": map[string]any{"format": "number_with_commas"}},
			"Created Time":      map[string]any{"created_time": map[string]any{}},
		},
	}

	var db notionObject
	if err := s.post(ctx, "/databases", body, &db); err != nil {
		return fmt.Errorf("failed to create transactions database: %w", err)
	}

	s.cfg.TransactionsDatabaseID = db.ID
	s.logger.Info("Transactions database created", zap.String("database_id", db.ID))
	return nil
}

func (s *NotionService) post(ctx context.Context, path string, body map[string]any, result any) error {
	req := s.client.R().SetContext(ctx).SetBody(body)
	if result != nil {
		req.SetResult(result)
	}

	resp, err := req.Post(path)
	if err != nil {
		return fmt.Errorf("notion request %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("notion %s status %d: %s", path, resp.StatusCode(), resp.String())
	}
	return nil
}

func titleProperty(content string) map[string]any {
	return map[string]any{
		"title": []map[string]any{
			{"text": map[string]any{"content": content}},
		},
	}
}

func richTextProperty(content string) map[string]any {
	return map[string]any{
		"rich_text": []map[string]any{
			{"text": map[string]any{"content": content}},
		},
	}
}

func textOrUnknown(v *string) string {
	if v == nil || *v == "" {
		return unknownPlaceholder
	}
	return *v
}
