package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"receipt-scanner/internal/models"
	"receipt-scanner/pkg/config"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func extractionPayload(overrides map[string]any) string {
	doc := map[string]any{
		"date":              "2025-08-09",
		"total":             17.80,
		"items":             []any{"Bread", "Milk"},
		"items_price":       []any{1.20, 2.30},
		"items_quantity":    []any{1, 2},
		"reciept_category":  "Grocery",
		"store_name":        "Test Store",
		"store_first_line":  "123 Main St",
		"store_second_line": nil,
		"store_postcode":    "AB1 2CD",
		"discount":          nil,
	}
	for k, v := range overrides {
		doc[k] = v
	}
	b, _ := json.Marshal(doc)
	return string(b)
}

// fakeModelServer answers chat/completions with the given content string.
func fakeModelServer(t *testing.T, content string, capture *map[string]any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		if capture != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(capture))
		}

		resp := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{"content": content},
				},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
}

func newExtractionService(t *testing.T, baseURL, apiKey string) *ExtractionService {
	t.Helper()
	svc, err := NewExtractionService(&config.OpenAIConfig{
		APIKey:  apiKey,
		Model:   "gpt-5",
		BaseURL: baseURL,
		Timeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return svc
}

func TestExtractReceipt(t *testing.T) {
	var captured map[string]any
	srv := fakeModelServer(t, extractionPayload(nil), &captured)
	defer srv.Close()

	svc := newExtractionService(t, srv.URL, "test-key")
	receipt, err := svc.ExtractReceipt(context.Background(), []byte("fake-image"))
	require.NoError(t, err)

	require.Equal(t, "Test Store", receipt.StoreName)
	require.Equal(t, "2025-08-09", receipt.Date.String())
	require.Equal(t, models.CategoryGrocery, receipt.Category)
	require.Equal(t, []string{"Bread", "Milk"}, receipt.Items)
	require.Nil(t, receipt.Discount)
	require.Nil(t, receipt.StoreSecondLine)

	// One request carrying the schema constraint and the encoded image.
	require.Equal(t, "gpt-5", captured["model"])
	rf, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "json_schema", rf["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 2)
}

func TestExtractReceiptMissingAPIKey(t *testing.T) {
	svc := newExtractionService(t, "http://unused", "")
	_, err := svc.ExtractReceipt(context.Background(), []byte("img"))
	require.ErrorIs(t, err, ErrNoAPIKey)
}

func TestExtractReceiptUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	svc := newExtractionService(t, srv.URL, "test-key")
	_, err := svc.ExtractReceipt(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}

func TestExtractReceiptRejectsUnknownCategory(t *testing.T) {
	srv := fakeModelServer(t, extractionPayload(map[string]any{"reciept_category": "Hobbies"}), nil)
	defer srv.Close()

	svc := newExtractionService(t, srv.URL, "test-key")
	_, err := svc.ExtractReceipt(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "schema validation")
}

func TestExtractReceiptRejectsMismatchedItemArrays(t *testing.T) {
	srv := fakeModelServer(t, extractionPayload(map[string]any{"items_price": []any{1.20}}), nil)
	defer srv.Close()

	svc := newExtractionService(t, srv.URL, "test-key")
	_, err := svc.ExtractReceipt(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of step")
}

func TestExtractReceiptRejectsImpossibleDate(t *testing.T) {
	// Matches the schema's date pattern but is not a real calendar date.
	srv := fakeModelServer(t, extractionPayload(map[string]any{"date": "2025-13-40"}), nil)
	defer srv.Close()

	svc := newExtractionService(t, srv.URL, "test-key")
	_, err := svc.ExtractReceipt(context.Background(), []byte("img"))
	require.Error(t, err)
}

func TestExtractReceiptRejectsNonJSONOutput(t *testing.T) {
	srv := fakeModelServer(t, "I could not read this receipt.", nil)
	defer srv.Close()

	svc := newExtractionService(t, srv.URL, "test-key")
	_, err := svc.ExtractReceipt(context.Background(), []byte("img"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "not valid JSON")
}
