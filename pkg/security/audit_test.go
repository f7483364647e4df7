package security

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRedact(t *testing.T) {
	require.Equal(t, "auth failed: Bearer ***", Redact("auth failed: Bearer abc123DEF"))

	long := strings.Repeat("a1", 20)
	require.Equal(t, "key=***", Redact("key="+long))

	// Short identifiers survive
	require.Equal(t, "page id abc123", Redact("page id abc123"))
}

type capturingStore struct {
	events []Event
	err    error
}

func (s *capturingStore) SaveEvent(_ context.Context, ev Event) error {
	s.events = append(s.events, ev)
	return s.err
}

func TestAuditorRecordRedactsAndStores(t *testing.T) {
	store := &capturingStore{}
	auditor := NewAuditor(zap.NewNop(), store)

	auditor.Record(context.Background(), Event{
		Type:      "auth_rejected",
		ClientIP:  "10.0.0.1",
		UserAgent: "curl/8.0 Bearer secrettoken99",
		Method:    "POST",
		Path:      "/scan",
		Details: map[string]any{
			"error":     "got header Bearer secrettoken99",
			"file_size": 1234,
		},
	})

	require.Len(t, store.events, 1)
	ev := store.events[0]
	require.NotEqual(t, ev.ID.String(), "00000000-0000-0000-0000-000000000000")
	require.False(t, ev.CreatedAt.IsZero())
	require.NotContains(t, ev.UserAgent, "secrettoken99")
	require.Equal(t, "got header Bearer ***", ev.Details["error"])
	require.Equal(t, 1234, ev.Details["file_size"])
}

func TestAuditorRecordSurvivesStoreFailure(t *testing.T) {
	store := &capturingStore{err: fmt.Errorf("connection refused")}
	auditor := NewAuditor(zap.NewNop(), store)

	require.NotPanics(t, func() {
		auditor.Record(context.Background(), Event{Type: "receipt_scan_error"})
	})
}

func TestAuditorRecordWithoutStore(t *testing.T) {
	auditor := NewAuditor(zap.NewNop(), nil)
	require.NotPanics(t, func() {
		auditor.Record(context.Background(), Event{Type: "receipt_scan_requested"})
	})
}
