package shared

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestAuditLogOccurredAtDefaultsToNow(t *testing.T) {
	before := time.Now().UTC()
	got := AuditLog{}.occurredAt()
	require.False(t, got.IsZero())
	require.False(t, got.Before(before))
	require.False(t, got.After(time.Now().UTC()))
}

func TestAuditLogOccurredAtKeepsExplicitTimestamp(t *testing.T) {
	at := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.Equal(t, at, AuditLog{At: at}.occurredAt())
}

func TestRecordRejectsIncompleteEntries(t *testing.T) {
	logger := &AuditLogger{}

	err := logger.Record(context.Background(), AuditLog{Entity: "inventory", EntityID: "1"})
	require.Error(t, err)

	err = logger.Record(context.Background(), AuditLog{Action: "transition:VALIDATED", EntityID: "1"})
	require.Error(t, err)

	err = logger.Record(context.Background(), AuditLog{Action: "transition:VALIDATED", Entity: "inventory"})
	require.Error(t, err)

	var nilLogger *AuditLogger
	require.Error(t, nilLogger.Record(context.Background(), AuditLog{Action: "a", Entity: "b", EntityID: "c"}))
}
