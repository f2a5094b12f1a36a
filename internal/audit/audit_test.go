package audit

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/cms-gateway/pkg/database"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(database.Config{Driver: database.DriverSQLite, DSN: ":memory:"}, hclog.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_RecordAndRecent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	entries := []*RequestLog{
		{RequestID: uuid.NewString(), ProviderID: "p1", Collection: "articles", Outcome: "ok", StatusCode: 200, TotalItems: 12},
		{RequestID: uuid.NewString(), ProviderID: "p2", Collection: "pages", Outcome: "transport", StatusCode: 500, Error: "backend returned status 502"},
		{RequestID: uuid.NewString(), ProviderID: "p1", Collection: "unknown", Outcome: "validation", StatusCode: 400, Error: "Invalid collection: unknown"},
	}
	for _, e := range entries {
		require.NoError(t, s.Record(ctx, e))
		assert.NotZero(t, e.ID)
	}

	all, err := s.Recent(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, entries[2].RequestID, all[0].RequestID, "newest first")

	p1, err := s.Recent(ctx, "p1", 10)
	require.NoError(t, err)
	require.Len(t, p1, 2)
	for _, e := range p1 {
		assert.Equal(t, "p1", e.ProviderID)
	}

	limited, err := s.Recent(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
