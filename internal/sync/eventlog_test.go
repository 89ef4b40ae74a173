package syncx_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/prepost/internal/db"
	syncx "github.com/mind-engage/prepost/internal/sync"
)

func TestAppendAndList(t *testing.T) {
	ctx := context.Background()
	h, err := db.Open(ctx, db.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	defer h.Close()

	repo := syncx.NewEventRepo(h)
	for i := 0; i < 5; i++ {
		ev := syncx.NewEvent(syncx.TypeResultSubmitted, fmt.Sprintf("r%d", i), map[string]any{"n": i})
		require.NoError(t, syncx.Append(ctx, h, ev))
	}

	all, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "r0", all[0].Key)
	assert.Equal(t, "local", all[0].SiteID)
	assert.JSONEq(t, `{"n":0}`, all[0].DataJSON)
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Seq, all[i-1].Seq)
	}

	page, err := repo.List(ctx, all[1].Seq, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "r2", page[0].Key)
	assert.Equal(t, "r3", page[1].Key)

	none, err := repo.List(ctx, all[4].Seq, 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestNewEventUnmarshalablePayload(t *testing.T) {
	ev := syncx.NewEvent(syncx.TypeLearnerReset, "k", func() {})
	assert.Equal(t, "{}", ev.DataJSON)
	assert.Equal(t, syncx.TypeLearnerReset, ev.Type)
}
