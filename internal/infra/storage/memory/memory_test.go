package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vietddude/weatherwatch/internal/core/domain"
)

func TestMeasurementRepo_LatestEmpty(t *testing.T) {
	repo := NewMeasurementRepo()

	m, err := repo.Latest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, m)

	avg, err := repo.AverageSince(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Nil(t, avg)
}

func TestMeasurementRepo_LatestByTimestamp(t *testing.T) {
	ctx := context.Background()
	repo := NewMeasurementRepo()

	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: 200, Temperature: 2}))
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: 300, Temperature: 3}))
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: 100, Temperature: 1}))

	m, err := repo.Latest(ctx)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, int64(300), m.Timestamp)
	assert.Equal(t, 3, repo.Len())
}

func TestMeasurementRepo_AverageSince(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0)
	repo := NewMeasurementRepo().WithClock(func() time.Time { return now })

	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: now.Add(-2 * time.Hour).Unix(), Temperature: 20}))
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: now.Add(-1 * time.Hour).Unix(), Temperature: 22}))
	require.NoError(t, repo.Save(ctx, domain.Measurement{Timestamp: now.Add(-48 * time.Hour).Unix(), Temperature: 10}))

	day, err := repo.AverageSince(ctx, 24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, day)
	assert.InDelta(t, 21.0, *day, 1e-9)

	week, err := repo.AverageSince(ctx, 7*24*time.Hour)
	require.NoError(t, err)
	require.NotNil(t, week)
	assert.InDelta(t, 52.0/3.0, *week, 1e-9)
}
