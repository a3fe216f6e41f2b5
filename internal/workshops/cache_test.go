package workshops

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/models"
)

type countingLister struct {
	calls int
	err   error
}

func (l *countingLister) ListUpcoming(_ context.Context, limit int) ([]models.Workshop, error) {
	l.calls++
	if l.err != nil {
		return nil, l.err
	}
	return []models.Workshop{{ID: uuid.New(), Title: "Web Dev", Capacity: limit}}, nil
}

func TestCachedListerMemoizesPerLimit(t *testing.T) {
	next := &countingLister{}
	c := NewCachedLister(next, time.Minute)
	ctx := context.Background()

	first, err := c.ListUpcoming(ctx, 5)
	require.NoError(t, err)
	second, err := c.ListUpcoming(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, next.calls)

	_, err = c.ListUpcoming(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedListerExpires(t *testing.T) {
	next := &countingLister{}
	c := NewCachedLister(next, 20*time.Millisecond)
	ctx := context.Background()

	_, err := c.ListUpcoming(ctx, 5)
	require.NoError(t, err)
	time.Sleep(60 * time.Millisecond)
	_, err = c.ListUpcoming(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 2, next.calls)
}

func TestCachedListerDoesNotCacheErrors(t *testing.T) {
	next := &countingLister{err: errors.New("db down")}
	c := NewCachedLister(next, time.Minute)
	ctx := context.Background()

	_, err := c.ListUpcoming(ctx, 5)
	assert.Error(t, err)
	next.err = nil
	list, err := c.ListUpcoming(ctx, 5)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 2, next.calls)
}
