package context

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCurrent_RoundTrip(t *testing.T) {
	current := NewCurrent()
	current.Set(RequestIDKey, "req-1")
	current.Set(UserIDKey, "user-1")

	ctx := WithCurrent(context.Background(), current)

	got, ok := FromContext(ctx)

	assert.True(t, ok)
	assert.Equal(t, "req-1", got.RequestID())
	assert.Equal(t, "user-1", got.UserID())
	assert.True(t, got.Exists(UserIDKey))

	got.Delete(UserIDKey)
	assert.Empty(t, got.UserID())
	assert.Len(t, got.All(), 1)
}

func TestGetCurrent_Missing(t *testing.T) {
	current := GetCurrent(context.Background())

	assert.NotNil(t, current)
	assert.Empty(t, current.RequestID())

	_, ok := current.GetString("missing")
	assert.False(t, ok)
}

func TestCurrent_ConcurrentAccess(t *testing.T) {
	current := NewCurrent()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Go(func() {
			current.Set(RequestIDKey, "req")
			current.RequestID()
		})
	}

	wg.Wait()

	assert.Equal(t, "req", current.RequestID())
}
