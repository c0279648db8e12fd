package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopCache(t *testing.T) {
	c := NewNoopCache()
	ctx := context.Background()

	assert.NoError(t, c.Set(ctx, "k", map[string]int{"a": 1}, time.Minute))

	var dest map[string]int
	assert.ErrorIs(t, c.Get(ctx, "k", &dest), ErrCacheMiss)
	assert.Nil(t, dest)
	assert.NoError(t, c.Delete(ctx, "k"))
	assert.NoError(t, c.DeletePattern(ctx, "k*"))
}

func TestKeys(t *testing.T) {
	assert.Equal(t, "fillblank:question:12:student_view", StudentViewKey(12))
	assert.Equal(t, "fillblank:question:12:*", QuestionPattern(12))
}
