package photoblog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostCacheServesStaleUntilInvalidated(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cache := NewPostCache(s, time.Hour)

	_, err := s.CreatePost(ctx, samplePost("first", "2024-01-01", "a"))
	require.NoError(t, err)

	posts, err := cache.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 1)

	_, err = s.CreatePost(ctx, samplePost("second", "2024-01-02", "b"))
	require.NoError(t, err)

	posts, err = cache.ListPosts(ctx, "")
	require.NoError(t, err)
	assert.Len(t, posts, 1, "cache should not reload before the TTL")

	cache.Invalidate()
	posts, err = cache.ListPosts(ctx, "")
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second", posts[0].Title)
}

func TestPostCacheFiltersByTag(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cache := NewPostCache(s, time.Hour)

	_, err := s.CreatePost(ctx, samplePost("one", "2024-01-01", "Beach"))
	require.NoError(t, err)
	_, err = s.CreatePost(ctx, samplePost("two", "2024-01-02", "forest"))
	require.NoError(t, err)

	posts, err := cache.ListPosts(ctx, " beach ")
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "one", posts[0].Title)

	posts, err = cache.ListPosts(ctx, "desert")
	require.NoError(t, err)
	assert.Empty(t, posts)
}

func TestPostCacheListTagsSkipsUnused(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cache := NewPostCache(s, time.Hour)

	_, err := s.CreatePost(ctx, samplePost("one", "2024-01-01", "used"))
	require.NoError(t, err)
	_, err = s.CreateTag(ctx, "unused")
	require.NoError(t, err)

	tags, err := cache.ListTags(ctx)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "used", tags[0].Name)
	assert.Equal(t, int64(1), tags[0].PostCount)
}

func TestPostCacheGetPost(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	cache := NewPostCache(s, time.Hour)

	created, err := s.CreatePost(ctx, samplePost("solo", "2024-01-01"))
	require.NoError(t, err)

	got, err := cache.GetPost(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "solo", got.Title)

	_, err = cache.GetPost(ctx, created.ID+1)
	assert.ErrorIs(t, err, ErrNotFound)
}
