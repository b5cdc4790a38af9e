package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStoreContract exercises the revision contract every backend must honor
func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("missing document", func(t *testing.T) {
		_, err := s.Get(ctx, "alpine:missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("create then read", func(t *testing.T) {
		rev, err := s.Insert(ctx, &Document{ID: "alpine:3.20", Body: []byte(`{"tag":"3.20"}`)})
		require.NoError(t, err)
		assert.NotEmpty(t, rev)

		doc, err := s.Get(ctx, "alpine:3.20")
		require.NoError(t, err)
		assert.Equal(t, "alpine:3.20", doc.ID)
		assert.Equal(t, rev, doc.Rev)
		assert.JSONEq(t, `{"tag":"3.20"}`, string(doc.Body))
	})

	t.Run("create over existing conflicts", func(t *testing.T) {
		_, err := s.Insert(ctx, &Document{ID: "busybox:latest", Body: []byte(`{}`)})
		require.NoError(t, err)

		_, err = s.Insert(ctx, &Document{ID: "busybox:latest", Body: []byte(`{"again":true}`)})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("update with current revision", func(t *testing.T) {
		rev1, err := s.Insert(ctx, &Document{ID: "nginx:1.27", Body: []byte(`{"v":1}`)})
		require.NoError(t, err)

		rev2, err := s.Insert(ctx, &Document{ID: "nginx:1.27", Rev: rev1, Body: []byte(`{"v":2}`)})
		require.NoError(t, err)
		assert.NotEqual(t, rev1, rev2)

		doc, err := s.Get(ctx, "nginx:1.27")
		require.NoError(t, err)
		assert.Equal(t, rev2, doc.Rev)
		assert.JSONEq(t, `{"v":2}`, string(doc.Body))
	})

	t.Run("update with stale revision conflicts", func(t *testing.T) {
		rev1, err := s.Insert(ctx, &Document{ID: "redis:7", Body: []byte(`{"v":1}`)})
		require.NoError(t, err)
		_, err = s.Insert(ctx, &Document{ID: "redis:7", Rev: rev1, Body: []byte(`{"v":2}`)})
		require.NoError(t, err)

		_, err = s.Insert(ctx, &Document{ID: "redis:7", Rev: rev1, Body: []byte(`{"v":3}`)})
		assert.ErrorIs(t, err, ErrConflict)

		doc, err := s.Get(ctx, "redis:7")
		require.NoError(t, err)
		assert.JSONEq(t, `{"v":2}`, string(doc.Body))
	})

	t.Run("update of missing document conflicts", func(t *testing.T) {
		_, err := s.Insert(ctx, &Document{ID: "postgres:16", Rev: "1-abc", Body: []byte(`{}`)})
		assert.ErrorIs(t, err, ErrConflict)
	})
}
