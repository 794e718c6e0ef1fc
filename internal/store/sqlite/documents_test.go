// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package sqlite_test

import (
	"context"
	"testing"

	"github.com/sigil-dev/ragd/internal/store"
	"github.com/sigil-dev/ragd/internal/store/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore_InsertAndList(t *testing.T) {
	ctx := context.Background()
	ds, err := sqlite.NewDocumentStore(testDBPath(t, "documents"))
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	id, err := ds.Insert(ctx, &store.Document{
		IndexID: 1,
		Title:   "Sky",
		Source:  "manual_input",
		Text:    "The sky is blue.",
		Vector:  []float32{0.1, 0.2, 0.3},
	})
	require.NoError(t, err)
	assert.Len(t, id, 36, "generated ids are UUIDs")

	_, err = ds.Insert(ctx, &store.Document{ID: "doc-2", IndexID: 2, Source: "csv", Text: "grass green", Vector: []float32{1, 0, 0}})
	require.NoError(t, err)

	docs, err := ds.List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, id, docs[0].ID)
	assert.Equal(t, "Sky", docs[0].Title)
	assert.Equal(t, int64(1), docs[0].IndexID)
	assert.False(t, docs[0].CreatedAt.IsZero())
	assert.Equal(t, "doc-2", docs[1].ID)

	page, err := ds.List(ctx, store.ListOpts{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "doc-2", page[0].ID)

	n, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestDocumentStore_DuplicateID(t *testing.T) {
	ctx := context.Background()
	ds, err := sqlite.NewDocumentStore(testDBPath(t, "documents-dup"))
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	doc := &store.Document{ID: "same", Text: "a", Vector: []float32{1}}
	_, err = ds.Insert(ctx, doc)
	require.NoError(t, err)

	_, err = ds.Insert(ctx, doc)
	assert.Error(t, err)
}

func TestDocumentStore_NilDocument(t *testing.T) {
	ds, err := sqlite.NewDocumentStore(testDBPath(t, "documents-nil"))
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	_, err = ds.Insert(context.Background(), nil)
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}
