// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package mongo_test

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/sigil-dev/ragd/internal/store"
	"github.com/sigil-dev/ragd/internal/store/mongo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDocumentStore_RequiresURI(t *testing.T) {
	_, err := mongo.NewDocumentStore(context.Background(), "", "rag_db")
	assert.ErrorIs(t, err, store.ErrInvalidInput)
}

// Runs against a live server when RAGD_TEST_MONGO_URI is set.
func TestDocumentStore_Live(t *testing.T) {
	uri := os.Getenv("RAGD_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("RAGD_TEST_MONGO_URI not set")
	}

	ctx := context.Background()
	ds, err := mongo.NewDocumentStore(ctx, uri, "ragd_test_"+uuid.NewString()[:8])
	require.NoError(t, err)
	defer func() { _ = ds.Close() }()

	id, err := ds.Insert(ctx, &store.Document{IndexID: 1, Source: "manual_input", Text: "The sky is blue.", Vector: []float32{1, 0}})
	require.NoError(t, err)

	docs, err := ds.List(ctx, store.ListOpts{})
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, id, docs[0].ID)
	assert.Empty(t, docs[0].Vector)

	n, err := ds.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
