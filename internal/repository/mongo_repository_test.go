package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func setupTestMongo(t *testing.T) *MongoRepository {
	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, mongoContainer)
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongoDB(ctx, uri, "testdb")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Client().Disconnect(ctx) })

	repo := NewMongoRepository(db, 24*time.Hour)
	require.NoError(t, repo.CreateIndexes(ctx))
	return repo
}

func TestMongoRepository(t *testing.T) {
	runContractTests(t, setupTestMongo(t))
}
