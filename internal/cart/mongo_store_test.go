package cart

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

func TestMongoStore(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping MongoDB container test in short mode")
	}

	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	n := 0
	runStoreSuite(t, func(t *testing.T) Store {
		// fresh database per subtest
		n++
		db, err := ConnectMongoDB(ctx, uri, fmt.Sprintf("carttest%d", n))
		require.NoError(t, err)

		store := NewMongoStore(db)
		require.NoError(t, store.CreateIndexes(ctx))
		t.Cleanup(func() {
			_ = db.Drop(ctx)
			_ = db.Client().Disconnect(ctx)
		})
		return store
	})
}
