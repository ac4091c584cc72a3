package inmemory_kv_pairs_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/horockey/kvstore/internal/model"
	"github.com/horockey/kvstore/internal/repository/kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/inmemory_kv_pairs"
	"github.com/horockey/kvstore/internal/repository/kv_pairs/kvtest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Repository(t *testing.T) {
	kvtest.RunRepositoryTests(t, func(_ *testing.T) kv_pairs.Repository[any] {
		return inmemory_kv_pairs.New[any]()
	})
}

func Test_ConcurrentAccess(t *testing.T) {
	repo := inmemory_kv_pairs.New[int]()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", i%5)
			_ = repo.AddOrUpdate(ctx, model.KVPair[int]{Key: key, Value: i, Modified: time.Now()})
			_, _ = repo.Get(ctx, key)
			if i%7 == 0 {
				_ = repo.Remove(ctx, key)
			}
		}()
	}
	wg.Wait()

	all, err := repo.GetAllNoValue(ctx)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(all), 5)
}
