package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/config"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/database"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"
)

func testConfig() config.Config {
	return config.Config{
		ShippingFee:       5.99,
		TaxRate:           0.08,
		CartTTL:           time.Hour,
		CompletionFlagTTL: time.Hour,
	}
}

func newTestCartService(store database.KVStore) *CartService {
	return NewCartService(store, testConfig(), zap.NewNop())
}

// failingStore wraps a MemoryStore and fails Set calls after a given number
// of successful writes.
type failingStore struct {
	*database.MemoryStore
	setsUntilFailure int
}

func (f *failingStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if f.setsUntilFailure <= 0 {
		return errors.New("storage quota exceeded")
	}
	f.setsUntilFailure--
	return f.MemoryStore.Set(ctx, key, value, ttl)
}

func TestAddItemMergesByItemKey(t *testing.T) {
	svc := newTestCartService(database.NewMemoryStore())
	ctx := context.Background()

	item := models.CartItem{ProductID: "p1", Name: "Hoodie", UnitPrice: 49.0}

	_, err := svc.AddItem(ctx, "alice", item, 2)
	require.NoError(t, err)
	_, err = svc.AddItem(ctx, "alice", item, 3)
	require.NoError(t, err)

	// Same product with explicit default attributes must merge into the
	// same line as the defaulted adds.
	explicit := item
	explicit.Size = models.DefaultSize
	explicit.Color = models.DefaultColor
	cart, err := svc.AddItem(ctx, "alice", explicit, 1)
	require.NoError(t, err)

	require.Len(t, cart.Items, 1)
	assert.Equal(t, 6, cart.Items[0].Quantity)
	assert.Equal(t, models.DefaultSize, cart.Items[0].Size)
	assert.Equal(t, models.DefaultColor, cart.Items[0].Color)
}

func TestAddItemDistinctVariantsAreSeparateLines(t *testing.T) {
	svc := newTestCartService(database.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1", Size: "M"}, 1)
	require.NoError(t, err)
	cart, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1", Size: "L"}, 1)
	require.NoError(t, err)

	assert.Len(t, cart.Items, 2)
}

func TestAddItemPersistsAcrossLoads(t *testing.T) {
	store := database.NewMemoryStore()
	svc := newTestCartService(store)
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1", UnitPrice: 10}, 2)
	require.NoError(t, err)

	cart := newTestCartService(store).Load(ctx, "alice")
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}

func TestComputeTotal(t *testing.T) {
	svc := newTestCartService(database.NewMemoryStore())

	totals := svc.ComputeTotal([]models.CartItem{
		{UnitPrice: 10, Quantity: 2},
		{UnitPrice: 5, Quantity: 1},
	})

	assert.InDelta(t, 25.0, totals.Subtotal, 1e-9)
	assert.InDelta(t, 5.99, totals.Shipping, 1e-9)
	assert.InDelta(t, 2.0, totals.Tax, 1e-9)
	assert.InDelta(t, 32.99, totals.Total, 1e-9)
}

func TestComputeTotalEmptyCartWaivesShipping(t *testing.T) {
	svc := newTestCartService(database.NewMemoryStore())

	totals := svc.ComputeTotal(nil)

	assert.Zero(t, totals.Subtotal)
	assert.Zero(t, totals.Shipping)
	assert.Zero(t, totals.Total)
}

func TestUpdateQuantityFloorRemovesLine(t *testing.T) {
	ctx := context.Background()

	for _, quantity := range []int{0, -5} {
		svc := newTestCartService(database.NewMemoryStore())
		_, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1"}, 2)
		require.NoError(t, err)

		cart, err := svc.UpdateQuantity(ctx, "alice", models.ItemKey{ProductID: "p1"}, quantity)
		require.NoError(t, err)
		assert.Empty(t, cart.Items, "quantity %d should remove the line", quantity)
	}
}

func TestUpdateQuantitySetsValue(t *testing.T) {
	svc := newTestCartService(database.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1"}, 2)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "alice", models.ItemKey{ProductID: "p1"}, 7)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 7, cart.Items[0].Quantity)
}

func TestUpdateQuantityUnknownKeyIsNoop(t *testing.T) {
	svc := newTestCartService(database.NewMemoryStore())
	ctx := context.Background()

	_, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1"}, 1)
	require.NoError(t, err)

	cart, err := svc.UpdateQuantity(ctx, "alice", models.ItemKey{ProductID: "missing"}, 3)
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)

	cart, err = svc.RemoveItem(ctx, "alice", models.ItemKey{ProductID: "missing"})
	require.NoError(t, err)
	assert.Len(t, cart.Items, 1)
}

func TestLoadFailsOpenOnCorruptData(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	require.NoError(t, store.Set(ctx, "cart:alice", []byte("{not json"), 0))

	cart := newTestCartService(store).Load(ctx, "alice")

	assert.Empty(t, cart.Items)
	assert.Equal(t, "alice", cart.UserID)
}

func TestLoadNormalizesVariantDefaults(t *testing.T) {
	store := database.NewMemoryStore()
	ctx := context.Background()
	raw := []byte(`[{"product_id":"p1","name":"Tee","unit_price":19.5,"quantity":1}]`)
	require.NoError(t, store.Set(ctx, "cart:alice", raw, 0))

	cart := newTestCartService(store).Load(ctx, "alice")

	require.Len(t, cart.Items, 1)
	assert.Equal(t, models.DefaultSize, cart.Items[0].Size)
	assert.Equal(t, models.DefaultColor, cart.Items[0].Color)
}

func TestAddItemWriteFailureStillReturnsCart(t *testing.T) {
	store := &failingStore{MemoryStore: database.NewMemoryStore()}
	svc := newTestCartService(store)
	ctx := context.Background()

	cart, err := svc.AddItem(ctx, "alice", models.CartItem{ProductID: "p1"}, 2)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageWrite)
	// The in-memory cart is still valid so the caller can retry.
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
}
