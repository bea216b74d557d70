package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/database"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"
)

type recordingPublisher struct {
	events []models.CheckoutStagedEvent
}

func (p *recordingPublisher) PublishCheckoutStaged(event models.CheckoutStagedEvent) error {
	p.events = append(p.events, event)
	return nil
}

type stagingFixture struct {
	store     database.KVStore
	carts     *CartService
	staging   *StagingService
	publisher *recordingPublisher
}

func newStagingFixture(store database.KVStore) *stagingFixture {
	carts := NewCartService(store, testConfig(), zap.NewNop())
	publisher := &recordingPublisher{}
	return &stagingFixture{
		store:     store,
		carts:     carts,
		staging:   NewStagingService(store, carts, publisher, testConfig(), zap.NewNop()),
		publisher: publisher,
	}
}

// seedCart fills the cart with three distinct lines A, B, C.
func (f *stagingFixture) seedCart(t *testing.T, identity string) []models.CartItem {
	t.Helper()
	ctx := context.Background()

	var cart *models.Cart
	var err error
	for _, item := range []models.CartItem{
		{ProductID: "A", Name: "Hoodie", UnitPrice: 49},
		{ProductID: "B", Name: "Tee", UnitPrice: 19},
		{ProductID: "C", Name: "Cap", UnitPrice: 15},
	} {
		cart, err = f.carts.AddItem(ctx, identity, item, 1)
		require.NoError(t, err)
	}
	require.Len(t, cart.Items, 3)
	return cart.Items
}

func key(productID string) models.ItemKey {
	return models.ItemKey{ProductID: productID}.Normalize()
}

func TestStageForCheckoutEmptySelection(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", nil)

	assert.ErrorIs(t, err, apperrors.ErrEmptySelection)
}

func TestStageForCheckoutRejectsUnknownKeys(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A"), key("ghost")})
	assert.ErrorIs(t, err, apperrors.ErrEmptySelection)

	// A failed staging must leave no state behind.
	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileIdle, outcome)
}

func TestStageForCheckoutDoesNotMutateCart(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	original := f.seedCart(t, "alice")
	ctx := context.Background()

	staged, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A"), key("B")})
	require.NoError(t, err)
	require.Len(t, staged, 2)

	cart := f.carts.Load(ctx, "alice")
	assert.Equal(t, original, cart.Items)
}

func TestRestoreOnAbandon(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	original := f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A"), key("B")})
	require.NoError(t, err)

	// No completion signal: the checkout is presumed abandoned.
	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileRestored, outcome)

	cart := f.carts.Load(ctx, "alice")
	assert.Equal(t, original, cart.Items)

	staged, err := f.staging.StagedItems(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, staged)
}

func TestRestoreRevertsMidCycleMutations(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	original := f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A")})
	require.NoError(t, err)

	// The user keeps browsing during the staged window and drops a line.
	_, err = f.carts.RemoveItem(ctx, "alice", key("B"))
	require.NoError(t, err)

	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileRestored, outcome)

	cart := f.carts.Load(ctx, "alice")
	assert.Equal(t, original, cart.Items)
}

func TestReconcileIsIdempotent(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	original := f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A")})
	require.NoError(t, err)

	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, ReconcileRestored, outcome)

	outcome, err = f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileIdle, outcome)

	cart := f.carts.Load(ctx, "alice")
	assert.Equal(t, original, cart.Items)
}

func TestCompletedCheckoutClearsStateAndKeepsCart(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	original := f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A"), key("B")})
	require.NoError(t, err)
	require.NoError(t, f.staging.MarkCheckoutComplete(ctx, "alice"))

	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileCompleted, outcome)

	// This core never removes purchased lines itself; the cart is exactly
	// as it was at staging time.
	cart := f.carts.Load(ctx, "alice")
	assert.Equal(t, original, cart.Items)

	// Flag and record are both gone, so the next load is a plain Idle.
	outcome, err = f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileIdle, outcome)
}

func TestStageClearsStaleCompletionFlag(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	f.seedCart(t, "alice")
	ctx := context.Background()

	// A flag left behind by an earlier cycle must not resolve a new one.
	require.NoError(t, f.staging.MarkCheckoutComplete(ctx, "alice"))
	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A")})
	require.NoError(t, err)

	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileRestored, outcome)
}

func TestBuyNowStagesSingleItemAndBacksUpWholeCart(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	original := f.seedCart(t, "alice")
	ctx := context.Background()

	// Quantity on the incoming item is ignored; buy-now is always one unit.
	staged, err := f.staging.StageSingleItem(ctx, "alice", models.CartItem{
		ProductID: "D", Name: "Scarf", UnitPrice: 25, Quantity: 5,
	})
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, 1, staged[0].Quantity)
	assert.Equal(t, "D", staged[0].ProductID)

	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileRestored, outcome)

	cart := f.carts.Load(ctx, "alice")
	assert.Equal(t, original, cart.Items)
}

func TestStagedItemsReflectsInFlightCheckout(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	f.seedCart(t, "alice")
	ctx := context.Background()

	staged, err := f.staging.StagedItems(ctx, "alice")
	require.NoError(t, err)
	assert.Nil(t, staged)

	_, err = f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("C")})
	require.NoError(t, err)

	staged, err = f.staging.StagedItems(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, staged, 1)
	assert.Equal(t, "C", staged[0].ProductID)
}

func TestStagedWriteFailureRollsBackBackup(t *testing.T) {
	// The backup key is written first; when the staged-items write fails the
	// backup must be removed so no half-written record looks staged.
	store := &failingStore{MemoryStore: database.NewMemoryStore(), setsUntilFailure: 5}
	f := newStagingFixture(store)
	f.seedCart(t, "alice") // three writes

	store.setsUntilFailure = 1 // backup succeeds, staged items fail
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A")})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrStorageWrite)

	store.setsUntilFailure = 100
	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileIdle, outcome)
}

func TestStagingPublishesCheckoutEvent(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	f.seedCart(t, "alice")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A")})
	require.NoError(t, err)

	require.Len(t, f.publisher.events, 1)
	event := f.publisher.events[0]
	assert.Equal(t, "checkout.staged", event.Event)
	assert.Equal(t, "alice", event.UserID)
	assert.NotEmpty(t, event.EventID)
	require.Len(t, event.Items, 1)
	assert.Equal(t, "A", event.Items[0].ProductID)
}

func TestStagingIsScopedPerIdentity(t *testing.T) {
	f := newStagingFixture(database.NewMemoryStore())
	f.seedCart(t, "alice")
	f.seedCart(t, "guest")
	ctx := context.Background()

	_, err := f.staging.StageForCheckout(ctx, "alice", []models.ItemKey{key("A")})
	require.NoError(t, err)
	_, err = f.staging.StageForCheckout(ctx, "guest", []models.ItemKey{key("B")})
	require.NoError(t, err)

	// Completing alice's checkout must not resolve the guest's cycle.
	require.NoError(t, f.staging.MarkCheckoutComplete(ctx, "alice"))

	outcome, err := f.staging.ReconcileOnLoad(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ReconcileCompleted, outcome)

	outcome, err = f.staging.ReconcileOnLoad(ctx, "guest")
	require.NoError(t, err)
	assert.Equal(t, ReconcileRestored, outcome)
}
