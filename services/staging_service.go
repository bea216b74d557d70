package services

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/apperrors"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/config"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/database"
	"github.com/markings199/DRIFTWEAR-E-commerce-Fashion-Platform-sub001/models"
)

// EventPublisher emits checkout lifecycle events to the message broker.
type EventPublisher interface {
	PublishCheckoutStaged(event models.CheckoutStagedEvent) error
}

// ReconcileOutcome is the result of inspecting persisted staging state on a
// cart load.
type ReconcileOutcome string

const (
	// ReconcileIdle means no checkout was in flight; nothing was touched.
	ReconcileIdle ReconcileOutcome = "IDLE"
	// ReconcileCompleted means the last staging cycle ended in a confirmed
	// order; the staging record was discarded and the cart left as-is.
	ReconcileCompleted ReconcileOutcome = "COMPLETED"
	// ReconcileRestored means the last checkout was abandoned; the cart was
	// rolled back to its pre-staging contents.
	ReconcileRestored ReconcileOutcome = "RESTORED"
)

func (o ReconcileOutcome) String() string {
	return string(o)
}

// StagingService implements the checkout staging protocol: it snapshots a
// selected subset of the cart for an in-flight checkout, and on later loads
// decides whether that checkout completed or must be rolled back.
//
// The cart itself is never mutated while a checkout is staged. Staged lines
// stay in the cart, so an abandoned checkout needs no merge logic to give
// items back; the backup only exists to defend against mutations made during
// the staged window.
type StagingService struct {
	store     database.KVStore
	carts     *CartService
	publisher EventPublisher // optional
	flagTTL   time.Duration
	log       *zap.Logger
}

func NewStagingService(store database.KVStore, carts *CartService, publisher EventPublisher, cfg config.Config, log *zap.Logger) *StagingService {
	return &StagingService{
		store:     store,
		carts:     carts,
		publisher: publisher,
		flagTTL:   cfg.CompletionFlagTTL,
		log:       log,
	}
}

// StageForCheckout snapshots the cart lines matching the selected keys and
// hands them back for the payment flow. Every selected key must resolve to a
// line in the current cart, and the selection must be non-empty; otherwise
// nothing is written.
//
// Write order matters: the restoration backup is persisted before the staged
// items, so a crash between the two writes can never leave staged items with
// no way back.
func (s *StagingService) StageForCheckout(ctx context.Context, identity string, selection []models.ItemKey) ([]models.CartItem, error) {
	selected := make(map[models.ItemKey]bool, len(selection))
	for _, key := range selection {
		selected[key.Normalize()] = true
	}
	if len(selected) == 0 {
		return nil, apperrors.ErrEmptySelection
	}

	cart := s.carts.Load(ctx, identity)

	staged := make([]models.CartItem, 0, len(selected))
	for _, item := range cart.Items {
		if selected[item.Key()] {
			staged = append(staged, item)
		}
	}
	if len(staged) != len(selected) {
		// At least one selected key is not in the cart.
		return nil, apperrors.ErrEmptySelection
	}

	if err := s.writeStagingRecord(ctx, identity, staged, cart.Items); err != nil {
		return nil, err
	}

	s.publishStaged(identity, staged)
	return staged, nil
}

// StageSingleItem is the "buy now" variant: it stages exactly the given item
// with quantity forced to one, while the backup still covers the entire
// current cart, so buying one thing immediately never disturbs the rest.
func (s *StagingService) StageSingleItem(ctx context.Context, identity string, item models.CartItem) ([]models.CartItem, error) {
	item = item.Normalize()
	item.Quantity = 1

	cart := s.carts.Load(ctx, identity)
	staged := []models.CartItem{item}

	if err := s.writeStagingRecord(ctx, identity, staged, cart.Items); err != nil {
		return nil, err
	}

	s.publishStaged(identity, staged)
	return staged, nil
}

// MarkCheckoutComplete records that the most recent staging cycle ended in a
// confirmed paid order. Called by the payment webhook, never by the cart
// flow itself. The flag is short-lived; it only needs to survive until the
// next cart load consumes it.
func (s *StagingService) MarkCheckoutComplete(ctx context.Context, identity string) error {
	key := storageKey(kindCompleted, identity)
	if err := s.store.Set(ctx, key, []byte("1"), s.flagTTL); err != nil {
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	return nil
}

// ReconcileOnLoad inspects persisted staging state and resolves any checkout
// left in flight. Without a positive completion signal an in-flight checkout
// is presumed abandoned and the cart is rolled back to its backup; losing a
// user's cart to a flaky payment tab is the failure mode defended against.
//
// Calling it again with no intervening staging is a no-op, because the first
// call already deleted the staging record.
func (s *StagingService) ReconcileOnLoad(ctx context.Context, identity string) (ReconcileOutcome, error) {
	stageKey := storageKey(kindStage, identity)
	backupKey := storageKey(kindBackup, identity)
	completedKey := storageKey(kindCompleted, identity)

	stagedData, stagedErr := s.store.Get(ctx, stageKey)
	backupData, backupErr := s.store.Get(ctx, backupKey)
	stagedExists := stagedErr == nil && len(stagedData) > 0
	backupExists := backupErr == nil && len(backupData) > 0

	if !stagedExists && !backupExists {
		// Idle. A completion flag with no record is stale; consume it.
		if _, err := s.store.Get(ctx, completedKey); err == nil {
			_ = s.store.Delete(ctx, completedKey)
		}
		return ReconcileIdle, nil
	}

	if _, err := s.store.Get(ctx, completedKey); err == nil {
		// Checkout succeeded. The cart was never mutated by staging, so
		// there is nothing to restore; just clear the cycle's state.
		if err := s.store.Delete(ctx, completedKey, stageKey, backupKey); err != nil {
			return ReconcileIdle, apperrors.Wrap(apperrors.ErrStorageWrite, err)
		}
		s.log.Info("checkout completed, staging record cleared",
			zap.String("user_id", identity))
		return ReconcileCompleted, nil
	}

	// Abandoned or failed checkout: roll the cart back to the backup taken
	// at staging time, then discard the record.
	if backupExists {
		var items []models.CartItem
		if err := json.Unmarshal(backupData, &items); err != nil {
			s.log.Warn("checkout backup corrupt, nothing to restore",
				zap.String("user_id", identity), zap.Error(err))
		} else if err := s.carts.Replace(ctx, identity, items); err != nil {
			// Keep the record so the next load can retry the restore.
			return ReconcileIdle, err
		}
	} else {
		s.log.Warn("staged items without backup, nothing to restore",
			zap.String("user_id", identity))
	}

	if err := s.store.Delete(ctx, stageKey, backupKey); err != nil {
		return ReconcileIdle, apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	s.log.Info("abandoned checkout restored",
		zap.String("user_id", identity))
	return ReconcileRestored, nil
}

// StagedItems returns the currently staged lines, if a checkout is in
// flight. Used by the checkout view to render what is being paid for.
func (s *StagingService) StagedItems(ctx context.Context, identity string) ([]models.CartItem, error) {
	data, err := s.store.Get(ctx, storageKey(kindStage, identity))
	if errors.Is(err, database.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var items []models.CartItem
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, nil
	}
	return items, nil
}

func (s *StagingService) writeStagingRecord(ctx context.Context, identity string, staged, original []models.CartItem) error {
	// A flag left over from a previous cycle must not resolve this one.
	_ = s.store.Delete(ctx, storageKey(kindCompleted, identity))

	backupData, err := json.Marshal(original)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	stagedData, err := json.Marshal(staged)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}

	backupKey := storageKey(kindBackup, identity)
	if err := s.store.Set(ctx, backupKey, backupData, 0); err != nil {
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	if err := s.store.Set(ctx, storageKey(kindStage, identity), stagedData, 0); err != nil {
		// Undo the backup so a half-written record does not look staged.
		_ = s.store.Delete(ctx, backupKey)
		return apperrors.Wrap(apperrors.ErrStorageWrite, err)
	}
	return nil
}

func (s *StagingService) publishStaged(identity string, staged []models.CartItem) {
	if s.publisher == nil {
		return
	}
	event := models.CheckoutStagedEvent{
		Event:     "checkout.staged",
		EventID:   uuid.NewString(),
		UserID:    identity,
		Items:     staged,
		Total:     s.carts.ComputeTotal(staged).Total,
		Timestamp: time.Now().UTC(),
	}
	if err := s.publisher.PublishCheckoutStaged(event); err != nil {
		// Eventing is best-effort; the staging record is already durable.
		s.log.Warn("failed to publish checkout.staged event",
			zap.String("user_id", identity), zap.Error(err))
	}
}
