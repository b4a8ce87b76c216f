package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/PrathameshGBhat/foodapp-Backend/pkg/db/models"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/enums"
	"github.com/PrathameshGBhat/foodapp-Backend/pkg/outbox/payloads"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.Exec(`
CREATE TABLE outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload BLOB NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
)`).Error)
	require.NoError(t, db.Exec(`
CREATE TABLE outbox_dlq (
  id TEXT PRIMARY KEY,
  event_id TEXT NOT NULL,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload_json BLOB NOT NULL,
  error_reason TEXT NOT NULL,
  error_message TEXT,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  failed_at DATETIME
)`).Error)
	return db
}

func emitOrderPlaced(t *testing.T, svc *Service, db *gorm.DB, orderID int64) {
	t.Helper()
	restaurantID := int64(4)
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "23",
			Data:          payloads.OrderPlacedEvent{OrderID: orderID, RestaurantID: &restaurantID},
		})
	})
	require.NoError(t, err)
}

func TestEmitStoresEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	emitOrderPlaced(t, svc, db, 23)

	var rows []models.OutboxEvent
	require.NoError(t, db.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventOrderPlaced, rows[0].EventType)
	assert.Equal(t, "23", rows[0].AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, rows[0].ID.String(), envelope.EventID)
	assert.Equal(t, 1, envelope.Version)

	var data payloads.OrderPlacedEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, int64(23), data.OrderID)
}

func TestEmitRequiresTransactionAndKnownType(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{EventType: enums.EventOrderPlaced, AggregateID: "1"})
	assert.Error(t, err)

	db := setupOutboxTestDB(t)
	err = svc.Emit(context.Background(), db, DomainEvent{EventType: "order_shipped", AggregateID: "1"})
	assert.Error(t, err)
	err = svc.Emit(context.Background(), db, DomainEvent{EventType: enums.EventOrderPlaced})
	assert.Error(t, err)
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	db := setupOutboxTestDB(t)
	svc := NewService(NewRepository(db), nil)

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "9",
			Data:          map[string]any{"orderId": 9},
		}); err != nil {
			return err
		}
		return errors.New("order insert failed")
	})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	emitOrderPlaced(t, svc, db, 23)
	emitOrderPlaced(t, svc, db, 24)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	require.NoError(t, repo.MarkPublishedTx(db, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(db, rows[1].ID, errors.New("broker down")))

	pending, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, rows[1].ID, pending[0].ID)
	assert.Equal(t, 1, pending[0].AttemptCount)
	require.NotNil(t, pending[0].LastError)
	assert.Equal(t, "broker down", *pending[0].LastError)

	require.NoError(t, repo.MarkTerminalTx(db, rows[1].ID, errors.New("gave up"), 3))
	pending, err = repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDLQRepositoryInsertTruncates(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewDLQRepository(db)

	long := make([]byte, maxErrorLen+100)
	for i := range long {
		long[i] = 'x'
	}
	msg := string(long)
	entry := models.OutboxDLQ{
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "23",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   enums.OutboxDLQReasonMaxAttempts,
		ErrorMessage:  &msg,
	}
	entry.EventID = uuid.New()
	require.NoError(t, repo.InsertTx(db, entry))

	var stored models.OutboxDLQ
	require.NoError(t, db.First(&stored).Error)
	require.NotNil(t, stored.ErrorMessage)
	assert.Len(t, *stored.ErrorMessage, maxErrorLen)

	found, err := repo.FindByEventID(context.Background(), stored.EventID)
	require.NoError(t, err)
	require.NotNil(t, found)
}

func TestDeadLetterCommitsWithPublishedRowsInBatch(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	dlq := NewDLQRepository(db)
	emitOrderPlaced(t, NewService(repo, nil), db, 41)
	emitOrderPlaced(t, NewService(repo, nil), db, 42)

	err := db.Transaction(func(tx *gorm.DB) error {
		rows, err := repo.FetchUnpublishedForPublish(tx, 10, 3)
		if err != nil {
			return err
		}
		require.Len(t, rows, 2)
		if err := repo.MarkPublishedTx(tx, rows[0].ID); err != nil {
			return err
		}
		poison := rows[1]
		if err := dlq.InsertTx(tx, models.OutboxDLQ{
			EventID:       poison.ID,
			EventType:     poison.EventType,
			AggregateType: poison.AggregateType,
			AggregateID:   poison.AggregateID,
			Payload:       poison.Payload,
			ErrorReason:   enums.OutboxDLQReasonNonRetryable,
		}); err != nil {
			return err
		}
		return repo.MarkTerminalTx(tx, poison.ID, errors.New("invalid payload"), 3)
	})
	require.NoError(t, err)

	var parked int64
	require.NoError(t, db.Table("outbox_dlq").Count(&parked).Error)
	assert.Equal(t, int64(1), parked)

	var published int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Where("published_at IS NOT NULL").Count(&published).Error)
	assert.Equal(t, int64(1), published)

	pending, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestDLQRepositoryRejectsUnknownReason(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewDLQRepository(db)

	err := repo.InsertTx(db, models.OutboxDLQ{
		EventID:       uuid.New(),
		EventType:     enums.EventOrderPlaced,
		AggregateType: enums.AggregateOrder,
		AggregateID:   "23",
		Payload:       json.RawMessage(`{}`),
		ErrorReason:   "gave_up",
	})

	assert.Error(t, err)
}

func TestMarkPublishedClearsLastError(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	emitOrderPlaced(t, NewService(repo, nil), db, 31)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NoError(t, repo.MarkFailedTx(db, rows[0].ID, errors.New("broker down")))
	require.NoError(t, repo.MarkPublishedTx(db, rows[0].ID))

	var stored models.OutboxEvent
	require.NoError(t, db.First(&stored, "id = ?", rows[0].ID).Error)
	assert.NotNil(t, stored.PublishedAt)
	assert.Nil(t, stored.LastError)
	assert.Equal(t, 1, stored.AttemptCount)
}
