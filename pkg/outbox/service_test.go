package outbox

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/outbox/payloads"
)

func newTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.OutboxEvent{}))
	return conn
}

func TestEmitWritesEnvelope(t *testing.T) {
	conn := newTestDB(t, "outbox_emit")
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	fixed := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "ORD-1",
			Actor:         &ActorRef{IdentityID: "id-1", Role: "customer"},
			Data:          payloads.OrderCreatedEvent{OrderID: "ORD-1", Total: "216.00"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "ORD-1", rows[0].AggregateID)
	assert.True(t, rows[0].CreatedAt.Equal(fixed))

	env, err := DecodeEnvelope(rows[0].Payload)
	require.NoError(t, err)
	assert.Equal(t, rows[0].ID, env.EventID)
	assert.Equal(t, "order_created", env.EventType)

	var data payloads.OrderCreatedEvent
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, "216.00", data.Total)
}

func TestEmitRollsBackWithTransaction(t *testing.T) {
	conn := newTestDB(t, "outbox_rollback")
	svc := NewService(NewRepository(conn), nil)

	_ = conn.Transaction(func(tx *gorm.DB) error {
		require.NoError(t, svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   "ORD-2",
		}))
		return assert.AnError
	})

	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestEmitRejectsUnknownEvent(t *testing.T) {
	conn := newTestDB(t, "outbox_unknown")
	svc := NewService(NewRepository(conn), nil)
	err := svc.Emit(context.Background(), conn, DomainEvent{EventType: "nope", AggregateType: enums.AggregateOrder})
	assert.Error(t, err)
	assert.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
}

func TestFetchMarkLifecycle(t *testing.T) {
	conn := newTestDB(t, "outbox_lifecycle")
	repo := NewRepository(conn)
	base := time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		require.NoError(t, repo.Insert(conn, models.OutboxEvent{
			ID: id, EventType: enums.EventOrderCreated, AggregateType: enums.AggregateOrder,
			AggregateID: "ORD-" + id, Payload: "{}", CreatedAt: base.Add(time.Duration(i) * time.Second),
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 2, 3)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "a", rows[0].ID)

	require.NoError(t, repo.MarkPublishedTx(conn, "a"))
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.MarkFailedTx(conn, "b", assert.AnError))
	}

	rows, err = repo.FetchUnpublishedForPublish(conn, 10, 3)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "c", rows[0].ID)

	pending, err := repo.CountPending(conn)
	require.NoError(t, err)
	assert.Equal(t, int64(2), pending)

	deleted, err := repo.DeleteSettledBefore(conn, base.Add(time.Hour), 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	var left []models.OutboxEvent
	require.NoError(t, conn.Find(&left).Error)
	require.Len(t, left, 1)
	assert.Equal(t, "c", left[0].ID)
}
