package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/db/dbtest"
	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/metrics"
	"github.com/angelmondragon/crownleather-backend/pkg/outbox"
)

func seedOutbox(t *testing.T, conn *gorm.DB, now time.Time) {
	t.Helper()
	old := now.AddDate(0, 0, -45)
	published := old.Add(time.Minute)
	rows := []models.OutboxEvent{
		{ID: "old-published", CreatedAt: old, PublishedAt: &published},
		{ID: "old-dead", CreatedAt: old, AttemptCount: 10},
		{ID: "old-pending", CreatedAt: old, AttemptCount: 2},
		{ID: "fresh-published", CreatedAt: now.Add(-time.Hour), PublishedAt: &now},
	}
	for _, row := range rows {
		row.EventType = enums.EventOrderCreated
		row.AggregateType = enums.AggregateOrder
		row.AggregateID = "ORD-" + row.ID
		row.Payload = "{}"
		require.NoError(t, conn.Create(&row).Error)
	}
}

func TestOutboxRetentionDeletesSettledRows(t *testing.T) {
	conn := dbtest.Open(t)
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	seedOutbox(t, conn, now)

	job, err := NewOutboxRetentionJob(OutboxJobParams{
		Logger:     testLogger(),
		DB:         dbtest.TxRunner{DB: conn},
		Repository: outbox.NewRepository(conn),
		Now:        func() time.Time { return now },
	})
	require.NoError(t, err)
	assert.Equal(t, "outbox-retention", job.Name())

	require.NoError(t, job.Run(context.Background()))

	var ids []string
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Order("id").Pluck("id", &ids).Error)
	assert.Equal(t, []string{"fresh-published", "old-pending"}, ids)
}

func TestOutboxBacklogSetsGauge(t *testing.T) {
	conn := dbtest.Open(t)
	seedOutbox(t, conn, time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC))
	reg := prometheus.NewRegistry()
	m := metrics.NewOutboxMetrics(reg)

	job, err := NewOutboxBacklogJob(OutboxJobParams{
		Logger:     testLogger(),
		DB:         dbtest.TxRunner{DB: conn},
		Repository: outbox.NewRepository(conn),
		Metrics:    m,
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	families, err := reg.Gather()
	require.NoError(t, err)
	var pending float64 = -1
	for _, mf := range families {
		if mf.GetName() == "crown_outbox_pending" {
			pending = mf.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(2), pending)
}

type failingRepo struct{}

func (failingRepo) DeleteSettledBefore(*gorm.DB, time.Time, int) (int64, error) {
	return 0, errors.New("db down")
}

func (failingRepo) CountPending(*gorm.DB) (int64, error) { return 0, errors.New("db down") }

type passThroughTx struct{}

func (passThroughTx) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

func TestOutboxJobsPropagateErrors(t *testing.T) {
	params := OutboxJobParams{Logger: testLogger(), DB: passThroughTx{}, Repository: failingRepo{}}

	retention, err := NewOutboxRetentionJob(params)
	require.NoError(t, err)
	assert.Error(t, retention.Run(context.Background()))

	backlog, err := NewOutboxBacklogJob(params)
	require.NoError(t, err)
	assert.Error(t, backlog.Run(context.Background()))

	_, err = NewOutboxRetentionJob(OutboxJobParams{Logger: testLogger()})
	assert.Error(t, err)
}
