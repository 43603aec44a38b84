package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/crownleather-backend/pkg/config"
	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
	"github.com/angelmondragon/crownleather-backend/pkg/metrics"
)

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{events: []models.OutboxEvent{
		newEvent("evt-1", "ORD-1"),
		newEvent("evt-2", "ORD-2"),
	}}
	pub := &fakePublisher{results: []publishResult{
		fakePublishResult{err: errors.New("transient")},
		fakePublishResult{},
	}}
	svc := newTestService(t, repo, pub)

	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.True(t, processed)
	assert.Equal(t, []string{"evt-1"}, repo.failed)
	assert.Equal(t, []string{"evt-2"}, repo.published)

	require.Len(t, pub.messages, 2)
	attrs := pub.messages[1].Attributes
	assert.Equal(t, "evt-2", attrs["event_id"])
	assert.Equal(t, "order_created", attrs["event_type"])
	assert.Equal(t, "ORD-2", attrs["aggregate_id"])
}

func TestProcessBatchEmpty(t *testing.T) {
	svc := newTestService(t, &fakeRepo{}, &fakePublisher{})
	processed, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	assert.False(t, processed)
}

func TestProcessBatchCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	repo := &fakeRepo{events: []models.OutboxEvent{newEvent("evt-1", "ORD-1")}}
	svc := newTestService(t, repo, &fakePublisher{results: []publishResult{fakePublishResult{}}})
	svc.metrics = metrics.NewOutboxMetrics(reg)

	_, err := svc.processBatch(context.Background())
	require.NoError(t, err)
	count, err := testutil.GatherAndCount(reg, "crown_outbox_published_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestProcessBatchFetchError(t *testing.T) {
	svc := newTestService(t, &fakeRepo{fetchErr: errors.New("db down")}, &fakePublisher{})
	_, err := svc.processBatch(context.Background())
	assert.Error(t, err)
}

func TestNextBackoffCaps(t *testing.T) {
	assert.Equal(t, 2*time.Second, nextBackoff(time.Second, time.Second, maxBackoff))
	assert.Equal(t, maxBackoff, nextBackoff(8*time.Second, time.Second, maxBackoff))
	assert.Equal(t, 2*time.Second, nextBackoff(0, time.Second, maxBackoff))
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(ServiceParams{})
	assert.Error(t, err)
}

func newEvent(id, aggregate string) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            id,
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   aggregate,
		Payload:       `{"version":1,"eventId":"` + id + `","eventType":"order_created","occurredAt":"2026-10-01T00:00:00Z","data":{}}`,
		CreatedAt:     time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC),
	}
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()
	cfg := &config.Config{Outbox: config.OutboxConfig{BatchSize: 10, PollIntervalMS: 10, MaxAttempts: 3}}
	svc, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:         fakeDB{},
		PubSub:     fakePubSub{},
		Repository: repo,
		Publisher:  pub,
	})
	require.NoError(t, err)
	return svc
}

type fakeDB struct{}

func (fakeDB) Ping(context.Context) error { return nil }

func (fakeDB) WithTx(_ context.Context, fn func(tx *gorm.DB) error) error { return fn(nil) }

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error { return nil }

func (fakePubSub) OrdersPublisher() *gcppubsub.Publisher { return nil }

type fakeRepo struct {
	events    []models.OutboxEvent
	fetchErr  error
	published []string
	failed    []string
}

func (r *fakeRepo) FetchUnpublishedForPublish(_ *gorm.DB, limit, _ int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if len(r.events) > limit {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublishedTx(_ *gorm.DB, id string) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailedTx(_ *gorm.DB, id string, _ error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePublisher struct {
	results  []publishResult
	messages []*gcppubsub.Message
}

func (p *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	if len(p.results) == 0 {
		return fakePublishResult{}
	}
	res := p.results[0]
	p.results = p.results[1:]
	return res
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}
