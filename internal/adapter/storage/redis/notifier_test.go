package redis_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"relief-disbursement-gateway/internal/adapter/storage/redis"
	"relief-disbursement-gateway/internal/core/domain"
	"relief-disbursement-gateway/internal/core/ports"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_Publish(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	subscriber := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer subscriber.Close()

	ctx := context.Background()
	sub := subscriber.Subscribe(ctx, "decisions")
	defer sub.Close()
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	notifier := redis.NewNotifier(client, "decisions")
	txID := uuid.New()
	event := ports.DecisionEvent{
		TransactionID: &txID,
		Beneficiary:   "beneficiary-77",
		Vendor:        "vendor-3",
		Category:      domain.CategoryFood,
		Amount:        2500,
		RiskLevel:     domain.RiskLevelHigh,
		Action:        domain.ActionReview,
		OccurredAt:    time.Now().UTC(),
	}

	err = notifier.Publish(ctx, event)
	require.NoError(t, err)

	select {
	case msg := <-sub.Channel():
		var got ports.DecisionEvent
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &got))
		assert.Equal(t, event.Beneficiary, got.Beneficiary)
		assert.Equal(t, domain.RiskLevelHigh, got.RiskLevel)
		assert.Equal(t, domain.ActionReview, got.Action)
		require.NotNil(t, got.TransactionID)
		assert.Equal(t, txID, *got.TransactionID)
	case <-time.After(2 * time.Second):
		t.Fatal("decision event was not delivered")
	}
}

func TestNotifier_PublishWithoutSubscribers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	notifier := redis.NewNotifier(client, "decisions")
	err := notifier.Publish(context.Background(), ports.DecisionEvent{
		Beneficiary: "beneficiary-12",
		Vendor:      "vendor-8",
		Category:    domain.CategoryMedical,
		Amount:      900,
		RiskLevel:   domain.RiskLevelCritical,
		Action:      domain.ActionBlock,
		OccurredAt:  time.Now().UTC(),
	})
	assert.NoError(t, err)
}
