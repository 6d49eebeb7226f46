//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	"contactsync/internal/platform/config"
	"contactsync/internal/platform/kafka"
	"contactsync/pkg/testutil/containers"
)

func TestProducerRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	broker := containers.GetManager().GetRedpanda(t).Broker
	topic := "contactsync.runs." + uuid.NewString()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	producer, err := kafka.New(ctx, config.KafkaConfig{Brokers: []string{broker}, Topic: topic})
	require.NoError(t, err)
	defer producer.Close()

	require.NoError(t, producer.EnsureTopic(ctx, 1, 1))
	require.NoError(t, producer.EnsureTopic(ctx, 1, 1), "existing topic is not an error")
	require.NoError(t, producer.Produce(ctx, "run-1", []byte(`{"status":"succeeded"}`)))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	require.NoError(t, err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	require.Empty(t, fetches.Errors())
	records := fetches.Records()
	require.Len(t, records, 1)
	require.Equal(t, "run-1", string(records[0].Key))
}

func TestNewWithoutBrokersIsDisabled(t *testing.T) {
	producer, err := kafka.New(context.Background(), config.KafkaConfig{})
	require.NoError(t, err)
	require.Nil(t, producer)
}
