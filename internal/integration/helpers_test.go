//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/cosmic-watch-service/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/kafka"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := kafka.Run(ctx, "confluentinc/confluent-local:7.5.0", kafka.WithClusterID("cosmic-watch-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

// startPostgres runs Postgres and returns a DSN with TLS disabled.
func startPostgres(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("cosmicwatch"),
		postgres.WithUsername("cosmic"),
		postgres.WithPassword("cosmic"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start postgres container")

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	return dsn
}

// startRedis runs Redis and returns its host:port.
func startRedis(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start redis container")

	host, err := ctr.Host(ctx)
	require.NoError(t, err)
	port, err := ctr.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	return net.JoinHostPort(host, port.Port())
}

// feedObject builds a NeoWs object; meters, au, and kps are raw JSON values.
func feedObject(t *testing.T, id, name, date, meters, au, kps string, hazardous bool) domain.FeedObject {
	t.Helper()
	raw := fmt.Sprintf(`{
		"id": %q,
		"name": %q,
		"estimated_diameter": {"meters": {"estimated_diameter_min": 1, "estimated_diameter_max": %s}},
		"is_potentially_hazardous_asteroid": %t,
		"close_approach_data": [{
			"close_approach_date": %q,
			"relative_velocity": {"kilometers_per_second": %s, "kilometers_per_hour": "0"},
			"miss_distance": {"astronomical": %s, "kilometers": "0"}
		}]
	}`, id, name, meters, hazardous, date, kps, au)
	obj, err := domain.DecodeFeedObject([]byte(raw))
	require.NoError(t, err)
	return obj
}

// staticFeed serves the same objects for every range.
type staticFeed struct {
	objs []domain.FeedObject
}

func (f staticFeed) Feed(_ context.Context, _, _ time.Time) ([]domain.FeedObject, error) {
	return f.objs, nil
}

func (f staticFeed) Lookup(_ context.Context, id string) (domain.FeedObject, error) {
	for _, o := range f.objs {
		if o.ID == id {
			return o, nil
		}
	}
	return domain.FeedObject{}, domain.ErrNotFound
}
