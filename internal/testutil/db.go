package testutil

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Environment variables that select the test database.
//
//	RENTITY_TEST_MONGO_URI    use an existing server (e.g. mongodb://localhost:27017)
//	RENTITY_TEST_CONTAINERS=1 start a throwaway mongo:7 container for the run
//
// With neither set, Mongo-backed tests are skipped.
const (
	EnvMongoURI   = "RENTITY_TEST_MONGO_URI"
	EnvContainers = "RENTITY_TEST_CONTAINERS"
)

var (
	clientOnce sync.Once
	client     *mongo.Client
	clientErr  error
	skipReason string
)

// TestContext returns a context with a timeout suitable for one test's
// database work.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// SetupTestDB returns a fresh, uniquely named database and drops it when the
// test finishes. The client is shared by every test in the package.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	clientOnce.Do(connect)
	if skipReason != "" {
		t.Skip(skipReason)
	}
	if clientErr != nil {
		t.Fatalf("test mongo: %v", clientErr)
	}

	name := fmt.Sprintf("rentity_test_%d", time.Now().UnixNano())
	db := client.Database(name)
	t.Cleanup(func() {
		ctx, cancel := TestContext()
		defer cancel()
		_ = db.Drop(ctx)
	})
	return db
}

func connect() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	uri := os.Getenv(EnvMongoURI)
	if uri == "" {
		if os.Getenv(EnvContainers) != "1" {
			skipReason = fmt.Sprintf("set %s or %s=1 to run MongoDB tests", EnvMongoURI, EnvContainers)
			return
		}
		uri, clientErr = startContainer(ctx)
		if clientErr != nil {
			return
		}
	}

	client, clientErr = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if clientErr != nil {
		return
	}
	clientErr = client.Ping(ctx, readpref.Primary())
}

// startContainer runs mongo:7 for the lifetime of the test binary. Ryuk
// reaps the container when the process exits.
func startContainer(ctx context.Context) (string, error) {
	req := testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
	}
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return "", fmt.Errorf("start mongo container: %w", err)
	}
	host, err := c.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := c.MappedPort(ctx, "27017")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("mongodb://%s:%s", host, port.Port()), nil
}
