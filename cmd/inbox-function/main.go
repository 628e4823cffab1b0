package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	cloudevents "github.com/cloudevents/sdk-go/v2"

	"github.com/awalther/amtspost/internal/config"
	"github.com/awalther/amtspost/internal/services"
)

var (
	inboxInstance *services.InboxFunction
	once          sync.Once
	initErr       error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Register the CloudEvent function; the framework routes the GCS
	// object-finalize event here.
	functions.CloudEvent("ProcessInboxScan", processInboxScan)
}

// main is required by the Go Functions Framework.
func main() {}

// processInboxScan is the Cloud Function entry point.
func processInboxScan(ctx context.Context, e cloudevents.Event) error {
	// One-time initialization of all clients; a failure here fails every
	// invocation until the instance is recycled.
	once.Do(func() {
		inboxInstance, initErr = services.NewInboxFunction(context.Background(), config.FromEnv())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent services.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	return inboxInstance.Process(ctx, gcsEvent)
}
