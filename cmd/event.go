package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/quanlynhankhau/registry-api/internal/core/events"
	"github.com/quanlynhankhau/registry-api/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus debugging commands",
	Long:  `Publish test payment events against a throwaway event bus to check handler wiring`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish [event-type]",
	Short: "Publish a test event",
	Long: `Publish a test event to a local event bus. Without an argument the
payment.paid type is used; payment.cancelled is the other type the server emits.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		eventType := events.EventTypePaymentPaid
		if len(args) > 0 {
			eventType = args[0]
		}
		publishTestEvent(eventType)
	},
}

var eventData string

func publishTestEvent(eventType string) {
	logger := logger.LoggerWrapper()

	eventBus := events.NewEventBus(logger)

	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		logger.Info("test handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	testEvent := events.BaseEvent{
		ID:        fmt.Sprintf("test-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	logger.Info("publishing test event", "event_type", eventType, "event_id", testEvent.ID)

	ctx := context.Background()
	if err := eventBus.PublishSync(ctx, testEvent); err != nil {
		logger.Error("failed to publish event", "error", err)
		return
	}

	logger.Info("test event published successfully")
}

func init() {

	publishEventCmd.Flags().StringVar(&eventData, "data", "test message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
