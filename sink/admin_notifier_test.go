package sink

import (
	"context"
	"fmt"
	"gatekeeper/domain"
	"gatekeeper/mocks"
	"gatekeeper/observability"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestAdminNotifier_DeliversToNumericDestination(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	platform := mocks.NewMockPlatform(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dest := domain.AdminDestination{ChatID: 555, Username: "boss"}
	notifier := NewAdminNotifier(platform, dest, log, nil, 10, time.Second)

	delivered := make(chan string, 1)
	platform.EXPECT().SendToAdmin(gomock.Any(), dest, "user 42 joined").
		DoAndReturn(func(_ context.Context, _ domain.AdminDestination, text string) error {
			delivered <- text
			return nil
		})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = notifier.Run(ctx) }()

	// When
	notifier.Notify("user 42 joined")

	// Then
	select {
	case text := <-delivered:
		req.Equal("user 42 joined", text)
	case <-time.After(2 * time.Second):
		req.Fail("notification was not delivered")
	}
}

func TestAdminNotifier_NeverBlocksWhenFull(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	platform := mocks.NewMockPlatform(ctrl)
	metrics := observability.NewMetrics()
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	notifier := NewAdminNotifier(platform, domain.AdminDestination{Username: "boss"}, log, metrics, 2, time.Second)

	// Given no running worker, When notifying more than the capacity
	done := make(chan struct{})
	go func() {
		for i := 0; i < 5; i++ {
			notifier.Notify(fmt.Sprintf("event %d", i))
		}
		close(done)
	}()

	// Then the caller returns immediately and the overflow is counted
	select {
	case <-done:
	case <-time.After(time.Second):
		req.Fail("Notify blocked")
	}
	req.Len(notifier.queue, 2)
	req.Equal(3.0, counterValue(t, metrics, "gatekeeper_admin_notifications_dropped_total"))
}

func TestAdminNotifier_SwallowsDeliveryFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	platform := mocks.NewMockPlatform(ctrl)
	log := logs.GetLoggerFromLevel(slog.LevelDebug)
	dest := domain.AdminDestination{Username: "boss"}
	notifier := NewAdminNotifier(platform, dest, log, nil, 10, 50*time.Millisecond)

	platform.EXPECT().SendToAdmin(gomock.Any(), dest, "first").Return(fmt.Errorf("chat not found"))
	platform.EXPECT().SendToAdmin(gomock.Any(), dest, "second").Return(nil)

	notifier.Notify("first")
	notifier.Notify("second")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = notifier.Run(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return len(notifier.queue) == 0 }, time.Second, 5*time.Millisecond)
	// Let the last delivery return before stopping
	time.Sleep(20 * time.Millisecond)
	cancel()
	<-done
}

func TestAdminNotifier_NoDestinationSkips(t *testing.T) {
	ctrl := gomock.NewController(t)
	platform := mocks.NewMockPlatform(ctrl)
	notifier := NewAdminNotifier(platform, domain.AdminDestination{}, logs.GetLoggerFromLevel(slog.LevelDebug), nil, 1, time.Second)

	notifier.Notify("ignored")

	require.Empty(t, notifier.queue)
}

func counterValue(t *testing.T, metrics *observability.Metrics, name string) float64 {
	families, err := metrics.Registry().Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			return family.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}
