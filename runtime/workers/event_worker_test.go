package workers

import (
	"context"
	"fmt"
	"gatekeeper/domain"
	"gatekeeper/domain/event"
	"gatekeeper/mocks"
	"gatekeeper/observability"
	"log/slog"
	"testing"
	"time"

	"github.com/mama165/sdk-go/logs"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestEventWorker_SurvivesPanicAndError(t *testing.T) {
	req := require.New(t)
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockEventHandler(ctrl)
	events := make(chan event.Event, 3)
	worker := NewEventWorker(0, events, handler, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))

	first := event.StartRequested{Sender: domain.Member{ID: 1}}
	second := event.StartRequested{Sender: domain.Member{ID: 2}}
	third := event.StartRequested{Sender: domain.Member{ID: 3}}
	handled := make(chan domain.UserID, 1)

	gomock.InOrder(
		handler.EXPECT().Handle(gomock.Any(), first).DoAndReturn(func(context.Context, event.Event) error {
			panic("boom")
		}),
		handler.EXPECT().Handle(gomock.Any(), second).Return(fmt.Errorf("failure")),
		handler.EXPECT().Handle(gomock.Any(), third).DoAndReturn(func(_ context.Context, evt event.Event) error {
			handled <- evt.Subject()
			return nil
		}),
	)

	// Given three events, the first one panics and the second one fails
	events <- first
	events <- second
	events <- third
	close(events)

	// When
	err := worker.Run(context.Background())

	// Then the worker went through all of them and ended on the closed channel
	req.NoError(err)
	req.Equal(domain.UserID(3), <-handled)
}

func TestEventWorker_StopsOnCancel(t *testing.T) {
	ctrl := gomock.NewController(t)
	handler := mocks.NewMockEventHandler(ctrl)
	worker := NewEventWorker(1, make(chan event.Event), handler, time.Second, logs.GetLoggerFromLevel(slog.LevelDebug))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, worker.Run(ctx), context.Canceled)
}

type fixedCounter int

func (c fixedCounter) Len() int { return int(c) }

func TestHeartbeatWorker_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	worker := NewHeartbeatWorker(logs.GetLoggerFromLevel(slog.LevelDebug), nil, fixedCounter(2), fixedCounter(1), 10*time.Millisecond)

	require.ErrorIs(t, worker.Run(ctx), context.DeadlineExceeded)
}

func TestHeartbeatWorker_PublishesTableSizes(t *testing.T) {
	req := require.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	metrics := observability.NewMetrics()
	worker := NewHeartbeatWorker(logs.GetLoggerFromLevel(slog.LevelDebug), metrics, fixedCounter(2), fixedCounter(5), 5*time.Millisecond)

	go func() { _ = worker.Run(ctx) }()

	req.Eventually(func() bool {
		return gaugeValue(metrics, "gatekeeper_collector_states") == 5 &&
			gaugeValue(metrics, "gatekeeper_pending_sessions") == 2
	}, time.Second, 5*time.Millisecond)
}

func gaugeValue(metrics *observability.Metrics, name string) float64 {
	families, err := metrics.Registry().Gather()
	if err != nil {
		return -1
	}
	for _, family := range families {
		if family.GetName() == name && len(family.GetMetric()) > 0 {
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	return -1
}
