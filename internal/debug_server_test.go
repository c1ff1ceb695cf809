package internal

import (
	"encoding/json"
	"gatekeeper/domain"
	"gatekeeper/observability"
	"gatekeeper/verification"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type staticSessions []verification.Session

func (s staticSessions) Snapshot() []verification.Session { return s }

func TestDebugHandler_Sessions(t *testing.T) {
	req := require.New(t)
	joined := time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)
	handler := NewDebugHandler(observability.NewMetrics(), staticSessions{{
		UserID:     42,
		GroupID:    domain.ChatID(-1001),
		GroupTitle: "Neighbours",
		JoinedAt:   joined,
		Deadline:   joined.Add(10 * time.Minute),
		HasPhone:   true,
		State:      verification.StateArmed,
	}})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/sessions", nil))

	req.Equal(http.StatusOK, recorder.Code)
	var views []SessionView
	req.NoError(json.Unmarshal(recorder.Body.Bytes(), &views))
	req.Len(views, 1)
	req.Equal(int64(42), views[0].UserID)
	req.Equal("armed", views[0].State)
	req.True(views[0].HasPhone)
}

func TestDebugHandler_Metrics(t *testing.T) {
	req := require.New(t)
	metrics := observability.NewMetrics()
	metrics.ObserveVerdict("blocked_word")
	handler := NewDebugHandler(metrics, staticSessions{})

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	req.Equal(http.StatusOK, recorder.Code)
	req.Contains(recorder.Body.String(), `gatekeeper_moderation_verdicts_total{kind="blocked_word"} 1`)
}
