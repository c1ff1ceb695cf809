package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingNotifier []string

func (n *recordingNotifier) Notify(text string) {
	*n = append(*n, text)
}

func TestAnnounceStartup(t *testing.T) {
	req := require.New(t)
	var notifier recordingNotifier

	announceStartup(&notifier, 10*time.Minute)

	req.Equal(recordingNotifier{"Security bot started. Verification timeout: 10m0s."}, notifier)
}
