package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaybackLifecycle(t *testing.T) {
	c := NewCollector(60, 50)

	c.PlaybackStarted()
	c.PlaybackStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.ActivePlaybacks))

	c.StepPlayed("turn")
	c.StepPlayed("turn")
	c.StepPlayed("arrive")
	c.FrameObserve(2 * time.Millisecond)

	c.PlaybackFinished(true)
	c.PlaybackFinished(false)

	assert.Equal(t, 0.0, testutil.ToFloat64(c.ActivePlaybacks))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.PlaybacksStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PlaybacksFinished.WithLabelValues("superseded")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PlaybacksFinished.WithLabelValues("completed")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.StepsPlayed.WithLabelValues("turn")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.FramesRendered))
}

func TestHandlerExposesGauges(t *testing.T) {
	c := NewCollector(30, 20)
	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "navigation_frame_rate 30")
	assert.Contains(t, string(body), "navigation_duration_multiplier 20")
}
