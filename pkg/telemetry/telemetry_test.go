package telemetry

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_Disabled(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: false})
	require.NoError(t, err)
	require.NotNil(t, tel.Tracer)
	require.NotNil(t, tel.Meter)
	require.Nil(t, tel.MeterProvider)
	require.Empty(t, tel.MetricsAddr)
	require.NoError(t, shutdown(context.Background()))
}

func TestNew_ExposesMetrics(t *testing.T) {
	tel, shutdown, err := New(Config{Enabled: true, PrometheusPort: 0})
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, shutdown(context.Background())) })

	counter, err := tel.Meter.Int64Counter("pagewindow.test.ticks")
	require.NoError(t, err)
	counter.Add(context.Background(), 2)

	_, span := tel.Tracer.Start(context.Background(), "test")
	span.End()

	_, port, err := net.SplitHostPort(tel.MetricsAddr)
	require.NoError(t, err)
	resp, err := http.Get("http://127.0.0.1:" + port + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Contains(t, string(body), "pagewindow_test_ticks")
}
