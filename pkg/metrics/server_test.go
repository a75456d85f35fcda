package metrics

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestServe(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg, "served")
	c.BatchAssembled(3, 10)

	s, err := Serve("127.0.0.1:0", reg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer s.Stop(context.Background())

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `colbridge_rows_assembled_total{component="served"} 10`)
}

func TestServeBadAddress(t *testing.T) {
	_, err := Serve("not-an-address", prometheus.NewRegistry(), nil)
	assert.Error(t, err)
}
