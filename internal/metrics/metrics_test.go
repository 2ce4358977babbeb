package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveRun(t *testing.T) {
	m := New()

	m.ObserveRun("visualized", "bar", 1, 2*time.Second)
	m.ObserveRun("error", "error", 3, time.Second)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("visualized")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runsTotal.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.executionFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.chartsTotal.WithLabelValues("bar")))
}

func TestObserveSchemaFetch(t *testing.T) {
	m := New()

	m.ObserveSchemaFetch(nil)
	m.ObserveSchemaFetch(errors.New("down"))
	m.ObserveSchemaFetch(nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.schemaFetches.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.schemaFetches.WithLabelValues("error")))
}

func TestHandlerServesRegistry(t *testing.T) {
	m := New()
	m.ObserveRun("visualized", "line", 0, time.Second)

	app := fiber.New()
	app.Get("/metrics", m.Handler())

	resp, err := app.Test(httptest.NewRequest("GET", "/metrics", nil))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `insightai_charts_total{chart_type="line"} 1`)
}
