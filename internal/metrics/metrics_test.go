package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"rwa-registry-go/internal/models"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

type staticSource struct {
	overview models.RegistryOverview
}

func (s staticSource) Overview() models.RegistryOverview { return s.overview }

func TestRegistryGauges(t *testing.T) {
	SetSource(staticSource{overview: models.RegistryOverview{
		AssetCount:        3,
		DistributionCount: 2,
		TotalValueLocked:  decimal.NewFromInt(1500000),
	}})

	assert.Equal(t, 3.0, testutil.ToFloat64(assetCount))
	assert.Equal(t, 2.0, testutil.ToFloat64(distributionCount))
	assert.Equal(t, 1500000.0, testutil.ToFloat64(totalValueLocked))
}

func TestRecordOperation(t *testing.T) {
	before := testutil.ToFloat64(operations.WithLabelValues("invest", "rejected"))
	RecordOperation("invest", "rejected")
	assert.Equal(t, before+1, testutil.ToFloat64(operations.WithLabelValues("invest", "rejected")))
}

func TestEventObserver(t *testing.T) {
	var o EventObserver
	okBefore := testutil.ToFloat64(eventDeliveries.WithLabelValues("nats", "Transfer", "true"))
	failBefore := testutil.ToFloat64(eventDeliveries.WithLabelValues("nats", "Transfer", "false"))

	o.ObserveDelivery("nats", models.EventTransfer, nil)
	o.ObserveDelivery("nats", models.EventTransfer, errors.New("down"))
	o.ObserveDrop(models.EventTransfer)

	assert.Equal(t, okBefore+1, testutil.ToFloat64(eventDeliveries.WithLabelValues("nats", "Transfer", "true")))
	assert.Equal(t, failBefore+1, testutil.ToFloat64(eventDeliveries.WithLabelValues("nats", "Transfer", "false")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(eventDrops.WithLabelValues("Transfer")), 1.0)
}

func TestRecordReconcile(t *testing.T) {
	before := testutil.ToFloat64(reconcileViolations.WithLabelValues("supply"))
	RecordReconcile(map[string]int{"supply": 2}, 5*time.Millisecond)
	assert.Equal(t, before+2, testutil.ToFloat64(reconcileViolations.WithLabelValues("supply")))
}

func TestRecordReconcileWarnings(t *testing.T) {
	before := testutil.ToFloat64(reconcileWarnings.WithLabelValues("claims"))
	RecordReconcileWarnings(map[string]int{"claims": 1})
	assert.Equal(t, before+1, testutil.ToFloat64(reconcileWarnings.WithLabelValues("claims")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	RecordHTTPRequest("get", "/v1/assets/:id", 200, time.Millisecond)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	assert.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), "rwa_http_requests_total")
	assert.Contains(t, rec.Body.String(), `path="/v1/assets/:id"`)
}
