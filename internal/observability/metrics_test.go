package observability

import (
	"testing"

	logs "github.com/danmuck/smplog"
)

func TestRegisterMetricsAndRecordersAreSafe(t *testing.T) {
	RegisterMetrics()
	RegisterMetrics()

	RecordSession("closed")
	RecordMessage("recv", "access_request")
	RecordAuth("failed")
	RecordAccess("SCP", "redacted")

	logs.Infof("observability/metrics: registration idempotent and recording paths executed")
}
