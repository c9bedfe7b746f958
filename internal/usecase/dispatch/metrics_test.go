package dispatch

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestRecordRun verifies the run counter is incremented per platform and
// result.
func TestRecordRun(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		result   string
	}{
		{"android completed", "android", "completed"},
		{"ios skipped", "ios", "skipped"},
		{"android aborted", "android", "aborted"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := testutil.ToFloat64(dispatchRunsTotal.WithLabelValues(tt.platform, tt.result))

			RecordRun(tt.platform, tt.result)

			after := testutil.ToFloat64(dispatchRunsTotal.WithLabelValues(tt.platform, tt.result))
			if after != initial+1 {
				t.Errorf("RecordRun() counter = %v, want %v", after, initial+1)
			}
		})
	}
}

// TestRecordPage verifies both the page counter and the considered total
// advance.
func TestRecordPage(t *testing.T) {
	initialPages := testutil.ToFloat64(pagesTotal.WithLabelValues("android"))
	initialConsidered := testutil.ToFloat64(subscribersConsideredTotal.WithLabelValues("android"))

	RecordPage("android", 250)

	if after := testutil.ToFloat64(pagesTotal.WithLabelValues("android")); after != initialPages+1 {
		t.Errorf("pages counter = %v, want %v", after, initialPages+1)
	}
	if after := testutil.ToFloat64(subscribersConsideredTotal.WithLabelValues("android")); after != initialConsidered+250 {
		t.Errorf("considered counter = %v, want %v", after, initialConsidered+250)
	}
}

// TestRecordSend verifies sends land under the right status label.
func TestRecordSend(t *testing.T) {
	initialSent := testutil.ToFloat64(sendsTotal.WithLabelValues("ios", "sent"))
	initialFailed := testutil.ToFloat64(sendsTotal.WithLabelValues("ios", "failed"))

	RecordSend("ios", false, 120*time.Millisecond)
	RecordSend("ios", true, 80*time.Millisecond)

	if after := testutil.ToFloat64(sendsTotal.WithLabelValues("ios", "sent")); after != initialSent+1 {
		t.Errorf("sent counter = %v, want %v", after, initialSent+1)
	}
	if after := testutil.ToFloat64(sendsTotal.WithLabelValues("ios", "failed")); after != initialFailed+1 {
		t.Errorf("failed counter = %v, want %v", after, initialFailed+1)
	}
}

// TestInFlightSendsGauge verifies the gauge moves up and down.
func TestInFlightSendsGauge(t *testing.T) {
	initial := testutil.ToFloat64(inFlightSends)

	IncrementInFlightSends()
	IncrementInFlightSends()
	if after := testutil.ToFloat64(inFlightSends); after != initial+2 {
		t.Errorf("gauge after increments = %v, want %v", after, initial+2)
	}

	DecrementInFlightSends()
	DecrementInFlightSends()
	if after := testutil.ToFloat64(inFlightSends); after != initial {
		t.Errorf("gauge after decrements = %v, want %v", after, initial)
	}
}

// TestRecordLedgerRows verifies ledger row totals accumulate.
func TestRecordLedgerRows(t *testing.T) {
	initial := testutil.ToFloat64(ledgerRowsTotal.WithLabelValues("android"))

	RecordLedgerRows("android", 42)

	if after := testutil.ToFloat64(ledgerRowsTotal.WithLabelValues("android")); after != initial+42 {
		t.Errorf("ledger rows counter = %v, want %v", after, initial+42)
	}
}
