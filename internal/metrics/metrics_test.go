package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(InvitesIssued.WithLabelValues("created"))
	InvitesIssued.WithLabelValues("created").Inc()
	after := testutil.ToFloat64(InvitesIssued.WithLabelValues("created"))

	if after-before != 1 {
		t.Errorf("Expected counter to advance by 1, got %v", after-before)
	}
}
