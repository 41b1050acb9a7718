package api

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordRegistration_separateFromLogins(t *testing.T) {
	loginFailures := testutil.ToFloat64(pvLoginsTotal.WithLabelValues("password", "failure"))
	regFailures := testutil.ToFloat64(pvRegistrationsTotal.WithLabelValues("failure"))

	RecordRegistration(false)

	if got := testutil.ToFloat64(pvLoginsTotal.WithLabelValues("password", "failure")); got != loginFailures {
		t.Errorf("login failure counter moved on a registration conflict: %v to %v", loginFailures, got)
	}
	if got := testutil.ToFloat64(pvRegistrationsTotal.WithLabelValues("failure")); got != regFailures+1 {
		t.Errorf("expected registration failure counter to increment: %v to %v", regFailures, got)
	}
}

func TestRecordRegistration_successOutcome(t *testing.T) {
	before := testutil.ToFloat64(pvRegistrationsTotal.WithLabelValues("success"))

	RecordRegistration(true)

	if got := testutil.ToFloat64(pvRegistrationsTotal.WithLabelValues("success")); got != before+1 {
		t.Errorf("expected registration success counter to increment: %v to %v", before, got)
	}
}
