package models

import "testing"

func TestScanStatusHelpers(t *testing.T) {
	cases := []struct {
		status   string
		inFlight bool
		canRetry bool
	}{
		{ScanStatusPending, true, false},
		{ScanStatusRunning, true, false},
		{ScanStatusCompleted, false, false},
		{ScanStatusFailed, false, true},
		{ScanStatusCancelled, false, true},
	}

	for _, tc := range cases {
		scan := &ScanResult{Status: tc.status}
		if got := scan.IsInFlight(); got != tc.inFlight {
			t.Errorf("IsInFlight(%s) = %v, want %v", tc.status, got, tc.inFlight)
		}
		if got := scan.CanRetry(); got != tc.canRetry {
			t.Errorf("CanRetry(%s) = %v, want %v", tc.status, got, tc.canRetry)
		}
	}
}
