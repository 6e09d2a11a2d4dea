package core

import (
	"math"
	"testing"
)

func TestCompoundInterest(t *testing.T) {
	cases := []struct {
		principal float64
		rate      float64
		times     int
		years     float64
		total     float64
	}{
		{1000, 5, 1, 1, 1050.00},
		{1000, 5, 12, 1, 1051.16},
		{1000, 0, 1, 10, 1000.00},
		{0, 5, 1, 10, 0},
	}
	for i, tc := range cases {
		got, err := CompoundInterest(tc.principal, tc.rate, tc.times, tc.years)
		if err != nil {
			t.Fatalf("case %d: unexpected error %v", i, err)
		}
		if math.Abs(got.Total-tc.total) > 0.005 {
			t.Fatalf("case %d: total = %v, want %v", i, got.Total, tc.total)
		}
		if math.Abs(got.Interest-(got.Total-tc.principal)) > 0.005 {
			t.Fatalf("case %d: interest %v does not match total-principal", i, got.Interest)
		}
	}
}

func TestCompoundInterestRejectsBadInput(t *testing.T) {
	if _, err := CompoundInterest(-1, 5, 1, 1); err == nil {
		t.Fatal("expected error for negative principal")
	}
	if _, err := CompoundInterest(100, 5, 0, 1); err == nil {
		t.Fatal("expected error for zero compounding periods")
	}
}
