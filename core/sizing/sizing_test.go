package sizing

import (
	"errors"
	"testing"
	"time"

	"github.com/tmhire/pourplan/core/model"
)

func testRequest() model.PourRequest {
	return model.PourRequest{
		Quantity:     40,
		PumpingSpeed: 20,
		PumpStart:    time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		BufferMin:    10,
		LoadMin:      10,
		OnwardMin:    20,
		ReturnMin:    20,
	}
}

func TestCompute(t *testing.T) {
	got, err := Compute(testRequest(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Loads != 5 {
		t.Errorf("loads: got %d, want 5", got.Loads)
	}
	if got.UnloadingMin != 24 {
		t.Errorf("unloading: got %v, want 24", got.UnloadingMin)
	}
	if got.CycleMin != 84 {
		t.Errorf("cycle: got %v, want 84", got.CycleMin)
	}
	// 84 / 24 = 3.5 vehicles in flight, rounded up.
	if got.TMCount != 4 {
		t.Errorf("tm count: got %d, want 4", got.TMCount)
	}
	if got.PumpCount != 1 {
		t.Errorf("pump count: got %d, want 1", got.PumpCount)
	}
	if got.TripsPerTM != 1.25 {
		t.Errorf("trips per tm: got %v, want 1.25", got.TripsPerTM)
	}
}

func TestComputeRejectsInvalidRequest(t *testing.T) {
	req := testRequest()
	req.Quantity = 0
	_, err := Compute(req, 8)
	if err == nil {
		t.Fatal("expected validation error for zero quantity")
	}
	var verr *model.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *model.ValidationError, got %T", err)
	}
}

func TestComputeRejectsZeroCapacity(t *testing.T) {
	if _, err := Compute(testRequest(), 0); err == nil {
		t.Fatal("expected error for zero average capacity")
	}
}

func TestWithOverrule(t *testing.T) {
	r, err := Compute(testRequest(), 8)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	over := r.WithOverrule(5)
	if over.TMCount != 5 {
		t.Errorf("tm count: got %d, want 5", over.TMCount)
	}
	if over.TripsPerTM != 1.0 {
		t.Errorf("trips per tm: got %v, want 1.0", over.TripsPerTM)
	}
	// An override at or below the optimum is a no-op.
	if same := r.WithOverrule(4); same != r {
		t.Errorf("override equal to optimum changed the result: %+v", same)
	}
	if same := r.WithOverrule(2); same != r {
		t.Errorf("override below optimum changed the result: %+v", same)
	}
}

func TestDistribute(t *testing.T) {
	cases := []struct {
		name    string
		loads   int
		tmCount int
		want    []model.TripDistribution
	}{
		{
			name: "remainder to leading vehicles", loads: 10, tmCount: 3,
			want: []model.TripDistribution{{TMCount: 1, Trips: 4}, {TMCount: 2, Trips: 3}},
		},
		{
			name: "even split", loads: 12, tmCount: 4,
			want: []model.TripDistribution{{TMCount: 4, Trips: 3}},
		},
		{
			name: "fewer loads than vehicles", loads: 3, tmCount: 5,
			want: []model.TripDistribution{{TMCount: 3, Trips: 1}},
		},
		{
			name: "single vehicle", loads: 7, tmCount: 1,
			want: []model.TripDistribution{{TMCount: 1, Trips: 7}},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Distribute(tc.loads, tc.tmCount)
			if len(got) != len(tc.want) {
				t.Fatalf("rows: got %v, want %v", got, tc.want)
			}
			total := 0
			for i, row := range got {
				if row != tc.want[i] {
					t.Errorf("row %d: got %+v, want %+v", i, row, tc.want[i])
				}
				total += row.TMCount * row.Trips
			}
			if total != tc.loads {
				t.Errorf("rows cover %d loads, want %d", total, tc.loads)
			}
		})
	}
}

func TestDistributeGuards(t *testing.T) {
	if got := Distribute(0, 3); got != nil {
		t.Errorf("expected nil for zero loads, got %v", got)
	}
	if got := Distribute(10, 0); got != nil {
		t.Errorf("expected nil for zero vehicles, got %v", got)
	}
}
