package timing

import (
	"testing"
	"time"

	"github.com/tmhire/pourplan/core/model"
)

func testRequest() model.PourRequest {
	return model.PourRequest{
		Quantity:       40,
		PumpingSpeed:   20,
		PumpStart:      time.Date(2025, 3, 10, 8, 0, 0, 0, time.UTC),
		BufferMin:      10,
		LoadMin:        10,
		OnwardMin:      20,
		PumpOnwardMin:  15,
		ReturnMin:      20,
		PumpFixingMin:  30,
		PumpRemovalMin: 30,
	}
}

func TestUnloadingTime(t *testing.T) {
	got, err := UnloadingTime(8, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 24 {
		t.Fatalf("expected 24 minutes, got %v", got)
	}
	if _, err := UnloadingTime(8, 0); err == nil {
		t.Fatal("expected error for zero speed")
	}
	if _, err := UnloadingTime(0, 20); err == nil {
		t.Fatal("expected error for zero capacity")
	}
}

func TestCycleTime(t *testing.T) {
	req := testRequest()
	if got := CycleTime(req, 24); got != 84 {
		t.Fatalf("expected 84 minute cycle, got %v", got)
	}
}

func TestLegsOrdering(t *testing.T) {
	req := testRequest()
	legs := LegsFromPlantLoad(req.PumpStart.Add(-40*time.Minute), req, 24)
	seq := []time.Time{legs.PlantLoad, legs.PlantBuffer, legs.PlantStart, legs.PumpStart, legs.Unloading, legs.Return}
	for i := 1; i < len(seq); i++ {
		if seq[i].Before(seq[i-1]) {
			t.Fatalf("leg %d precedes leg %d", i, i-1)
		}
	}
	if !legs.PumpStart.Equal(req.PumpStart) {
		t.Fatalf("expected pump start %v, got %v", req.PumpStart, legs.PumpStart)
	}
}

func TestLegsFromPumpStartRoundTrip(t *testing.T) {
	req := testRequest()
	legs := LegsFromPumpStart(req.PumpStart, req, 24)
	forward := LegsFromPlantLoad(legs.PlantLoad, req, 24)
	if forward != legs {
		t.Fatalf("back-computed legs drifted: %+v vs %+v", forward, legs)
	}
}

func TestDeriveIsIdempotent(t *testing.T) {
	req := testRequest()
	a := LegsFromPlantLoad(req.PumpStart, req, 24)
	b := LegsFromPlantLoad(req.PumpStart, req, 24)
	if a != b {
		t.Fatalf("same inputs produced different legs: %+v vs %+v", a, b)
	}
}

func TestPumpEquipmentTimes(t *testing.T) {
	req := testRequest()
	fromPlant := PumpStartFromPlant(req)
	reach := PumpSiteReach(req)
	if want := req.PumpStart.Add(-45 * time.Minute); !fromPlant.Equal(want) {
		t.Fatalf("expected pump plant departure %v, got %v", want, fromPlant)
	}
	if want := req.PumpStart.Add(-30 * time.Minute); !reach.Equal(want) {
		t.Fatalf("expected pump site reach %v, got %v", want, reach)
	}
	if !reach.After(fromPlant) {
		t.Fatal("site reach must follow plant departure")
	}
}
