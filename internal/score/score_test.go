package score

import (
	"reflect"
	"testing"

	"github.com/mbetschart/flatwatch/internal/listing"
)

func f64(v float64) *float64 { return &v }
func i(v int) *int           { return &v }

func TestComputeReference(t *testing.T) {
	// price=1500, budget=1400, rooms=2, minRooms=2, transit=45:
	// budget term 45-floor((100/50)^1.12) = 43, rooms +30, travel -3 => 70.
	r := Compute(Inputs{
		Stage:          listing.StageStandard,
		TotalChf:       f64(1500),
		BudgetChf:      1400,
		Rooms:          f64(2),
		MinRooms:       2,
		TransitMinutes: i(45),
	})
	if r.Score != 70 {
		t.Errorf("score = %d, want 70 (breakdown %v)", r.Score, r.ScoreBreakdown)
	}
	if len(r.ScoreBreakdown) != 3 {
		t.Errorf("breakdown = %v, want 3 reasons", r.ScoreBreakdown)
	}
}

func TestComputeDeterministic(t *testing.T) {
	in := Inputs{
		Stage:          listing.StageEarly,
		TotalChf:       f64(2100),
		BudgetChf:      2000,
		Rooms:          f64(3.5),
		MinRooms:       3,
		TypeText:       "apartment",
		Area:           "Renens",
		SubareaBonuses: map[string]int{"Renens": 5, "Prilly": 4},
		DriveMinutes:   i(22),
	}
	a := Compute(in)
	b := Compute(in)
	if a.Score != b.Score || !reflect.DeepEqual(a.ScoreBreakdown, b.ScoreBreakdown) {
		t.Errorf("same inputs, different results: %v vs %v", a, b)
	}
}

func TestBudgetTermNoCliff(t *testing.T) {
	base := Inputs{BudgetChf: 1400, Rooms: f64(2), MinRooms: 2}

	just := base
	just.TotalChf = f64(1401)
	over := Compute(just)

	under := base
	under.TotalChf = f64(1400)
	in := Compute(under)

	// Just over budget loses at most the minimum penalty of 1.
	if in.Score-over.Score != 1 {
		t.Errorf("cliff at budget line: %d vs %d", in.Score, over.Score)
	}
}

func TestBudgetTermFloor(t *testing.T) {
	r := Compute(Inputs{TotalChf: f64(9000), BudgetChf: 1400, Rooms: f64(2), MinRooms: 2})
	// Budget term bottoms out at -20: -20 + 30 rooms.
	if r.Score != 10 {
		t.Errorf("score = %d, want 10", r.Score)
	}
}

func TestRoomTransitionTerm(t *testing.T) {
	r := Compute(Inputs{TotalChf: f64(1000), BudgetChf: 1400, Rooms: f64(1.5), MinRooms: 2})
	if r.Score != 45+15 {
		t.Errorf("score = %d, want %d", r.Score, 45+15)
	}

	r = Compute(Inputs{TotalChf: f64(1000), BudgetChf: 1400, MinRooms: 2})
	if r.Score != 45+5 {
		t.Errorf("unknown rooms score = %d, want %d", r.Score, 45+5)
	}
}

func TestStudioPenalty(t *testing.T) {
	with := Compute(Inputs{TotalChf: f64(1000), BudgetChf: 1400, Rooms: f64(2), MinRooms: 2, TypeText: "Studio"})
	without := Compute(Inputs{TotalChf: f64(1000), BudgetChf: 1400, Rooms: f64(2), MinRooms: 2, TypeText: "Apartment"})
	if without.Score-with.Score != 4 {
		t.Errorf("studio penalty = %d, want 4", without.Score-with.Score)
	}
}

func TestTravelPenalty(t *testing.T) {
	base := Inputs{TotalChf: f64(1000), BudgetChf: 1400, Rooms: f64(2), MinRooms: 2}

	short := base
	short.TransitMinutes = i(30)
	if r := Compute(short); r.Score != 75 {
		t.Errorf("30 min transit score = %d, want 75", r.Score)
	}

	// Transit wins over driving when both are known.
	both := base
	both.TransitMinutes = i(50)
	both.DriveMinutes = i(20)
	if r := Compute(both); r.Score != 75-4 {
		t.Errorf("50 min transit score = %d, want %d", r.Score, 75-4)
	}

	// Unknown travel contributes nothing.
	if r := Compute(base); r.Score != 75 {
		t.Errorf("unknown travel score = %d, want 75", r.Score)
	}
}

func TestStageBonus(t *testing.T) {
	base := Inputs{TotalChf: f64(1000), BudgetChf: 1400, Rooms: f64(2), MinRooms: 2}

	off := base
	off.Stage = listing.StageOffMarket
	early := base
	early.Stage = listing.StageEarly

	if d := Compute(off).Score - Compute(base).Score; d != 20 {
		t.Errorf("off-market bonus = %d, want 20", d)
	}
	if d := Compute(early).Score - Compute(base).Score; d != 8 {
		t.Errorf("early-market bonus = %d, want 8", d)
	}
}
