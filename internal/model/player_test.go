package model

import (
	"errors"
	"testing"

	"github.com/sundayleague/league-api/internal/apperror"
)

func intPtr(v int) *int { return &v }

func TestPosition_Valid(t *testing.T) {
	for _, p := range Positions {
		if !p.Valid() {
			t.Errorf("%q.Valid() = false, want true", p)
		}
	}
	for _, p := range []Position{"", "gk", "SW", "WB"} {
		if p.Valid() {
			t.Errorf("%q.Valid() = true, want false", p)
		}
	}
}

func TestNormalizeCleanSheets(t *testing.T) {
	tests := []struct {
		name    string
		pos     Position
		in      *int
		want    *int
		wantErr bool
	}{
		{name: "goalkeeper omitted defaults to zero", pos: PositionGK, in: nil, want: intPtr(0)},
		{name: "goalkeeper keeps value", pos: PositionGK, in: intPtr(7), want: intPtr(7)},
		{name: "centre back keeps value", pos: PositionCB, in: intPtr(2), want: intPtr(2)},
		{name: "full back omitted defaults to zero", pos: PositionLB, in: nil, want: intPtr(0)},
		{name: "defender negative rejected", pos: PositionRB, in: intPtr(-1), wantErr: true},
		{name: "striker omitted stays null", pos: PositionST, in: nil, want: nil},
		{name: "striker zero stored as null", pos: PositionST, in: intPtr(0), want: nil},
		{name: "midfielder nonzero rejected", pos: PositionCM, in: intPtr(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeCleanSheets(tt.pos, tt.in)
			if tt.wantErr {
				if !errors.Is(err, apperror.ErrValidation) {
					t.Fatalf("err = %v, want ErrValidation", err)
				}
				var appErr *apperror.AppError
				if errors.As(err, &appErr) && appErr.Field != "clean_sheets" {
					t.Errorf("Field = %q, want clean_sheets", appErr.Field)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("got %d, want nil", *got)
			case tt.want != nil && got == nil:
				t.Errorf("got nil, want %d", *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("got %d, want %d", *got, *tt.want)
			}
		})
	}
}

func TestPlayerPatch_ApplyOnlyTouchesSetFields(t *testing.T) {
	p := &Player{
		FirstName: "Bukayo",
		LastName:  "Saka",
		Position:  PositionRW,
		Goals:     10,
		Assists:   4,
	}

	newLast := "Saka Jr"
	goals := 12
	PlayerPatch{LastName: &newLast, Goals: &goals}.Apply(p)

	if p.FirstName != "Bukayo" {
		t.Errorf("FirstName = %q, want unchanged", p.FirstName)
	}
	if p.LastName != "Saka Jr" {
		t.Errorf("LastName = %q, want %q", p.LastName, "Saka Jr")
	}
	if p.Goals != 12 {
		t.Errorf("Goals = %d, want 12", p.Goals)
	}
	if p.Assists != 4 {
		t.Errorf("Assists = %d, want unchanged 4", p.Assists)
	}
}

func TestPlayerPatch_IsEmpty(t *testing.T) {
	if !(PlayerPatch{}).IsEmpty() {
		t.Error("zero patch should be empty")
	}
	captain := true
	if (PlayerPatch{IsCaptain: &captain}).IsEmpty() {
		t.Error("patch with IsCaptain should not be empty")
	}
}

func TestPlayerStats_Apply(t *testing.T) {
	p := &Player{Position: PositionGK}
	PlayerStats{Goals: 1, Assists: 2, CleanSheets: intPtr(9), Appearances: 20, YellowCards: 3, RedCards: 1}.Apply(p)

	if p.Goals != 1 || p.Assists != 2 || p.Appearances != 20 || p.YellowCards != 3 || p.RedCards != 1 {
		t.Errorf("stats not applied: %+v", p)
	}
	if p.CleanSheets == nil || *p.CleanSheets != 9 {
		t.Errorf("CleanSheets = %v, want 9", p.CleanSheets)
	}
}
