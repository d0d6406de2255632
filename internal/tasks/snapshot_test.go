package tasks

import (
	"errors"
	"testing"

	"github.com/desertthunder/plzip/internal/models"
	"github.com/desertthunder/plzip/internal/shared"
	tu "github.com/desertthunder/plzip/internal/testing"
)

func TestSnapshot(t *testing.T) {
	t.Run("New Seeds Every Track To Zero", func(t *testing.T) {
		snap := NewSnapshot(tu.Playlist("Mix", 3, "a", "b", "c"))

		if snap.ID() == "" {
			t.Error("expected snapshot id")
		}
		if snap.Len() != 3 {
			t.Fatalf("expected 3 matches, got %d", snap.Len())
		}
		sel := snap.Selection()
		if len(sel) != 3 {
			t.Fatalf("expected 3 selections, got %d", len(sel))
		}
		for _, id := range []string{"a", "b", "c"} {
			if idx, ok := sel[id]; !ok || idx != 0 {
				t.Errorf("expected %s to be seeded with 0, got %d (%v)", id, idx, ok)
			}
		}
	})

	t.Run("Select", func(t *testing.T) {
		base := NewSnapshot(tu.Playlist("Mix", 3, "a", "b"))

		t.Run("Returns New Snapshot", func(t *testing.T) {
			next, err := base.Select("b", 2)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if idx, _ := next.Selected("b"); idx != 2 {
				t.Errorf("expected selection 2, got %d", idx)
			}
			if idx, _ := base.Selected("b"); idx != 0 {
				t.Error("expected original snapshot to be unchanged")
			}
			if next.ID() != base.ID() {
				t.Error("expected edits to keep the snapshot identity")
			}
		})

		t.Run("Is Idempotent", func(t *testing.T) {
			once, _ := base.Select("a", 1)
			twice, err := once.Select("a", 1)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if twice != once {
				t.Error("expected re-selecting the same index to return the same snapshot")
			}
			c1, _ := once.CurrentSelection("a")
			c2, _ := twice.CurrentSelection("a")
			if *c1.SourceURL != *c2.SourceURL {
				t.Error("expected same observable selection")
			}
		})

		t.Run("Unknown Track", func(t *testing.T) {
			if _, err := base.Select("zzz", 0); !errors.Is(err, shared.ErrTrackNotFound) {
				t.Errorf("expected ErrTrackNotFound, got %v", err)
			}
		})

		t.Run("Out Of Range", func(t *testing.T) {
			for _, idx := range []int{-1, 3} {
				if _, err := base.Select("a", idx); !errors.Is(err, shared.ErrInvalidSelection) {
					t.Errorf("expected ErrInvalidSelection for %d, got %v", idx, err)
				}
			}
		})
	})

	t.Run("Remove", func(t *testing.T) {
		base := NewSnapshot(tu.Playlist("Mix", 2, "a", "b", "c"))

		t.Run("Drops Match And Selection Together", func(t *testing.T) {
			next := base.Remove("b")

			if next.Result().Index("b") != -1 {
				t.Error("expected b to be removed from matches")
			}
			if _, ok := next.Selected("b"); ok {
				t.Error("expected b to be removed from selection")
			}
			if next.Len() != 2 || len(next.Selection()) != 2 {
				t.Errorf("expected 2 matches and selections, got %d and %d", next.Len(), len(next.Selection()))
			}
			ids := []string{next.Result().Matches[0].Source.ID, next.Result().Matches[1].Source.ID}
			if ids[0] != "a" || ids[1] != "c" {
				t.Errorf("expected order [a c], got %v", ids)
			}
			if base.Len() != 3 {
				t.Error("expected original snapshot to be unchanged")
			}
		})

		t.Run("Absent Is A No-op", func(t *testing.T) {
			next := base.Remove("b")
			again := next.Remove("b")
			if again != next {
				t.Error("expected removing an absent id to return the same snapshot")
			}
		})

		t.Run("Keeps Other Selections", func(t *testing.T) {
			picked, _ := base.Select("c", 1)
			next := picked.Remove("a")
			if idx, _ := next.Selected("c"); idx != 1 {
				t.Errorf("expected c to keep selection 1, got %d", idx)
			}
		})
	})

	t.Run("CurrentSelection", func(t *testing.T) {
		snap := NewSnapshot(tu.Playlist("Mix", 2, "a"))
		snap, _ = snap.Select("a", 1)

		c, err := snap.CurrentSelection("a")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if u, _ := c.URL(); u != tu.VideoURL("a", 1) {
			t.Errorf("expected candidate 1, got %s", u)
		}

		if _, err := snap.CurrentSelection("missing"); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected ErrTrackNotFound, got %v", err)
		}
	})

	t.Run("Skipped Tracks Are Not Selectable", func(t *testing.T) {
		result := models.NewPlaylistResult("Mix", []models.TrackMatch{
			{Source: models.SourceTrackRef{ID: "a"}, Candidates: []models.CandidateMedia{tu.Candidate("a", "u")}},
			{Source: models.SourceTrackRef{ID: "b"}},
		})
		snap := NewSnapshot(result)

		if snap.Len() != 1 {
			t.Errorf("expected 1 match, got %d", snap.Len())
		}
		if _, err := snap.Select("b", 0); !errors.Is(err, shared.ErrTrackNotFound) {
			t.Errorf("expected skipped track to be unknown, got %v", err)
		}
	})
}
