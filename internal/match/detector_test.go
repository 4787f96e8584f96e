package match

import (
	"math"
	"testing"

	"github.com/tbourn/go-crm-backend/internal/domain"
)

func client(id, name, company, email string) domain.Client {
	return domain.Client{ID: id, Name: name, Company: company, Email: email}
}

func TestFindDuplicates_EmailMatchOverridesEverything(t *testing.T) {
	d := NewDetector(0)
	existing := []domain.Client{
		client("c1", "Sarah Jones", "Globex", "sarah@acme.com"),
	}

	got := d.FindDuplicates("Sarah Jones", "SARAH@ACME.COM", "Completely Different Corp", existing)
	if len(got) != 1 {
		t.Fatalf("want 1 match, got %d", len(got))
	}
	m := got[0]
	if !m.EmailMatch {
		t.Error("EmailMatch = false, want true for case-insensitive exact email")
	}
	if m.TotalScore != 100 {
		t.Errorf("TotalScore = %v, want 100 on email match", m.TotalScore)
	}
}

func TestFindDuplicates_WeightedFormula(t *testing.T) {
	d := NewDetector(85)
	existing := []domain.Client{
		client("c1", "Jon Smith", "Acme", ""),
	}

	got := d.FindDuplicates("John Smith", "", "Acme Inc", existing)

	nameSim := Similarity("John Smith", "Jon Smith")
	companySim := Similarity("Acme Inc", "Acme")
	want := nameSim*0.7 + companySim*0.3

	if want >= 85 {
		if len(got) != 1 {
			t.Fatalf("score %v >= 85, want 1 match, got %d", want, len(got))
		}
		if math.Abs(got[0].TotalScore-want) > 1e-9 {
			t.Errorf("TotalScore = %v, want %v from 0.7*name + 0.3*company", got[0].TotalScore, want)
		}
	} else if len(got) != 0 {
		t.Fatalf("score %v < 85, want no matches, got %d", want, len(got))
	}
}

func TestFindDuplicates_CompanyZeroWhenAbsent(t *testing.T) {
	// An exact name with no company signal scores 100*0.7 + 0*0.3 = 70:
	// reported at a 60 threshold, excluded at the default 85.
	existing := []domain.Client{
		client("c1", "Maria Lopez", "", ""),
	}

	got := NewDetector(60).FindDuplicates("Maria Lopez", "", "Initech", existing)
	if len(got) != 1 {
		t.Fatalf("want 1 match on exact name at 60 threshold, got %d", len(got))
	}
	if got[0].CompanySimilarity != 0 {
		t.Errorf("CompanySimilarity = %v, want 0 when existing record has no company", got[0].CompanySimilarity)
	}
	want := 100*0.7 + 0*0.3
	if math.Abs(got[0].TotalScore-want) > 1e-9 {
		t.Errorf("TotalScore = %v, want %v", got[0].TotalScore, want)
	}

	if got := NewDetector(85).FindDuplicates("Maria Lopez", "", "Initech", existing); len(got) != 0 {
		t.Fatalf("70 < 85 threshold, want no matches, got %d", len(got))
	}
}

func TestFindDuplicates_SortedByScoreDescending(t *testing.T) {
	d := NewDetector(50)
	existing := []domain.Client{
		client("c1", "Jon Smith", "Acme", ""),
		client("c2", "John Smith", "Acme Inc", ""),
		client("c3", "Johnny Smithers", "Acme Incorporated", ""),
	}

	got := d.FindDuplicates("John Smith", "", "Acme Inc", existing)
	if len(got) < 2 {
		t.Fatalf("want at least 2 matches, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].TotalScore > got[i-1].TotalScore {
			t.Errorf("results not sorted descending at %d: %v > %v", i, got[i].TotalScore, got[i-1].TotalScore)
		}
	}
	if got[0].ID != "c2" {
		t.Errorf("best match = %s, want exact-name c2", got[0].ID)
	}
}

func TestFindDuplicates_SkipsInactive(t *testing.T) {
	d := NewDetector(85)
	inactive := false
	existing := []domain.Client{
		{ID: "c1", Name: "Sarah Jones", Email: "sarah@acme.com", IsActive: &inactive},
	}

	if got := d.FindDuplicates("Sarah Jones", "sarah@acme.com", "", existing); len(got) != 0 {
		t.Fatalf("inactive records must not be scored, got %d matches", len(got))
	}
}

func TestNewDetector_DefaultThreshold(t *testing.T) {
	if d := NewDetector(0); d.Threshold != DefaultThreshold {
		t.Errorf("threshold = %v, want %v", d.Threshold, DefaultThreshold)
	}
	if d := NewDetector(92); d.Threshold != 92 {
		t.Errorf("threshold = %v, want 92", d.Threshold)
	}
}
