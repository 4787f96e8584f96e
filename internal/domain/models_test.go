package domain

import "testing"

func TestDealStage_Valid(t *testing.T) {
	for _, s := range DealStages {
		if !s.Valid() {
			t.Errorf("stage %q should be valid", s)
		}
	}
	for _, s := range []DealStage{"", "maybe", "Prospecting", "closed", "won"} {
		if s.Valid() {
			t.Errorf("stage %q should be invalid", s)
		}
	}
}

func TestInterestLevel_Valid(t *testing.T) {
	for _, l := range InterestLevels {
		if !l.Valid() {
			t.Errorf("level %q should be valid", l)
		}
	}
	for _, l := range []InterestLevel{"", "lukewarm", "HOT", "interested"} {
		if l.Valid() {
			t.Errorf("level %q should be invalid", l)
		}
	}
}

func TestClient_Active(t *testing.T) {
	yes, no := true, false

	if !(Client{}).Active() {
		t.Error("nil IsActive (legacy row) must count as active")
	}
	if !(Client{IsActive: &yes}).Active() {
		t.Error("explicit true must count as active")
	}
	if (Client{IsActive: &no}).Active() {
		t.Error("explicit false must not count as active")
	}
}

func TestTableNames(t *testing.T) {
	if got := (Client{}).TableName(); got != "clients" {
		t.Errorf("Client table = %q", got)
	}
	if got := (Interaction{}).TableName(); got != "interactions" {
		t.Errorf("Interaction table = %q", got)
	}
	if got := (FollowUp{}).TableName(); got != "followups" {
		t.Errorf("FollowUp table = %q", got)
	}
	if got := (Idempotency{}).TableName(); got != "idempotency" {
		t.Errorf("Idempotency table = %q", got)
	}
}
