package domain

import (
	"errors"
	"slices"
	"strings"
	"testing"
	"time"
)

func TestClassify_AllCombinations(t *testing.T) {
	cases := []struct {
		importance, urgency Level
		want                Quadrant
	}{
		{LevelHigh, LevelHigh, QuadrantUrgentImportant},
		{LevelHigh, LevelLow, QuadrantNotUrgentImportant},
		{LevelLow, LevelHigh, QuadrantUrgentNotImportant},
		{LevelLow, LevelLow, QuadrantNotUrgentNotImportant},
	}
	for _, tc := range cases {
		for i := 0; i < 3; i++ {
			got, err := Classify(tc.importance, tc.urgency)
			if err != nil {
				t.Fatalf("Classify(%s,%s): unexpected error %v", tc.importance, tc.urgency, err)
			}
			if got != tc.want {
				t.Errorf("Classify(%s,%s) = %s, want %s", tc.importance, tc.urgency, got, tc.want)
			}
		}
	}
}

func TestClassify_RejectsUnknownLevel(t *testing.T) {
	if _, err := Classify("medium", LevelHigh); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for importance=medium, got %v", err)
	}
	if _, err := Classify(LevelHigh, ""); !errors.Is(err, ErrValidation) {
		t.Errorf("expected ErrValidation for empty urgency, got %v", err)
	}
}

func TestClassify_LabelsAreDistinct(t *testing.T) {
	seen := map[Quadrant]bool{}
	for _, imp := range []Level{LevelHigh, LevelLow} {
		for _, urg := range []Level{LevelHigh, LevelLow} {
			q, _ := Classify(imp, urg)
			seen[q] = true
		}
	}
	if len(seen) != 4 {
		t.Errorf("expected 4 distinct quadrants, got %d", len(seen))
	}
	for q := range seen {
		if !slices.Contains(Quadrants, q) {
			t.Errorf("quadrant %s missing from Quadrants", q)
		}
	}
}

func TestNormalizeTags(t *testing.T) {
	got := NormalizeTags([]string{"b", " a ", "b", "", "c", "a"})
	want := []string{"a", "b", "c"}
	if !slices.Equal(got, want) {
		t.Errorf("NormalizeTags = %v, want %v", got, want)
	}
	if got := NormalizeTags(nil); got == nil || len(got) != 0 {
		t.Errorf("expected empty non-nil slice, got %#v", got)
	}
}

func TestRole_AtLeast(t *testing.T) {
	if !RoleOwner.AtLeast(RoleAdmin) {
		t.Error("owner should satisfy admin")
	}
	if !RoleEditor.AtLeast(RoleMember) || !RoleMember.AtLeast(RoleEditor) {
		t.Error("editor and member should rank equally")
	}
	if RoleViewer.AtLeast(RoleMember) {
		t.Error("viewer should not satisfy member")
	}
	if Role("guest").AtLeast(RoleViewer) {
		t.Error("unknown role should satisfy nothing")
	}
}

func TestInvitation_EffectiveStatus(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	inv := Invitation{Status: InvitationPending, ExpiresAt: now.Add(time.Hour)}
	if got := inv.EffectiveStatus(now); got != InvitationPending {
		t.Errorf("expected pending, got %s", got)
	}
	if got := inv.EffectiveStatus(now.Add(2 * time.Hour)); got != InvitationExpired {
		t.Errorf("expected expired, got %s", got)
	}
	inv.Status = InvitationAccepted
	if got := inv.EffectiveStatus(now.Add(2 * time.Hour)); got != InvitationAccepted {
		t.Errorf("accepted invitation should stay accepted, got %s", got)
	}
}

func TestNewID_SortableAndUnique(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	prev := ""
	for i := 0; i < 100; i++ {
		id := NewIDAt(at)
		if id <= prev {
			t.Fatalf("ids not strictly increasing: %s <= %s", id, prev)
		}
		prev = id
	}
	if got := IDTime(prev); !got.Equal(at) {
		t.Errorf("IDTime = %v, want %v", got, at)
	}
	if !IDTime("not-an-id").IsZero() {
		t.Error("expected zero time for malformed id")
	}
}

func TestTenantRole_AtLeast(t *testing.T) {
	if !TenantOwner.AtLeast(TenantAdmin) || !TenantAdmin.AtLeast(TenantMember) {
		t.Error("expected owner > admin > member")
	}
	if TenantMember.AtLeast(TenantAdmin) {
		t.Error("member must not satisfy admin")
	}
	if TenantRole("guest").Valid() || TenantRole("guest").AtLeast(TenantMember) {
		t.Error("unknown tenant role must grant nothing")
	}
}

func TestValidActionKey(t *testing.T) {
	for _, k := range []string{"call", "send-quote", "follow_up_2", "9x"} {
		if !ValidActionKey(k) {
			t.Errorf("expected %q to be valid", k)
		}
	}
	for _, k := range []string{"", "Call", "-lead", "has space", "a#b", strings.Repeat("a", 65)} {
		if ValidActionKey(k) {
			t.Errorf("expected %q to be rejected", k)
		}
	}
}
