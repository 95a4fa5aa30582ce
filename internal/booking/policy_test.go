package booking

import "testing"

func TestPolicy_Check(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		policy    Policy
		patch     Patch
		wantField string
	}{
		{name: "owner may rename", policy: OwnerReservationPolicy, patch: Patch{FieldTitle: "Seminar", FieldNote: "bring slides"}},
		{name: "owner may cancel reservation", policy: OwnerReservationPolicy, patch: Patch{FieldStatus: "cancelled"}},
		{name: "owner cannot confirm reservation", policy: OwnerReservationPolicy, patch: Patch{FieldStatus: "confirmed"}, wantField: "status"},
		{name: "owner cannot change privacy", policy: OwnerReservationPolicy, patch: Patch{FieldPrivacy: "private"}, wantField: "privacy"},
		{name: "owner cannot blank title", policy: OwnerReservationPolicy, patch: Patch{FieldTitle: ""}, wantField: "title"},
		{name: "owner may cancel slot", policy: OwnerSlotPolicy, patch: Patch{FieldStatus: "cancelled"}},
		{name: "owner cannot retitle slot", policy: OwnerSlotPolicy, patch: Patch{FieldTitle: "x"}, wantField: "title"},
		{name: "owner cannot reopen slot", policy: OwnerSlotPolicy, patch: Patch{FieldStatus: "pending"}, wantField: "status"},
		{name: "admin may reject slot", policy: AdminSlotPolicy, patch: Patch{FieldStatus: "rejected"}},
		{name: "admin may change privacy", policy: AdminReservationPolicy, patch: Patch{FieldPrivacy: "anonymous", FieldStatus: "confirmed"}},
		{name: "admin status must be known", policy: AdminReservationPolicy, patch: Patch{FieldStatus: "archived"}, wantField: "status"},
		{name: "empty patch", policy: AdminReservationPolicy, patch: Patch{}, wantField: "patch"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			problems := tc.policy.Check(tc.patch)
			if tc.wantField == "" {
				if len(problems) != 0 {
					t.Fatalf("expected patch to be accepted, got %v", problems)
				}
				return
			}
			if _, ok := problems[tc.wantField]; !ok {
				t.Fatalf("expected problem for %q, got %v", tc.wantField, problems)
			}
		})
	}
}

func TestRoleOrdering(t *testing.T) {
	t.Parallel()

	ordered := []Role{RoleInactive, RoleRestricted, RoleGuest, RoleBasic, RoleAdvanced, RoleAdmin}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i].AtLeast(ordered[i-1]) || ordered[i-1].AtLeast(ordered[i]) {
			t.Fatalf("expected %s > %s", ordered[i], ordered[i-1])
		}
	}

	for _, role := range ordered {
		parsed, err := ParseRole(role.String())
		if err != nil || parsed != role {
			t.Fatalf("ParseRole(%q) = %v, %v", role.String(), parsed, err)
		}
	}
	if _, err := ParseRole("owner"); err == nil {
		t.Fatalf("expected unknown role to be rejected")
	}
}

func TestInitialStatus(t *testing.T) {
	t.Parallel()

	if got := InitialStatus(RoleGuest, RoleGuest); got != StatusPending {
		t.Fatalf("guest at guest threshold should be pending, got %s", got)
	}
	if got := InitialStatus(RoleBasic, RoleGuest); got != StatusConfirmed {
		t.Fatalf("basic above guest threshold should be confirmed, got %s", got)
	}
	if got := InitialStatus(RoleBasic, RoleBasic); got != StatusPending {
		t.Fatalf("basic at basic threshold should be pending, got %s", got)
	}
	if got := InitialStatus(RoleAdvanced, RoleBasic); got != StatusConfirmed {
		t.Fatalf("advanced above basic threshold should be confirmed, got %s", got)
	}
}
