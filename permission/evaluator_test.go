package permission

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestSatisfies(t *testing.T) {
	have := NewSet("has1", "has2")

	cases := []struct {
		name string
		have Set
		req  Requirement
		want bool
	}{
		{"bare and group", have, Requirement{Name("has1"), AnyOf("has2", "has3")}, true},
		{"group miss", have, Requirement{Name("has1"), AnyOf("has3", "has4")}, false},
		{"bare miss", have, Requirement{Name("has1"), Name("has3")}, false},
		{"empty set", NewSet(), Requirement{Name("has1")}, false},
		{"empty requirement", NewSet(), nil, true},
		{"empty term", have, Requirement{AnyOf()}, false},
	}
	for _, tc := range cases {
		if got := Satisfies(tc.have, tc.req); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestEffectiveRolesAndAbilities(t *testing.T) {
	id := &Identity{Roles: []Role{
		{Name: "user", Abilities: []string{"read", "comment"}},
		{Name: "editor", Abilities: []string{"read", "write"}},
	}}

	if got := EffectiveRoles(id).Sorted(); !reflect.DeepEqual(got, []string{"editor", "user"}) {
		t.Fatalf("unexpected roles %v", got)
	}
	if got := EffectiveAbilities(id).Sorted(); !reflect.DeepEqual(got, []string{"comment", "read", "write"}) {
		t.Fatalf("unexpected abilities %v", got)
	}
	if len(EffectiveRoles(nil)) != 0 || len(EffectiveAbilities(nil)) != 0 {
		t.Fatal("expected empty sets for nil identity")
	}
}

func TestBanActive(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Second)
	future := now.Add(time.Hour)

	if !(Ban{Role: "user"}).Active(now) {
		t.Fatal("permanent ban must be active")
	}
	if (Ban{Role: "user", UntilAt: &past}).Active(now) {
		t.Fatal("expired ban must be inactive")
	}
	if !(Ban{Role: "user", UntilAt: &future}).Active(now) {
		t.Fatal("future ban must be active")
	}
	if !(Ban{Role: "user", UntilAt: &now}).Active(now) {
		t.Fatal("ban ending exactly now must still be active")
	}
}

func TestBanValid(t *testing.T) {
	if (Ban{}).Valid() || (Ban{Role: "a", Ability: "b"}).Valid() {
		t.Fatal("expected bans with zero or two scopes to be invalid")
	}
	if !(Ban{Ability: "b"}).Valid() {
		t.Fatal("expected ability-scoped ban to be valid")
	}
}

func TestActiveBan(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	id := &Identity{
		Roles: []Role{{Name: "user", Abilities: []string{"post"}}},
		Bans: []Ban{
			{Role: "user", Reason: "old", UntilAt: &past},
			{Ability: "post", Reason: "spam"},
			{Role: "user", Reason: "abuse"},
		},
	}

	ban := ActiveBan(id, []string{"user"}, nil, now)
	if ban == nil || ban.Reason != "abuse" {
		t.Fatalf("expected abuse ban, got %+v", ban)
	}
	ban = ActiveBan(id, nil, []string{"post"}, now)
	if ban == nil || ban.Reason != "spam" {
		t.Fatalf("expected spam ban, got %+v", ban)
	}
	if ban := ActiveBan(id, []string{"admin"}, []string{"read"}, now); ban != nil {
		t.Fatalf("expected no ban for unrelated names, got %+v", ban)
	}
}

func TestEvaluateBanOverridesRole(t *testing.T) {
	now := time.Now()
	id := &Identity{
		Roles: []Role{{Name: "user"}},
		Bans:  []Ban{{Role: "user", Reason: "abuse"}},
	}

	d := Evaluate(id, Require("user"), nil, now)
	if d.Allowed || d.Ban == nil || d.Ban.Reason != "abuse" {
		t.Fatalf("expected ban to deny, got %+v", d)
	}

	past := now.Add(-time.Minute)
	id.Bans[0].UntilAt = &past
	if d := Evaluate(id, Require("user"), nil, now); !d.Allowed {
		t.Fatalf("expected expired ban not to deny, got %+v", d)
	}
}

func TestEvaluateRequiresRolesAndAbilities(t *testing.T) {
	id := &Identity{Roles: []Role{{Name: "user", Abilities: []string{"read"}}}}
	now := time.Now()

	if d := Evaluate(id, Require("user"), Require("write"), now); d.Allowed {
		t.Fatal("expected missing ability to deny")
	}
	if d := Evaluate(id, Require("admin"), Require("read"), now); d.Allowed {
		t.Fatal("expected missing role to deny")
	}
	if d := Evaluate(id, Require("user"), Require("read"), now); !d.Allowed {
		t.Fatal("expected role and ability to allow")
	}
}

func TestParseRequirement(t *testing.T) {
	req, err := ParseRequirement(" user , admin| super-admin ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := Requirement{Name("user"), AnyOf("admin", "super-admin")}
	if !reflect.DeepEqual(req, want) {
		t.Fatalf("expected %v, got %v", want, req)
	}
	if req.String() != "user,admin|super-admin" {
		t.Fatalf("unexpected string form %q", req.String())
	}
	if !reflect.DeepEqual(req.Names(), []string{"user", "admin", "super-admin"}) {
		t.Fatalf("unexpected names %v", req.Names())
	}

	if req, err := ParseRequirement(""); err != nil || !req.Empty() {
		t.Fatalf("expected empty requirement, got %v %v", req, err)
	}
	for _, bad := range []string{"a,,b", "a|", ",a"} {
		if _, err := ParseRequirement(bad); !errors.Is(err, ErrInvalidRequirement) {
			t.Fatalf("%q: expected ErrInvalidRequirement, got %v", bad, err)
		}
	}
}

func TestRegistryCheck(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(KindRole, "user", "admin"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := r.Register(KindAbility, "read"); err != nil {
		t.Fatalf("register: %v", err)
	}
	r.Freeze()

	if err := r.Register(KindRole, "late"); err == nil {
		t.Fatal("expected frozen registry to reject registration")
	}
	if err := r.Check(KindRole, MustParseRequirement("user, admin")); err != nil {
		t.Fatalf("expected known roles to pass: %v", err)
	}
	if err := r.Check(KindRole, MustParseRequirement("read")); !errors.Is(err, ErrUnknownName) {
		t.Fatalf("expected ability name to be unknown as role, got %v", err)
	}
	if r.Count(KindRole) != 2 || r.Count(KindAbility) != 1 {
		t.Fatalf("unexpected counts %d %d", r.Count(KindRole), r.Count(KindAbility))
	}
}
