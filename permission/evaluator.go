package permission

import "time"

// EffectiveRoles returns the names of every role held by id.
func EffectiveRoles(id *Identity) Set {
	if id == nil {
		return Set{}
	}
	s := make(Set, len(id.Roles))
	for _, r := range id.Roles {
		s[r.Name] = struct{}{}
	}
	return s
}

// EffectiveAbilities returns the union of the abilities granted by id's roles.
func EffectiveAbilities(id *Identity) Set {
	s := Set{}
	if id == nil {
		return s
	}
	for _, r := range id.Roles {
		for _, a := range r.Abilities {
			s[a] = struct{}{}
		}
	}
	return s
}

// Satisfies reports whether have meets every term of req. An empty requirement is
// always met; an empty term never is.
func Satisfies(have Set, req Requirement) bool {
	for _, term := range req {
		if !satisfiesTerm(have, term) {
			return false
		}
	}
	return true
}

func satisfiesTerm(have Set, term Term) bool {
	for _, name := range term {
		if have.Has(name) {
			return true
		}
	}
	return false
}

// ActiveBan returns the first ban of id that is active at now and targets one of
// requiredRoles or requiredAbilities, or nil when none applies.
func ActiveBan(id *Identity, requiredRoles, requiredAbilities []string, now time.Time) *Ban {
	if id == nil || len(id.Bans) == 0 {
		return nil
	}
	roles := NewSet(requiredRoles...)
	abilities := NewSet(requiredAbilities...)

	for i := range id.Bans {
		ban := id.Bans[i]
		if !ban.Active(now) {
			continue
		}
		if (ban.Role != "" && roles.Has(ban.Role)) || (ban.Ability != "" && abilities.Has(ban.Ability)) {
			return &ban
		}
	}
	return nil
}

// Decision is the outcome of Evaluate.
type Decision struct {
	Allowed bool
	// Ban is set when an active ban overrode the requirement check.
	Ban *Ban
}

// Evaluate runs the full check for a route: roles and abilities must both be
// satisfied, then no active ban may target a required name.
func Evaluate(id *Identity, roles, abilities Requirement, now time.Time) Decision {
	if !Satisfies(EffectiveRoles(id), roles) || !Satisfies(EffectiveAbilities(id), abilities) {
		return Decision{}
	}
	if ban := ActiveBan(id, roles.Names(), abilities.Names(), now); ban != nil {
		return Decision{Ban: ban}
	}
	return Decision{Allowed: true}
}
