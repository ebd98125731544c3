package call

import "callreview/auth"

// scopePolicy decides what a role may observe. List scoping and record
// visibility must agree: together they are the system's single
// authorization rule.
type scopePolicy interface {
	// listFilter returns the effective rep filter for a listing, given the
	// one the caller asked for.
	listFilter(identity auth.User, requested string) string
	// canView reports whether the identity may read the record.
	canView(identity auth.User, record CallAnalysis) bool
}

// repScope pins reps to their own records; a requested filter can never
// broaden what they see.
type repScope struct{}

func (repScope) listFilter(identity auth.User, _ string) string {
	return identity.ID
}

func (repScope) canView(identity auth.User, record CallAnalysis) bool {
	return record.RepID == identity.ID
}

// managerScope sees everything and may narrow by rep.
type managerScope struct{}

func (managerScope) listFilter(_ auth.User, requested string) string {
	return requested
}

func (managerScope) canView(_ auth.User, _ CallAnalysis) bool {
	return true
}

// scopes keys the policy by role. Adding a role means adding one entry here.
var scopes = map[auth.Role]scopePolicy{
	auth.RoleRep:     repScope{},
	auth.RoleManager: managerScope{},
}

func scopeFor(identity auth.User) (scopePolicy, bool) {
	policy, ok := scopes[identity.Role]
	return policy, ok
}
