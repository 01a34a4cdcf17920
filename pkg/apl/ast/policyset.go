package ast

// DecisionSpec declares which predicates of a policy set carry decision
// semantics. Atoms of a permit predicate grant access, atoms of a prohibit
// predicate deny it, and atoms of an obligation predicate attach directives
// to the winning verdict.
type DecisionSpec struct {
	Permit     []string // Permit predicate names (default: ["allow"])
	Prohibit   []string // Prohibit predicate names (default: ["deny"])
	Obligation []string // Obligation predicate names (default: ["obligation"])
}

// DefaultDecisionSpec returns the conventional decision predicate names used
// when a policy set does not declare its own.
func DefaultDecisionSpec() DecisionSpec {
	return DecisionSpec{
		Permit:     []string{"allow"},
		Prohibit:   []string{"deny"},
		Obligation: []string{"obligation"},
	}
}

// PolicySet is the root AST node for one named, ordered collection of rules
// sharing a decision predicate convention. Versioning is not part of the AST;
// the policy manager assigns a monotonically increasing version each time a
// set is (re)loaded.
type PolicySet struct {
	// Metadata
	APLVersion  string // APL language version (e.g. "1")
	Name        string // Policy set name (kebab-case)
	Description string // Human-readable description

	// Decision declares the decision predicate convention for this set.
	Decision DecisionSpec

	// Rules in declaration order. Order never affects which atoms are
	// derivable, only explanation tie-breaking.
	Rules []*Rule

	// Facts are static ground atoms shared by every evaluation of this set.
	Facts []Atom

	// Source tracking
	SourceFile string
	Location   Location
}

// EnabledRules returns the rules that participate in evaluation, in
// declaration order.
func (p *PolicySet) EnabledRules() []*Rule {
	out := make([]*Rule, 0, len(p.Rules))
	for _, r := range p.Rules {
		if r.Enabled {
			out = append(out, r)
		}
	}
	return out
}

// GetRule returns the rule with the given id, or nil if not found.
func (p *PolicySet) GetRule(id string) *Rule {
	for _, r := range p.Rules {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// IsPermit returns true if the predicate is declared as a permit predicate.
func (d DecisionSpec) IsPermit(predicate string) bool {
	return contains(d.Permit, predicate)
}

// IsProhibit returns true if the predicate is declared as a prohibit predicate.
func (d DecisionSpec) IsProhibit(predicate string) bool {
	return contains(d.Prohibit, predicate)
}

// IsObligation returns true if the predicate is declared as an obligation predicate.
func (d DecisionSpec) IsObligation(predicate string) bool {
	return contains(d.Obligation, predicate)
}

// IsDecision returns true if the predicate carries any decision semantics.
func (d DecisionSpec) IsDecision(predicate string) bool {
	return d.IsPermit(predicate) || d.IsProhibit(predicate) || d.IsObligation(predicate)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
