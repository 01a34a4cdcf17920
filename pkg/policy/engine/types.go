package engine

// Verdict is the externally visible outcome of an evaluation.
type Verdict string

const (
	// VerdictAllow grants the request.
	VerdictAllow Verdict = "ALLOW"

	// VerdictDeny refuses the request. Deny is also the default when no
	// permit atom is derivable: absence of an explicit permit is not
	// authorization.
	VerdictDeny Verdict = "DENY"
)

// Decision is the result returned to the caller of the policy decision
// point. It is a pure function of (compiled rule set version, fact set):
// re-evaluating identical inputs against an unchanged policy set yields a
// bit-identical Decision.
type Decision struct {
	// Verdict is ALLOW or DENY.
	Verdict Verdict `json:"verdict"`

	// Obligations are the directives attached to the verdict, in rule
	// declaration order. The caller is responsible for enforcing them.
	Obligations []Obligation `json:"obligations"`

	// Explanation is the linear derivation trace of the winning decision
	// atom, suitable for audit. Empty for a default deny.
	Explanation []ExplanationStep `json:"explanation"`

	// PolicySetVersion is the version of the compiled rule set that produced
	// this decision.
	PolicySetVersion int `json:"policy_set_version"`
}

// Obligation is one obligation atom attached to the winning verdict.
type Obligation struct {
	// Predicate is the obligation predicate name.
	Predicate string `json:"predicate"`

	// Args are the atom's constant arguments.
	Args []interface{} `json:"args"`

	// RuleID identifies the rule that derived the obligation (empty when the
	// obligation arrived as an input fact).
	RuleID string `json:"rule_id,omitempty"`
}

// ExplanationStep is one step of a decision's derivation trace: which rule
// instance produced an atom and which facts supported it.
type ExplanationStep struct {
	// RuleID is the rule whose instantiation produced the atom.
	RuleID string `json:"rule_id"`

	// Atom is the derived atom in APL syntax.
	Atom string `json:"atom"`

	// BoundVariables maps the rule's variables to the constants of this
	// instance.
	BoundVariables map[string]interface{} `json:"bound_variables,omitempty"`

	// SupportingFacts are the matched body atoms in APL syntax, in body
	// order.
	SupportingFacts []string `json:"supporting_facts,omitempty"`
}
