package engine

import (
	"sort"

	"arbiter-hq/arbiter/pkg/apl/ast"
)

// BuildExplanation walks the derivation graph backward from the winning
// decision atom, following the recorded justification edges, and produces a
// linear, deterministic trace. The walk is depth-first in support order;
// cycles introduced by recursive rules are broken by visiting each atom at
// most once. Input facts do not get steps of their own; they appear in the
// supporting_facts of the steps that consumed them.
func BuildExplanation(result *Result, rootID int) []ExplanationStep {
	var steps []ExplanationStep
	visited := make(map[int]bool)

	var walk func(id int)
	walk = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true

		d, ok := result.Derivations[id]
		if !ok {
			return // input fact
		}

		steps = append(steps, ExplanationStep{
			RuleID:          d.Rule.ID,
			Atom:            result.Store.Atom(id).String(),
			BoundVariables:  explainBindings(d.Bindings),
			SupportingFacts: explainSupports(result, d.Supports),
		})

		for _, support := range d.Supports {
			walk(support)
		}
	}
	walk(rootID)

	if steps == nil {
		return []ExplanationStep{}
	}
	return steps
}

// explainBindings converts a derivation's bindings to serializable values
// with deterministic iteration (JSON object keys are sorted by the encoder,
// but tests compare the map directly).
func explainBindings(bindings map[string]ast.Term) map[string]interface{} {
	if len(bindings) == 0 {
		return nil
	}
	names := make([]string, 0, len(bindings))
	for v := range bindings {
		names = append(names, v)
	}
	sort.Strings(names)

	out := make(map[string]interface{}, len(names))
	for _, v := range names {
		out[v] = bindings[v].Value()
	}
	return out
}

func explainSupports(result *Result, supports []int) []string {
	if len(supports) == 0 {
		return nil
	}
	out := make([]string, len(supports))
	for i, id := range supports {
		out[i] = result.Store.Atom(id).String()
	}
	return out
}
