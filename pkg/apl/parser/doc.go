// Package parser parses APL policy set files into Abstract Syntax Trees.
//
// A policy set file is a YAML document carrying metadata, decision predicate
// declarations, and a list of rules. Each rule's `when` field holds one
// Datalog clause in APL surface syntax:
//
//	allow(X) :- role(X, "admin"), not critical(X)
//	deny(X, "restricted") :- action(X, "delete_user")
//	tier_limit(X) :- request_count(X, N), N >= 100
//	reviewer(X) :- role(X, R), R in ["auditor", "compliance"]
//
// The package has two layers: the YAML layer (yaml.go) maps the document to
// an intermediate structure preserving line numbers, and the clause layer
// (clause.go) tokenizes and parses rule text with a recursive-descent parser.
// Both report failures as *ParseError with source locations.
//
// # Basic Usage
//
//	p := parser.NewParser()
//	set, err := p.ParseFile("policies/access-control.yaml")
//	if err != nil {
//	    var perr *parser.ParseError
//	    if errors.As(err, &perr) {
//	        fmt.Println(perr.Location, perr.Message)
//	    }
//	}
//
// The parser performs syntactic validation only. Safety and stratification
// are checked by pkg/policy/compiler at compile time.
package parser
