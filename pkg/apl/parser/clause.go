package parser

import (
	"arbiter-hq/arbiter/pkg/apl/ast"
)

// ParseClause parses one APL clause and returns its head atom and body
// literals. A clause without `:-` has an empty body (a fact). The supplied
// location identifies the `when` scalar in the source file; column offsets
// within the clause are added to it for error reporting.
func ParseClause(text string, loc ast.Location) (ast.Atom, []ast.Literal, error) {
	p := &clauseParser{
		lex:  newLexer(text),
		text: text,
		base: loc,
	}
	if err := p.advance(); err != nil {
		return ast.Atom{}, nil, err
	}

	head, err := p.parseAtom()
	if err != nil {
		return ast.Atom{}, nil, err
	}

	var body []ast.Literal
	if p.cur.kind == tokenImplies {
		if err := p.advance(); err != nil {
			return ast.Atom{}, nil, err
		}
		for {
			lit, err := p.parseLiteral()
			if err != nil {
				return ast.Atom{}, nil, err
			}
			body = append(body, lit)
			if p.cur.kind != tokenComma {
				break
			}
			if err := p.advance(); err != nil {
				return ast.Atom{}, nil, err
			}
		}
	}

	// Optional trailing period, then end of clause.
	if p.cur.kind == tokenPeriod {
		if err := p.advance(); err != nil {
			return ast.Atom{}, nil, err
		}
	}
	if p.cur.kind != tokenEOF {
		return ast.Atom{}, nil, p.errorf(p.cur.pos, "unexpected %s after clause", p.cur.kind)
	}

	return head, body, nil
}

// ParseFact parses a clause that must be a ground atom with no body.
// Used for static facts declared in policy set files and for fact literals
// supplied over the wire in textual form.
func ParseFact(text string, loc ast.Location) (ast.Atom, error) {
	head, body, err := ParseClause(text, loc)
	if err != nil {
		return ast.Atom{}, err
	}
	if len(body) > 0 {
		return ast.Atom{}, newParseError(loc, text, "fact cannot have a body")
	}
	if !head.IsGround() {
		return ast.Atom{}, newParseError(loc, text, "fact %s contains variables", head)
	}
	return head, nil
}

type clauseParser struct {
	lex  *lexer
	cur  token
	text string
	base ast.Location
}

func (p *clauseParser) advance() error {
	tok, err := p.lex.next()
	if err != nil {
		return newParseError(p.base, p.text, "%v", err)
	}
	p.cur = tok
	return nil
}

func (p *clauseParser) loc(pos int) ast.Location {
	return ast.Location{File: p.base.File, Line: p.base.Line, Column: pos + 1}
}

func (p *clauseParser) errorf(pos int, format string, args ...interface{}) error {
	return newParseError(p.loc(pos), p.text, format, args...)
}

// parseAtom parses `predicate` or `predicate(term, ...)`.
func (p *clauseParser) parseAtom() (ast.Atom, error) {
	if p.cur.kind != tokenIdent {
		return ast.Atom{}, p.errorf(p.cur.pos, "expected predicate name, got %s", p.cur.kind)
	}
	atom := ast.Atom{
		Predicate: p.cur.text,
		Location:  p.loc(p.cur.pos),
	}
	if err := p.advance(); err != nil {
		return ast.Atom{}, err
	}

	if p.cur.kind != tokenLParen {
		return atom, nil // zero-arity atom
	}
	if err := p.advance(); err != nil {
		return ast.Atom{}, err
	}
	if p.cur.kind == tokenRParen {
		return ast.Atom{}, p.errorf(p.cur.pos, "empty argument list for predicate %q", atom.Predicate)
	}

	for {
		term, err := p.parseTerm()
		if err != nil {
			return ast.Atom{}, err
		}
		atom.Terms = append(atom.Terms, term)

		switch p.cur.kind {
		case tokenComma:
			if err := p.advance(); err != nil {
				return ast.Atom{}, err
			}
		case tokenRParen:
			if err := p.advance(); err != nil {
				return ast.Atom{}, err
			}
			return atom, nil
		default:
			return ast.Atom{}, p.errorf(p.cur.pos, "expected ',' or ')' in argument list, got %s", p.cur.kind)
		}
	}
}

// parseTerm parses a single term: variable, string, number, or boolean.
func (p *clauseParser) parseTerm() (ast.Term, error) {
	tok := p.cur
	switch tok.kind {
	case tokenVariable:
		if err := p.advance(); err != nil {
			return ast.Term{}, err
		}
		return ast.Variable(tok.text), nil
	case tokenString:
		if err := p.advance(); err != nil {
			return ast.Term{}, err
		}
		return ast.String(tok.str), nil
	case tokenNumber:
		if err := p.advance(); err != nil {
			return ast.Term{}, err
		}
		return ast.Number(tok.num), nil
	case tokenIdent:
		switch tok.text {
		case "true", "false":
			if err := p.advance(); err != nil {
				return ast.Term{}, err
			}
			return ast.Boolean(tok.text == "true"), nil
		}
		return ast.Term{}, p.errorf(tok.pos, "unquoted constant %q (string constants must be double-quoted)", tok.text)
	}
	return ast.Term{}, p.errorf(tok.pos, "expected term, got %s", tok.kind)
}

// parseLiteral parses one body element: a positive atom, `not atom`, or a
// builtin comparison.
func (p *clauseParser) parseLiteral() (ast.Literal, error) {
	start := p.cur.pos

	if p.cur.kind == tokenIdent {
		switch p.cur.text {
		case "not":
			if err := p.advance(); err != nil {
				return ast.Literal{}, err
			}
			atom, err := p.parseAtom()
			if err != nil {
				return ast.Literal{}, err
			}
			return ast.Literal{Kind: ast.LiteralNegated, Atom: atom, Location: p.loc(start)}, nil

		case "true", "false":
			// Boolean constant: must be the left operand of a builtin.
			left, err := p.parseTerm()
			if err != nil {
				return ast.Literal{}, err
			}
			return p.parseBuiltin(left, start)
		}

		atom, err := p.parseAtom()
		if err != nil {
			return ast.Literal{}, err
		}
		if p.cur.kind == tokenOperator || (p.cur.kind == tokenIdent && p.cur.text == "in") {
			return ast.Literal{}, p.errorf(p.cur.pos, "atom %s cannot be an operand of a comparison", atom)
		}
		return ast.Literal{Kind: ast.LiteralAtom, Atom: atom, Location: p.loc(start)}, nil
	}

	// Variable or constant: left operand of a builtin comparison.
	left, err := p.parseTerm()
	if err != nil {
		return ast.Literal{}, err
	}
	return p.parseBuiltin(left, start)
}

// parseBuiltin parses the operator and right-hand side of a builtin
// comparison whose left operand has already been consumed.
func (p *clauseParser) parseBuiltin(left ast.Term, start int) (ast.Literal, error) {
	lit := ast.Literal{Kind: ast.LiteralBuiltin, Left: left, Location: p.loc(start)}

	switch {
	case p.cur.kind == tokenOperator:
		lit.Op = ast.BuiltinOp(p.cur.text)
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return ast.Literal{}, err
		}
		lit.Right = right
		return lit, nil

	case p.cur.kind == tokenIdent && p.cur.text == "in":
		lit.Op = ast.OpIn
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		if p.cur.kind != tokenLBracket {
			return ast.Literal{}, p.errorf(p.cur.pos, "expected '[' after 'in', got %s", p.cur.kind)
		}
		if err := p.advance(); err != nil {
			return ast.Literal{}, err
		}
		for {
			elemPos := p.cur.pos
			elem, err := p.parseTerm()
			if err != nil {
				return ast.Literal{}, err
			}
			if elem.IsVariable() {
				return ast.Literal{}, p.errorf(elemPos, "membership list elements must be constants, got variable %s", elem.Var)
			}
			lit.Set = append(lit.Set, elem)

			if p.cur.kind == tokenComma {
				if err := p.advance(); err != nil {
					return ast.Literal{}, err
				}
				continue
			}
			if p.cur.kind == tokenRBracket {
				if err := p.advance(); err != nil {
					return ast.Literal{}, err
				}
				return lit, nil
			}
			return ast.Literal{}, p.errorf(p.cur.pos, "expected ',' or ']' in membership list, got %s", p.cur.kind)
		}
	}

	return ast.Literal{}, p.errorf(p.cur.pos, "expected comparison operator after term %s, got %s", left, p.cur.kind)
}
