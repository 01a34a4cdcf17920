package parser

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// tokenKind identifies the lexical class of a token in APL clause syntax.
type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenIdent           // lowercase identifier (predicate name)
	tokenVariable        // identifier starting with uppercase or underscore
	tokenString          // double-quoted string constant
	tokenNumber          // numeric constant
	tokenLParen          // (
	tokenRParen          // )
	tokenLBracket        // [
	tokenRBracket        // ]
	tokenComma           // ,
	tokenImplies         // :-
	tokenOperator        // == != < <= > >=
	tokenPeriod          // trailing .
)

func (k tokenKind) String() string {
	switch k {
	case tokenEOF:
		return "end of clause"
	case tokenIdent:
		return "identifier"
	case tokenVariable:
		return "variable"
	case tokenString:
		return "string"
	case tokenNumber:
		return "number"
	case tokenLParen:
		return "'('"
	case tokenRParen:
		return "')'"
	case tokenLBracket:
		return "'['"
	case tokenRBracket:
		return "']'"
	case tokenComma:
		return "','"
	case tokenImplies:
		return "':-'"
	case tokenOperator:
		return "operator"
	case tokenPeriod:
		return "'.'"
	}
	return "unknown token"
}

// token is one lexical unit of a clause, with its byte offset for error
// reporting (columns are offset+1).
type token struct {
	kind tokenKind
	text string  // raw text (identifier name, operator symbol)
	str  string  // decoded value for tokenString
	num  float64 // decoded value for tokenNumber
	pos  int     // byte offset in the clause
}

// lexer tokenizes one APL clause. The clause is expected to fit on one line;
// embedded newlines are treated as plain whitespace.
type lexer struct {
	input string
	pos   int
}

func newLexer(input string) *lexer {
	return &lexer{input: input}
}

// next returns the next token, or an error describing the offending byte.
func (l *lexer) next() (token, error) {
	l.skipSpace()
	if l.pos >= len(l.input) {
		return token{kind: tokenEOF, pos: l.pos}, nil
	}

	start := l.pos
	c := l.input[l.pos]

	switch {
	case c == '(':
		l.pos++
		return token{kind: tokenLParen, text: "(", pos: start}, nil
	case c == ')':
		l.pos++
		return token{kind: tokenRParen, text: ")", pos: start}, nil
	case c == '[':
		l.pos++
		return token{kind: tokenLBracket, text: "[", pos: start}, nil
	case c == ']':
		l.pos++
		return token{kind: tokenRBracket, text: "]", pos: start}, nil
	case c == ',':
		l.pos++
		return token{kind: tokenComma, text: ",", pos: start}, nil
	case c == '.':
		l.pos++
		return token{kind: tokenPeriod, text: ".", pos: start}, nil
	case c == ':':
		if strings.HasPrefix(l.input[l.pos:], ":-") {
			l.pos += 2
			return token{kind: tokenImplies, text: ":-", pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected ':' at offset %d (did you mean ':-'?)", start)
	case c == '=' || c == '!':
		if l.pos+1 < len(l.input) && l.input[l.pos+1] == '=' {
			op := l.input[l.pos : l.pos+2]
			l.pos += 2
			return token{kind: tokenOperator, text: op, pos: start}, nil
		}
		return token{}, fmt.Errorf("unexpected %q at offset %d", string(c), start)
	case c == '<' || c == '>':
		op := string(c)
		l.pos++
		if l.pos < len(l.input) && l.input[l.pos] == '=' {
			op += "="
			l.pos++
		}
		return token{kind: tokenOperator, text: op, pos: start}, nil
	case c == '"':
		return l.lexString()
	case c == '-' || (c >= '0' && c <= '9'):
		return l.lexNumber()
	case isIdentStart(rune(c)):
		return l.lexIdent()
	}

	return token{}, fmt.Errorf("unexpected character %q at offset %d", string(c), start)
}

func (l *lexer) skipSpace() {
	for l.pos < len(l.input) {
		c := l.input[l.pos]
		if c == ' ' || c == '\t' || c == '\n' || c == '\r' {
			l.pos++
			continue
		}
		break
	}
}

func (l *lexer) lexString() (token, error) {
	start := l.pos
	i := l.pos + 1
	for i < len(l.input) {
		switch l.input[i] {
		case '\\':
			i += 2
			continue
		case '"':
			raw := l.input[start : i+1]
			decoded, err := strconv.Unquote(raw)
			if err != nil {
				return token{}, fmt.Errorf("invalid string literal %s at offset %d", raw, start)
			}
			l.pos = i + 1
			return token{kind: tokenString, text: raw, str: decoded, pos: start}, nil
		}
		i++
	}
	return token{}, fmt.Errorf("unterminated string literal at offset %d", start)
}

func (l *lexer) lexNumber() (token, error) {
	start := l.pos
	i := l.pos
	if l.input[i] == '-' {
		i++
	}
	for i < len(l.input) {
		c := l.input[i]
		if (c >= '0' && c <= '9') || c == '.' || c == 'e' || c == 'E' ||
			((c == '+' || c == '-') && (l.input[i-1] == 'e' || l.input[i-1] == 'E')) {
			i++
			continue
		}
		break
	}
	raw := l.input[start:i]
	// A bare '.' after digits is the clause terminator, not a decimal point.
	if strings.HasSuffix(raw, ".") {
		raw = raw[:len(raw)-1]
		i--
	}
	num, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return token{}, fmt.Errorf("invalid number %q at offset %d", raw, start)
	}
	l.pos = i
	return token{kind: tokenNumber, text: raw, num: num, pos: start}, nil
}

func (l *lexer) lexIdent() (token, error) {
	start := l.pos
	i := l.pos
	for i < len(l.input) && isIdentPart(rune(l.input[i])) {
		i++
	}
	name := l.input[start:i]
	l.pos = i

	kind := tokenIdent
	first := rune(name[0])
	if unicode.IsUpper(first) || first == '_' {
		kind = tokenVariable
	}
	return token{kind: kind, text: name, pos: start}, nil
}

func isIdentStart(c rune) bool {
	return unicode.IsLetter(c) || c == '_'
}

func isIdentPart(c rune) bool {
	return unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_'
}
