package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// The formula grammar, lowest precedence first:
//
//	or       := and { "or" and }
//	and      := not { "and" not }
//	not      := "not" not | equality
//	equality := relational { ("==" | "!=") relational }
//	relational := additive { ("<" | "<=" | ">" | ">=") additive }
//	additive := multiplicative { ("+" | "-") multiplicative }
//	multiplicative := unary { ("*" | "/") unary }
//	unary    := "-" unary | primary
//	primary  := number | string | identifier [ "(" args ")" ] | "(" or ")"
//
// A bare identifier is a field reference; an identifier followed by "("
// is a function call. Malformed input fails with a syntax error and no
// partial recovery.

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokOp     // == != < <= > >= + - * /
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of formula"
	}
	return fmt.Sprintf("%q", t.text)
}

func lex(input string) ([]token, error) {
	var toks []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			toks = append(toks, token{tokLParen, "(", i})
			i++
		case r == ')':
			toks = append(toks, token{tokRParen, ")", i})
			i++
		case r == ',':
			toks = append(toks, token{tokComma, ",", i})
			i++
		case r == '"' || r == '\'':
			quote := r
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				c := runes[i]
				if c == '\\' && i+1 < len(runes) {
					sb.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if c == quote {
					closed = true
					i++
					break
				}
				sb.WriteRune(c)
				i++
			}
			if !closed {
				return nil, fmt.Errorf("syntax error: unterminated string starting at position %d", start)
			}
			toks = append(toks, token{tokString, sb.String(), start})
		case unicode.IsDigit(r):
			start := i
			for i < len(runes) && unicode.IsDigit(runes[i]) {
				i++
			}
			if i < len(runes) && runes[i] == '.' {
				if i+1 >= len(runes) || !unicode.IsDigit(runes[i+1]) {
					return nil, fmt.Errorf("syntax error: malformed number at position %d", start)
				}
				i++
				for i < len(runes) && unicode.IsDigit(runes[i]) {
					i++
				}
			}
			toks = append(toks, token{tokNumber, string(runes[start:i]), start})
		case r == '_' || unicode.IsLetter(r):
			start := i
			for i < len(runes) && (runes[i] == '_' || unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i])) {
				i++
			}
			toks = append(toks, token{tokIdent, string(runes[start:i]), start})
		case r == '=' || r == '!' || r == '<' || r == '>':
			start := i
			if r == '=' || r == '!' {
				if i+1 >= len(runes) || runes[i+1] != '=' {
					return nil, fmt.Errorf("syntax error: unexpected character %q at position %d", string(r), i)
				}
				toks = append(toks, token{tokOp, string(runes[i : i+2]), start})
				i += 2
				break
			}
			if i+1 < len(runes) && runes[i+1] == '=' {
				toks = append(toks, token{tokOp, string(runes[i : i+2]), start})
				i += 2
			} else {
				toks = append(toks, token{tokOp, string(r), start})
				i++
			}
		case r == '+' || r == '-' || r == '*' || r == '/':
			toks = append(toks, token{tokOp, string(r), i})
			i++
		default:
			return nil, fmt.Errorf("syntax error: unexpected character %q at position %d", string(r), i)
		}
	}
	toks = append(toks, token{tokEOF, "", len(runes)})
	return toks, nil
}

type parser struct {
	toks []token
	pos  int
}

// Parse turns formula text into an AST. Empty or whitespace-only input is
// a syntax error here; callers that treat empty formulas as valid check
// for them before parsing.
func Parse(text string) (Node, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("syntax error: empty formula")
	}
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	node, err := p.parseOr()
	if err != nil {
		return nil, err
	}
	if p.peek().kind != tokEOF {
		return nil, fmt.Errorf("syntax error: unexpected %s after expression", p.peek())
	}
	return node, nil
}

func (p *parser) peek() token {
	return p.toks[p.pos]
}

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) atIdent(word string) bool {
	t := p.peek()
	return t.kind == tokIdent && t.text == word
}

func (p *parser) atOp(ops ...string) bool {
	t := p.peek()
	if t.kind != tokOp {
		return false
	}
	for _, op := range ops {
		if t.text == op {
			return true
		}
	}
	return false
}

func (p *parser) parseOr() (Node, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.atIdent("or") {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = &LogicalOp{Op: "or", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAnd() (Node, error) {
	left, err := p.parseNot()
	if err != nil {
		return nil, err
	}
	for p.atIdent("and") {
		p.next()
		right, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		left = &LogicalOp{Op: "and", Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseNot() (Node, error) {
	if p.atIdent("not") {
		p.next()
		operand, err := p.parseNot()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "not", Operand: operand}, nil
	}
	return p.parseEquality()
}

func (p *parser) parseEquality() (Node, error) {
	left, err := p.parseRelational()
	if err != nil {
		return nil, err
	}
	for p.atOp("==", "!=") {
		op := p.next().text
		right, err := p.parseRelational()
		if err != nil {
			return nil, err
		}
		left = &Comparison{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseRelational() (Node, error) {
	left, err := p.parseAdditive()
	if err != nil {
		return nil, err
	}
	for p.atOp("<", "<=", ">", ">=") {
		op := p.next().text
		right, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		left = &Comparison{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseAdditive() (Node, error) {
	left, err := p.parseMultiplicative()
	if err != nil {
		return nil, err
	}
	for p.atOp("+", "-") {
		op := p.next().text
		right, err := p.parseMultiplicative()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseMultiplicative() (Node, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	for p.atOp("*", "/") {
		op := p.next().text
		right, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		left = &BinaryOp{Op: op, Left: left, Right: right}
	}
	return left, nil
}

func (p *parser) parseUnary() (Node, error) {
	if p.atOp("-") {
		p.next()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryOp{Op: "-", Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (Node, error) {
	t := p.peek()
	switch t.kind {
	case tokNumber:
		p.next()
		v, err := strconv.ParseFloat(t.text, 64)
		if err != nil {
			return nil, fmt.Errorf("syntax error: malformed number %q", t.text)
		}
		return &NumberLiteral{Value: v}, nil
	case tokString:
		p.next()
		return &StringLiteral{Value: t.text}, nil
	case tokIdent:
		if t.text == "and" || t.text == "or" || t.text == "not" {
			return nil, fmt.Errorf("syntax error: unexpected %s", t)
		}
		p.next()
		if p.peek().kind == tokLParen {
			return p.parseCall(t.text)
		}
		return &FieldReference{Name: t.text}, nil
	case tokLParen:
		p.next()
		inner, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.peek().kind != tokRParen {
			return nil, fmt.Errorf("syntax error: expected ')', got %s", p.peek())
		}
		p.next()
		return inner, nil
	default:
		return nil, fmt.Errorf("syntax error: unexpected %s", t)
	}
}

func (p *parser) parseCall(name string) (Node, error) {
	p.next() // consume '('
	call := &FunctionCall{Name: name}
	if p.peek().kind == tokRParen {
		p.next()
		return call, nil
	}
	for {
		arg, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		call.Args = append(call.Args, arg)
		switch p.peek().kind {
		case tokComma:
			p.next()
		case tokRParen:
			p.next()
			return call, nil
		default:
			return nil, fmt.Errorf("syntax error: expected ',' or ')' in call to %s, got %s", name, p.peek())
		}
	}
}
