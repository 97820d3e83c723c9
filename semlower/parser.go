package semlower

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aslpgo/aslpgo/semlower/ast"
)

// parser builds an ast.Stmt sequence from semantic-tree text, generalizing
// debugger/expr_parser.go's precedence-climbing expression parser
// (operatorPrecedence/parseExpression/parsePrimary) to also parse
// statements, declarations, typed function applications, and register-array
// slices, per spec.md §3's "Semantic tree" data model.
type parser struct {
	toks []token
	pos  int
}

func newParser(text string) *parser {
	return &parser{toks: tokenizeAll(text)}
}

func (p *parser) cur() token {
	if p.pos >= len(p.toks) {
		return token{typ: tokEOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token {
	t := p.cur()
	p.pos++
	return t
}

func (p *parser) expect(typ tokenType, what string) token {
	t := p.cur()
	if t.typ != typ {
		panic(fmt.Sprintf("semlower: expected %s at %d, got %q", what, t.pos, t.val))
	}
	return p.advance()
}

// parseProgram parses the full statement sequence of one instruction's
// semantics text.
func parseProgram(text string) []ast.Stmt {
	p := newParser(text)
	var stmts []ast.Stmt
	for p.cur().typ != tokEOF {
		stmts = append(stmts, p.parseStmt())
	}
	return stmts
}

func (p *parser) parseBlock() []ast.Stmt {
	p.expect(tokLBrace, "'{'")
	var stmts []ast.Stmt
	for p.cur().typ != tokRBrace {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(tokRBrace, "'}'")
	return stmts
}

func (p *parser) parseStmt() ast.Stmt {
	t := p.cur()
	if t.typ == tokKeyword {
		switch t.val {
		case "var":
			return p.parseVarDecl()
		case "const":
			return p.parseConstDecl()
		case "if":
			return p.parseIf()
		case "for":
			return p.parseFor()
		case "assert":
			return p.parseAssert()
		case "throw":
			p.advance()
			p.expect(tokSemi, "';'")
			return &ast.Throw{}
		}
	}
	return p.parseAssignOrCall()
}

func (p *parser) parseType() ast.Type {
	tok := p.expect(tokIdent, "type")
	name := strings.TrimPrefix(strings.ToLower(tok.val), "bv")
	width, err := strconv.Atoi(name)
	if err != nil {
		width = 0
	}
	return ast.Type{Width: width}
}

func (p *parser) parseVarDecl() ast.Stmt {
	p.advance() // 'var'
	name := p.expect(tokIdent, "identifier").val
	p.expect(tokColon, "':'")
	typ := p.parseType()
	var init ast.Expr
	if p.cur().typ == tokAssign {
		p.advance()
		init = p.parseExpr()
	}
	p.expect(tokSemi, "';'")
	return &ast.VarDecl{Name: name, Type: typ, Init: init}
}

func (p *parser) parseConstDecl() ast.Stmt {
	p.advance() // 'const'
	name := p.expect(tokIdent, "identifier").val
	p.expect(tokColon, "':'")
	typ := p.parseType()
	p.expect(tokAssign, "'='")
	init := p.parseExpr()
	p.expect(tokSemi, "';'")
	return &ast.ConstDecl{Name: name, Type: typ, Init: init}
}

func (p *parser) parseIf() ast.Stmt {
	p.advance() // 'if'
	p.expect(tokLParen, "'('")
	cond := p.parseExpr()
	p.expect(tokRParen, "')'")
	thenStmts := p.parseBlock()
	var elseStmts []ast.Stmt
	if p.cur().typ == tokKeyword && p.cur().val == "else" {
		p.advance()
		elseStmts = p.parseBlock()
	}
	return &ast.If{Cond: cond, Then: thenStmts, Else: elseStmts}
}

func (p *parser) parseFor() ast.Stmt {
	p.advance() // 'for'
	p.expect(tokLParen, "'('")
	name := p.expect(tokIdent, "identifier").val
	p.expect(tokAssign, "'='")
	start := p.parseExpr()
	down := false
	if p.cur().typ == tokKeyword && p.cur().val == "downto" {
		down = true
		p.advance()
	} else {
		p.expect(tokKeyword, "'to'/'downto'") // consumes "to"
	}
	stop := p.parseExpr()
	p.expect(tokRParen, "')'")
	body := p.parseBlock()
	return &ast.For{Var: name, Start: start, Stop: stop, Down: down, Body: body}
}

func (p *parser) parseAssert() ast.Stmt {
	p.advance() // 'assert'
	cond := p.parseExpr()
	p.expect(tokSemi, "';'")
	return &ast.Assert{Cond: cond}
}

// parseAssignOrCall parses a bare expression statement, either an assignment
// (a lvalue followed by '=') or a call-only application (Mem.set.0(...)),
// per spec §4.3's "call is used for memory writes... and nothing else".
func (p *parser) parseAssignOrCall() ast.Stmt {
	target := p.parseExpr()
	if p.cur().typ == tokAssign {
		p.advance()
		value := p.parseExpr()
		p.expect(tokSemi, "';'")
		return &ast.Assign{Target: target, Value: value}
	}
	p.expect(tokSemi, "';'")
	app, ok := target.(*ast.App)
	if !ok {
		panic("semlower: expected function call statement")
	}
	return &ast.Call{App: app}
}

// --- expressions -------------------------------------------------------

func operatorPrecedence(op string) int {
	switch op {
	case "|":
		return 1
	case "^":
		return 2
	case "&":
		return 3
	case "<<", ">>":
		return 4
	case "+", "-":
		return 5
	case "*", "/":
		return 6
	default:
		return 0
	}
}

// operatorAppName maps an infix operator symbol onto the named-application
// equivalent spec §4.3 dispatches on, so bare infix arithmetic (e.g.
// "acc + 1") reaches the same dispatch table as explicit add_bits calls.
// Index positions accept only constants, so an infix index such as
// "_R[n + 1]" is rejected at lowering time.
func operatorAppName(op string) string {
	switch op {
	case "+":
		return "add_bits"
	case "-":
		return "sub_bits"
	case "*":
		return "mul_bits"
	case "/":
		return "sdiv_bits"
	case "&":
		return "and_bits"
	case "|":
		return "or_bits"
	case "^":
		return "eor_bits"
	case "<<":
		return "lsl_bits"
	case ">>":
		return "lsr_bits"
	default:
		panic("semlower: unknown operator " + op)
	}
}

func (p *parser) parseExpr() ast.Expr {
	return p.parseExprPrec(0)
}

func (p *parser) parseExprPrec(minPrec int) ast.Expr {
	left := p.parsePrimary()
	for {
		t := p.cur()
		if t.typ != tokOperator {
			break
		}
		prec := operatorPrecedence(t.val)
		if prec < minPrec {
			break
		}
		op := t.val
		p.advance()
		right := p.parseExprPrec(prec + 1)
		left = &ast.App{Name: operatorAppName(op), Args: []ast.Expr{left, right}}
	}
	return left
}

func (p *parser) parsePrimary() ast.Expr {
	t := p.cur()
	switch t.typ {
	case tokNumber:
		p.advance()
		return &ast.Const{Value: parseIntLiteral(t.val)}

	case tokOperator:
		if t.val == "-" {
			p.advance()
			inner := p.parsePrimary()
			if c, ok := inner.(*ast.Const); ok {
				return &ast.Const{Value: -c.Value, Width: c.Width}
			}
			return &ast.App{Name: "neg_bits", Args: []ast.Expr{inner}}
		}
		panic(fmt.Sprintf("semlower: unexpected operator %q", t.val))

	case tokLParen:
		p.advance()
		e := p.parseExpr()
		p.expect(tokRParen, "')'")
		return e

	case tokIdent:
		p.advance()
		name := t.val
		if p.cur().typ == tokLAngle {
			return p.parseApp(name, p.parseTypeArgs())
		}
		if p.cur().typ == tokLParen {
			return p.parseApp(name, nil)
		}
		if p.cur().typ == tokLBracket {
			p.advance()
			idx := p.parseExpr()
			p.expect(tokRBracket, "']'")
			return &ast.Index{Base: &ast.Ident{Name: name}, Index: idx}
		}
		return &ast.Ident{Name: name}

	case tokKeyword:
		if t.val == "true" {
			p.advance()
			return &ast.Const{Value: 1, Width: 1}
		}
		if t.val == "false" {
			p.advance()
			return &ast.Const{Value: 0, Width: 1}
		}
		panic(fmt.Sprintf("semlower: unexpected keyword %q in expression", t.val))

	default:
		panic(fmt.Sprintf("semlower: unexpected token %q at %d", t.val, t.pos))
	}
}

// parseTypeArgs parses "<N, M, ...>", the explicit integer type-argument
// list on applications like SignExtend<64> or select_vec<M,N,W>.
func (p *parser) parseTypeArgs() []int {
	p.expect(tokLAngle, "'<'")
	var args []int
	for {
		n := p.expect(tokNumber, "type argument")
		v, err := strconv.ParseInt(n.val, 0, 64)
		if err != nil {
			panic(fmt.Sprintf("semlower: invalid type argument %q", n.val))
		}
		args = append(args, int(v))
		if p.cur().typ == tokComma {
			p.advance()
			continue
		}
		break
	}
	p.expect(tokRAngle, "'>'")
	return args
}

func (p *parser) parseApp(name string, typeArgs []int) *ast.App {
	p.expect(tokLParen, "'('")
	var args []ast.Expr
	if p.cur().typ != tokRParen {
		for {
			args = append(args, p.parseExpr())
			if p.cur().typ == tokComma {
				p.advance()
				continue
			}
			break
		}
	}
	p.expect(tokRParen, "')'")
	return &ast.App{Name: name, TypeArgs: typeArgs, Args: args}
}

func parseIntLiteral(s string) int64 {
	v, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		panic(fmt.Sprintf("semlower: invalid number literal %q", s))
	}
	return v
}
