// Package parser implements the Weather language parser.
package parser

import (
	"fmt"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/diagnostics"
	"github.com/zanderlewis/weather/pkg/lexer"
)

type parser struct {
	tokens []lexer.Token
	pos    int
	prev   lexer.Token
	// depth counts open parentheses; inside them line breaks do not end an expression.
	depth int
	diags []diagnostics.Diagnostic
}

// Parse tokenizes source and parses it into an AST.
func Parse(source, filename string) (*ast.Program, []diagnostics.Diagnostic) {
	tokens, err := lexer.Tokenize(source, filename)
	if err != nil {
		if le, ok := err.(*lexer.LexError); ok {
			return nil, []diagnostics.Diagnostic{le.Diag}
		}
		return nil, []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.ELex, err.Error(), nil, "")}
	}
	return ParseTokens(tokens)
}

// ParseTokens parses an already tokenized program. The slice must end with TokEOF.
func ParseTokens(tokens []lexer.Token) (*ast.Program, []diagnostics.Diagnostic) {
	if len(tokens) == 0 || tokens[len(tokens)-1].Type != lexer.TokEOF {
		tokens = append(tokens, lexer.Token{Type: lexer.TokEOF})
	}
	p := &parser{tokens: tokens, pos: 0}
	prog := p.parseProgram()
	if len(p.diags) > 0 {
		return nil, p.diags
	}
	return prog, nil
}

// IsIncomplete reports whether parsing failed only because input ended too
// early, so that more lines could complete it.
func IsIncomplete(diags []diagnostics.Diagnostic) bool {
	return len(diags) > 0 && diagnostics.HasCode(diags, diagnostics.EUnexpectedEOF)
}

func (p *parser) current() lexer.Token {
	if p.pos >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1] // EOF
	}
	return p.tokens[p.pos]
}

func (p *parser) peek() lexer.TokenType {
	return p.current().Type
}

func (p *parser) peekAt(offset int) lexer.TokenType {
	idx := p.pos + offset
	if idx >= len(p.tokens) {
		return lexer.TokEOF
	}
	return p.tokens[idx].Type
}

func (p *parser) advance() lexer.Token {
	tok := p.current()
	if p.pos < len(p.tokens)-1 {
		p.pos++
	}
	p.prev = tok
	return tok
}

func (p *parser) expect(typ lexer.TokenType, construct string) (lexer.Token, bool) {
	tok := p.current()
	if tok.Type != typ {
		p.errorAt(tok, fmt.Sprintf("expected %s %s, got %s", typ, construct, describe(tok)))
		return tok, false
	}
	return p.advance(), true
}

// errorAt records a parse error at tok. Errors at end of input get their own
// code so interactive callers can ask for more lines.
func (p *parser) errorAt(tok lexer.Token, msg string) {
	code := diagnostics.EParse
	if tok.Type == lexer.TokEOF {
		code = diagnostics.EUnexpectedEOF
	}
	span := tok.Span
	p.diags = append(p.diags, diagnostics.MakeDiag(code, msg, &span, ""))
}

// onNewLine reports whether the current token starts a line after the last consumed one.
func (p *parser) onNewLine() bool {
	return p.current().Span.StartLine > p.prev.Span.EndLine
}

// continues reports whether a binary operator at the current token extends
// the expression rather than starting a new statement.
func (p *parser) continues() bool {
	return p.depth > 0 || !p.onNewLine()
}

func (p *parser) endStatement() bool {
	switch p.peek() {
	case lexer.TokEOF, lexer.TokRBrace:
		return true
	}
	if p.onNewLine() {
		return true
	}
	p.errorAt(p.current(), fmt.Sprintf("expected line break after statement, got %s", describe(p.current())))
	return false
}

func (p *parser) spanFromTo(start, end ast.Span) ast.Span {
	return ast.Span{
		File:      start.File,
		StartLine: start.StartLine,
		StartCol:  start.StartCol,
		EndLine:   end.EndLine,
		EndCol:    end.EndCol,
	}
}

func describe(tok lexer.Token) string {
	switch tok.Type {
	case lexer.TokEOF:
		return "end of input"
	case lexer.TokStringLit:
		return fmt.Sprintf("string %q", tok.Value)
	default:
		return fmt.Sprintf("'%s'", tok.Value)
	}
}

func (p *parser) parseProgram() *ast.Program {
	startSpan := p.current().Span

	var stmts []ast.Stmt
	for p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
		if !p.endStatement() {
			return nil
		}
	}

	return &ast.Program{
		Span:       p.spanFromTo(startSpan, p.current().Span),
		Statements: stmts,
	}
}

// --- Statements ---

func (p *parser) parseStmt() ast.Stmt {
	switch p.peek() {
	case lexer.TokFunction:
		s := p.parseFnDecl()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokIf:
		s := p.parseIf()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokPrint:
		s := p.parsePrint()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokImport:
		s := p.parseImport()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokCall:
		s := p.parseLegacyCall()
		if s == nil {
			return nil
		}
		return s
	case lexer.TokLBrace:
		s := p.parseBlock("block")
		if s == nil {
			return nil
		}
		return s
	case lexer.TokIdent:
		if p.peekAt(1) == lexer.TokEquals {
			s := p.parseAssign()
			if s == nil {
				return nil
			}
			return s
		}
	}
	s := p.parseExprStmt()
	if s == nil {
		return nil
	}
	return s
}

func (p *parser) parseAssign() *ast.AssignStmt {
	nameTok := p.advance()
	p.advance() // consume '='
	value := p.parseExpr()
	if value == nil {
		return nil
	}
	return &ast.AssignStmt{
		Span:   p.spanFromTo(nameTok.Span, value.NodeSpan()),
		Target: &ast.Ident{Span: nameTok.Span, Name: nameTok.Value},
		Value:  value,
	}
}

func (p *parser) parseFnDecl() *ast.FnDecl {
	start := p.advance() // consume 'function'
	nameTok, ok := p.expect(lexer.TokIdent, "for function name")
	if !ok {
		return nil
	}

	if _, ok := p.expect(lexer.TokLParen, "to open parameter list"); !ok {
		return nil
	}
	var params []string
	for p.peek() != lexer.TokRParen {
		paramTok, ok := p.expect(lexer.TokIdent, "for parameter name")
		if !ok {
			return nil
		}
		params = append(params, paramTok.Value)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	if _, ok := p.expect(lexer.TokRParen, "to close parameter list"); !ok {
		return nil
	}

	body := p.parseBlock("function body")
	if body == nil {
		return nil
	}

	return &ast.FnDecl{
		Span:   p.spanFromTo(start.Span, body.Span),
		Name:   nameTok.Value,
		Params: params,
		Body:   body,
	}
}

func (p *parser) parseIf() *ast.IfStmt {
	start := p.advance() // consume 'if'
	cond := p.parseExpr()
	if cond == nil {
		return nil
	}
	then := p.parseBlock("if body")
	if then == nil {
		return nil
	}

	stmt := &ast.IfStmt{
		Span: p.spanFromTo(start.Span, then.Span),
		Cond: cond,
		Then: then,
	}
	if p.peek() != lexer.TokElse {
		return stmt
	}
	p.advance() // consume 'else'
	if p.peek() == lexer.TokIf {
		nested := p.parseIf()
		if nested == nil {
			return nil
		}
		stmt.Else = nested
		stmt.Span = p.spanFromTo(start.Span, nested.Span)
		return stmt
	}
	elseBlock := p.parseBlock("else body")
	if elseBlock == nil {
		return nil
	}
	stmt.Else = elseBlock
	stmt.Span = p.spanFromTo(start.Span, elseBlock.Span)
	return stmt
}

func (p *parser) parsePrint() *ast.PrintStmt {
	start := p.advance() // consume 'print'
	if _, ok := p.expect(lexer.TokLParen, "after print"); !ok {
		return nil
	}
	p.depth++
	value := p.parseExpr()
	p.depth--
	if value == nil {
		return nil
	}
	end, ok := p.expect(lexer.TokRParen, "to close print")
	if !ok {
		return nil
	}
	return &ast.PrintStmt{
		Span:  p.spanFromTo(start.Span, end.Span),
		Value: value,
	}
}

func (p *parser) parseImport() *ast.ImportStmt {
	start := p.advance() // consume 'import'
	pathTok, ok := p.expect(lexer.TokStringLit, "for module name")
	if !ok {
		return nil
	}
	return &ast.ImportStmt{
		Span: p.spanFromTo(start.Span, pathTok.Span),
		Path: pathTok.Value,
	}
}

// parseLegacyCall handles the statement form call(f(args)), which is the same
// as writing f(args) on its own line.
func (p *parser) parseLegacyCall() *ast.ExprStmt {
	start := p.advance() // consume 'call'
	if _, ok := p.expect(lexer.TokLParen, "after call"); !ok {
		return nil
	}
	p.depth++
	inner := p.parseExpr()
	p.depth--
	if inner == nil {
		return nil
	}
	if _, isCall := inner.(*ast.CallExpr); !isCall {
		sp := inner.NodeSpan()
		p.diags = append(p.diags, diagnostics.MakeDiag(diagnostics.EParse, "expected function call inside call(...)", &sp, ""))
		return nil
	}
	end, ok := p.expect(lexer.TokRParen, "to close call")
	if !ok {
		return nil
	}
	return &ast.ExprStmt{
		Span: p.spanFromTo(start.Span, end.Span),
		Expr: inner,
	}
}

func (p *parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	if expr == nil {
		return nil
	}
	return &ast.ExprStmt{
		Span: expr.NodeSpan(),
		Expr: expr,
	}
}

// --- Block ---

func (p *parser) parseBlock(construct string) *ast.Block {
	open, ok := p.expect(lexer.TokLBrace, "to open "+construct)
	if !ok {
		return nil
	}
	// Parentheses do not reach into a block.
	saved := p.depth
	p.depth = 0
	defer func() { p.depth = saved }()

	var stmts []ast.Stmt
	for p.peek() != lexer.TokRBrace && p.peek() != lexer.TokEOF {
		stmt := p.parseStmt()
		if stmt == nil {
			return nil
		}
		stmts = append(stmts, stmt)
		if !p.endStatement() {
			return nil
		}
	}
	end, ok := p.expect(lexer.TokRBrace, "to close "+construct)
	if !ok {
		return nil
	}
	return &ast.Block{
		Span:       p.spanFromTo(open.Span, end.Span),
		Statements: stmts,
	}
}

// --- Expressions ---

func (p *parser) parseExpr() ast.Expr {
	return p.parseOr()
}

// binaryLevel parses one left-associative precedence level.
func (p *parser) binaryLevel(next func() ast.Expr, ops map[lexer.TokenType]ast.BinaryOp) ast.Expr {
	left := next()
	if left == nil {
		return nil
	}

	for {
		op, ok := ops[p.peek()]
		if !ok || !p.continues() {
			return left
		}
		p.advance()
		right := next()
		if right == nil {
			return nil
		}
		left = &ast.BinaryExpr{
			Span:  p.spanFromTo(left.NodeSpan(), right.NodeSpan()),
			Op:    op,
			Left:  left,
			Right: right,
		}
	}
}

var (
	orOps  = map[lexer.TokenType]ast.BinaryOp{lexer.TokOr: ast.OpOr}
	andOps = map[lexer.TokenType]ast.BinaryOp{lexer.TokAnd: ast.OpAnd}
	cmpOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokGt:     ast.OpGt,
		lexer.TokLt:     ast.OpLt,
		lexer.TokGtEq:   ast.OpGtEq,
		lexer.TokLtEq:   ast.OpLtEq,
		lexer.TokEqEq:   ast.OpEqEq,
		lexer.TokBangEq: ast.OpNeq,
	}
	addOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokPlus:  ast.OpAdd,
		lexer.TokMinus: ast.OpSub,
	}
	mulOps = map[lexer.TokenType]ast.BinaryOp{
		lexer.TokStar:    ast.OpMul,
		lexer.TokSlash:   ast.OpDiv,
		lexer.TokPercent: ast.OpMod,
	}
)

func (p *parser) parseOr() ast.Expr {
	return p.binaryLevel(p.parseAnd, orOps)
}

func (p *parser) parseAnd() ast.Expr {
	return p.binaryLevel(p.parseComparison, andOps)
}

func (p *parser) parseComparison() ast.Expr {
	return p.binaryLevel(p.parseAdditive, cmpOps)
}

func (p *parser) parseAdditive() ast.Expr {
	return p.binaryLevel(p.parseMultiplicative, addOps)
}

func (p *parser) parseMultiplicative() ast.Expr {
	return p.binaryLevel(p.parseUnary, mulOps)
}

func (p *parser) parseUnary() ast.Expr {
	var op ast.UnaryOp
	switch p.peek() {
	case lexer.TokMinus:
		op = ast.OpNeg
	case lexer.TokNot, lexer.TokBang:
		op = ast.OpNot
	default:
		return p.parsePower()
	}
	start := p.advance()
	operand := p.parseUnary()
	if operand == nil {
		return nil
	}
	return &ast.UnaryExpr{
		Span:    p.spanFromTo(start.Span, operand.NodeSpan()),
		Op:      op,
		Operand: operand,
	}
}

// parsePower binds tighter than unary minus on its left and is right-associative,
// so -2 ** 2 is -(2 ** 2) and 2 ** -1 is allowed.
func (p *parser) parsePower() ast.Expr {
	base := p.parsePrimary()
	if base == nil {
		return nil
	}
	if p.peek() != lexer.TokStarStar || !p.continues() {
		return base
	}
	p.advance()
	exp := p.parseUnary()
	if exp == nil {
		return nil
	}
	return &ast.BinaryExpr{
		Span:  p.spanFromTo(base.NodeSpan(), exp.NodeSpan()),
		Op:    ast.OpPow,
		Left:  base,
		Right: exp,
	}
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.peek() {
	case lexer.TokLParen:
		// Grouped expression
		p.advance()
		p.depth++
		expr := p.parseExpr()
		p.depth--
		if expr == nil {
			return nil
		}
		if _, ok := p.expect(lexer.TokRParen, "to close parenthesized expression"); !ok {
			return nil
		}
		return expr

	case lexer.TokIntLit:
		tok := p.advance()
		return &ast.IntLiteral{Span: tok.Span, Text: tok.Value}

	case lexer.TokRatLit:
		tok := p.advance()
		return &ast.RatLiteral{Span: tok.Span, Text: tok.Value}

	case lexer.TokStringLit:
		tok := p.advance()
		return &ast.StrLiteral{Span: tok.Span, Value: tok.Value}

	case lexer.TokTrue:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: true}

	case lexer.TokFalse:
		tok := p.advance()
		return &ast.BoolLiteral{Span: tok.Span, Value: false}

	case lexer.TokIdent:
		return p.parseIdentOrCall()

	case lexer.TokPrint:
		tok := p.current()
		p.errorAt(tok, "print is a statement and cannot be used as a value")
		return nil

	default:
		tok := p.current()
		p.errorAt(tok, fmt.Sprintf("expected expression, got %s", describe(tok)))
		return nil
	}
}

func (p *parser) parseIdentOrCall() ast.Expr {
	tok := p.advance()
	ident := &ast.Ident{Span: tok.Span, Name: tok.Value}
	if p.peek() != lexer.TokLParen || !p.continues() {
		return ident
	}

	p.advance() // consume '('
	p.depth++
	var args []ast.Expr
	for p.peek() != lexer.TokRParen {
		arg := p.parseExpr()
		if arg == nil {
			p.depth--
			return nil
		}
		args = append(args, arg)
		if p.peek() != lexer.TokComma {
			break
		}
		p.advance()
	}
	p.depth--
	end, ok := p.expect(lexer.TokRParen, "to close argument list")
	if !ok {
		return nil
	}
	return &ast.CallExpr{
		Span:   p.spanFromTo(tok.Span, end.Span),
		Callee: ident,
		Args:   args,
	}
}
