// Package lexer implements the Weather language tokenizer.
package lexer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/zanderlewis/weather/pkg/ast"
	"github.com/zanderlewis/weather/pkg/diagnostics"
)

// TokenType identifies the type of a lexer token.
type TokenType int

const (
	// Keywords
	TokIf TokenType = iota
	TokElse
	TokFunction
	TokPrint
	TokImport
	TokCall
	TokTrue
	TokFalse
	TokAnd
	TokOr
	TokNot

	// Literals
	TokIntLit
	TokRatLit
	TokStringLit

	// Identifiers
	TokIdent

	// Punctuation
	TokLBrace // {
	TokRBrace // }
	TokLParen // (
	TokRParen // )
	TokComma  // ,

	// Assignment
	TokEquals // =

	// Comparison operators
	TokGtEq   // >=
	TokLtEq   // <=
	TokEqEq   // ==
	TokBangEq // !=
	TokGt     // >
	TokLt     // <

	// Arithmetic and logical operators
	TokPlus     // +
	TokMinus    // -
	TokStar     // *
	TokStarStar // **
	TokSlash    // /
	TokPercent  // %
	TokBang     // !

	// Special
	TokEOF
)

// Class is the coarse category of a token.
type Class string

const (
	ClassIdentifier  Class = "identifier"
	ClassInteger     Class = "integer-literal"
	ClassRational    Class = "rational-literal"
	ClassString      Class = "string-literal"
	ClassOperator    Class = "operator"
	ClassKeyword     Class = "keyword"
	ClassPunctuation Class = "punctuation"
	ClassEnd         Class = "end-of-input"
)

// Class maps a token type onto its coarse category.
func (t TokenType) Class() Class {
	switch {
	case t <= TokNot:
		return ClassKeyword
	case t == TokIntLit:
		return ClassInteger
	case t == TokRatLit:
		return ClassRational
	case t == TokStringLit:
		return ClassString
	case t == TokIdent:
		return ClassIdentifier
	case t >= TokLBrace && t <= TokComma:
		return ClassPunctuation
	case t == TokEOF:
		return ClassEnd
	default:
		return ClassOperator
	}
}

var tokenNames = [...]string{
	TokIf:        "'if'",
	TokElse:      "'else'",
	TokFunction:  "'function'",
	TokPrint:     "'print'",
	TokImport:    "'import'",
	TokCall:      "'call'",
	TokTrue:      "'true'",
	TokFalse:     "'false'",
	TokAnd:       "'and'",
	TokOr:        "'or'",
	TokNot:       "'not'",
	TokIntLit:    "integer",
	TokRatLit:    "number",
	TokStringLit: "string",
	TokIdent:     "identifier",
	TokLBrace:    "'{'",
	TokRBrace:    "'}'",
	TokLParen:    "'('",
	TokRParen:    "')'",
	TokComma:     "','",
	TokEquals:    "'='",
	TokGtEq:      "'>='",
	TokLtEq:      "'<='",
	TokEqEq:      "'=='",
	TokBangEq:    "'!='",
	TokGt:        "'>'",
	TokLt:        "'<'",
	TokPlus:      "'+'",
	TokMinus:     "'-'",
	TokStar:      "'*'",
	TokStarStar:  "'**'",
	TokSlash:     "'/'",
	TokPercent:   "'%'",
	TokBang:      "'!'",
	TokEOF:       "end of input",
}

func (t TokenType) String() string {
	if int(t) >= 0 && int(t) < len(tokenNames) {
		return tokenNames[t]
	}
	return fmt.Sprintf("TokenType(%d)", int(t))
}

// Token represents a single lexer token.
type Token struct {
	Type  TokenType
	Value string
	Span  ast.Span
}

var keywords = map[string]TokenType{
	"if":       TokIf,
	"else":     TokElse,
	"function": TokFunction,
	"print":    TokPrint,
	"import":   TokImport,
	"call":     TokCall,
	"true":     TokTrue,
	"false":    TokFalse,
	"and":      TokAnd,
	"or":       TokOr,
	"not":      TokNot,
}

// IsKeyword reports whether name is reserved.
func IsKeyword(name string) bool {
	_, ok := keywords[name]
	return ok
}

type scanner struct {
	source   string
	filename string
	pos      int
	line     int
	col      int
}

func newScanner(source, filename string) *scanner {
	return &scanner{
		source:   source,
		filename: filename,
		pos:      0,
		line:     1,
		col:      1,
	}
}

func (s *scanner) atEnd() bool {
	return s.pos >= len(s.source)
}

func (s *scanner) peek() byte {
	if s.atEnd() {
		return 0
	}
	return s.source[s.pos]
}

func (s *scanner) peekAt(offset int) byte {
	p := s.pos + offset
	if p >= len(s.source) {
		return 0
	}
	return s.source[p]
}

func (s *scanner) advance() byte {
	ch := s.source[s.pos]
	s.pos++
	if ch == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return ch
}

func (s *scanner) span(startLine, startCol int) ast.Span {
	return ast.Span{
		File:      s.filename,
		StartLine: startLine,
		StartCol:  startCol,
		EndLine:   s.line,
		EndCol:    s.col,
	}
}

func (s *scanner) skipWhitespaceAndComments() {
	for !s.atEnd() {
		ch := s.peek()
		if ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n' {
			s.advance()
		} else if ch == '#' {
			// Skip comment to end of line
			for !s.atEnd() && s.peek() != '\n' {
				s.advance()
			}
		} else {
			break
		}
	}
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') || ch == '_'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

func isAlphaNumeric(ch byte) bool {
	return isAlpha(ch) || isDigit(ch)
}

func (s *scanner) scanString() (Token, error) {
	startLine, startCol := s.line, s.col
	s.advance() // consume opening "

	var buf strings.Builder
	for !s.atEnd() {
		ch := s.peek()
		if ch == '"' {
			s.advance() // consume closing "
			return Token{
				Type:  TokStringLit,
				Value: buf.String(),
				Span:  s.span(startLine, startCol),
			}, nil
		}
		if ch == '\\' {
			s.advance() // consume backslash
			if s.atEnd() {
				return Token{}, s.lexError(startLine, startCol, "unterminated string escape")
			}
			esc := s.advance()
			switch esc {
			case '"':
				buf.WriteByte('"')
			case '\\':
				buf.WriteByte('\\')
			case 'n':
				buf.WriteByte('\n')
			case 'r':
				buf.WriteByte('\r')
			case 't':
				buf.WriteByte('\t')
			default:
				return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("invalid escape character: \\%c", esc))
			}
		} else if ch == '\n' {
			return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
		} else {
			r, size := utf8.DecodeRuneInString(s.source[s.pos:])
			if r == utf8.RuneError && size == 1 {
				return Token{}, s.lexError(startLine, startCol, "invalid UTF-8 character in string")
			}
			buf.WriteRune(r)
			for i := 0; i < size; i++ {
				s.advance()
			}
		}
	}
	return Token{}, s.lexError(startLine, startCol, "unterminated string literal")
}

// scanNumber reads a digit run with an optional fractional part. A leading
// '.' (as in .5) is accepted and normalized to 0.5.
func (s *scanner) scanNumber() (Token, error) {
	startLine, startCol := s.line, s.col
	startPos := s.pos
	isRat := false

	for !s.atEnd() && isDigit(s.peek()) {
		s.advance()
	}

	if !s.atEnd() && s.peek() == '.' {
		if !isDigit(s.peekAt(1)) {
			s.advance()
			return Token{}, s.lexError(startLine, startCol, "expected digits after decimal point")
		}
		isRat = true
		s.advance() // consume '.'
		for !s.atEnd() && isDigit(s.peek()) {
			s.advance()
		}
	}

	if !s.atEnd() && isAlpha(s.peek()) {
		bad := s.peek()
		s.advance()
		return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character '%c' in number", bad))
	}

	text := s.source[startPos:s.pos]
	tokType := TokIntLit
	if isRat {
		tokType = TokRatLit
		if text[0] == '.' {
			text = "0" + text
		}
	}

	return Token{
		Type:  tokType,
		Value: text,
		Span:  s.span(startLine, startCol),
	}, nil
}

func (s *scanner) scanIdentOrKeyword() Token {
	startLine, startCol := s.line, s.col
	startPos := s.pos

	for !s.atEnd() && isAlphaNumeric(s.peek()) {
		s.advance()
	}

	text := s.source[startPos:s.pos]

	if tokType, ok := keywords[text]; ok {
		return Token{
			Type:  tokType,
			Value: text,
			Span:  s.span(startLine, startCol),
		}
	}

	return Token{
		Type:  TokIdent,
		Value: text,
		Span:  s.span(startLine, startCol),
	}
}

func (s *scanner) lexError(line, col int, msg string) error {
	diag := diagnostics.MakeDiag(
		diagnostics.ELex,
		msg,
		&ast.Span{File: s.filename, StartLine: line, StartCol: col, EndLine: line, EndCol: col + 1},
		"",
	)
	return &LexError{Diag: diag}
}

// LexError wraps a diagnostic for lex errors.
type LexError struct {
	Diag diagnostics.Diagnostic
}

func (e *LexError) Error() string {
	return e.Diag.Message
}

func (s *scanner) single(tt TokenType, text string, startLine, startCol int) (Token, error) {
	s.advance()
	return Token{Type: tt, Value: text, Span: s.span(startLine, startCol)}, nil
}

// pair scans a one- or two-character operator: second completes the longer form.
func (s *scanner) pair(short TokenType, shortText string, second byte, long TokenType, startLine, startCol int) (Token, error) {
	s.advance()
	if !s.atEnd() && s.peek() == second {
		s.advance()
		return Token{Type: long, Value: shortText + string(second), Span: s.span(startLine, startCol)}, nil
	}
	return Token{Type: short, Value: shortText, Span: s.span(startLine, startCol)}, nil
}

func (s *scanner) nextToken() (Token, error) {
	s.skipWhitespaceAndComments()

	if s.atEnd() {
		return Token{
			Type:  TokEOF,
			Value: "",
			Span:  s.span(s.line, s.col),
		}, nil
	}

	ch := s.peek()
	startLine, startCol := s.line, s.col

	switch ch {
	case '{':
		return s.single(TokLBrace, "{", startLine, startCol)
	case '}':
		return s.single(TokRBrace, "}", startLine, startCol)
	case '(':
		return s.single(TokLParen, "(", startLine, startCol)
	case ')':
		return s.single(TokRParen, ")", startLine, startCol)
	case ',':
		return s.single(TokComma, ",", startLine, startCol)
	case '+':
		return s.single(TokPlus, "+", startLine, startCol)
	case '-':
		return s.single(TokMinus, "-", startLine, startCol)
	case '/':
		return s.single(TokSlash, "/", startLine, startCol)
	case '%':
		return s.single(TokPercent, "%", startLine, startCol)
	case '*':
		return s.pair(TokStar, "*", '*', TokStarStar, startLine, startCol)
	case '=':
		return s.pair(TokEquals, "=", '=', TokEqEq, startLine, startCol)
	case '!':
		return s.pair(TokBang, "!", '=', TokBangEq, startLine, startCol)
	case '>':
		return s.pair(TokGt, ">", '=', TokGtEq, startLine, startCol)
	case '<':
		return s.pair(TokLt, "<", '=', TokLtEq, startLine, startCol)
	}

	if isDigit(ch) || (ch == '.' && isDigit(s.peekAt(1))) {
		return s.scanNumber()
	}

	if ch == '"' {
		return s.scanString()
	}

	if isAlpha(ch) {
		return s.scanIdentOrKeyword(), nil
	}

	r, _ := utf8.DecodeRuneInString(s.source[s.pos:])
	s.advance()
	return Token{}, s.lexError(startLine, startCol, fmt.Sprintf("unexpected character %q", r))
}

// Lexer produces tokens lazily. Once it has returned an EOF token every later
// call returns EOF again; once it has returned an error it keeps returning it.
// To rescan, construct a new Lexer.
type Lexer struct {
	s    *scanner
	done bool
	last Token
	err  error
}

// New creates a Lexer over source. filename is only used in spans.
func New(source, filename string) *Lexer {
	return &Lexer{s: newScanner(source, filename)}
}

// Next returns the next token.
func (l *Lexer) Next() (Token, error) {
	if l.err != nil {
		return Token{}, l.err
	}
	if l.done {
		return l.last, nil
	}
	tok, err := l.s.nextToken()
	if err != nil {
		l.err = err
		return Token{}, err
	}
	if tok.Type == TokEOF {
		l.done = true
		l.last = tok
	}
	return tok, nil
}

// Tokenize breaks source code into a slice of tokens ending with TokEOF.
func Tokenize(source, filename string) ([]Token, error) {
	l := New(source, filename)
	var tokens []Token

	for {
		tok, err := l.Next()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokEOF {
			break
		}
	}

	return tokens, nil
}
