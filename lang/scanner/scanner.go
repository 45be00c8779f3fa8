// Package scanner implements the lexical scanner: source text in, an
// ordered stream of token.Token out, per spec.md §4.1.
package scanner

import (
	"strconv"

	"github.com/mna/rill/lang/token"
)

// ErrorReporter receives a scan error at the given line. It never aborts
// scanning: the scanner always makes progress and keeps producing tokens so
// that later errors can still be reported in the same run, per spec.md
// §4.1's "Any other character" rule.
type ErrorReporter interface {
	Report(line int, where, message string)
}

// Scanner tokenizes a single source buffer.
type Scanner struct {
	src  []byte
	errs ErrorReporter

	start int // byte offset of the token currently being scanned
	cur   int // byte offset of the next unread byte
	line  int
}

// New returns a Scanner ready to tokenize src, reporting errors to errs.
func New(src []byte, errs ErrorReporter) *Scanner {
	return &Scanner{src: src, errs: errs, line: 1}
}

// ScanAll scans the entire source and returns every token, including the
// final EOF token that always terminates the stream.
func (s *Scanner) ScanAll() []token.Token {
	var toks []token.Token
	for {
		tok := s.ScanToken()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			return toks
		}
	}
}

// ScanToken returns the next token in the source.
func (s *Scanner) ScanToken() token.Token {
	s.skipWhitespaceAndComments()
	s.start = s.cur

	if s.isAtEnd() {
		return s.makeToken(token.EOF, "")
	}

	c := s.advance()
	switch {
	case isAlpha(c):
		return s.identifier()
	case isDigit(c):
		return s.number()
	}

	switch c {
	case '(':
		return s.makeToken(token.LPAREN, "(")
	case ')':
		return s.makeToken(token.RPAREN, ")")
	case '{':
		return s.makeToken(token.LBRACE, "{")
	case '}':
		return s.makeToken(token.RBRACE, "}")
	case ',':
		return s.makeToken(token.COMMA, ",")
	case '.':
		return s.makeToken(token.DOT, ".")
	case '-':
		return s.makeToken(token.MINUS, "-")
	case '+':
		return s.makeToken(token.PLUS, "+")
	case ';':
		return s.makeToken(token.SEMI, ";")
	case '*':
		return s.makeToken(token.STAR, "*")
	case '/':
		return s.makeToken(token.SLASH, "/")
	case '!':
		if s.match('=') {
			return s.makeToken(token.BANG_EQ, "!=")
		}
		return s.makeToken(token.BANG, "!")
	case '=':
		if s.match('=') {
			return s.makeToken(token.EQ_EQ, "==")
		}
		return s.makeToken(token.EQ, "=")
	case '<':
		if s.match('=') {
			return s.makeToken(token.LT_EQ, "<=")
		}
		return s.makeToken(token.LT, "<")
	case '>':
		if s.match('=') {
			return s.makeToken(token.GT_EQ, ">=")
		}
		return s.makeToken(token.GT, ">")
	case '"':
		return s.string()
	}

	s.errs.Report(s.line, "", "Unexpected character.")
	return s.ScanToken()
}

func (s *Scanner) isAtEnd() bool { return s.cur >= len(s.src) }

func (s *Scanner) advance() byte {
	c := s.src[s.cur]
	s.cur++
	return c
}

func (s *Scanner) peek() byte {
	if s.isAtEnd() {
		return 0
	}
	return s.src[s.cur]
}

func (s *Scanner) peekNext() byte {
	if s.cur+1 >= len(s.src) {
		return 0
	}
	return s.src[s.cur+1]
}

// match advances and returns true only if the current byte equals want.
func (s *Scanner) match(want byte) bool {
	if s.isAtEnd() || s.src[s.cur] != want {
		return false
	}
	s.cur++
	return true
}

func (s *Scanner) skipWhitespaceAndComments() {
	for !s.isAtEnd() {
		switch c := s.src[s.cur]; c {
		case ' ', '\t', '\r':
			s.cur++
		case '\n':
			s.line++
			s.cur++
		case '/':
			if s.peekNext() == '/' {
				for !s.isAtEnd() && s.src[s.cur] != '\n' {
					s.cur++
				}
			} else if s.peekNext() == '*' {
				s.blockComment()
			} else {
				return
			}
		default:
			return
		}
	}
}

// blockComment consumes a /* ... */ comment, which may not nest in this
// design. An unterminated block comment reports an error and stops at
// end-of-stream, per spec.md §4.1.
func (s *Scanner) blockComment() {
	startLine := s.line
	s.cur += 2 // consume "/*"
	for {
		if s.isAtEnd() {
			s.errs.Report(startLine, "", "Unterminated block comment.")
			return
		}
		if s.src[s.cur] == '*' && s.peekNext() == '/' {
			s.cur += 2
			return
		}
		if s.src[s.cur] == '\n' {
			s.line++
		}
		s.cur++
	}
}

func (s *Scanner) string() token.Token {
	startLine := s.line
	for !s.isAtEnd() && s.peek() != '"' {
		if s.peek() == '\n' {
			s.errs.Report(startLine, "", "Unterminated string.")
			return s.makeToken(token.STRING, string(s.src[s.start:s.cur]))
		}
		s.cur++
	}
	if s.isAtEnd() {
		s.errs.Report(startLine, "", "Unterminated string.")
		return s.makeTokenAt(startLine, token.STRING, string(s.src[s.start:s.cur]), token.Value{})
	}

	s.cur++ // consume closing '"'
	raw := string(s.src[s.start:s.cur])
	val := string(s.src[s.start+1 : s.cur-1])
	return s.makeTokenWithValue(token.STRING, raw, token.Value{Str: val})
}

func (s *Scanner) number() token.Token {
	for isDigit(s.peek()) {
		s.cur++
	}
	if s.peek() == '.' && isDigit(s.peekNext()) {
		s.cur++ // consume '.'
		for isDigit(s.peek()) {
			s.cur++
		}
	}

	raw := string(s.src[s.start:s.cur])
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// the lexeme was built entirely from digits and at most one dot, so
		// only an out-of-range magnitude can fail here.
		s.errs.Report(s.line, "", "Invalid number literal.")
	}
	return s.makeTokenWithValue(token.NUMBER, raw, token.Value{Num: f})
}

func (s *Scanner) identifier() token.Token {
	for isAlphaNumeric(s.peek()) {
		s.cur++
	}
	lit := string(s.src[s.start:s.cur])
	return s.makeToken(token.LookupIdent(lit), lit)
}

func (s *Scanner) makeToken(kind token.Kind, lexeme string) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Line: s.line}
}

func (s *Scanner) makeTokenWithValue(kind token.Kind, lexeme string, value token.Value) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Value: value, Line: s.line}
}

func (s *Scanner) makeTokenAt(line int, kind token.Kind, lexeme string, value token.Value) token.Token {
	return token.Token{Kind: kind, Lexeme: lexeme, Value: value, Line: line}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isAlpha(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isAlphaNumeric(c byte) bool { return isAlpha(c) || isDigit(c) }
