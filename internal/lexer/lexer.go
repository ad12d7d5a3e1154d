package lexer

import (
	"errors"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/spacerules/internal/diag"
)

// ErrLex is wrapped by every tokenization failure.
var ErrLex = errors.New("invalid source text")

type scanner struct {
	src      []byte
	filename string
	pos      hcl.Pos
	out      []Token
}

// Lex converts src into tokens terminated by a single EOF token.
func Lex(src []byte, filename string) ([]Token, error) {
	s := &scanner{
		src:      src,
		filename: filename,
		pos:      hcl.Pos{Line: 1, Column: 1, Byte: 0},
	}
	if err := s.run(); err != nil {
		return nil, err
	}
	return s.out, nil
}

func (s *scanner) peek(off int) rune {
	i := s.pos.Byte
	for ; off > 0 && i < len(s.src); off-- {
		_, size := utf8.DecodeRune(s.src[i:])
		i += size
	}
	if i >= len(s.src) {
		return 0
	}
	r, _ := utf8.DecodeRune(s.src[i:])
	return r
}

func (s *scanner) advance() rune {
	r, size := utf8.DecodeRune(s.src[s.pos.Byte:])
	s.pos.Byte += size
	if r == '\n' {
		s.pos.Line++
		s.pos.Column = 1
	} else {
		s.pos.Column++
	}
	return r
}

func (s *scanner) emit(typ TokenType, text string, start hcl.Pos) {
	s.out = append(s.out, Token{
		Type:  typ,
		Text:  text,
		Range: hcl.Range{Filename: s.filename, Start: start, End: s.pos},
	})
}

func (s *scanner) fail(start hcl.Pos, format string, args ...any) error {
	rng := hcl.Range{Filename: s.filename, Start: start, End: s.pos}
	args = append(args, ErrLex)
	return diag.Errorf(rng, format+": %w", args...)
}

func (s *scanner) run() error {
	for s.pos.Byte < len(s.src) {
		start := s.pos
		ch := s.peek(0)

		switch {
		case ch == ' ' || ch == '\t' || ch == '\r' || ch == '\n':
			s.advance()
			continue
		case ch == '#' || (ch == '/' && s.peek(1) == '/'):
			for s.pos.Byte < len(s.src) && s.peek(0) != '\n' {
				s.advance()
			}
			continue
		case ch == '/' && s.peek(1) == '*':
			s.advance()
			s.advance()
			for {
				if s.pos.Byte >= len(s.src) {
					return s.fail(start, "unterminated block comment")
				}
				if s.peek(0) == '*' && s.peek(1) == '/' {
					s.advance()
					s.advance()
					break
				}
				s.advance()
			}
			continue
		case ch == '"':
			if err := s.scanString(start); err != nil {
				return err
			}
			continue
		case isDigit(ch):
			s.scanNumber(start)
			continue
		case isIdentStart(ch):
			for s.pos.Byte < len(s.src) && isIdentPart(s.peek(0)) {
				s.advance()
			}
			s.emit(Ident, string(s.src[start.Byte:s.pos.Byte]), start)
			continue
		}

		if typ, ok := s.twoRune(ch, s.peek(1)); ok {
			s.advance()
			s.advance()
			s.emit(typ, string(s.src[start.Byte:s.pos.Byte]), start)
			continue
		}

		typ, ok := singleRune[ch]
		if !ok {
			s.advance()
			return s.fail(start, "unexpected character %q", ch)
		}
		s.advance()
		s.emit(typ, string(ch), start)
	}

	s.emit(EOF, "", s.pos)
	return nil
}

var singleRune = map[rune]TokenType{
	'(': LParen, ')': RParen, '[': LBrack, ']': RBrack, '{': LBrace, '}': RBrace,
	',': Comma, ';': Semicolon, ':': Colon, '=': Assign, '<': Lt, '>': Gt,
	'+': Plus, '-': Minus, '*': Star, '/': Slash, '^': Caret, '.': Dot,
	'@': At, '!': Bang, '²': Squared, '³': Cubed, '°': Degree,
}

func (s *scanner) twoRune(a, b rune) (TokenType, bool) {
	switch {
	case a == ':' && b == '=':
		return Define, true
	case a == '=' && b == '=':
		return Eq, true
	case a == '!' && b == '=':
		return NotEq, true
	case a == '<' && b == '=':
		return Le, true
	case a == '>' && b == '=':
		return Ge, true
	case a == '+' && b == '+':
		return PlusPlus, true
	case a == '-' && b == '-':
		return MinusMinus, true
	case a == '-' && b == '>':
		return Arrow, true
	case a == '.' && b == '.':
		return DotDot, true
	case a == '&' && b == '&':
		return And, true
	case a == '|' && b == '|':
		return Or, true
	}
	return EOF, false
}

// scanNumber reads digits with an optional fraction and exponent. A '.'
// followed by another '.' is left for the range operator.
func (s *scanner) scanNumber(start hcl.Pos) {
	for isDigit(s.peek(0)) {
		s.advance()
	}
	if s.peek(0) == '.' && isDigit(s.peek(1)) {
		s.advance()
		for isDigit(s.peek(0)) {
			s.advance()
		}
	}
	if e := s.peek(0); e == 'e' || e == 'E' {
		next := s.peek(1)
		if isDigit(next) || ((next == '+' || next == '-') && isDigit(s.peek(2))) {
			s.advance()
			s.advance()
			for isDigit(s.peek(0)) {
				s.advance()
			}
		}
	}
	s.emit(Number, string(s.src[start.Byte:s.pos.Byte]), start)
}

func (s *scanner) scanString(start hcl.Pos) error {
	s.advance()
	for {
		if s.pos.Byte >= len(s.src) || s.peek(0) == '\n' {
			return s.fail(start, "unterminated string literal")
		}
		c := s.advance()
		if c == '\\' {
			if s.pos.Byte >= len(s.src) {
				return s.fail(start, "unterminated string literal")
			}
			s.advance()
			continue
		}
		if c == '"' {
			break
		}
	}
	raw := string(s.src[start.Byte:s.pos.Byte])
	text, err := strconv.Unquote(raw)
	if err != nil {
		return s.fail(start, "invalid string literal %s", raw)
	}
	s.emit(String, text, start)
	return nil
}

func isDigit(r rune) bool { return r >= '0' && r <= '9' }

func isIdentStart(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= 128 && unicode.IsLetter(r))
}

func isIdentPart(r rune) bool {
	return isIdentStart(r) || isDigit(r)
}
