package lexer

import "github.com/hashicorp/hcl/v2"

// Stream is a pull-based view over a token slice. The slice always ends with
// an EOF token; reading past it keeps returning that EOF.
type Stream struct {
	toks []Token
	pos  int
}

// NewStream wraps toks. A trailing EOF is appended if missing so replayed
// sub-ranges behave like complete inputs.
func NewStream(toks []Token) *Stream {
	if len(toks) == 0 || toks[len(toks)-1].Type != EOF {
		var end hcl.Range
		if len(toks) > 0 {
			last := toks[len(toks)-1].Range
			end = hcl.Range{Filename: last.Filename, Start: last.End, End: last.End}
		}
		toks = append(toks[:len(toks):len(toks)], Token{Type: EOF, Range: end})
	}
	return &Stream{toks: toks}
}

// Peek returns the token n positions ahead without consuming anything.
func (s *Stream) Peek(n int) Token {
	i := s.pos + n
	if i >= len(s.toks) {
		return s.toks[len(s.toks)-1]
	}
	return s.toks[i]
}

// Next consumes and returns the current token.
func (s *Stream) Next() Token {
	t := s.Peek(0)
	if s.pos < len(s.toks)-1 {
		s.pos++
	}
	return t
}

// Accept consumes the current token when it has type typ.
func (s *Stream) Accept(typ TokenType) (Token, bool) {
	if s.Peek(0).Type != typ {
		return Token{}, false
	}
	return s.Next(), true
}

// AcceptWord consumes the current token when it is the identifier word.
func (s *Stream) AcceptWord(word string) bool {
	if !s.Peek(0).Is(word) {
		return false
	}
	s.Next()
	return true
}

// Mark returns the current cursor for a later Rewind.
func (s *Stream) Mark() int {
	return s.pos
}

// Rewind moves the cursor back to a mark.
func (s *Stream) Rewind(mark int) {
	s.pos = mark
}

// Capture returns a copy of the tokens in [from, to).
func (s *Stream) Capture(from, to int) []Token {
	out := make([]Token, to-from)
	copy(out, s.toks[from:to])
	return out
}

// SkipBalanced expects the current token to be open and advances past its
// matching close token, tracking nesting of all bracket kinds. It returns the
// index range of the enclosed tokens and false if input ends first.
func (s *Stream) SkipBalanced(open TokenType) (from, to int, ok bool) {
	if s.Peek(0).Type != open {
		return 0, 0, false
	}
	s.Next()
	from = s.pos
	depth := 0
	for {
		t := s.Peek(0)
		switch t.Type {
		case EOF:
			return from, s.pos, false
		case LParen, LBrack, LBrace:
			depth++
		case RParen, RBrack, RBrace:
			if depth == 0 {
				to = s.pos
				s.Next()
				return from, to, true
			}
			depth--
		}
		s.Next()
	}
}

// ScanToDepthZero looks ahead from the cursor for a token of type want at
// bracket depth zero, stopping at any of the stop types. It does not consume.
func (s *Stream) ScanToDepthZero(want TokenType, stop ...TokenType) bool {
	depth := 0
	for i := s.pos; i < len(s.toks); i++ {
		t := s.toks[i].Type
		if depth == 0 {
			if t == want {
				return true
			}
			for _, st := range stop {
				if t == st {
					return false
				}
			}
		}
		switch t {
		case LParen, LBrack, LBrace:
			depth++
		case RParen, RBrack, RBrace:
			if depth > 0 {
				depth--
			}
		case EOF:
			return false
		}
	}
	return false
}
