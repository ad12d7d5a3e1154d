// Package lexer turns model source text into positioned tokens and exposes
// them as a Stream with lookahead, mark/rewind and range capture.
package lexer

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// TokenType tags a token.
type TokenType int

const (
	EOF TokenType = iota
	Ident
	Number
	String

	LParen     // (
	RParen     // )
	LBrack     // [
	RBrack     // ]
	LBrace     // {
	RBrace     // }
	Comma      // ,
	Semicolon  // ;
	Colon      // :
	Assign     // =
	Define     // :=
	Eq         // ==
	NotEq      // !=
	Lt         // <
	Le         // <=
	Gt         // >
	Ge         // >=
	Plus       // +
	Minus      // -
	PlusPlus   // ++
	MinusMinus // --
	Star       // *
	Slash      // /
	Caret      // ^
	Dot        // .
	DotDot     // ..
	Arrow      // ->
	At         // @
	And        // &&
	Or         // ||
	Bang       // !
	Squared    // ²
	Cubed      // ³
	Degree     // °
)

var tokenNames = map[TokenType]string{
	EOF:        "end of input",
	Ident:      "identifier",
	Number:     "number",
	String:     "string",
	LParen:     "'('",
	RParen:     "')'",
	LBrack:     "'['",
	RBrack:     "']'",
	LBrace:     "'{'",
	RBrace:     "'}'",
	Comma:      "','",
	Semicolon:  "';'",
	Colon:      "':'",
	Assign:     "'='",
	Define:     "':='",
	Eq:         "'=='",
	NotEq:      "'!='",
	Lt:         "'<'",
	Le:         "'<='",
	Gt:         "'>'",
	Ge:         "'>='",
	Plus:       "'+'",
	Minus:      "'-'",
	PlusPlus:   "'++'",
	MinusMinus: "'--'",
	Star:       "'*'",
	Slash:      "'/'",
	Caret:      "'^'",
	Dot:        "'.'",
	DotDot:     "'..'",
	Arrow:      "'->'",
	At:         "'@'",
	And:        "'&&'",
	Or:         "'||'",
	Bang:       "'!'",
	Squared:    "'²'",
	Cubed:      "'³'",
	Degree:     "'°'",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is one lexeme. For strings Text holds the unquoted value.
type Token struct {
	Type  TokenType
	Text  string
	Range hcl.Range
}

// Is reports whether the token is an identifier spelled word.
func (t Token) Is(word string) bool {
	return t.Type == Ident && t.Text == word
}

func (t Token) String() string {
	switch t.Type {
	case Ident, Number:
		return fmt.Sprintf("%s %q", t.Type, t.Text)
	case String:
		return fmt.Sprintf("string %q", t.Text)
	default:
		return t.Type.String()
	}
}
