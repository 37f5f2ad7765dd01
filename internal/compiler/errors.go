package compiler

import (
	"errors"
	"fmt"
)

var (
	ErrLexical   = errors.New("lexical error")
	ErrSyntax    = errors.New("syntax error")
	ErrUndefined = errors.New("undefined variable")
)

// LexicalError is raised by the tokenizer for input that cannot start a token.
type LexicalError struct {
	Line int
	Msg  string
}

func (e *LexicalError) Error() string {
	return fmt.Sprintf("line %d: %v: %s", e.Line, ErrLexical, e.Msg)
}

func (e *LexicalError) Unwrap() error { return ErrLexical }

// SyntaxError reports an unmet expectation at a grammar decision point.
type SyntaxError struct {
	Line     int
	Expected string
	Got      Token
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("line %d: %v: expected %s, got %s", e.Line, ErrSyntax, e.Expected, e.Got)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
