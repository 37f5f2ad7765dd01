package compiler

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	integerConstantRegex = regexp.MustCompile(`^\d+`)
	stringConstantRegex  = regexp.MustCompile(`^"[^"\n]*"`)
	identifierRegex      = regexp.MustCompile(`^[a-zA-Z_]\w*`)

	blockCommentEnd = []byte("*/")
	newline         = []byte("\n")
)

// Longest single lexeme the tokenizer will buffer.
const maxTokenSize = 1 << 20

type commentState int

const (
	noComment commentState = iota
	lineComment
	blockComment
)

// Tokenizer turns a character stream into a forward-only sequence of tokens.
// Input is pulled in chunks by a bufio.Scanner; comments may span chunks.
type Tokenizer struct {
	scanner *bufio.Scanner

	line      int // line of the next unconsumed byte
	tokenLine int // line of the lexeme most recently handed to the scanner

	comment     commentState
	commentLine int // line the open block comment started on

	next *Token
	err  error
}

func NewTokenizer(r io.Reader) *Tokenizer {
	t := &Tokenizer{line: 1}
	t.scanner = bufio.NewScanner(r)
	t.scanner.Buffer(make([]byte, 0, 4096), maxTokenSize)
	t.scanner.Split(t.splitToken)
	return t
}

// HasNext reports whether another token is available. It returns false at
// the end of input and after a lexical error; Err tells the two apart.
func (t *Tokenizer) HasNext() bool {
	if t.next != nil {
		return true
	}
	if t.err != nil {
		return false
	}
	if !t.scanner.Scan() {
		t.err = t.scanner.Err()
		return false
	}
	token, err := parseToken(t.scanner.Text(), t.tokenLine)
	if err != nil {
		t.err = err
		return false
	}
	t.next = &token
	return true
}

// Advance consumes and returns the next token. It returns io.EOF once the
// input is exhausted.
func (t *Tokenizer) Advance() (Token, error) {
	if !t.HasNext() {
		if t.err != nil {
			return Token{}, t.err
		}
		return Token{}, io.EOF
	}
	token := *t.next
	t.next = nil
	return token, nil
}

func (t *Tokenizer) Err() error {
	return t.err
}

func (t *Tokenizer) lexError(format string, args ...interface{}) error {
	return &LexicalError{Line: t.line, Msg: fmt.Sprintf(format, args...)}
}

func (t *Tokenizer) unterminatedComment() error {
	return &LexicalError{Line: t.commentLine, Msg: "unterminated block comment"}
}

func (t *Tokenizer) splitToken(data []byte, atEOF bool) (advance int, token []byte, err error) {
	skipped, err := t.skipIgnored(data, atEOF)
	t.line += bytes.Count(data[:skipped], newline)
	if err != nil {
		return 0, nil, err
	}

	rest := data[skipped:]
	if len(rest) == 0 || t.comment != noComment {
		return skipped, nil, nil
	}
	// A lone trailing slash may still turn out to open a comment.
	if len(rest) == 1 && rest[0] == '/' && !atEOF {
		return skipped, nil, nil
	}

	n, err := t.matchToken(rest, atEOF)
	if err != nil {
		return 0, nil, err
	}
	if n == 0 {
		return skipped, nil, nil
	}
	t.tokenLine = t.line
	return skipped + n, rest[:n], nil
}

// skipIgnored returns how many leading bytes of data are whitespace or
// comment text.
func (t *Tokenizer) skipIgnored(data []byte, atEOF bool) (int, error) {
	n := 0
	for n < len(data) {
		switch t.comment {
		case lineComment:
			end := bytes.IndexByte(data[n:], '\n')
			if end < 0 {
				return len(data), nil
			}
			n += end
			t.comment = noComment
		case blockComment:
			end := bytes.Index(data[n:], blockCommentEnd)
			if end < 0 {
				if atEOF {
					return n, t.unterminatedComment()
				}
				// Hold back a trailing '*' in case the next chunk starts with '/'.
				if data[len(data)-1] == '*' {
					return len(data) - 1, nil
				}
				return len(data), nil
			}
			n += end + len(blockCommentEnd)
			t.comment = noComment
		default:
			c := data[n]
			switch {
			case c < utf8.RuneSelf && unicode.IsSpace(rune(c)):
				n++
			case c == '/' && n+1 < len(data) && data[n+1] == '/':
				t.comment = lineComment
				n += 2
			case c == '/' && n+1 < len(data) && data[n+1] == '*':
				t.comment = blockComment
				t.commentLine = t.line + bytes.Count(data[:n], newline)
				n += 2
			default:
				return n, nil
			}
		}
	}
	if atEOF && t.comment == blockComment {
		return n, t.unterminatedComment()
	}
	return n, nil
}

// matchToken returns the length of the lexeme at the start of data, or 0 if
// more input is needed to decide.
func (t *Tokenizer) matchToken(data []byte, atEOF bool) (int, error) {
	c := data[0]
	switch {
	case strings.IndexByte(symbols, c) >= 0:
		return 1, nil
	case c == '"':
		if match := stringConstantRegex.Find(data); match != nil {
			return len(match), nil
		}
		if bytes.IndexByte(data, '\n') >= 0 || atEOF {
			return 0, t.lexError("unterminated string constant")
		}
		return 0, nil
	}

	for _, regex := range []*regexp.Regexp{integerConstantRegex, identifierRegex} {
		if loc := regex.FindIndex(data); loc != nil {
			if loc[1] == len(data) && !atEOF {
				return 0, nil
			}
			return loc[1], nil
		}
	}

	if !utf8.FullRune(data) && !atEOF {
		return 0, nil
	}
	char, _ := utf8.DecodeRune(data)
	return 0, t.lexError("unexpected character %q", char)
}

func parseToken(text string, line int) (token Token, err error) {
	token.Terminal = text
	token.Line = line

	switch {
	case len(text) == 1 && strings.Contains(symbols, text):
		token.Type = SymbolToken
	case text[0] == '"':
		token.Type = StringConstant
		token.Terminal = text[1 : len(text)-1]
	case text[0] >= '0' && text[0] <= '9':
		value, convErr := strconv.Atoi(text)
		if convErr != nil || value > MaxIntegerConstant {
			return Token{}, &LexicalError{Line: line, Msg: fmt.Sprintf("integer constant %s out of range 0..%d", text, MaxIntegerConstant)}
		}
		token.Type = IntegerConstant
	case keywords[text]:
		token.Type = Keyword
	default:
		token.Type = Identifier
	}

	return
}
