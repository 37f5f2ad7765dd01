package compiler

import (
	"fmt"
	"strconv"
)

// MachineWord is the native integer of the target machine.
type MachineWord int16

// MaxIntegerConstant is the largest literal that fits a MachineWord.
// Negative values are built with the unary - operator.
const MaxIntegerConstant = 32767

type TokenType string

const (
	InvalidToken    TokenType = ""
	Keyword         TokenType = "keyword"
	SymbolToken     TokenType = "symbol"
	IntegerConstant TokenType = "integerConstant"
	StringConstant  TokenType = "stringConstant"
	Identifier      TokenType = "identifier"
)

var keywords = map[string]bool{
	"class": true, "constructor": true, "function": true, "method": true,
	"field": true, "static": true, "var": true,
	"int": true, "char": true, "boolean": true, "void": true,
	"true": true, "false": true, "null": true, "this": true,
	"let": true, "do": true, "if": true, "else": true, "while": true, "return": true,
}

const symbols = "{}()[].,;+-*/&|<>=~"

// Token is one classified lexeme. For string constants the terminal holds
// the text without the surrounding quotes.
type Token struct {
	Type     TokenType
	Terminal string
	Line     int
}

func (t Token) Is(tokenType TokenType, terminals ...string) bool {
	if t.Type != tokenType {
		return false
	}
	if len(terminals) == 0 {
		return true
	}
	for _, terminal := range terminals {
		if t.Terminal == terminal {
			return true
		}
	}
	return false
}

// Lexeme reconstructs the source text of the token.
func (t Token) Lexeme() string {
	if t.Type == StringConstant {
		return `"` + t.Terminal + `"`
	}
	return t.Terminal
}

func (t Token) String() string {
	if t.Type == InvalidToken {
		return "end of input"
	}
	return fmt.Sprintf("%s %q", t.Type, t.Lexeme())
}

func (t Token) asInt() MachineWord {
	// The tokenizer already rejected anything outside 0..MaxIntegerConstant.
	word, _ := strconv.Atoi(t.Terminal)
	return MachineWord(word)
}
