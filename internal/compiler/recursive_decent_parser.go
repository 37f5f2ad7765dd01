package compiler

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
)

// TokenSource is the forward-only token stream the compiler consumes.
type TokenSource interface {
	HasNext() bool
	Advance() (Token, error)
}

var (
	binaryOperations = map[string]VMOperation{
		"+": AddVMOperation,
		"-": SubVMOperation,
		"*": MulVMOperation,
		"/": DivVMOperation,
		"&": AndVMOperation,
		"|": OrVMOperation,
		"<": LtVMOperation,
		">": GtVMOperation,
		"=": EqVMOperation,
	}
	unaryOperations = map[string]VMOperation{
		"-": NegVMOperation,
		"~": NotVMOperation,
	}
	primitiveTypes = []string{"int", "char", "boolean"}
)

// JackCompiler parses one class and emits its VM code in the same pass.
// Each compileXxx method consumes exactly the tokens of its production and
// leaves the cursor on the token that follows.
type JackCompiler struct {
	tokens   TokenSource
	writer   *VMWriter
	resolver *Resolver
	logger   *log.Logger

	// current is the token under the cursor. Its Type is InvalidToken once
	// the input is exhausted.
	current Token

	className      string
	subroutineName string
	subroutineKind string

	ifCount    int
	whileCount int
}

func NewJackCompiler(tokens TokenSource, writer *VMWriter, logger *log.Logger) *JackCompiler {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &JackCompiler{
		tokens:   tokens,
		writer:   writer,
		resolver: NewResolver(),
		logger:   logger,
	}
}

// Compile compiles a single class and requires the input to end after it.
func (c *JackCompiler) Compile() error {
	if err := c.advance(); err != nil {
		return err
	}
	if err := c.compileClass(); err != nil {
		return err
	}
	if c.current.Type != InvalidToken {
		return c.unexpected("end of input")
	}
	return c.writer.Err()
}

func (c *JackCompiler) advance() error {
	token, err := c.tokens.Advance()
	if errors.Is(err, io.EOF) {
		c.current = Token{Line: c.current.Line}
		return nil
	}
	if err != nil {
		return err
	}
	c.current = token
	return nil
}

func (c *JackCompiler) unexpected(expected string) error {
	return &SyntaxError{Line: c.current.Line, Expected: expected, Got: c.current}
}

func describe(tokenType TokenType, terminals []string) string {
	if len(terminals) == 0 {
		return string(tokenType)
	}
	quoted := make([]string, len(terminals))
	for i, terminal := range terminals {
		quoted[i] = fmt.Sprintf("%q", terminal)
	}
	return strings.Join(quoted, " or ")
}

// compileTerminal consumes the current token if it matches and returns its text.
func (c *JackCompiler) compileTerminal(tokenType TokenType, terminals ...string) (string, error) {
	token := c.current
	if !token.Is(tokenType, terminals...) {
		return "", c.unexpected(describe(tokenType, terminals))
	}
	if err := c.advance(); err != nil {
		return "", err
	}
	return token.Terminal, nil
}

func (c *JackCompiler) compileKeyword(keywords ...string) (string, error) {
	return c.compileTerminal(Keyword, keywords...)
}

func (c *JackCompiler) compileSymbol(terminals ...string) (string, error) {
	return c.compileTerminal(SymbolToken, terminals...)
}

func (c *JackCompiler) compileIdentifier() (string, error) {
	return c.compileTerminal(Identifier)
}

func (c *JackCompiler) isType() bool {
	return c.current.Is(Keyword, primitiveTypes...) || c.current.Is(Identifier)
}

func (c *JackCompiler) compileType() (string, error) {
	if c.current.Is(Keyword, primitiveTypes...) {
		return c.compileKeyword(primitiveTypes...)
	}
	if c.current.Is(Identifier) {
		return c.compileIdentifier()
	}
	return "", c.unexpected("type")
}

func (c *JackCompiler) compileClass() error {
	if _, err := c.compileKeyword("class"); err != nil {
		return err
	}
	name, err := c.compileIdentifier()
	if err != nil {
		return err
	}
	c.className = name
	c.logger.Printf("Compiling class %s", name)

	if _, err := c.compileSymbol("{"); err != nil {
		return err
	}
	for c.current.Is(Keyword, "static", "field") {
		if err := c.compileClassVarDec(); err != nil {
			return err
		}
	}
	for c.current.Is(Keyword, "constructor", "function", "method") {
		if err := c.compileSubroutineDec(); err != nil {
			return err
		}
	}
	_, err = c.compileSymbol("}")
	return err
}

func (c *JackCompiler) compileClassVarDec() error {
	kind, err := c.compileKeyword("static", "field")
	if err != nil {
		return err
	}
	variableType, err := c.compileType()
	if err != nil {
		return err
	}
	return c.compileVarNames(c.resolver.Class, variableType, Kind(kind))
}

// compileVarNames handles `name (, name)* ;`, defining each name in table.
func (c *JackCompiler) compileVarNames(table *SymbolTable, variableType string, kind Kind) error {
	for {
		name, err := c.compileIdentifier()
		if err != nil {
			return err
		}
		symbol := table.Define(name, variableType, kind)
		c.logger.Printf("Registered %s %s %s as %d", kind, variableType, name, symbol.Index)

		if !c.current.Is(SymbolToken, ",") {
			break
		}
		if err := c.advance(); err != nil {
			return err
		}
	}
	_, err := c.compileSymbol(";")
	return err
}

func (c *JackCompiler) compileSubroutineDec() error {
	c.resolver.Subroutine.Reset()

	kind, err := c.compileKeyword("constructor", "function", "method")
	if err != nil {
		return err
	}
	c.subroutineKind = kind

	if c.current.Is(Keyword, "void") {
		err = c.advance()
	} else {
		_, err = c.compileType()
	}
	if err != nil {
		return err
	}

	name, err := c.compileIdentifier()
	if err != nil {
		return err
	}
	c.subroutineName = name
	c.logger.Printf("Compiling %s %s.%s", kind, c.className, name)

	if _, err := c.compileSymbol("("); err != nil {
		return err
	}
	if kind == "method" {
		// The receiver occupies argument 0 and is never looked up by name.
		c.resolver.Subroutine.Define("this", c.className, ArgumentKind)
	}
	if err := c.compileParameterList(); err != nil {
		return err
	}
	if _, err := c.compileSymbol(")"); err != nil {
		return err
	}
	return c.compileSubroutineBody()
}

func (c *JackCompiler) compileParameterList() error {
	if !c.isType() {
		return nil
	}
	for {
		variableType, err := c.compileType()
		if err != nil {
			return err
		}
		name, err := c.compileIdentifier()
		if err != nil {
			return err
		}
		c.resolver.Subroutine.Define(name, variableType, ArgumentKind)

		if !c.current.Is(SymbolToken, ",") {
			return nil
		}
		if err := c.advance(); err != nil {
			return err
		}
	}
}

func (c *JackCompiler) compileSubroutineBody() error {
	if _, err := c.compileSymbol("{"); err != nil {
		return err
	}
	for c.current.Is(Keyword, "var") {
		if err := c.compileVarDec(); err != nil {
			return err
		}
	}

	c.writer.WriteFunction(c.className+"."+c.subroutineName, c.resolver.Subroutine.VarCount(LocalKind))
	switch c.subroutineKind {
	case "constructor":
		c.writer.WritePush(ConstVMSegment, c.resolver.Class.VarCount(FieldKind))
		c.writer.WriteCall("Memory.alloc", 1)
		c.writer.WritePop(PointerVMSegment, 0)
	case "method":
		c.writer.WritePush(ArgumentVMSegment, 0)
		c.writer.WritePop(PointerVMSegment, 0)
	}

	if err := c.compileStatements(); err != nil {
		return err
	}
	_, err := c.compileSymbol("}")
	return err
}

func (c *JackCompiler) compileVarDec() error {
	if _, err := c.compileKeyword("var"); err != nil {
		return err
	}
	variableType, err := c.compileType()
	if err != nil {
		return err
	}
	return c.compileVarNames(c.resolver.Subroutine, variableType, LocalKind)
}

// compileStatements stops at the first token that does not start a statement.
func (c *JackCompiler) compileStatements() error {
	for {
		var err error
		switch {
		case c.current.Is(Keyword, "let"):
			err = c.compileLetStatement()
		case c.current.Is(Keyword, "if"):
			err = c.compileIfStatement()
		case c.current.Is(Keyword, "while"):
			err = c.compileWhileStatement()
		case c.current.Is(Keyword, "do"):
			err = c.compileDoStatement()
		case c.current.Is(Keyword, "return"):
			err = c.compileReturnStatement()
		default:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

// compileBlock handles `{ statements }`.
func (c *JackCompiler) compileBlock() error {
	if _, err := c.compileSymbol("{"); err != nil {
		return err
	}
	if err := c.compileStatements(); err != nil {
		return err
	}
	_, err := c.compileSymbol("}")
	return err
}

// compileCondition handles `( expression )`.
func (c *JackCompiler) compileCondition() error {
	if _, err := c.compileSymbol("("); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	_, err := c.compileSymbol(")")
	return err
}

func (c *JackCompiler) compileLetStatement() error {
	if _, err := c.compileKeyword("let"); err != nil {
		return err
	}
	symbol, err := c.compileVariable()
	if err != nil {
		return err
	}

	isArrayElement := c.current.Is(SymbolToken, "[")
	if isArrayElement {
		if err := c.compileArrayAddress(symbol); err != nil {
			return err
		}
	}

	if _, err := c.compileSymbol("="); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if _, err := c.compileSymbol(";"); err != nil {
		return err
	}

	if !isArrayElement {
		c.writePopSymbol(symbol)
		return nil
	}
	// Evaluating the right-hand side may move THAT; bind the address only
	// once the value is parked in temp.
	c.writer.WritePop(TempVMSegment, 0)
	c.writer.WritePop(PointerVMSegment, 1)
	c.writer.WritePush(TempVMSegment, 0)
	c.writer.WritePop(ThatVMSegment, 0)
	return nil
}

func (c *JackCompiler) compileIfStatement() error {
	id := c.ifCount
	c.ifCount++
	elseLabel := fmt.Sprintf("IF_GOTO_NOT_%d", id)
	endLabel := fmt.Sprintf("IF_GOTO_END_%d", id)

	if _, err := c.compileKeyword("if"); err != nil {
		return err
	}
	if err := c.compileCondition(); err != nil {
		return err
	}
	c.writer.WriteArithmetic(NotVMOperation)
	c.writer.WriteIf(elseLabel)
	if err := c.compileBlock(); err != nil {
		return err
	}
	c.writer.WriteGoto(endLabel)
	c.writer.WriteLabel(elseLabel)

	if c.current.Is(Keyword, "else") {
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.compileBlock(); err != nil {
			return err
		}
	}
	c.writer.WriteLabel(endLabel)
	return nil
}

func (c *JackCompiler) compileWhileStatement() error {
	id := c.whileCount
	c.whileCount++
	startLabel := fmt.Sprintf("WHILE_START_%d", id)
	endLabel := fmt.Sprintf("WHILE_END_%d", id)

	if _, err := c.compileKeyword("while"); err != nil {
		return err
	}
	c.writer.WriteLabel(startLabel)
	if err := c.compileCondition(); err != nil {
		return err
	}
	c.writer.WriteArithmetic(NotVMOperation)
	c.writer.WriteIf(endLabel)
	if err := c.compileBlock(); err != nil {
		return err
	}
	c.writer.WriteGoto(startLabel)
	c.writer.WriteLabel(endLabel)
	return nil
}

func (c *JackCompiler) compileDoStatement() error {
	if _, err := c.compileKeyword("do"); err != nil {
		return err
	}
	name, err := c.compileIdentifier()
	if err != nil {
		return err
	}
	if err := c.compileSubroutineCall(name); err != nil {
		return err
	}
	if _, err := c.compileSymbol(";"); err != nil {
		return err
	}
	c.writer.WritePop(TempVMSegment, 0)
	return nil
}

func (c *JackCompiler) compileReturnStatement() error {
	if _, err := c.compileKeyword("return"); err != nil {
		return err
	}
	if c.current.Is(SymbolToken, ";") {
		c.writer.WritePush(ConstVMSegment, 0)
	} else if err := c.compileExpression(); err != nil {
		return err
	}
	if _, err := c.compileSymbol(";"); err != nil {
		return err
	}
	c.writer.WriteReturn()
	return nil
}

// compileExpression evaluates operators strictly left to right, without
// precedence.
func (c *JackCompiler) compileExpression() error {
	if err := c.compileTerm(); err != nil {
		return err
	}
	for c.current.Type == SymbolToken {
		operation, ok := binaryOperations[c.current.Terminal]
		if !ok {
			break
		}
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.writer.WriteArithmetic(operation)
	}
	return nil
}

func (c *JackCompiler) compileTerm() error {
	token := c.current
	switch {
	case token.Is(IntegerConstant):
		c.writer.WritePush(ConstVMSegment, int(token.asInt()))
		return c.advance()

	case token.Is(StringConstant):
		c.writer.WriteStringConstant(token.Terminal)
		return c.advance()

	case token.Is(Keyword, "true"):
		c.writer.WritePush(ConstVMSegment, 1)
		c.writer.WriteArithmetic(NegVMOperation)
		return c.advance()

	case token.Is(Keyword, "false", "null"):
		c.writer.WritePush(ConstVMSegment, 0)
		return c.advance()

	case token.Is(Keyword, "this"):
		c.writer.WritePush(PointerVMSegment, 0)
		return c.advance()

	case token.Is(SymbolToken, "("):
		return c.compileCondition()

	case token.Is(SymbolToken, "-", "~"):
		if err := c.advance(); err != nil {
			return err
		}
		if err := c.compileTerm(); err != nil {
			return err
		}
		c.writer.WriteArithmetic(unaryOperations[token.Terminal])
		return nil

	case token.Is(Identifier):
		return c.compileIdentifierTerm()
	}
	return c.unexpected("term")
}

// compileIdentifierTerm consumes the identifier and uses the token after it
// to choose between a variable, an array element and a subroutine call.
func (c *JackCompiler) compileIdentifierTerm() error {
	name := c.current
	if err := c.advance(); err != nil {
		return err
	}

	if c.current.Is(SymbolToken, "(", ".") {
		return c.compileSubroutineCall(name.Terminal)
	}

	symbol, err := c.resolve(name)
	if err != nil {
		return err
	}
	if !c.current.Is(SymbolToken, "[") {
		c.writePushSymbol(symbol)
		return nil
	}
	if err := c.compileArrayAddress(symbol); err != nil {
		return err
	}
	c.writer.WritePop(PointerVMSegment, 1)
	c.writer.WritePush(ThatVMSegment, 0)
	return nil
}

// compileArrayAddress handles `[ expression ]` and leaves base+index on the stack.
func (c *JackCompiler) compileArrayAddress(array Symbol) error {
	c.writePushSymbol(array)
	if _, err := c.compileSymbol("["); err != nil {
		return err
	}
	if err := c.compileExpression(); err != nil {
		return err
	}
	if _, err := c.compileSymbol("]"); err != nil {
		return err
	}
	c.writer.WriteArithmetic(AddVMOperation)
	return nil
}

// compileSubroutineCall compiles a call whose leading identifier, name, has
// already been consumed.
func (c *JackCompiler) compileSubroutineCall(name string) error {
	var (
		callee string
		nargs  int
	)

	if c.current.Is(SymbolToken, ".") {
		if err := c.advance(); err != nil {
			return err
		}
		subroutine, err := c.compileIdentifier()
		if err != nil {
			return err
		}
		if symbol, _, ok := c.resolver.Lookup(name); ok {
			c.writePushSymbol(symbol)
			nargs++
			callee = symbol.VariableType + "." + subroutine
		} else {
			// Not a variable, so it names a class.
			callee = name + "." + subroutine
		}
	} else {
		c.writer.WritePush(PointerVMSegment, 0)
		nargs++
		callee = c.className + "." + name
	}

	if _, err := c.compileSymbol("("); err != nil {
		return err
	}
	count, err := c.compileExpressionList()
	if err != nil {
		return err
	}
	if _, err := c.compileSymbol(")"); err != nil {
		return err
	}
	c.writer.WriteCall(callee, nargs+count)
	return nil
}

// compileExpressionList returns the number of expressions compiled.
func (c *JackCompiler) compileExpressionList() (int, error) {
	if c.current.Is(SymbolToken, ")") {
		return 0, nil
	}
	count := 0
	for {
		if err := c.compileExpression(); err != nil {
			return count, err
		}
		count++
		if !c.current.Is(SymbolToken, ",") {
			return count, nil
		}
		if err := c.advance(); err != nil {
			return count, err
		}
	}
}

// compileVariable consumes an identifier that must name a variable.
func (c *JackCompiler) compileVariable() (Symbol, error) {
	token := c.current
	if _, err := c.compileIdentifier(); err != nil {
		return Symbol{}, err
	}
	return c.resolve(token)
}

func (c *JackCompiler) resolve(token Token) (Symbol, error) {
	symbol, _, ok := c.resolver.Lookup(token.Terminal)
	if !ok {
		return Symbol{}, fmt.Errorf("line %d: %w %q", token.Line, ErrUndefined, token.Terminal)
	}
	return symbol, nil
}

func (c *JackCompiler) writePushSymbol(symbol Symbol) {
	c.writer.WritePush(symbol.Kind.Segment(), symbol.Index)
}

func (c *JackCompiler) writePopSymbol(symbol Symbol) {
	c.writer.WritePop(symbol.Kind.Segment(), symbol.Index)
}
