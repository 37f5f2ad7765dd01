package compiler

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

func compileSource(t *testing.T, source string) []string {
	t.Helper()
	var out bytes.Buffer
	if err := Compile(strings.NewReader(source), &out); err != nil {
		t.Fatalf("Compile() returned error: %v", err)
	}
	return lines(out.String())
}

func assertCode(t *testing.T, got, want []string) {
	t.Helper()
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got:\n%s\n\nwant:\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestCompile(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   []string
	}{
		{
			name: "Method parameters start after the receiver",
			source: `class Calc {
				method int add(int x, int y) { return x + y; }
			}`,
			want: []string{
				"function Calc.add 0",
				"push argument 0",
				"pop pointer 0",
				"push argument 1",
				"push argument 2",
				"add",
				"return",
			},
		},
		{
			name: "Array element assignment",
			source: `class Main {
				function void main() {
					var Array a;
					var int i;
					let a[i] = 5;
					return;
				}
			}`,
			want: []string{
				"function Main.main 2",
				"push local 0",
				"push local 1",
				"add",
				"push constant 5",
				"pop temp 0",
				"pop pointer 1",
				"push temp 0",
				"pop that 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Array element read",
			source: `class Main {
				function int get(Array a, int i) { return a[i + 1]; }
			}`,
			want: []string{
				"function Main.get 0",
				"push argument 0",
				"push argument 1",
				"push constant 1",
				"add",
				"add",
				"pop pointer 1",
				"push that 0",
				"return",
			},
		},
		{
			name: "Constructor allocates the fields",
			source: `class Point {
				field int x, y;
				static int count;
				constructor Point new(int ax, int ay) {
					let x = ax;
					let y = ay;
					let count = count + 1;
					return this;
				}
			}`,
			want: []string{
				"function Point.new 0",
				"push constant 2",
				"call Memory.alloc 1",
				"pop pointer 0",
				"push argument 0",
				"pop this 0",
				"push argument 1",
				"pop this 1",
				"push static 0",
				"push constant 1",
				"add",
				"pop static 0",
				"push pointer 0",
				"return",
			},
		},
		{
			name: "Operators evaluate left to right without precedence",
			source: `class Main {
				function int f(int x) { return 1 + 2 * 3 - x / 4; }
			}`,
			want: []string{
				"function Main.f 0",
				"push constant 1",
				"push constant 2",
				"add",
				"push constant 3",
				"call Math.multiply 2",
				"push argument 0",
				"sub",
				"push constant 4",
				"call Math.divide 2",
				"return",
			},
		},
		{
			name: "Unary operators and parentheses",
			source: `class Main {
				function boolean f(int x, boolean b) { return ((1 + x) < -x) | ~b; }
			}`,
			want: []string{
				"function Main.f 0",
				"push constant 1",
				"push argument 0",
				"add",
				"push argument 0",
				"neg",
				"lt",
				"push argument 1",
				"not",
				"or",
				"return",
			},
		},
		{
			name: "Keyword constants",
			source: `class Main {
				function void f() {
					var boolean b;
					var Main m;
					let b = true;
					let b = false & (b = b);
					let m = null;
					return;
				}
			}`,
			want: []string{
				"function Main.f 2",
				"push constant 1",
				"neg",
				"pop local 0",
				"push constant 0",
				"push local 0",
				"push local 0",
				"eq",
				"and",
				"pop local 0",
				"push constant 0",
				"pop local 1",
				"push constant 0",
				"return",
			},
		},
		{
			name: "String constant",
			source: `class Main {
				function void f() { do Output.printString("Hi !"); return; }
			}`,
			want: []string{
				"function Main.f 0",
				"push constant 4",
				"call String.new 1",
				"push constant 72",
				"call String.appendChar 2",
				"push constant 105",
				"call String.appendChar 2",
				"push constant 32",
				"call String.appendChar 2",
				"push constant 33",
				"call String.appendChar 2",
				"call Output.printString 1",
				"pop temp 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Call resolution",
			source: `class Main {
				field Point p;
				method void run() {
					var Point q;
					do draw(1);
					do q.move(2, 3);
					do Output.printInt(4);
					let p = Point.new(5, 6);
					return;
				}
			}`,
			want: []string{
				"function Main.run 1",
				"push argument 0",
				"pop pointer 0",
				"push pointer 0",
				"push constant 1",
				"call Main.draw 2",
				"pop temp 0",
				"push local 0",
				"push constant 2",
				"push constant 3",
				"call Point.move 3",
				"pop temp 0",
				"push constant 4",
				"call Output.printInt 1",
				"pop temp 0",
				"push constant 5",
				"push constant 6",
				"call Point.new 2",
				"pop this 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Call on a field inside an expression",
			source: `class Game {
				field Ball ball;
				method int score() { return ball.x() + size(); }
			}`,
			want: []string{
				"function Game.score 0",
				"push argument 0",
				"pop pointer 0",
				"push this 0",
				"call Ball.x 1",
				"push pointer 0",
				"call Game.size 1",
				"add",
				"return",
			},
		},
		{
			name: "Local shadows field",
			source: `class Main {
				field int x;
				method void f() { var int x; let x = 1; return; }
			}`,
			want: []string{
				"function Main.f 1",
				"push argument 0",
				"pop pointer 0",
				"push constant 1",
				"pop local 0",
				"push constant 0",
				"return",
			},
		},
		{
			name: "Control flow",
			source: `class Main {
				function void main() {
					var int i;
					while (i < 3) { let i = i + 1; }
					if (i) { let i = 0; } else { let i = 1; }
					if (i) { let i = 2; }
					return;
				}
			}`,
			want: []string{
				"function Main.main 1",
				"label WHILE_START_0",
				"push local 0",
				"push constant 3",
				"lt",
				"not",
				"if-goto WHILE_END_0",
				"push local 0",
				"push constant 1",
				"add",
				"pop local 0",
				"goto WHILE_START_0",
				"label WHILE_END_0",
				"push local 0",
				"not",
				"if-goto IF_GOTO_NOT_0",
				"push constant 0",
				"pop local 0",
				"goto IF_GOTO_END_0",
				"label IF_GOTO_NOT_0",
				"push constant 1",
				"pop local 0",
				"label IF_GOTO_END_0",
				"push local 0",
				"not",
				"if-goto IF_GOTO_NOT_1",
				"push constant 2",
				"pop local 0",
				"goto IF_GOTO_END_1",
				"label IF_GOTO_NOT_1",
				"label IF_GOTO_END_1",
				"push constant 0",
				"return",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, compileSource(t, tt.source), tt.want)
		})
	}
}

func TestLabelsAreUniqueAcrossSubroutines(t *testing.T) {
	got := compileSource(t, `class Main {
		function void a() { while (true) { while (false) { } } return; }
		function void b() { while (true) { } if (true) { } return; }
	}`)

	seen := map[string]bool{}
	for _, line := range got {
		if !strings.HasPrefix(line, "label ") {
			continue
		}
		if seen[line] {
			t.Errorf("duplicate %q", line)
		}
		seen[line] = true
	}
	for _, label := range []string{"WHILE_START_0", "WHILE_START_1", "WHILE_START_2", "IF_GOTO_NOT_0"} {
		if !seen["label "+label] {
			t.Errorf("missing label %s", label)
		}
	}
}

func TestSubroutineScopeIsResetPerSubroutine(t *testing.T) {
	got := compileSource(t, `class Main {
		function void a(int x) { var int y, z; return; }
		function void b() { var int w; let w = 1; return; }
	}`)
	want := []string{
		"function Main.a 2",
		"push constant 0",
		"return",
		"function Main.b 1",
		"push constant 1",
		"pop local 0",
		"push constant 0",
		"return",
	}
	assertCode(t, got, want)
}

func TestCommentsDoNotChangeOutput(t *testing.T) {
	plain := `class Main { function int f() { return 1 + 2; } }`
	commented := `/** Main */
class Main { // entry
	function int /* returns */ f() {
		return 1 /* one */ + 2; // sum
	}
}`
	assertCode(t, compileSource(t, commented), compileSource(t, plain))
}

func TestCompileLogs(t *testing.T) {
	var trace bytes.Buffer
	var out bytes.Buffer
	source := `class Main { field int x; function void main() { return; } }`
	if err := Compile(strings.NewReader(source), &out, WithLogger(log.New(&trace, "", 0))); err != nil {
		t.Fatalf("Compile() returned error: %v", err)
	}
	for _, want := range []string{"Compiling class Main", "Registered field int x as 0", "Compiling function Main.main"} {
		if !strings.Contains(trace.String(), want) {
			t.Errorf("trace does not contain %q:\n%s", want, trace.String())
		}
	}
}

func TestCompileSyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected string
		line     int
	}{
		{"Empty input", "", `"class"`, 0},
		{"Missing class name", "class { }", "identifier", 1},
		{"Missing semicolon", "class Main {\n function int main() { return 1 }\n}", `";"`, 2},
		{"Bad type", "class Main { field 3 x; }", "type", 1},
		{"Missing term", "class Main { function int f() { return 1 + ; } }", "term", 1},
		{"Unclosed call", "class Main { function void f() { do g(1; return; } }", `")"`, 1},
		{"Bad statement", "class Main { function void f() { let; } }", "identifier", 1},
		{"Garbage in body", "class Main { function void f() { return; foo } }", `"}"`, 1},
		{"Trailing tokens", "class A { }\nclass B { }", "end of input", 2},
		{"Missing closing brace", "class A {", `"}"`, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Compile(strings.NewReader(tt.source), &bytes.Buffer{})
			var syntaxErr *SyntaxError
			if !errors.As(err, &syntaxErr) {
				t.Fatalf("got %v, want *SyntaxError", err)
			}
			if !errors.Is(err, ErrSyntax) {
				t.Error("error does not match ErrSyntax")
			}
			if syntaxErr.Expected != tt.expected {
				t.Errorf("expected %s, error says %s", tt.expected, syntaxErr.Expected)
			}
			if syntaxErr.Line != tt.line {
				t.Errorf("got line %d, want %d", syntaxErr.Line, tt.line)
			}
		})
	}
}

func TestCompileUndefinedVariable(t *testing.T) {
	sources := []string{
		"class Main { function void f() { let y = 1; return; } }",
		"class Main { function int f() { return y; } }",
		"class Main { function int f() { return y[0]; } }",
	}
	for _, source := range sources {
		err := Compile(strings.NewReader(source), &bytes.Buffer{})
		if !errors.Is(err, ErrUndefined) {
			t.Errorf("Compile(%q) = %v, want ErrUndefined", source, err)
		}
	}
}

func TestCompileLexicalError(t *testing.T) {
	err := Compile(strings.NewReader("class Main { field int $x; }"), &bytes.Buffer{})
	if !errors.Is(err, ErrLexical) {
		t.Errorf("got %v, want ErrLexical", err)
	}
}

func TestCompileWriteError(t *testing.T) {
	err := Compile(strings.NewReader("class Main { function void f() { return; } }"), &failingWriter{})
	if !errors.Is(err, errDiskFull) {
		t.Errorf("got %v, want %v", err, errDiskFull)
	}
}
