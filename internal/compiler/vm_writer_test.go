package compiler

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func lines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

func TestVMWriterCommands(t *testing.T) {
	var out bytes.Buffer
	w := NewVMWriter(&out)

	w.WriteFunction("Main.main", 2)
	w.WritePush(ConstVMSegment, 7)
	w.WritePop(LocalVMSegment, 1)
	w.WriteArithmetic(AddVMOperation)
	w.WriteArithmetic(MulVMOperation)
	w.WriteArithmetic(DivVMOperation)
	w.WriteLabel("L")
	w.WriteIf("L")
	w.WriteGoto("L")
	w.WriteCall("Output.printInt", 1)
	w.WriteReturn()

	want := []string{
		"function Main.main 2",
		"push constant 7",
		"pop local 1",
		"add",
		"call Math.multiply 2",
		"call Math.divide 2",
		"label L",
		"if-goto L",
		"goto L",
		"call Output.printInt 1",
		"return",
	}
	got := lines(out.String())
	if strings.Join(got, "\n") != strings.Join(want, "\n") {
		t.Errorf("got\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
	if w.Err() != nil {
		t.Errorf("Err() = %v", w.Err())
	}
}

func TestWriteStringConstant(t *testing.T) {
	var out bytes.Buffer
	w := NewVMWriter(&out)
	w.WriteStringConstant("a, b!")

	got := lines(out.String())
	if got[0] != "push constant 5" || got[1] != "call String.new 1" {
		t.Fatalf("unexpected allocation %q", got[:2])
	}

	appends := 0
	var chars []string
	for i, line := range got {
		if line == "call String.appendChar 2" {
			appends++
			chars = append(chars, got[i-1])
		}
	}
	if appends != 5 {
		t.Errorf("got %d appendChar calls, want 5", appends)
	}
	want := []string{"push constant 97", "push constant 44", "push constant 32", "push constant 98", "push constant 33"}
	if strings.Join(chars, ",") != strings.Join(want, ",") {
		t.Errorf("got chars %q, want %q", chars, want)
	}
}

func TestPopConstantIsRejected(t *testing.T) {
	var out bytes.Buffer
	w := NewVMWriter(&out)
	w.WritePop(ConstVMSegment, 0)
	w.WriteReturn()

	if w.Err() == nil {
		t.Fatal("Err() = nil after pop constant")
	}
	if out.Len() != 0 {
		t.Errorf("wrote %q after an error", out.String())
	}
}

type failingWriter struct {
	writes int
}

var errDiskFull = errors.New("disk full")

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errDiskFull
}

func TestVMWriterKeepsFirstError(t *testing.T) {
	output := &failingWriter{}
	w := NewVMWriter(output)
	w.WriteReturn()
	w.WriteReturn()

	if !errors.Is(w.Err(), errDiskFull) {
		t.Errorf("Err() = %v, want %v", w.Err(), errDiskFull)
	}
	if output.writes != 1 {
		t.Errorf("got %d writes, want 1", output.writes)
	}
}
