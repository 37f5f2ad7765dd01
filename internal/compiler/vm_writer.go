package compiler

import (
	"errors"
	"fmt"
	"io"
	"strconv"
)

type VMSegmentType string

const (
	InvalidVMSegmentType VMSegmentType = ""
	ConstVMSegment       VMSegmentType = "constant"
	ArgumentVMSegment    VMSegmentType = "argument"
	LocalVMSegment       VMSegmentType = "local"
	StaticVMSegment      VMSegmentType = "static"
	ThisVMSegment        VMSegmentType = "this"
	ThatVMSegment        VMSegmentType = "that"
	PointerVMSegment     VMSegmentType = "pointer"
	TempVMSegment        VMSegmentType = "temp"
)

type VMOperation string

const (
	InvalidVMOperation VMOperation = ""
	AddVMOperation     VMOperation = "add"
	SubVMOperation     VMOperation = "sub"
	NegVMOperation     VMOperation = "neg"
	EqVMOperation      VMOperation = "eq"
	GtVMOperation      VMOperation = "gt"
	LtVMOperation      VMOperation = "lt"
	AndVMOperation     VMOperation = "and"
	OrVMOperation      VMOperation = "or"
	NotVMOperation     VMOperation = "not"
	// Not VM primitives, lowered to runtime calls.
	MulVMOperation VMOperation = "mul"
	DivVMOperation VMOperation = "div"
)

var errPopConstant = errors.New("cannot pop to the constant segment")

// VMWriter renders VM commands to an output stream, one per line. The first
// write error is kept and all later writes are dropped.
type VMWriter struct {
	output io.Writer
	err    error
}

func NewVMWriter(w io.Writer) *VMWriter {
	return &VMWriter{output: w}
}

func (w *VMWriter) Err() error {
	return w.err
}

func (w *VMWriter) writeCommand(command string) {
	if w.err != nil {
		return
	}
	_, w.err = io.WriteString(w.output, command+"\n")
}

func (w *VMWriter) WritePush(segment VMSegmentType, index int) {
	w.writeCommand(fmt.Sprintf("push %s %d", segment, index))
}

func (w *VMWriter) WritePop(segment VMSegmentType, index int) {
	if segment == ConstVMSegment {
		if w.err == nil {
			w.err = errPopConstant
		}
		return
	}
	w.writeCommand(fmt.Sprintf("pop %s %d", segment, index))
}

// WriteStringConstant leaves a new String holding constant on the stack.
// appendChar returns its receiver, so the pointer stays on top throughout.
func (w *VMWriter) WriteStringConstant(constant string) {
	chars := []rune(constant)
	w.WritePush(ConstVMSegment, len(chars))
	w.WriteCall("String.new", 1)
	for _, c := range chars {
		w.WritePush(ConstVMSegment, int(c))
		w.WriteCall("String.appendChar", 2)
	}
}

func (w *VMWriter) WriteArithmetic(operation VMOperation) {
	switch operation {
	case DivVMOperation:
		w.WriteCall("Math.divide", 2)
	case MulVMOperation:
		w.WriteCall("Math.multiply", 2)
	default:
		w.writeCommand(string(operation))
	}
}

func (w *VMWriter) WriteLabel(label string) {
	w.writeCommand("label " + label)
}

func (w *VMWriter) WriteGoto(label string) {
	w.writeCommand("goto " + label)
}

func (w *VMWriter) WriteIf(label string) {
	w.writeCommand("if-goto " + label)
}

func (w *VMWriter) WriteCall(label string, nargs int) {
	w.writeCommand("call " + label + " " + strconv.Itoa(nargs))
}

func (w *VMWriter) WriteFunction(label string, nlocals int) {
	w.writeCommand("function " + label + " " + strconv.Itoa(nlocals))
}

func (w *VMWriter) WriteReturn() {
	w.writeCommand("return")
}
