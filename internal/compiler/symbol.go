package compiler

// Kind is the storage kind of a variable.
type Kind string

const (
	StaticKind   Kind = "static"
	FieldKind    Kind = "field"
	ArgumentKind Kind = "argument"
	LocalKind    Kind = "local"
	InvalidKind  Kind = ""
)

// Segment returns the memory segment variables of this kind live in.
func (k Kind) Segment() VMSegmentType {
	switch k {
	case StaticKind:
		return StaticVMSegment
	case FieldKind:
		return ThisVMSegment
	case ArgumentKind:
		return ArgumentVMSegment
	case LocalKind:
		return LocalVMSegment
	}
	return InvalidVMSegmentType
}

type Symbol struct {
	Name         string
	VariableType string
	Kind         Kind
	Index        int
}
