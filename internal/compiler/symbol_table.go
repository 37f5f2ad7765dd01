package compiler

type Scope string

const (
	SubroutineScope Scope = "subroutine"
	ClassScope      Scope = "class"
)

// SymbolTable maps names to symbols within one scope. Indices are assigned
// per kind, densely and in declaration order.
type SymbolTable struct {
	entries []Symbol
	byName  map[string]int
	counts  map[Kind]int
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		byName: make(map[string]int),
		counts: make(map[Kind]int),
	}
}

// Define records name and assigns it the next index of its kind. Redefining
// a name shadows the earlier entry, which keeps its index.
func (s *SymbolTable) Define(name, variableType string, kind Kind) Symbol {
	symbol := Symbol{
		Name:         name,
		VariableType: variableType,
		Kind:         kind,
		Index:        s.counts[kind],
	}
	s.counts[kind]++
	s.byName[name] = len(s.entries)
	s.entries = append(s.entries, symbol)
	return symbol
}

func (s *SymbolTable) Lookup(name string) (Symbol, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Symbol{}, false
	}
	return s.entries[i], true
}

func (s *SymbolTable) KindOf(name string) (Kind, bool) {
	symbol, ok := s.Lookup(name)
	return symbol.Kind, ok
}

func (s *SymbolTable) TypeOf(name string) (string, bool) {
	symbol, ok := s.Lookup(name)
	return symbol.VariableType, ok
}

func (s *SymbolTable) IndexOf(name string) (int, bool) {
	symbol, ok := s.Lookup(name)
	return symbol.Index, ok
}

func (s *SymbolTable) VarCount(kind Kind) int {
	return s.counts[kind]
}

// Entries returns every definition in declaration order, shadowed ones included.
func (s *SymbolTable) Entries() []Symbol {
	return append([]Symbol(nil), s.entries...)
}

func (s *SymbolTable) Reset() {
	s.entries = nil
	s.byName = make(map[string]int)
	s.counts = make(map[Kind]int)
}

// Resolver looks names up in the subroutine scope first, then the class scope.
type Resolver struct {
	Class      *SymbolTable
	Subroutine *SymbolTable
}

func NewResolver() *Resolver {
	return &Resolver{
		Class:      NewSymbolTable(),
		Subroutine: NewSymbolTable(),
	}
}

func (r *Resolver) Lookup(name string) (Symbol, Scope, bool) {
	if symbol, ok := r.Subroutine.Lookup(name); ok {
		return symbol, SubroutineScope, true
	}
	if symbol, ok := r.Class.Lookup(name); ok {
		return symbol, ClassScope, true
	}
	return Symbol{}, "", false
}
