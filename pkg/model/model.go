package model

// TypeRef is a reference to a declared or external type as reported by the
// source model provider.
type TypeRef struct {
	QualifiedName string `json:"name" yaml:"name"`                               // e.g., "com.example.Order"
	Synthetic     bool   `json:"synthetic,omitempty" yaml:"synthetic,omitempty"` // placeholder, not a real type
}

// Usable reports whether the reference names a real type.
func (r *TypeRef) Usable() bool {
	return r != nil && !r.Synthetic && r.QualifiedName != ""
}

// Receiver holds the resolution channels for the target of an invocation.
// Type is the primary channel; AccessedType is consulted when the primary
// channel yields a placeholder (chained expressions and similar).
type Receiver struct {
	Type         *TypeRef `json:"type,omitempty" yaml:"type,omitempty"`
	AccessedType *TypeRef `json:"accessedType,omitempty" yaml:"accessedType,omitempty"`
}

// Invocation is a single call site inside a method body
type Invocation struct {
	Method   string   `json:"method,omitempty" yaml:"method,omitempty"` // Invoked method name
	Receiver Receiver `json:"receiver" yaml:"receiver"`
	Line     int      `json:"line,omitempty" yaml:"line,omitempty"`
}

// Method is a method declared by a type of the analyzed project
type Method struct {
	Name          string        `json:"name" yaml:"name"`
	Signature     string        `json:"signature,omitempty" yaml:"signature,omitempty"`
	DeclaringType string        `json:"declaringType,omitempty" yaml:"declaringType,omitempty"` // Qualified name of the owner
	Invocations   []*Invocation `json:"invocations,omitempty" yaml:"invocations,omitempty"`
}

// Type is a type declared in the analyzed project
type Type struct {
	QualifiedName string    `json:"name" yaml:"name"`
	Methods       []*Method `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// Project is the complete pre-parsed program model
type Project struct {
	Name  string  `json:"name,omitempty" yaml:"name,omitempty"`
	Types []*Type `json:"types" yaml:"types"`
}

// Methods returns every method of every type, in type order then declaration order
func (p *Project) Methods() []*Method {
	var methods []*Method
	for _, t := range p.Types {
		if t != nil {
			methods = append(methods, t.Methods...)
		}
	}
	return methods
}

// TypeNames returns the qualified names of all types in declaration order
func (p *Project) TypeNames() []string {
	names := make([]string, 0, len(p.Types))
	for _, t := range p.Types {
		if t != nil {
			names = append(names, t.QualifiedName)
		}
	}
	return names
}

// InvocationCount returns the total number of call sites in the project
func (p *Project) InvocationCount() int {
	count := 0
	for _, m := range p.Methods() {
		if m != nil {
			count += len(m.Invocations)
		}
	}
	return count
}
