// Package resolve determines the static receiver type of an invocation.
package resolve

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ritzau/coupling-analyzer/pkg/model"
)

// ErrUnresolvedReceiver is returned when no strategy in a chain yields a type.
// It points at a defect in the source model and must not be skipped.
var ErrUnresolvedReceiver = errors.New("unresolved receiver")

// Strategy is one way of resolving the receiver type of an invocation
type Strategy interface {
	// Name identifies the strategy in error messages and logs
	Name() string

	// Resolve returns the qualified receiver type name, or false if this
	// strategy has no usable answer.
	Resolve(inv *model.Invocation) (string, bool)
}

// StaticType resolves through the primary type channel
type StaticType struct{}

func (StaticType) Name() string { return "type" }

func (StaticType) Resolve(inv *model.Invocation) (string, bool) {
	if !inv.Receiver.Type.Usable() {
		return "", false
	}
	return inv.Receiver.Type.QualifiedName, true
}

// AccessedType resolves through the accessed type channel
type AccessedType struct{}

func (AccessedType) Name() string { return "accessed-type" }

func (AccessedType) Resolve(inv *model.Invocation) (string, bool) {
	if !inv.Receiver.AccessedType.Usable() {
		return "", false
	}
	return inv.Receiver.AccessedType.QualifiedName, true
}

// Chain tries its strategies in order and returns the first success
type Chain []Strategy

// DefaultChain is the primary type channel followed by the accessed type fallback
func DefaultChain() Chain {
	return Chain{StaticType{}, AccessedType{}}
}

// Resolve returns the receiver type of inv or an error wrapping ErrUnresolvedReceiver
func (c Chain) Resolve(inv *model.Invocation) (string, error) {
	if inv == nil {
		return "", fmt.Errorf("%w: nil invocation", ErrUnresolvedReceiver)
	}
	for _, s := range c {
		if name, ok := s.Resolve(inv); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("%w: invocation of %q (tried %s)", ErrUnresolvedReceiver, inv.Method, c.names())
}

func (c Chain) names() string {
	names := make([]string, 0, len(c))
	for _, s := range c {
		names = append(names, s.Name())
	}
	return strings.Join(names, ", ")
}
