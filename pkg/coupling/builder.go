package coupling

import (
	"fmt"
	"strings"

	"github.com/ritzau/coupling-analyzer/pkg/logging"
	"github.com/ritzau/coupling-analyzer/pkg/model"
	"github.com/ritzau/coupling-analyzer/pkg/resolve"
)

// Policy decides what happens to a count whose type is outside the label set
type Policy string

const (
	PolicyDrop   Policy = "drop"   // Skip the count (tallied in Matrix.Dropped)
	PolicyGrow   Policy = "grow"   // Append the type to the label set
	PolicyReject Policy = "reject" // Fail the run with ErrOutOfSetLabel
)

// ParsePolicy parses a policy name, case-insensitively
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case PolicyDrop, PolicyGrow, PolicyReject:
		return p, nil
	case "":
		return PolicyDrop, nil
	default:
		return "", fmt.Errorf("unknown out-of-set policy %q (want drop, grow or reject)", s)
	}
}

// Build counts, for every invocation in every method, one directed coupling
// from the method's declaring type to the resolved receiver type. The types
// define the initial label set, in order.
func Build(types []*model.Type, methods []*model.Method, chain resolve.Chain, policy Policy) (*Matrix, error) {
	logger := logging.New("coupling")

	labels := make([]string, 0, len(types))
	for _, t := range types {
		labels = append(labels, t.QualifiedName)
	}
	m := NewMatrix(labels)

	for _, method := range methods {
		logger.Debug("method", "signature", signature(method), "type", method.DeclaringType)

		for _, inv := range method.Invocations {
			invoked, err := chain.Resolve(inv)
			if err != nil {
				return nil, fmt.Errorf("coupling of %s: %w", signature(method), err)
			}
			logger.Debug("invocation", "receiver", invoked, "method", inv.Method)

			if err := m.count(method.DeclaringType, invoked, policy); err != nil {
				return nil, fmt.Errorf("coupling of %s: %w", signature(method), err)
			}
		}
	}

	if m.Dropped() > 0 {
		logger.Debug("dropped out-of-set counts", "count", m.Dropped())
	}
	return m, nil
}

// count applies the out-of-set policy and increments (row, col)
func (m *Matrix) count(row, col string, policy Policy) error {
	for _, label := range []string{row, col} {
		if m.Has(label) {
			continue
		}
		switch policy {
		case PolicyGrow:
			m.AddLabel(label)
		case PolicyReject:
			return fmt.Errorf("%w: %q", ErrOutOfSetLabel, label)
		default:
			m.drop()
			return nil
		}
	}
	return m.Increment(row, col)
}

func signature(m *model.Method) string {
	if m.Signature != "" {
		return m.DeclaringType + "#" + m.Signature
	}
	return m.DeclaringType + "#" + m.Name
}
