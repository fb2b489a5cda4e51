package coupling

import (
	"errors"
	"reflect"
	"testing"

	"github.com/ritzau/coupling-analyzer/pkg/model"
	"github.com/ritzau/coupling-analyzer/pkg/resolve"
)

func invoke(receiver string) *model.Invocation {
	return &model.Invocation{
		Method:   "call",
		Receiver: model.Receiver{Type: &model.TypeRef{QualifiedName: receiver}},
	}
}

func method(declaringType string, invocations ...*model.Invocation) *model.Method {
	return &model.Method{Name: "m", DeclaringType: declaringType, Invocations: invocations}
}

func types(names ...string) []*model.Type {
	var ts []*model.Type
	for _, name := range names {
		ts = append(ts, &model.Type{QualifiedName: name})
	}
	return ts
}

func TestBuildDirectedAndFinalized(t *testing.T) {
	methods := []*model.Method{
		method("X", invoke("Y"), invoke("Y")),
		method("Y", invoke("X")),
	}

	m, err := Build(types("X", "Y"), methods, resolve.DefaultChain(), PolicyReject)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	if m.Count("X", "Y") != 2 {
		t.Errorf("Expected cell(X,Y)=2, got %d", m.Count("X", "Y"))
	}
	if m.Count("Y", "X") != 1 {
		t.Errorf("Expected cell(Y,X)=1, got %d", m.Count("Y", "X"))
	}

	table := m.Finalize()
	if table.Coupling("X", "Y") != 3 {
		t.Errorf("Expected coupling(X,Y)=3, got %d", table.Coupling("X", "Y"))
	}
	if table.Coupling("Y", "X") != 3 {
		t.Errorf("Expected coupling(Y,X)=3, got %d", table.Coupling("Y", "X"))
	}

	// Raw directed counts are still available after finalizing
	if m.Count("X", "Y") != 2 || m.Count("Y", "X") != 1 {
		t.Error("Finalize must not alter the directed counts")
	}
}

func TestBuildSelfCouplingNotDoubled(t *testing.T) {
	methods := []*model.Method{
		method("X", invoke("X"), invoke("X")),
	}

	m, err := Build(types("X"), methods, resolve.DefaultChain(), PolicyReject)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}

	if got := m.Finalize().Coupling("X", "X"); got != 2 {
		t.Errorf("Expected coupling(X,X)=2, got %d", got)
	}
}

func TestBuildFallbackReceiver(t *testing.T) {
	methods := []*model.Method{
		method("X", &model.Invocation{
			Method: "chained",
			Receiver: model.Receiver{
				Type:         &model.TypeRef{QualifiedName: "void", Synthetic: true},
				AccessedType: &model.TypeRef{QualifiedName: "Z"},
			},
		}),
	}

	m, err := Build(types("X", "Z"), methods, resolve.DefaultChain(), PolicyReject)
	if err != nil {
		t.Fatalf("Build() unexpected error: %v", err)
	}
	if m.Count("X", "Z") != 1 {
		t.Errorf("Expected cell(X,Z)=1, got %d", m.Count("X", "Z"))
	}
}

func TestBuildUnresolvedReceiverStopsRun(t *testing.T) {
	methods := []*model.Method{
		method("X", invoke("Y"), &model.Invocation{Method: "broken"}),
	}

	m, err := Build(types("X", "Y"), methods, resolve.DefaultChain(), PolicyDrop)
	if !errors.Is(err, resolve.ErrUnresolvedReceiver) {
		t.Fatalf("Expected ErrUnresolvedReceiver, got %v", err)
	}
	if m != nil {
		t.Error("Expected no matrix on failure")
	}
}

func TestBuildOutOfSetPolicies(t *testing.T) {
	methods := []*model.Method{
		method("X", invoke("Y"), invoke("java.lang.String"), invoke("java.lang.String")),
	}

	t.Run("drop", func(t *testing.T) {
		m, err := Build(types("X", "Y"), methods, resolve.DefaultChain(), PolicyDrop)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.Size() != 2 {
			t.Errorf("Expected 2 labels, got %d", m.Size())
		}
		if m.Dropped() != 2 {
			t.Errorf("Expected 2 dropped counts, got %d", m.Dropped())
		}
		if m.Total() != 1 {
			t.Errorf("Expected total 1, got %d", m.Total())
		}
	})

	t.Run("grow", func(t *testing.T) {
		m, err := Build(types("X", "Y"), methods, resolve.DefaultChain(), PolicyGrow)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"X", "Y", "java.lang.String"}
		if !reflect.DeepEqual(m.Labels(), want) {
			t.Errorf("Expected labels %v, got %v", want, m.Labels())
		}
		if m.Count("X", "java.lang.String") != 2 {
			t.Errorf("Expected cell(X,String)=2, got %d", m.Count("X", "java.lang.String"))
		}
		if m.Count("X", "Y") != 1 {
			t.Errorf("Expected existing count kept after growing, got %d", m.Count("X", "Y"))
		}
	})

	t.Run("reject", func(t *testing.T) {
		_, err := Build(types("X", "Y"), methods, resolve.DefaultChain(), PolicyReject)
		if !errors.Is(err, ErrOutOfSetLabel) {
			t.Errorf("Expected ErrOutOfSetLabel, got %v", err)
		}
	})
}

func TestBuildUnknownDeclaringType(t *testing.T) {
	methods := []*model.Method{method("Ghost", invoke("X"))}

	_, err := Build(types("X"), methods, resolve.DefaultChain(), PolicyReject)
	if !errors.Is(err, ErrOutOfSetLabel) {
		t.Errorf("Expected ErrOutOfSetLabel for unknown row, got %v", err)
	}
}

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"drop", PolicyDrop, false},
		{"GROW", PolicyGrow, false},
		{" reject ", PolicyReject, false},
		{"", PolicyDrop, false},
		{"ignore", "", true},
	}

	for _, tt := range tests {
		got, err := ParsePolicy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
