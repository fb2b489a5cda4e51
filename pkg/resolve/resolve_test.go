package resolve

import (
	"errors"
	"testing"

	"github.com/ritzau/coupling-analyzer/pkg/model"
)

func TestChainResolve(t *testing.T) {
	tests := []struct {
		name     string
		receiver model.Receiver
		want     string
		wantErr  bool
	}{
		{
			name:     "primary channel",
			receiver: model.Receiver{Type: &model.TypeRef{QualifiedName: "com.example.Y"}},
			want:     "com.example.Y",
		},
		{
			name: "primary wins over fallback",
			receiver: model.Receiver{
				Type:         &model.TypeRef{QualifiedName: "com.example.Y"},
				AccessedType: &model.TypeRef{QualifiedName: "com.example.Z"},
			},
			want: "com.example.Y",
		},
		{
			name: "placeholder falls back to accessed type",
			receiver: model.Receiver{
				Type:         &model.TypeRef{QualifiedName: "void", Synthetic: true},
				AccessedType: &model.TypeRef{QualifiedName: "com.example.Z"},
			},
			want: "com.example.Z",
		},
		{
			name:     "missing primary falls back",
			receiver: model.Receiver{AccessedType: &model.TypeRef{QualifiedName: "com.example.Z"}},
			want:     "com.example.Z",
		},
		{
			name:     "both channels undefined",
			receiver: model.Receiver{},
			wantErr:  true,
		},
		{
			name: "placeholder and empty fallback",
			receiver: model.Receiver{
				Type:         &model.TypeRef{QualifiedName: "void", Synthetic: true},
				AccessedType: &model.TypeRef{},
			},
			wantErr: true,
		},
	}

	chain := DefaultChain()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := chain.Resolve(&model.Invocation{Method: "run", Receiver: tt.receiver})
			if tt.wantErr {
				if !errors.Is(err, ErrUnresolvedReceiver) {
					t.Fatalf("expected ErrUnresolvedReceiver, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestChainResolveNilInvocation(t *testing.T) {
	_, err := DefaultChain().Resolve(nil)
	if !errors.Is(err, ErrUnresolvedReceiver) {
		t.Errorf("expected ErrUnresolvedReceiver, got %v", err)
	}
}

type fixedStrategy string

func (f fixedStrategy) Name() string { return "fixed" }

func (f fixedStrategy) Resolve(*model.Invocation) (string, bool) { return string(f), true }

func TestChainIsExtensible(t *testing.T) {
	chain := append(DefaultChain(), fixedStrategy("java.lang.Object"))

	got, err := chain.Resolve(&model.Invocation{Method: "toString"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "java.lang.Object" {
		t.Errorf("got %q, want java.lang.Object", got)
	}
}
