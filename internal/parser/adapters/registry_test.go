package adapters

import (
	"context"
	"testing"

	"github.com/MinorTermite/prizmbet-v2/internal/pkg/models"
)

type stubAdapter struct{ name string }

func (s *stubAdapter) Name() string { return s.name }
func (s *stubAdapter) Close() error { return nil }

func (s *stubAdapter) FetchAndParse(context.Context) ([]models.Match, error) {
	return nil, nil
}

func TestRegisterAndBuild(t *testing.T) {
	Register("stub-source", func(Deps) Adapter { return &stubAdapter{name: "stub-source"} })

	built, err := Build([]string{"STUB-SOURCE"}, Deps{})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(built) != 1 || built[0].Name() != "stub-source" {
		t.Fatalf("unexpected build result: %v", built)
	}
}

func TestBuildUnknownName(t *testing.T) {
	if _, err := Build([]string{"no-such-source"}, Deps{}); err == nil {
		t.Fatal("expected error for unknown adapter name")
	}
}

func TestRegisterDuplicatePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate registration")
		}
	}()
	Register("dup-source", func(Deps) Adapter { return &stubAdapter{} })
	Register("dup-source", func(Deps) Adapter { return &stubAdapter{} })
}
