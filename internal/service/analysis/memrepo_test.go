package analysis

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/park285/chess-humanmoves/internal/domain"
)

func TestMemoryRepositoryOrderAndCapacity(t *testing.T) {
	repo := NewMemoryRepository(3)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		rec := &domain.AnalysisRecord{ID: fmt.Sprintf("r%d", i), CreatedAt: base.Add(time.Duration(i) * time.Second)}
		if err := repo.InsertAnalysis(ctx, rec); err != nil {
			t.Fatalf("InsertAnalysis: %v", err)
		}
	}
	got, err := repo.RecentAnalyses(ctx, 10)
	if err != nil {
		t.Fatalf("RecentAnalyses: %v", err)
	}
	ids := make([]string, 0, len(got))
	for _, r := range got {
		ids = append(ids, r.ID)
	}
	if fmt.Sprint(ids) != "[r4 r3 r2]" {
		t.Fatalf("ids = %v, want [r4 r3 r2]", ids)
	}

	limited, _ := repo.RecentAnalyses(ctx, 1)
	if len(limited) != 1 || limited[0].ID != "r4" {
		t.Fatalf("limit not applied: %v", limited)
	}
}

func TestMemoryRepositoryTiesAndDuplicates(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	_ = repo.InsertAnalysis(ctx, &domain.AnalysisRecord{ID: "a", CreatedAt: at})
	_ = repo.InsertAnalysis(ctx, &domain.AnalysisRecord{ID: "b", CreatedAt: at})
	if err := repo.InsertAnalysis(ctx, &domain.AnalysisRecord{ID: "a", CreatedAt: at}); !errors.Is(err, ErrDuplicateAnalysis) {
		t.Fatalf("error = %v, want ErrDuplicateAnalysis", err)
	}
	got, _ := repo.RecentAnalyses(ctx, 0)
	if len(got) != 2 || got[0].ID != "b" {
		t.Fatalf("later insert should come first on a tie: %+v", got)
	}
}

func TestMemoryRepositoryStoresClones(t *testing.T) {
	repo := NewMemoryRepository(0)
	ctx := context.Background()
	rec := &domain.AnalysisRecord{ID: "a", Engine: "Stockfish", Payload: []byte(`{"id":"a"}`)}
	if err := repo.InsertAnalysis(ctx, rec); err != nil {
		t.Fatalf("InsertAnalysis: %v", err)
	}
	rec.Engine = "changed"
	rec.Payload[2] = 'X'

	got, _ := repo.RecentAnalyses(ctx, 1)
	if got[0].Engine != "Stockfish" || string(got[0].Payload) != `{"id":"a"}` {
		t.Fatalf("stored record follows caller edits: %+v", got[0])
	}
	got[0].Engine = "edited"
	again, _ := repo.RecentAnalyses(ctx, 1)
	if again[0].Engine != "Stockfish" {
		t.Fatalf("returned record aliases storage")
	}
}
