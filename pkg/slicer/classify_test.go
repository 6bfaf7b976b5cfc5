package slicer

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	two := []float64{0, 5, 10}
	four := []float64{0, 2.5, 5, 7.5, 10}

	tests := []struct {
		name string
		ext  Extent
		b    []float64
		want int
	}{
		{"lower slab", Extent{1, 4}, two, 0},
		{"upper slab", Extent{6, 9}, two, 1},
		{"touches shared boundary from below", Extent{0, 5}, two, 0},
		{"touches shared boundary from above", Extent{5, 10}, two, 1},
		{"degenerate at boundary picks lower", Extent{5, 5}, two, 0},
		{"third of four", Extent{5.1, 7.4}, four, 2},
		{"straddler falls back to top slab", Extent{4, 6}, two, 1},
		{"outside below falls back to top slab", Extent{-3, -1}, four, 3},
		{"single slab", Extent{2, 3}, []float64{0, 10}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.ext, tt.b); got != tt.want {
				t.Errorf("Classify(%v, %v) = %d, want %d", tt.ext, tt.b, got, tt.want)
			}
		})
	}
}

func TestClassifyIdempotent(t *testing.T) {
	b, err := Boundaries(Extent{0, 10}, 7)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(b); i++ {
		ext := Extent{b[i-1] + 0.01, b[i] - 0.01}
		first := Classify(ext, b)
		if first != i-1 {
			t.Fatalf("slab %d: Classify = %d", i-1, first)
		}
		for j := 0; j < 3; j++ {
			if got := Classify(ext, b); got != first {
				t.Fatalf("slab %d: run %d returned %d, first run %d", i-1, j, got, first)
			}
		}
	}
}

func TestClassifyTooFewBoundaries(t *testing.T) {
	if got := Classify(Extent{0, 1}, []float64{0}); got != -1 {
		t.Errorf("Classify with one boundary = %d, want -1", got)
	}
	if _, err := ClassifyStrict(Extent{0, 1}, nil); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("ClassifyStrict(nil) err = %v, want ErrInvalidInput", err)
	}
}

func TestClassifyStrict(t *testing.T) {
	b := []float64{0, 5, 10}

	got, err := ClassifyStrict(Extent{6, 9}, b)
	if err != nil || got != 1 {
		t.Errorf("ClassifyStrict(6,9) = %d, %v; want 1, nil", got, err)
	}

	_, err = ClassifyStrict(Extent{4, 6}, b)
	if !errors.Is(err, ErrNoSlab) {
		t.Errorf("straddler err = %v, want ErrNoSlab", err)
	}
}

func TestRoundExtent(t *testing.T) {
	got := RoundExtent(Extent{3.3349, 6.666})
	if got != (Extent{3.33, 6.67}) {
		t.Errorf("RoundExtent = %v, want {3.33 6.67}", got)
	}
	// A fragment cut at a rounded height must land inside its slab.
	b, _ := Boundaries(Extent{0, 10}, 3)
	if slab := Classify(RoundExtent(Extent{3.3300001, 6.6699999}), b); slab != 1 {
		t.Errorf("rounded fragment classified into %d, want 1", slab)
	}
}
