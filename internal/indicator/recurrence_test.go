package indicator

import "testing"

func TestRecurrence_RejectsBadAlpha(t *testing.T) {
	for _, alpha := range []float64{0, -0.5, 1.0001, 2} {
		if _, err := NewRecurrence(alpha); err == nil {
			t.Errorf("NewRecurrence(%v) should fail", alpha)
		}
	}
	if _, err := NewRecurrence(1); err != nil {
		t.Errorf("alpha=1 is legal: %v", err)
	}
}

func TestRecurrence_SeedsFromFirstInput(t *testing.T) {
	r, _ := NewRecurrence(0.5)
	if r.Seeded() {
		t.Fatal("should not be seeded before first Push")
	}
	if got := r.Push(100); got != 100 {
		t.Errorf("first Push = %v, want 100", got)
	}
	if !r.Seeded() {
		t.Error("should be seeded after first Push")
	}
}

func TestRecurrence_Smoothing(t *testing.T) {
	// alpha 0.5: 100, then 0.5*102+0.5*100 = 101, then 0.5*101+0.5*101 = 101
	r, _ := NewRecurrence(0.5)
	inputs := []float64{100, 102, 101, 105, 103}
	want := []float64{100, 101, 101, 103, 103}
	for i, v := range inputs {
		assertClose(t, "recurrence", r.Push(v), want[i], 1e-9)
	}
}

func TestRecurrence_AlphaOneIsIdentity(t *testing.T) {
	r, _ := NewRecurrence(1)
	for _, v := range []float64{100, 250.5, 3} {
		if got := r.Push(v); got != v {
			t.Errorf("Push(%v) = %v with alpha=1", v, got)
		}
	}
}
