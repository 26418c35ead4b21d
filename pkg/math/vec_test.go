package math

import (
	"testing"
)

func TestVec3Cross(t *testing.T) {
	x := Vec3{1, 0, 0}
	y := Vec3{0, 1, 0}
	got := x.Cross(y)
	want := Vec3{0, 0, 1}
	if got != want {
		t.Errorf("Vec3.Cross() = %v, want %v", got, want)
	}
}

func TestVec3Length(t *testing.T) {
	v := Vec3{2, 3, 6}
	if got := v.Length(); got != 7 {
		t.Errorf("Vec3.Length() = %v, want 7", got)
	}
}

func TestVec3NormalizeZero(t *testing.T) {
	if got := (Vec3{}).Normalize(); got != (Vec3{}) {
		t.Errorf("zero Normalize() = %v, want zero", got)
	}
}

func TestVec3Lerp(t *testing.T) {
	a := Vec3{0, 0, 0}
	b := Vec3{10, 20, 30}

	tests := []struct {
		t    float32
		want Vec3
	}{
		{0, a},
		{1, b},
		{0.5, Vec3{5, 10, 15}},
	}
	for _, tt := range tests {
		if got := a.Lerp(b, tt.t); got != tt.want {
			t.Errorf("Lerp(%v) = %v, want %v", tt.t, got, tt.want)
		}
	}
}

func TestVec3Midpoint(t *testing.T) {
	got := Vec3{1, 2, 3}.Midpoint(Vec3{3, 4, 5})
	want := Vec3{2, 3, 4}
	if got != want {
		t.Errorf("Midpoint() = %v, want %v", got, want)
	}
}

func TestTriangleNormal(t *testing.T) {
	n := TriangleNormal(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{0, 1, 0})
	if n != (Vec3{0, 0, 1}) {
		t.Errorf("TriangleNormal() = %v, want (0,0,1)", n)
	}

	// Collinear points have no normal
	n = TriangleNormal(Vec3{0, 0, 0}, Vec3{1, 0, 0}, Vec3{2, 0, 0})
	if !n.IsZero() {
		t.Errorf("TriangleNormal(collinear) = %v, want zero", n)
	}
}

func TestBounds(t *testing.T) {
	lo, hi := Bounds([]Vec3{{1, -2, 3}, {-1, 4, 0}, {0, 0, 5}})
	if lo != (Vec3{-1, -2, 0}) {
		t.Errorf("Bounds() lo = %v", lo)
	}
	if hi != (Vec3{1, 4, 5}) {
		t.Errorf("Bounds() hi = %v", hi)
	}

	lo, hi = Bounds(nil)
	if !lo.IsZero() || !hi.IsZero() {
		t.Errorf("Bounds(nil) = %v, %v, want zero", lo, hi)
	}
}
