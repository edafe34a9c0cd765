package geometry

import (
	"image"
	"math"
	"testing"
)

func TestPoint2DDistance(t *testing.T) {
	a := Point2D{X: 0, Y: 0}
	b := Point2D{X: 3, Y: 4}
	if d := a.Distance(b); d != 5 {
		t.Errorf("distance = %v, want 5", d)
	}
	if d := a.Distance(a); d != 0 {
		t.Errorf("self distance = %v, want 0", d)
	}
}

func TestRectIntRoundTrip(t *testing.T) {
	r := RectInt{X: 10, Y: 20, Width: 30, Height: 40}
	got := FromImageRect(r.ToImageRect())
	if got != r {
		t.Errorf("round trip = %+v, want %+v", got, r)
	}
	if r.ToImageRect() != image.Rect(10, 20, 40, 60) {
		t.Errorf("ToImageRect = %v", r.ToImageRect())
	}
}

func TestRectIntArea(t *testing.T) {
	if a := (RectInt{Width: 6, Height: 7}).Area(); a != 42 {
		t.Errorf("area = %d, want 42", a)
	}
	if a := (RectInt{Width: -1, Height: 7}).Area(); a != 0 {
		t.Errorf("degenerate area = %d, want 0", a)
	}
}

func TestRectIntAspectRatio(t *testing.T) {
	if ar := (RectInt{Width: 40, Height: 20}).AspectRatio(); ar != 2 {
		t.Errorf("aspect = %v, want 2", ar)
	}
	if ar := (RectInt{Width: 40, Height: 0}).AspectRatio(); ar != 0 {
		t.Errorf("degenerate aspect = %v, want 0", ar)
	}
}

func TestRectIntCenter(t *testing.T) {
	c := (RectInt{X: 10, Y: 10, Width: 10, Height: 20}).Center()
	if math.Abs(c.X-15) > 1e-12 || math.Abs(c.Y-20) > 1e-12 {
		t.Errorf("center = %+v, want (15, 20)", c)
	}
}

func TestRectIntTouchesBorder(t *testing.T) {
	cases := []struct {
		name   string
		r      RectInt
		want   bool
	}{
		{"interior", RectInt{X: 10, Y: 10, Width: 20, Height: 20}, false},
		{"at left edge", RectInt{X: 0, Y: 10, Width: 20, Height: 20}, true},
		{"within margin of right edge", RectInt{X: 79, Y: 10, Width: 20, Height: 20}, true},
		{"exactly at margin", RectInt{X: 2, Y: 2, Width: 20, Height: 20}, false},
	}
	for _, tc := range cases {
		if got := tc.r.TouchesBorder(100, 100, 2); got != tc.want {
			t.Errorf("%s: TouchesBorder = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestRectIntClamp(t *testing.T) {
	r := RectInt{X: -10, Y: 90, Width: 30, Height: 30}
	got := r.Clamp(100, 100)
	want := RectInt{X: 0, Y: 90, Width: 20, Height: 10}
	if got != want {
		t.Errorf("clamp = %+v, want %+v", got, want)
	}

	outside := RectInt{X: 200, Y: 200, Width: 10, Height: 10}.Clamp(100, 100)
	if outside.Area() != 0 {
		t.Errorf("fully outside clamp has area %d", outside.Area())
	}
}

func TestRectIntOffset(t *testing.T) {
	r := RectInt{X: 5, Y: 6, Width: 7, Height: 8}
	got := r.Offset(10, -3)
	if got.X != 15 || got.Y != 3 || got.Width != 7 || got.Height != 8 {
		t.Errorf("offset = %+v", got)
	}
}
