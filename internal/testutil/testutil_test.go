package testutil

import (
	"context"
	"errors"
	"math"
	"net/http"
	"testing"

	"github.com/banshee-data/triangulator/internal/pointset"
)

func TestAssertHelpers(t *testing.T) {
	t.Parallel()

	AssertStatusCode(t, http.StatusOK, http.StatusOK)
	AssertNoError(t, nil)
	AssertError(t, errors.New("test error"))
}

func TestNewTestRequest(t *testing.T) {
	t.Parallel()

	req := NewTestRequest(http.MethodGet, "/triangulation/abc")
	if req.Method != http.MethodGet {
		t.Errorf("method = %s, want GET", req.Method)
	}
	if req.URL.Path != "/triangulation/abc" {
		t.Errorf("path = %s, want /triangulation/abc", req.URL.Path)
	}
	if rec := NewTestRecorder(); rec == nil {
		t.Fatal("recorder is nil")
	}
}

func TestCircle(t *testing.T) {
	t.Parallel()

	points := Circle(8, 2)
	if len(points) != 8 {
		t.Fatalf("len = %d, want 8", len(points))
	}
	for i, p := range points {
		if r := math.Hypot(p.X, p.Y); math.Abs(r-2) > 1e-9 {
			t.Errorf("point %d radius = %v, want 2", i, r)
		}
	}
}

func TestEncodeDecodeFixtures(t *testing.T) {
	t.Parallel()

	data := EncodePointSet(t, UnitTriangle())
	if len(data) != 4+3*16 {
		t.Errorf("encoded length = %d, want 52", len(data))
	}

	mesh := DecodeMesh(t, append(EncodePointSet(t, Square()), 0, 0, 0, 0))
	if len(mesh.Points) != 4 || len(mesh.Triangles) != 0 {
		t.Errorf("mesh = %d points, %d triangles", len(mesh.Points), len(mesh.Triangles))
	}
}

func TestMemorySource(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	src := NewMemorySource().Put("a", []byte{0, 0, 0, 0}).SetError("b", boom)
	ctx := context.Background()

	raw, err := src.Fetch(ctx, "a")
	AssertNoError(t, err)
	if len(raw) != 4 {
		t.Errorf("raw = %v", raw)
	}
	if _, err := src.Fetch(ctx, "b"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
	if _, err := src.Fetch(ctx, "c"); !errors.Is(err, pointset.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if got := src.Calls(); len(got) != 3 || got[2] != "c" {
		t.Errorf("calls = %v", got)
	}
}
