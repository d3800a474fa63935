package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/triangulator/internal/codec"
	"github.com/banshee-data/triangulator/internal/geom"
	"github.com/banshee-data/triangulator/internal/triangulate"
)

func hexagonMesh(t *testing.T) []byte {
	t.Helper()
	points := make(geom.PointSet, 6)
	for i := range points {
		a := 2 * math.Pi * float64(i) / 6
		points[i] = geom.Point{X: math.Cos(a), Y: math.Sin(a)}
	}
	data, err := codec.EncodeMesh(triangulate.Fan(points), points)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	data := hexagonMesh(t)

	for _, name := range []string{"mesh.png", "mesh.svg"} {
		out := filepath.Join(dir, name)
		if err := RenderFile(data, "hexagon", out); err != nil {
			t.Fatalf("RenderFile(%s): %v", name, err)
		}
		info, err := os.Stat(out)
		if err != nil {
			t.Fatalf("stat %s: %v", name, err)
		}
		if info.Size() == 0 {
			t.Errorf("%s is empty", name)
		}
	}
}

func TestRenderFile_Errors(t *testing.T) {
	dir := t.TempDir()
	if err := RenderFile(hexagonMesh(t), "x", filepath.Join(dir, "mesh.gif")); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if err := RenderFile([]byte{1, 2}, "x", filepath.Join(dir, "mesh.png")); err == nil {
		t.Error("expected error for corrupt mesh")
	}
}

func TestNewMeshPlot_SkipsOutOfRangeTriangles(t *testing.T) {
	mesh := geom.Mesh{
		Points:    geom.PointSet{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 0, Y: 1}},
		Triangles: []geom.Triangle{{0, 1, 2}, {0, 1, 9}},
	}
	p, err := NewMeshPlot(mesh, "partial")
	if err != nil {
		t.Fatalf("NewMeshPlot: %v", err)
	}
	if p == nil {
		t.Fatal("nil plot")
	}
}

func TestNewMeshPlot_Empty(t *testing.T) {
	if _, err := NewMeshPlot(geom.Mesh{}, "empty"); err != nil {
		t.Fatalf("NewMeshPlot: %v", err)
	}
}
