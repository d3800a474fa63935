package main

import (
	"fmt"
	"image/color"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/triangulator/internal/codec"
	"github.com/banshee-data/triangulator/internal/geom"
)

var (
	edgeColor   = color.RGBA{R: 49, G: 104, B: 142, A: 255}
	vertexColor = color.RGBA{R: 253, G: 231, B: 37, A: 255}
)

// RenderFile decodes a Mesh payload and writes it to out. The extension of
// out selects the format.
func RenderFile(data []byte, title, out string) error {
	switch ext := strings.ToLower(filepath.Ext(out)); ext {
	case ".png", ".svg":
	default:
		return fmt.Errorf("unsupported output format %q (want .png or .svg)", ext)
	}

	mesh, err := codec.DecodeMesh(data)
	if err != nil {
		return err
	}
	p, err := NewMeshPlot(mesh, title)
	if err != nil {
		return err
	}
	return p.Save(8*vg.Inch, 8*vg.Inch, out)
}

// NewMeshPlot draws triangle outlines and vertices. Triangles with indices
// outside the point set are skipped.
func NewMeshPlot(mesh geom.Mesh, title string) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s (%d points, %d triangles)", title, len(mesh.Points), len(mesh.Triangles))
	p.X.Label.Text = "x"
	p.Y.Label.Text = "y"
	p.Add(plotter.NewGrid())

	n := uint32(len(mesh.Points))
	for _, t := range mesh.Triangles {
		if t[0] >= n || t[1] >= n || t[2] >= n {
			continue
		}
		loop := make(plotter.XYs, 0, 4)
		for _, idx := range []uint32{t[0], t[1], t[2], t[0]} {
			pt := mesh.Points[idx]
			loop = append(loop, plotter.XY{X: pt.X, Y: pt.Y})
		}
		edges, err := plotter.NewLine(loop)
		if err != nil {
			return nil, fmt.Errorf("triangle %v: %w", t, err)
		}
		edges.Width = vg.Points(1)
		edges.Color = edgeColor
		p.Add(edges)
	}

	if len(mesh.Points) > 0 {
		pts := make(plotter.XYs, len(mesh.Points))
		for i, pt := range mesh.Points {
			pts[i] = plotter.XY{X: pt.X, Y: pt.Y}
		}
		vertices, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("vertices: %w", err)
		}
		vertices.GlyphStyle.Radius = vg.Points(2.5)
		vertices.GlyphStyle.Color = vertexColor
		p.Add(vertices)
	}
	return p, nil
}
