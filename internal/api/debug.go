package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.uber.org/zap"

	"github.com/banshee-data/triangulator/internal/geom"
	"github.com/banshee-data/triangulator/internal/httputil"
)

// maxChartTriangles caps the edge series drawn; past that only vertices are
// plotted.
const maxChartTriangles = 2000

const echartsAssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// handleDebugChart renders the fan triangulation of a point set as an HTML
// scatter plot with triangle outlines.
func (s *Server) handleDebugChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("pointSetId")
	log := requestLogger(r.Context(), id)

	points, ok := s.loadPointSet(r.Context(), w, log, id)
	if !ok {
		return
	}
	triangles, err := s.safeTriangulate(points)
	if err != nil {
		log.Error("triangulation failed", zap.Error(err))
		httputil.InternalServerError(w, MsgTriangulation, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := renderMeshChart(&buf, id, points, triangles); err != nil {
		httputil.InternalServerError(w, "failed to render chart", err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

func renderMeshChart(w io.Writer, id string, points geom.PointSet, triangles []geom.Triangle) error {
	vertices := make([]opts.ScatterData, 0, len(points))
	for i, p := range points {
		vertices = append(vertices, opts.ScatterData{Name: fmt.Sprintf("p%d", i), Value: []interface{}{p.X, p.Y}})
	}

	scatter := charts.NewScatter()
	scatter.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Triangulation " + id, Width: "900px", Height: "900px", AssetsHost: echartsAssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: "Fan triangulation", Subtitle: fmt.Sprintf("pointSet=%s points=%d triangles=%d", id, len(points), len(triangles))}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Name: "x", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Type: "value", Name: "y", NameLocation: "middle", NameGap: 30}),
	)
	scatter.AddSeries("vertices", vertices, charts.WithScatterChartOpts(opts.ScatterChart{SymbolSize: 6}))

	if len(triangles) <= maxChartTriangles {
		edges := charts.NewLine()
		for _, t := range triangles {
			loop := make([]opts.LineData, 0, 4)
			for _, idx := range []uint32{t[0], t[1], t[2], t[0]} {
				if int(idx) >= len(points) {
					loop = nil
					break
				}
				p := points[idx]
				loop = append(loop, opts.LineData{Value: []interface{}{p.X, p.Y}})
			}
			if loop != nil {
				edges.AddSeries("edges", loop, charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}))
			}
		}
		scatter.Overlap(edges)
	}

	return scatter.Render(w)
}
