// Package api serves triangulations of stored point sets over HTTP.
//
// GET /triangulation/{pointSetId} fetches the raw PointSet, decodes it, fans
// it into triangles and returns the encoded Mesh.
package api

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/banshee-data/triangulator/internal/codec"
	"github.com/banshee-data/triangulator/internal/config"
	"github.com/banshee-data/triangulator/internal/geom"
	"github.com/banshee-data/triangulator/internal/httputil"
	"github.com/banshee-data/triangulator/internal/monitoring"
	"github.com/banshee-data/triangulator/internal/pointset"
	"github.com/banshee-data/triangulator/internal/triangulate"
)

// Error messages returned in the "error" field.
const (
	MsgNotFound            = "PointSet not found"
	MsgUpstreamTimeout     = "PointSetManager timeout"
	MsgUpstreamUnreachable = "PointSetManager unreachable"
	MsgUpstreamStatus      = "PointSetManager error"
	MsgUpstreamRequest     = "PointSetManager request failed"
	MsgSourceFailed        = "PointSet lookup failed"
	MsgInvalidPointSet     = "Invalid PointSet binary format"
	MsgTriangulation       = "Triangulation failed"
	MsgTriangleEncoding    = "Triangle encoding failed"
	MsgEncoding            = "Encoding failed"
)

type Server struct {
	source pointset.Source
	cfg    *config.ServiceConfig

	// triangulate is swapped by tests to exercise the internal error path.
	triangulate func(geom.PointSet) []geom.Triangle
}

// NewServer returns a server reading point sets from source. cfg may be nil,
// in which case defaults apply.
func NewServer(cfg *config.ServiceConfig, source pointset.Source) *Server {
	if cfg == nil {
		cfg = config.EmptyServiceConfig()
	}
	return &Server{
		source:      source,
		cfg:         cfg,
		triangulate: triangulate.Fan,
	}
}

// ServeMux returns the routes without middleware.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /triangulation/{pointSetId}", s.handleTriangulation)
	mux.HandleFunc("GET /health", s.handleHealth)
	if s.cfg.GetDebugCharts() {
		mux.HandleFunc("GET /debug/triangulation/{pointSetId}", s.handleDebugChart)
	}
	return mux
}

// Handler returns the routes wrapped in LoggingMiddleware.
func (s *Server) Handler() http.Handler {
	return LoggingMiddleware(s.ServeMux())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) handleTriangulation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("pointSetId")
	log := requestLogger(r.Context(), id)

	points, ok := s.loadPointSet(r.Context(), w, log, id)
	if !ok {
		return
	}

	triangles, err := s.safeTriangulate(points)
	if err != nil {
		log.Error("triangulation failed", zap.Int("points", len(points)), zap.Error(err))
		httputil.InternalServerError(w, MsgTriangulation, err.Error())
		return
	}

	body, err := safeEncodeMesh(triangles, points)
	if err != nil {
		log.Error("mesh encoding failed", zap.Error(err))
		if geom.IsFormatError(err) {
			httputil.BadRequest(w, MsgTriangleEncoding, err.Error())
		} else {
			httputil.InternalServerError(w, MsgEncoding, err.Error())
		}
		return
	}

	log.Debug("triangulated",
		zap.Int("points", len(points)),
		zap.Int("triangles", len(triangles)),
		zap.Int("bytes", len(body)))
	httputil.WriteBinary(w, http.StatusOK, body)
}

// loadPointSet fetches and decodes id, writing the error response itself
// when it fails.
func (s *Server) loadPointSet(ctx context.Context, w http.ResponseWriter, log *zap.Logger, id string) (geom.PointSet, bool) {
	raw, err := s.source.Fetch(ctx, id)
	if err != nil {
		log.Warn("pointset fetch failed", zap.Error(err))
		writeSourceError(w, id, err)
		return nil, false
	}

	points, err := codec.DecodePointSet(raw)
	if err != nil {
		log.Warn("pointset decode failed", zap.Int("bytes", len(raw)), zap.Error(err))
		if geom.IsFormatError(err) {
			httputil.BadRequest(w, MsgInvalidPointSet, err.Error())
		} else {
			httputil.InternalServerError(w, MsgInvalidPointSet, err.Error())
		}
		return nil, false
	}
	return points, true
}

func writeSourceError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, pointset.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, httputil.ErrorBody{
			Error:      MsgNotFound,
			PointSetID: id,
		})
		return
	}

	ue, ok := pointset.AsUpstreamError(err)
	if !ok {
		httputil.InternalServerError(w, MsgSourceFailed, err.Error())
		return
	}

	body := httputil.ErrorBody{Details: err.Error()}
	switch ue.Kind {
	case pointset.KindTimeout:
		body.Error = MsgUpstreamTimeout
	case pointset.KindUnreachable:
		body.Error = MsgUpstreamUnreachable
	case pointset.KindStatus:
		body.Error = MsgUpstreamStatus
		body.StatusCode = ue.StatusCode
	default:
		body.Error = MsgUpstreamRequest
	}
	httputil.WriteError(w, http.StatusBadGateway, body)
}

func (s *Server) safeTriangulate(points geom.PointSet) (triangles []geom.Triangle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = geom.Recovered("triangulate", r)
		}
	}()
	return s.triangulate(points), nil
}

func safeEncodeMesh(triangles []geom.Triangle, points geom.PointSet) (body []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = geom.Recovered("encode mesh", r)
		}
	}()
	return codec.EncodeMesh(triangles, points)
}

func requestLogger(ctx context.Context, id string) *zap.Logger {
	return monitoring.L().With(
		zap.String("requestId", RequestID(ctx)),
		zap.String("pointSetId", id),
	)
}
