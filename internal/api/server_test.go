package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/banshee-data/triangulator/internal/config"
	"github.com/banshee-data/triangulator/internal/geom"
	"github.com/banshee-data/triangulator/internal/httputil"
	"github.com/banshee-data/triangulator/internal/monitoring"
	"github.com/banshee-data/triangulator/internal/pointset"
	"github.com/banshee-data/triangulator/internal/testutil"
)

func TestMain(m *testing.M) {
	monitoring.SetLogger(nil)
	monitoring.UseLogger(zap.NewNop())
	os.Exit(m.Run())
}

func setupTestServer(t *testing.T, src pointset.Source) http.Handler {
	t.Helper()
	return NewServer(nil, src).Handler()
}

func do(t *testing.T, h http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := testutil.NewTestRecorder()
	h.ServeHTTP(rec, testutil.NewTestRequest(method, path))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) httputil.ErrorBody {
	t.Helper()
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var body httputil.ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	h := setupTestServer(t, testutil.NewMemorySource())

	rec := do(t, h, http.MethodGet, "/health")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestTriangulation_Success(t *testing.T) {
	src := testutil.NewMemorySource().
		Put("tri", testutil.EncodePointSet(t, testutil.UnitTriangle())).
		Put("square", testutil.EncodePointSet(t, testutil.Square()))
	h := setupTestServer(t, src)

	rec := do(t, h, http.MethodGet, "/triangulation/tri")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, httputil.ContentTypeBinary, rec.Header().Get("Content-Type"))

	mesh := testutil.DecodeMesh(t, rec.Body.Bytes())
	if diff := cmp.Diff(testutil.UnitTriangle(), mesh.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []geom.Triangle{{0, 1, 2}}, mesh.Triangles)

	rec = do(t, h, http.MethodGet, "/triangulation/square")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	mesh = testutil.DecodeMesh(t, rec.Body.Bytes())
	assert.Equal(t, []geom.Triangle{{0, 1, 2}, {0, 2, 3}}, mesh.Triangles)
	assert.Equal(t, geom.MeshSize(4, 2), rec.Body.Len())
}

func TestTriangulation_DegenerateInputs(t *testing.T) {
	collinear := geom.PointSet{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}}
	src := testutil.NewMemorySource().
		Put("empty", testutil.EncodePointSet(t, nil)).
		Put("two", testutil.EncodePointSet(t, geom.PointSet{{X: 1, Y: 2}, {X: 3, Y: 4}})).
		Put("line", testutil.EncodePointSet(t, collinear))
	h := setupTestServer(t, src)

	rec := do(t, h, http.MethodGet, "/triangulation/empty")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 0}, rec.Body.Bytes())

	rec = do(t, h, http.MethodGet, "/triangulation/two")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	mesh := testutil.DecodeMesh(t, rec.Body.Bytes())
	assert.Len(t, mesh.Points, 2)
	assert.Empty(t, mesh.Triangles)

	rec = do(t, h, http.MethodGet, "/triangulation/line")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	mesh = testutil.DecodeMesh(t, rec.Body.Bytes())
	if diff := cmp.Diff(collinear, mesh.Points); diff != "" {
		t.Errorf("points mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, mesh.Triangles)
}

func TestTriangulation_Circle(t *testing.T) {
	points := testutil.Circle(1000, 10)
	src := testutil.NewMemorySource().Put("circle", testutil.EncodePointSet(t, points))
	h := setupTestServer(t, src)

	rec := do(t, h, http.MethodGet, "/triangulation/circle")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	mesh := testutil.DecodeMesh(t, rec.Body.Bytes())
	require.Len(t, mesh.Triangles, 998)
	for i, tri := range mesh.Triangles {
		want := geom.Triangle{0, uint32(i + 1), uint32(i + 2)}
		if tri != want {
			t.Fatalf("triangle %d = %v, want %v", i, tri, want)
		}
	}
}

func TestTriangulation_SourceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
		check      func(t *testing.T, body httputil.ErrorBody)
	}{
		{
			name:       "not found",
			err:        pointset.ErrNotFound,
			wantStatus: http.StatusNotFound,
			wantMsg:    MsgNotFound,
			check: func(t *testing.T, body httputil.ErrorBody) {
				assert.Equal(t, "ps", body.PointSetID)
			},
		},
		{
			name:       "timeout",
			err:        &pointset.UpstreamError{Kind: pointset.KindTimeout, Err: context.DeadlineExceeded},
			wantStatus: http.StatusBadGateway,
			wantMsg:    MsgUpstreamTimeout,
		},
		{
			name:       "unreachable",
			err:        &pointset.UpstreamError{Kind: pointset.KindUnreachable, Err: errors.New("connection refused")},
			wantStatus: http.StatusBadGateway,
			wantMsg:    MsgUpstreamUnreachable,
		},
		{
			name:       "upstream status",
			err:        &pointset.UpstreamError{Kind: pointset.KindStatus, StatusCode: 503},
			wantStatus: http.StatusBadGateway,
			wantMsg:    MsgUpstreamStatus,
			check: func(t *testing.T, body httputil.ErrorBody) {
				assert.Equal(t, 503, body.StatusCode)
			},
		},
		{
			name:       "generic request failure",
			err:        &pointset.UpstreamError{Kind: pointset.KindRequest, Err: errors.New("malformed response")},
			wantStatus: http.StatusBadGateway,
			wantMsg:    MsgUpstreamRequest,
		},
		{
			name:       "local store failure",
			err:        errors.New("database is locked"),
			wantStatus: http.StatusInternalServerError,
			wantMsg:    MsgSourceFailed,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := setupTestServer(t, testutil.NewMemorySource().SetError("ps", tc.err))

			rec := do(t, h, http.MethodGet, "/triangulation/ps")
			testutil.AssertStatusCode(t, rec.Code, tc.wantStatus)
			body := decodeError(t, rec)
			assert.Equal(t, tc.wantMsg, body.Error)
			if tc.check != nil {
				tc.check(t, body)
			}
		})
	}
}

func TestTriangulation_CorruptedPointSet(t *testing.T) {
	src := testutil.NewMemorySource().
		Put("short", []byte{1, 0}).
		Put("mismatch", append([]byte{10, 0, 0, 0}, make([]byte, 16)...))
	h := setupTestServer(t, src)

	for _, id := range []string{"short", "mismatch"} {
		rec := do(t, h, http.MethodGet, "/triangulation/"+id)
		testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)
		body := decodeError(t, rec)
		assert.Equal(t, MsgInvalidPointSet, body.Error)
		assert.NotEmpty(t, body.Details)
	}
}

func TestTriangulation_InternalError(t *testing.T) {
	src := testutil.NewMemorySource().Put("tri", testutil.EncodePointSet(t, testutil.UnitTriangle()))
	s := NewServer(nil, src)
	s.triangulate = func(geom.PointSet) []geom.Triangle { panic("index out of range") }

	rec := do(t, s.Handler(), http.MethodGet, "/triangulation/tri")
	testutil.AssertStatusCode(t, rec.Code, http.StatusInternalServerError)
	body := decodeError(t, rec)
	assert.Equal(t, MsgTriangulation, body.Error)
	assert.Contains(t, body.Details, "index out of range")
}

func TestTriangulation_Routing(t *testing.T) {
	src := testutil.NewMemorySource().Put("tri", testutil.EncodePointSet(t, testutil.UnitTriangle()))
	h := setupTestServer(t, src)

	for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
		rec := do(t, h, method, "/triangulation/tri")
		testutil.AssertStatusCode(t, rec.Code, http.StatusMethodNotAllowed)
	}

	rec := do(t, h, http.MethodGet, "/triangulation")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
	rec = do(t, h, http.MethodGet, "/triangulation/")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	rec = do(t, h, http.MethodGet, "/debug/triangulation/tri")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestTriangulation_EscapedID(t *testing.T) {
	src := testutil.NewMemorySource().Put("a b", testutil.EncodePointSet(t, testutil.UnitTriangle()))
	h := setupTestServer(t, src)

	rec := do(t, h, http.MethodGet, "/triangulation/a%20b")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Equal(t, []string{"a b"}, src.Calls())
}

// The full path through HTTPSource against a fake PointSetManager.
func TestTriangulation_ThroughPointSetManager(t *testing.T) {
	payload := testutil.EncodePointSet(t, testutil.Square())
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/pointsets/sq/binary":
			w.Header().Set("Content-Type", httputil.ContentTypeBinary)
			_, _ = w.Write(payload)
		case "/pointsets/boom/binary":
			w.WriteHeader(http.StatusInternalServerError)
		case "/pointsets/slow/binary":
			select {
			case <-time.After(2 * time.Second):
			case <-r.Context().Done():
			}
		default:
			http.NotFound(w, r)
		}
	}))
	defer upstream.Close()

	url := upstream.URL
	timeout := "100ms"
	cfg := &config.ServiceConfig{PointSetManagerURL: &url, RequestTimeout: &timeout}
	src := pointset.NewHTTPSource(cfg, httputil.NewStandardClient(upstream.Client()))
	h := NewServer(cfg, src).Handler()

	rec := do(t, h, http.MethodGet, "/triangulation/sq")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.Len(t, testutil.DecodeMesh(t, rec.Body.Bytes()).Triangles, 2)

	rec = do(t, h, http.MethodGet, "/triangulation/missing")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)

	rec = do(t, h, http.MethodGet, "/triangulation/boom")
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadGateway)
	body := decodeError(t, rec)
	assert.Equal(t, MsgUpstreamStatus, body.Error)
	assert.Equal(t, http.StatusInternalServerError, body.StatusCode)

	rec = do(t, h, http.MethodGet, "/triangulation/slow")
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadGateway)
	assert.Equal(t, MsgUpstreamTimeout, decodeError(t, rec).Error)
}

func TestDebugChart(t *testing.T) {
	on := true
	cfg := &config.ServiceConfig{DebugCharts: &on}
	src := testutil.NewMemorySource().
		Put("sq", testutil.EncodePointSet(t, testutil.Square())).
		Put("bad", []byte{7})
	h := NewServer(cfg, src).Handler()

	rec := do(t, h, http.MethodGet, "/debug/triangulation/sq")
	testutil.AssertStatusCode(t, rec.Code, http.StatusOK)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))
	assert.Contains(t, rec.Body.String(), "Fan triangulation")

	rec = do(t, h, http.MethodGet, "/debug/triangulation/bad")
	testutil.AssertStatusCode(t, rec.Code, http.StatusBadRequest)

	rec = do(t, h, http.MethodGet, "/debug/triangulation/nope")
	testutil.AssertStatusCode(t, rec.Code, http.StatusNotFound)
}

func TestLoggingMiddleware_RequestID(t *testing.T) {
	prev := monitoring.L()
	defer monitoring.UseLogger(prev)
	core, logs := observer.New(zapcore.InfoLevel)
	monitoring.UseLogger(zap.New(core))

	h := setupTestServer(t, testutil.NewMemorySource())

	rec := do(t, h, http.MethodGet, "/health")
	generated := rec.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)

	req := testutil.NewTestRequest(http.MethodGet, "/triangulation/unknown")
	req.Header.Set(RequestIDHeader, "req-42")
	rec = testutil.NewTestRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get(RequestIDHeader))

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)
	assert.Equal(t, generated, entries[0].ContextMap()["requestId"])
	assert.EqualValues(t, http.StatusOK, entries[0].ContextMap()["status"])
	assert.Equal(t, "req-42", entries[1].ContextMap()["requestId"])
	assert.EqualValues(t, http.StatusNotFound, entries[1].ContextMap()["status"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func BenchmarkTriangulationHandler(b *testing.B) {
	src := testutil.NewMemorySource().Put("circle", testutil.EncodePointSet(b, testutil.Circle(1000, 1)))
	h := NewServer(nil, src).ServeMux()
	req := httptest.NewRequest(http.MethodGet, "/triangulation/circle", nil)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			b.Fatalf("status = %d", rec.Code)
		}
	}
}
