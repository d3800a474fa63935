package pointset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/banshee-data/triangulator/internal/config"
	"github.com/banshee-data/triangulator/internal/httputil"
	"github.com/banshee-data/triangulator/internal/monitoring"
)

// MaxPayloadSize bounds the body accepted from the point set manager.
const MaxPayloadSize = 64 << 20

// HTTPSource fetches point sets from the PointSetManager service at
// {base}/pointsets/{id}/binary.
type HTTPSource struct {
	baseURL string
	timeout time.Duration
	client  httputil.HTTPClient
}

// NewHTTPSource builds a source from cfg. A nil client uses
// http.DefaultClient; the timeout is applied per request through the context.
func NewHTTPSource(cfg *config.ServiceConfig, client httputil.HTTPClient) *HTTPSource {
	if client == nil {
		client = httputil.NewStandardClient(nil)
	}
	return &HTTPSource{
		baseURL: cfg.GetPointSetManagerURL(),
		timeout: cfg.GetRequestTimeout(),
		client:  client,
	}
}

// URL returns the fetch URL for id.
func (s *HTTPSource) URL(id string) string {
	return s.baseURL + "/pointsets/" + url.PathEscape(id) + "/binary"
}

// Fetch implements Source.
func (s *HTTPSource) Fetch(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL(id), nil)
	if err != nil {
		return nil, &UpstreamError{Kind: KindRequest, Err: err}
	}
	req.Header.Set("Accept", httputil.ContentTypeBinary)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		kind := classify(ctx, err)
		monitoring.L().Warn("pointset fetch failed",
			zap.String("pointSetId", id),
			zap.String("kind", string(kind)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return nil, &UpstreamError{Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return nil, &UpstreamError{Kind: KindStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxPayloadSize+1))
	if err != nil {
		return nil, &UpstreamError{Kind: classify(ctx, err), Err: err}
	}
	if len(body) > MaxPayloadSize {
		return nil, &UpstreamError{Kind: KindRequest, Err: fmt.Errorf("payload exceeds %d bytes", MaxPayloadSize)}
	}

	monitoring.L().Debug("fetched pointset",
		zap.String("pointSetId", id),
		zap.Int("bytes", len(body)),
		zap.Duration("elapsed", time.Since(start)))
	return body, nil
}

// classify maps a transport error onto a FailureKind.
func classify(ctx context.Context, err error) FailureKind {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) ||
		errors.Is(err, os.ErrDeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindUnreachable
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindUnreachable
	}
	return KindRequest
}
