package api

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

type logTransport struct {
	transport http.RoundTripper
	logger    *zap.Logger
}

func (t *logTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	fields := []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("request_id", req.Header.Get(RequestIDHeader)),
	}

	t.logger.Debug("HTTP outbound request", fields...)

	resp, err := t.transport.RoundTrip(req)
	fields = append(fields, zap.Duration("duration", time.Since(start)))
	if err != nil {
		t.logger.Debug("HTTP outbound request failed", append(fields, zap.Error(err))...)
		return nil, err
	}

	t.logger.Debug("HTTP outbound response", append(fields, zap.Int("status", resp.StatusCode))...)
	return resp, nil
}
