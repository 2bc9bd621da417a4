package server

import (
	"net/http"

	"auditserve/metrics"
	"auditserve/policy"
)

// CacheHeaders injects the cache policy for the requested path before
// the file responder writes anything. The headers depend only on the
// path, so misses get the same policy as hits.
func (s *Server) CacheHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		metrics.IncRequestsNow()
		defer metrics.DecRequestsNow()

		p := policy.ForPath(req.URL.Path)
		if p.Cacheable() {
			rw.Header().Set("Cache-Control", p.CacheControl)
			rw.Header().Set("Vary", p.Vary)
		}
		rw.Header().Set("Access-Control-Allow-Origin", policy.AllowAnyOrigin)

		metrics.ObserveRequest(p.Class())
		s.logger.Debug("request", "method", req.Method, "path", req.URL.Path, "policy", p.Class())

		next.ServeHTTP(rw, req)
	})
}

// withETag stamps the stored fingerprint of the file onto the response.
// The file responder then answers If-None-Match itself.
func (s *Server) withETag(next http.Handler) http.Handler {
	if s.store == nil {
		return next
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		tag, err := s.store.Tag(req.URL.Path)
		if err != nil {
			s.logger.Error("Fingerprint lookup failed", "path", req.URL.Path, "err", err)
		} else if tag != "" {
			rw.Header().Set("ETag", tag)
		}

		next.ServeHTTP(rw, req)
	})
}
