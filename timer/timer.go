package timer

import (
	"net/http"
	"os"
	"time"

	"auditserve/metrics"

	"github.com/charmbracelet/log"
)

var logger = log.NewWithOptions(os.Stderr, log.Options{
	ReportTimestamp: true,
})

func LoggerConfig(prefix string, verbose bool) {
	logger.SetPrefix(prefix)
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
}

// MakeRequestTimeTracker wraps a handler and hands the elapsed wall time of
// every request to saver once the response is written.
func MakeRequestTimeTracker(next http.Handler, saver func(t time.Duration)) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, req *http.Request) {
		start := time.Now()
		next.ServeHTTP(rw, req)
		saver(time.Since(start))
	})
}

func SaveTimeFullTrip(fullTime time.Duration) {
	metrics.ObserveDuration(fullTime)
	logger.Debugf("Full round trip time: %v", fullTime)
}
