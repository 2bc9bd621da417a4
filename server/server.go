package server

import (
	"fmt"
	"net/http"

	"auditserve/fingerprint"
	"auditserve/timer"

	"github.com/charmbracelet/log"
)

// Config contains all the necessary information of the file server.
type Config struct {
	port int
	root string
}

func NewConfig(port int, root string) *Config {
	return &Config{
		port: port,
		root: root,
	}
}

func (c *Config) Port() int {
	return c.port
}

func (c *Config) Root() string {
	return c.root
}

// Server serves files from a root directory with cache headers
// injected for performance audits.
type Server struct {
	config *Config
	files  http.Handler
	store  *fingerprint.Store
	logger *log.Logger
}

// New is the constructor of the server. A nil store disables ETags.
func New(config *Config, store *fingerprint.Store, logger *log.Logger) *Server {
	return &Server{
		config: config,
		files:  http.FileServer(http.Dir(config.Root())),
		store:  store,
		logger: logger,
	}
}

func (s *Server) Config() *Config {
	return s.config
}

// Handler builds the full middleware chain over the file responder.
func (s *Server) Handler() http.Handler {
	return timer.MakeRequestTimeTracker(s.CacheHeaders(s.withETag(s.files)), timer.SaveTimeFullTrip)
}

func (s *Server) Addr() string {
	return fmt.Sprintf(":%d", s.config.port)
}
