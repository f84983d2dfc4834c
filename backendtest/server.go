// Package backendtest runs an in-process transfer service that speaks the same HTTP contract
// as the real backend: GET /, POST /upload, GET /download/{port}. Every request is counted per
// endpoint so tests can assert which calls were (or were not) made.
package backendtest

import (
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strconv"
	"sync"
	"time"

	ttlworker "github.com/FloatTech/ttl"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	EndpointRoot     = "/"
	EndpointUpload   = "/upload"
	EndpointDownload = "/download/:port"

	OfferTTL = time.Hour
)

var uuidPrefix = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_`)

type offer struct {
	storedName string // uuid_originalname, the way the service keeps uploads on disk
	content    []byte
}

// Server is a fake transfer service bound to a loopback httptest listener.
type Server struct {
	*httptest.Server

	mu             sync.Mutex
	offers         *ttlworker.Cache[int, *offer]
	calls          map[string]int
	port           int
	rootStatus     int
	uploadStatus   int
	downloadStatus int
	disposition    *string
	oneTime        bool
}

// New starts a fake service. Close it when done.
func New() *Server {
	s := &Server{
		offers:     ttlworker.NewCache[int, *offer](OfferTTL),
		calls:      make(map[string]int),
		rootStatus: http.StatusOK,
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), s.count)
	engine.GET(EndpointRoot, s.handleRoot)
	engine.POST(EndpointUpload, s.handleUpload)
	engine.GET(EndpointDownload, s.handleDownload)
	return engine
}

func (s *Server) count(c *gin.Context) {
	s.mu.Lock()
	s.calls[c.FullPath()]++
	s.mu.Unlock()
	c.Next()
}

// Calls returns how many requests reached endpoint (one of the Endpoint constants).
func (s *Server) Calls(endpoint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[endpoint]
}

// TotalCalls returns the number of requests across all endpoints.
func (s *Server) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := 0
	for _, n := range s.calls {
		total += n
	}
	return total
}

// SetPort fixes the code handed out by /upload. 0 picks a random free one.
func (s *Server) SetPort(port int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.port = port
}

// SetRootStatus sets the status returned by the liveness endpoint.
func (s *Server) SetRootStatus(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rootStatus = status
}

// FailUpload makes /upload answer with status. 0 restores normal behaviour.
func (s *Server) FailUpload(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploadStatus = status
}

// FailDownload makes /download answer with status. 0 restores normal behaviour.
func (s *Server) FailDownload(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.downloadStatus = status
}

// SetDisposition replaces the Content-Disposition header of downloads. An empty value omits it.
func (s *Server) SetDisposition(value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disposition = &value
}

// SetOneTime makes every offer disappear after its first download.
func (s *Server) SetOneTime(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.oneTime = v
}

// Offer registers content under port as if it had been uploaded.
func (s *Server) Offer(port int, name string, content []byte) {
	s.offers.Set(port, &offer{storedName: uuid.New().String() + "_" + name, content: content})
}

// Uploaded returns the original name and content stored under port.
func (s *Server) Uploaded(port int) (string, []byte, bool) {
	o := s.offers.Get(port)
	if o == nil {
		return "", nil, false
	}
	return originalName(o.storedName), o.content, true
}

func (s *Server) handleRoot(c *gin.Context) {
	s.mu.Lock()
	status := s.rootStatus
	s.mu.Unlock()
	c.String(status, "File sharing server is running")
}

func (s *Server) handleUpload(c *gin.Context) {
	s.mu.Lock()
	failStatus := s.uploadStatus
	port := s.port
	s.mu.Unlock()
	if failStatus != 0 {
		c.String(failStatus, "upload rejected")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "No file uploaded")
		return
	}
	f, err := fh.Open()
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to read upload")
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.String(http.StatusInternalServerError, "failed to read upload")
		return
	}

	if port == 0 {
		port = s.freePort()
	}
	s.Offer(port, fh.Filename, content)
	c.JSON(http.StatusOK, gin.H{"port": port})
}

func (s *Server) handleDownload(c *gin.Context) {
	s.mu.Lock()
	failStatus := s.downloadStatus
	disposition := s.disposition
	oneTime := s.oneTime
	s.mu.Unlock()
	if failStatus != 0 {
		c.String(failStatus, "download rejected")
		return
	}

	port, err := strconv.Atoi(c.Param("port"))
	if err != nil {
		c.String(http.StatusBadRequest, "Invalid port")
		return
	}
	o := s.offers.Get(port)
	if o == nil {
		c.String(http.StatusNotFound, "File not found")
		return
	}
	if oneTime {
		s.offers.Delete(port)
	}

	switch {
	case disposition == nil:
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, originalName(o.storedName)))
	case *disposition != "":
		c.Header("Content-Disposition", *disposition)
	}
	c.Data(http.StatusOK, "application/octet-stream", o.content)
}

// freePort picks a dynamic-range port that no offer holds yet.
func (s *Server) freePort() int {
	for {
		port := 49152 + rand.Intn(65535-49152)
		if s.offers.Get(port) == nil {
			return port
		}
	}
}

// originalName strips the uuid_ prefix the service adds to stored uploads.
func originalName(stored string) string {
	return uuidPrefix.ReplaceAllString(stored, "")
}
