package haltest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/kbukum/halclient/hal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// Request is one recorded request.
type Request struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

const bodyKey = "haltest.body"

type failure struct {
	status int
	times  int
}

// Server is a HAL fixture server backed by gin and httptest.
type Server struct {
	engine *gin.Engine
	ts     *httptest.Server

	mu        sync.Mutex
	resources map[string][]byte
	failures  map[string]*failure
	hits      map[string]int
	requests  []Request
	nextID    int
}

// New starts a fixture server.
func New() *Server {
	s := &Server{
		engine:    gin.New(),
		resources: make(map[string][]byte),
		failures:  make(map[string]*failure),
		hits:      make(map[string]int),
		nextID:    100,
	}
	s.engine.Use(gin.Recovery(), s.record)
	s.engine.Any("/*path", s.serve)
	s.ts = httptest.NewServer(s.engine)
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.ts.URL
}

// Engine returns the gin engine for custom routes.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// Close shuts the server down.
func (s *Server) Close() {
	s.ts.Close()
}

// Handle registers body under path. A path with a query string only matches
// requests with that exact query.
func (s *Server) Handle(path, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[path] = []byte(body)
}

// HandleJSON registers v, encoded as JSON, under path.
func (s *Server) HandleJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resources[path] = data
	return nil
}

// Resource returns the body stored under path.
func (s *Server) Resource(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	body, ok := s.resources[path]
	return string(body), ok
}

// Fail makes the next times requests to path answer with status.
func (s *Server) Fail(path string, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = &failure{status: status, times: times}
}

// Hits returns how many requests with method reached path.
func (s *Server) Hits(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[method+" "+path]
}

// TotalHits returns the number of recorded requests.
func (s *Server) TotalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// Reset clears recorded requests and hit counters.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hits = make(map[string]int)
	s.requests = nil
}

func (s *Server) record(c *gin.Context) {
	body, _ := c.GetRawData()
	req := Request{
		Method: c.Request.Method,
		Path:   c.Request.URL.Path,
		Query:  c.Request.URL.RawQuery,
		Header: c.Request.Header.Clone(),
		Body:   body,
	}
	c.Set(bodyKey, body)

	s.mu.Lock()
	s.hits[req.Method+" "+req.Path]++
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	c.Next()
}

func (s *Server) serve(c *gin.Context) {
	path := c.Request.URL.Path
	var body []byte
	if v, ok := c.Get(bodyKey); ok {
		body, _ = v.([]byte)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if f, ok := s.failures[path]; ok && f.times > 0 {
		f.times--
		c.JSON(f.status, gin.H{"message": http.StatusText(f.status)})
		return
	}

	switch c.Request.Method {
	case http.MethodGet:
		key := path
		if q := c.Request.URL.RawQuery; q != "" {
			if _, ok := s.resources[path+"?"+q]; ok {
				key = path + "?" + q
			}
		}
		data, ok := s.resources[key]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "no resource at " + path})
			return
		}
		c.Data(http.StatusOK, hal.MediaType, data)

	case http.MethodPost:
		s.nextID++
		location := fmt.Sprintf("%s/%d", strings.TrimRight(path, "/"), s.nextID)
		s.resources[location] = withSelf(body, location)
		c.Header("Location", location)
		c.Data(http.StatusCreated, hal.MediaType, s.resources[location])

	case http.MethodPut:
		if _, ok := s.resources[path]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "no resource at " + path})
			return
		}
		s.resources[path] = withSelf(body, path)
		c.Data(http.StatusOK, hal.MediaType, s.resources[path])

	case http.MethodPatch:
		current, ok := s.resources[path]
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "no resource at " + path})
			return
		}
		merged, err := merge(current, body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
			return
		}
		s.resources[path] = merged
		c.Data(http.StatusOK, hal.MediaType, merged)

	case http.MethodDelete:
		if _, ok := s.resources[path]; !ok {
			c.JSON(http.StatusNotFound, gin.H{"message": "no resource at " + path})
			return
		}
		delete(s.resources, path)
		c.Status(http.StatusNoContent)

	default:
		c.Status(http.StatusMethodNotAllowed)
	}
}

// withSelf sets the self link of a JSON object body.
func withSelf(body []byte, href string) []byte {
	var doc map[string]any
	if err := json.Unmarshal(body, &doc); err != nil || doc == nil {
		return body
	}
	links, _ := doc[hal.KeyLinks].(map[string]any)
	if links == nil {
		links = map[string]any{}
	}
	links[hal.RelSelf] = map[string]any{"href": href}
	doc[hal.KeyLinks] = links
	out, err := json.Marshal(doc)
	if err != nil {
		return body
	}
	return out
}

// merge applies a JSON merge patch (top-level keys) to current.
func merge(current, patch []byte) ([]byte, error) {
	var doc, changes map[string]any
	if err := json.Unmarshal(current, &doc); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(patch, &changes); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = map[string]any{}
	}
	for k, v := range changes {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	return json.Marshal(doc)
}
