// Package dashboard serves the read-only presentation and query UI over
// stored call records. There is no write path back into the pipeline.
package dashboard

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/callsight/callsight/internal/store"
	"github.com/callsight/callsight/internal/vector"
)

// Server wraps the fiber app plus its collaborators.
type Server struct {
	app      *fiber.App
	db       store.Store
	embedder vector.Embedder
	logBuf   *LogBuffer
}

// New builds the dashboard app. embedder may be nil, which disables the
// similarity search endpoint.
func New(db store.Store, embedder vector.Embedder, logBuf *LogBuffer) *Server {
	s := &Server{
		app:      fiber.New(),
		db:       db,
		embedder: embedder,
		logBuf:   logBuf,
	}

	s.app.Use(recover.New())
	s.app.Use(fiberlogger.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	s.app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	s.app.Get("/calls", s.listCalls)
	s.app.Get("/calls/:id", s.getCall)
	s.app.Get("/calls/:id/transcript", s.getTranscript)
	s.app.Get("/stats", s.getStats)
	s.app.Get("/search", s.search)
	if logBuf != nil {
		s.app.Get("/logs", func(c *fiber.Ctx) error {
			return c.JSON(fiber.Map{"logs": logBuf.Lines()})
		})
		s.app.Get("/ws/logs", websocket.New(s.tailLogs))
	}

	return s
}

// Listen blocks serving the app.
func (s *Server) Listen(host string, port int) error {
	return s.app.Listen(fmt.Sprintf("%s:%d", host, port))
}

// Shutdown stops the app gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// Test dispatches a request directly against the app without a network
// listener.
func (s *Server) Test(req *http.Request) (*http.Response, error) {
	return s.app.Test(req)
}

func (s *Server) listCalls(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	records, err := s.db.List(limit)
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(records)
}

func (s *Server) getCall(c *fiber.Ctx) error {
	rec, err := s.db.Get(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if rec == nil {
		return c.Status(404).JSON(fiber.Map{"error": "call not found"})
	}
	return c.JSON(rec)
}

func (s *Server) getTranscript(c *fiber.Ctx) error {
	rec, err := s.db.Get(c.Params("id"))
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	if rec == nil {
		return c.Status(404).JSON(fiber.Map{"error": "call not found"})
	}
	return c.SendString(rec.Transcript)
}

func (s *Server) getStats(c *fiber.Ctx) error {
	stats, err := s.db.Stats()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(stats)
}

// search ranks stored calls by embedding similarity to the query text.
func (s *Server) search(c *fiber.Ctx) error {
	if s.embedder == nil {
		return c.Status(501).JSON(fiber.Map{"error": "similarity search not configured"})
	}
	query := c.Query("q")
	if query == "" {
		return c.Status(400).JSON(fiber.Map{"error": "missing query parameter q"})
	}
	k, _ := strconv.Atoi(c.Query("k", "10"))

	vec, err := s.embedder.Embed(query)
	if err != nil {
		return c.Status(502).JSON(fiber.Map{"error": err.Error()})
	}
	entries, err := s.db.Embeddings()
	if err != nil {
		return c.Status(500).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(vector.Search(vec, entries, k))
}

// tailLogs streams new log lines over the websocket until the client
// goes away.
func (s *Server) tailLogs(c *websocket.Conn) {
	defer c.Close()

	for _, line := range s.logBuf.Lines() {
		if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}

	ch, cancel := s.logBuf.Subscribe()
	defer cancel()
	for line := range ch {
		if err := c.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
			return
		}
	}
}
