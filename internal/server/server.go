package server

import (
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/threadtally/threadtally/internal/config"
	"github.com/threadtally/threadtally/internal/core"
	"github.com/threadtally/threadtally/internal/core/common"
	"github.com/threadtally/threadtally/internal/core/rank"
	"github.com/threadtally/threadtally/internal/store"
)

const maxImportBytes = 32 << 20

type Server struct {
	Tally *core.Tally
	Store *store.Store
	Cfg   *config.Config

	// Serializes run+publish; a run must fully complete before the next
	// one is accepted.
	runMu sync.Mutex
}

func NewServer(cfg *config.Config, st *store.Store) *Server {
	return &Server{
		Tally: core.NewTally(cfg),
		Store: st,
		Cfg:   cfg,
	}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/threads", s.ImportThreads)
	r.POST("/run", s.RunPipeline)
	r.GET("/leaderboard", s.Leaderboard)
	r.GET("/candidates", s.Candidates)

	return r
}

func (s *Server) ImportThreads(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	docs, malformed, err := common.DecodeDocuments(string(body))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid thread payload"})
		return
	}

	added, dups, skipped, err := s.Store.ImportDocuments(docs)
	if err != nil {
		log.Printf("Failed to import documents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store documents"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"imported":   added,
		"duplicates": dups,
		"skipped":    skipped + malformed,
	})
}

func (s *Server) RunPipeline(c *gin.Context) {
	if !s.runMu.TryLock() {
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}
	defer s.runMu.Unlock()

	docs, err := s.Store.Documents()
	if err != nil {
		log.Printf("Failed to load documents: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load documents"})
		return
	}

	res, err := s.Tally.Run(c.Request.Context(), docs)
	if errors.Is(err, core.ErrRunInProgress) {
		c.JSON(http.StatusConflict, gin.H{"error": "A run is already in progress"})
		return
	}
	if err != nil {
		log.Printf("Pipeline run failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Pipeline run failed"})
		return
	}

	if err := s.Store.PublishRun(res); err != nil {
		log.Printf("Failed to publish run %s: %v", res.RunID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to publish run output"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run_id":         res.RunID,
		"docs_processed": res.DocsProcessed,
		"docs_skipped":   res.DocsSkipped,
		"records":        res.Records,
		"mentions":       res.Mentions,
		"entities":       len(res.Stats),
	})
}

func (s *Server) Leaderboard(c *gin.Context) {
	n := s.Cfg.Ranking.DefaultTopN
	if raw := c.Query("n"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			n = parsed
		}
	}
	variant := rank.ParseVariant(c.Query("variant"))

	stats, runID, err := s.Store.Leaderboard()
	if err != nil {
		log.Printf("Failed to load leaderboard: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load leaderboard"})
		return
	}

	rows := rank.Build(stats, variant, n)
	c.JSON(http.StatusOK, gin.H{
		"run_id":  runID,
		"variant": variant,
		"rows":    rows,
	})
}

func (s *Server) Candidates(c *gin.Context) {
	candidates, err := s.Store.Candidates()
	if err != nil {
		log.Printf("Failed to load candidates: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load candidates"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
