package api

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"news_ingest/internal/config"
	"news_ingest/internal/domain"
)

type Server struct {
	articles ArticleReader
	stats    StatisticsReader
	feeds    FeedStateReader
	limits   config.APIConfig
	now      func() time.Time
	logger   *slog.Logger
}

func NewServer(articles ArticleReader, stats StatisticsReader, feeds FeedStateReader, cfg config.APIConfig, logger *slog.Logger) *Server {
	return &Server{
		articles: articles,
		stats:    stats,
		feeds:    feeds,
		limits:   cfg,
		now:      time.Now,
		logger:   logger.With("component", "api"),
	}
}

// Router returns a gin engine with every route registered.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	s.RegisterRoutes(r)
	return r
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/articles", s.listArticles)
		v1.GET("/articles/:id", s.getArticle)
		v1.GET("/search", s.search)
		v1.GET("/statistics", s.statistics)
		v1.GET("/countries", s.countries)
		v1.GET("/sources", s.sources)
		v1.GET("/feeds", s.listFeeds)
		v1.GET("/export", s.export)
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		)
	}
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

func (s *Server) writeError(c *gin.Context, err error) {
	var qe *domain.QueryError
	switch {
	case errors.As(err, &qe):
		c.JSON(http.StatusBadRequest, ErrorResponse{Kind: string(qe.Kind), Message: qe.Message})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Kind: "not_found", Message: "article not found"})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, ErrorResponse{Kind: "internal", Message: "internal server error"})
	}
}
