package api

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"news_ingest/internal/domain"
	"news_ingest/internal/export"
)

func (s *Server) health(c *gin.Context) {
	ctx := c.Request.Context()
	if err := s.articles.Ping(ctx); err != nil {
		s.logger.Warn("health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	total, err := s.articles.Count(ctx)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"database":       "connected",
		"total_articles": total,
	})
}

type articlesResponse struct {
	Articles   []domain.Article `json:"articles"`
	Pagination Pagination       `json:"pagination"`
}

func (s *Server) listArticles(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}
	page, err := s.pageFromQuery(c)
	if err != nil {
		s.writeError(c, err)
		return
	}

	result, err := s.articles.Query(c.Request.Context(), filter, sortFromQuery(c), page)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, articlesResponse{
		Articles:   result.Articles,
		Pagination: newPagination(result.Total, page),
	})
}

func (s *Server) getArticle(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		s.writeError(c, domain.InvalidFilter("article id must be a positive integer, got %q", c.Param("id")))
		return
	}

	article, err := s.articles.Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, article)
}

func (s *Server) search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		s.writeError(c, domain.InvalidFilter("query parameter q is required"))
		return
	}
	limit, err := intParam(c, "limit", 0)
	if err != nil {
		s.writeError(c, err)
		return
	}

	articles, err := s.articles.Search(c.Request.Context(), q, s.clampLimit(limit))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"query":    q,
		"count":    len(articles),
		"articles": articles,
	})
}

func (s *Server) statistics(c *gin.Context) {
	stats, err := s.stats.Statistics(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) countries(c *gin.Context) {
	counts, err := s.articles.Countries(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"countries": counts})
}

func (s *Server) sources(c *gin.Context) {
	counts, err := s.articles.Sources(c.Request.Context(), strings.TrimSpace(c.Query("country")))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sources": counts})
}

func (s *Server) listFeeds(c *gin.Context) {
	states, err := s.feeds.List(c.Request.Context())
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"feeds": states})
}

func (s *Server) export(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))
	ctx := c.Request.Context()
	stamp := s.now().UTC().Format("20060102_150405")

	switch format {
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="articles_%s.csv"`, stamp))
		c.Status(http.StatusOK)
		n, err := export.WriteCSV(ctx, c.Writer, s.articles)
		if err != nil {
			if !c.Writer.Written() {
				c.Writer.Header().Del("Content-Type")
				c.Writer.Header().Del("Content-Disposition")
				s.writeError(c, err)
				return
			}
			s.logger.Error("csv export aborted", "rows", n, "error", err)
		}
	case "json":
		var buf bytes.Buffer
		if _, err := export.WriteJSON(ctx, &buf, s.articles, s.now()); err != nil {
			s.writeError(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="articles_%s.json"`, stamp))
		c.Data(http.StatusOK, "application/json; charset=utf-8", buf.Bytes())
	default:
		s.writeError(c, domain.InvalidFilter("format must be csv or json, got %q", format))
	}
}
