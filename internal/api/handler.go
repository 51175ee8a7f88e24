package api

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReportInfo describes one generated report file.
type ReportInfo struct {
	Name     string    `json:"name"`
	Year     string    `json:"year"`
	Username string    `json:"username"`
	Format   string    `json:"format"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Handler serves generated report files from the output directory.
type Handler struct {
	reportsDir string
	logger     *zap.Logger
}

func NewHandler(reportsDir string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reportsDir: reportsDir, logger: logger}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// ListReports handles GET /api/v1/reports
func (h *Handler) ListReports(c *gin.Context) {
	userFilter := c.Query("user")
	yearFilter := c.Query("year")

	var reports []ReportInfo
	err := filepath.WalkDir(h.reportsDir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(h.reportsDir, path)
		if err != nil {
			return nil
		}
		parts := strings.Split(filepath.ToSlash(rel), "/")
		if len(parts) != 3 {
			return nil
		}
		year, user, name := parts[0], parts[1], parts[2]
		if userFilter != "" && user != userFilter {
			return nil
		}
		if yearFilter != "" && year != yearFilter {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		reports = append(reports, ReportInfo{
			Name:     name,
			Year:     year,
			Username: user,
			Format:   strings.TrimPrefix(filepath.Ext(name), "."),
			Size:     info.Size(),
			Modified: info.ModTime(),
		})
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		h.logger.Error("failed to list reports", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].Modified.After(reports[j].Modified)
	})
	c.JSON(http.StatusOK, gin.H{"data": reports, "count": len(reports)})
}

// GetReport handles GET /api/v1/reports/:year/:user/:name
func (h *Handler) GetReport(c *gin.Context) {
	year := c.Param("year")
	user := c.Param("user")
	name := c.Param("name")

	// Reject path traversal in any segment.
	for _, seg := range []string{year, user, name} {
		if seg == "" || strings.ContainsAny(seg, `/\`) || strings.Contains(seg, "..") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid report path"})
			return
		}
	}

	path := filepath.Join(h.reportsDir, year, user, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		h.logger.Error("failed to read report", zap.String("path", path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read report"})
		return
	}

	switch filepath.Ext(name) {
	case ".json":
		c.Data(http.StatusOK, "application/json", data)
	default:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", data)
	}
}
