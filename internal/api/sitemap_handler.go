package api

import (
	"encoding/xml"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"speshway/internal/api/middleware"
	"speshway/internal/database"
)

// SitemapHandler emits sitemap.xml for search engines.
type SitemapHandler struct {
	db      *gorm.DB
	baseURL string
}

// NewSitemapHandler constructs the handler. baseURL is the public site
// origin without a trailing slash.
func NewSitemapHandler(db *gorm.DB, baseURL string) *SitemapHandler {
	return &SitemapHandler{db: db, baseURL: strings.TrimRight(baseURL, "/")}
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

var staticSitemapPages = []struct {
	path       string
	changeFreq string
	priority   string
}{
	{"/", "weekly", "1.0"},
	{"/about", "monthly", "0.8"},
	{"/services", "monthly", "0.8"},
	{"/portfolio", "weekly", "0.8"},
	{"/team", "monthly", "0.6"},
	{"/gallery", "weekly", "0.7"},
	{"/career", "daily", "0.9"},
	{"/contact", "monthly", "0.6"},
}

func lastModOf(updatedAt, createdAt time.Time) string {
	t := updatedAt
	if t.IsZero() {
		t = createdAt
	}
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

// Sitemap queries active gallery items and open jobs and renders the
// full URL list. The corpus is small enough to load in one pass.
func (h *SitemapHandler) Sitemap(c *gin.Context) {
	ctx := c.Request.Context()

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	for _, page := range staticSitemapPages {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + page.path,
			ChangeFreq: page.changeFreq,
			Priority:   page.priority,
		})
	}

	var galleryItems []database.GalleryItem
	if err := h.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("created_at DESC").
		Find(&galleryItems).Error; err != nil {
		Internal(c, "failed to build sitemap")
		return
	}
	for _, item := range galleryItems {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + "/blog/" + strconv.FormatUint(uint64(item.ID), 10),
			LastMod:    lastModOf(item.UpdatedAt, item.CreatedAt),
			ChangeFreq: "monthly",
			Priority:   "0.5",
		})
	}

	var jobs []database.Job
	if err := h.db.WithContext(ctx).
		Where("status = ?", database.JobOpen).
		Order("created_at DESC").
		Find(&jobs).Error; err != nil {
		Internal(c, "failed to build sitemap")
		return
	}
	for _, job := range jobs {
		set.URLs = append(set.URLs, sitemapURL{
			Loc:        h.baseURL + "/career/" + strconv.FormatUint(uint64(job.ID), 10),
			LastMod:    lastModOf(job.UpdatedAt, job.CreatedAt),
			ChangeFreq: "weekly",
			Priority:   "0.7",
		})
	}

	c.Header("Content-Type", "application/xml; charset=utf-8")
	c.String(http.StatusOK, xml.Header)
	encoder := xml.NewEncoder(c.Writer)
	encoder.Indent("", "  ")
	if err := encoder.Encode(set); err != nil {
		// The status line is already out; all that is left is logging.
		middleware.LoggerFromContext(c).Warn("encode sitemap failed", slog.Any("error", err))
	}
}
