package api

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"estateportal/server/config"
	"estateportal/server/internal/chatbot"
	"estateportal/server/internal/cleanup"
	"estateportal/server/internal/database"
	"estateportal/server/internal/datasync"
	"estateportal/server/internal/filter"
	"estateportal/server/internal/geocoding"
	"estateportal/server/internal/geometry"
	"estateportal/server/internal/llm"
	"estateportal/server/internal/mail"
	"estateportal/server/internal/models"
	"estateportal/server/internal/queue"
	"estateportal/server/internal/sitemap"
	"estateportal/server/internal/telegram"
	"estateportal/server/internal/translation"
)

type Handler struct {
	db         *database.Database
	cfg        *config.Config
	logger     *logrus.Logger
	cleaner    *cleanup.Cleaner
	syncer     *datasync.Syncer
	translator *translation.Translator
	jobs       *queue.JobQueue
	sitemap    *sitemap.Generator
	bot        *chatbot.Bot
	geocoder   database.Geocoder
	mail       *mail.Client
	telegram   *telegram.Service

	// Background drains stop when ctx is cancelled
	ctx    context.Context
	cancel context.CancelFunc
}

type Option func(*Handler)

// WithGeocoder replaces the Nominatim geocoder used by the admin repair pass
func WithGeocoder(g database.Geocoder) Option {
	return func(h *Handler) { h.geocoder = g }
}

// WithTelegram replaces the sales chat notifier
func WithTelegram(s *telegram.Service) Option {
	return func(h *Handler) { h.telegram = s }
}

// NewHandler wires every service behind the HTTP surface. client may be nil, which disables
// the assistant replies and slug translation. When jobs is set, the handler subscribes the
// translation drain to it.
func NewHandler(db *database.Database, cfg *config.Config, client llm.Client, jobs *queue.JobQueue, logger *logrus.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
		logger.SetOutput(os.Stdout)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		db:       db,
		cfg:      cfg,
		logger:   logger,
		cleaner:  cleanup.NewCleaner(db, logger),
		syncer:   datasync.NewSyncer(db, logger),
		jobs:     jobs,
		sitemap:  sitemap.NewGenerator(db, cfg.Server.SiteURL, logger),
		geocoder: geocoding.NewGeocoder(logger, cfg.Geocoding.CacheDir, cfg.Geocoding.UserAgent),
		mail:     mail.NewClient(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.From, logger),
		telegram: telegram.NewService(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(h)
	}

	if client != nil {
		h.translator = translation.NewTranslator(db, client, cfg.Translation.BatchSize, cfg.Translation.MaxBatches, logger)
	}
	h.bot = chatbot.NewBot(db, client, h.mail, h.telegram, logger,
		chatbot.WithSalesInbox(cfg.Mail.SalesTo),
		chatbot.WithLimits(cfg.Chatbot.MaxSuggestions, cfg.Chatbot.MaxHistory),
	)

	if jobs != nil && h.translator != nil {
		jobs.Subscribe(h.drainTranslations)
	}

	return h
}

// Shutdown cancels background translation drains
func (h *Handler) Shutdown() {
	h.cancel()
}

func (h *Handler) Health(c *gin.Context) {
	if err := h.db.Ping(c.Request.Context()); err != nil {
		h.logger.WithError(err).Error("Database ping failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLanguage(c *gin.Context) string {
	lang := config.NormalizeLanguage(c.DefaultQuery("lang", config.DefaultLanguage))
	if !config.IsSupportedLanguage(lang) {
		return config.DefaultLanguage
	}
	return lang
}

// activeListings returns the filter engine view of every active row, with slugs in lang
func (h *Handler) activeListings(ctx context.Context, lang string) ([]models.Listing, error) {
	rows, err := h.db.ListActiveProperties(ctx)
	if err != nil {
		return nil, err
	}
	listings := make([]models.Listing, len(rows))
	for i := range rows {
		listings[i] = rows[i].Listing()
		listings[i].Slug = rows[i].LocalizedSlug(lang)
	}
	return listings, nil
}

func (h *Handler) GetProperties(c *gin.Context) {
	var spec models.FilterSpec
	if err := c.ShouldBindQuery(&spec); err != nil {
		h.logger.WithError(err).Error("Failed to parse filter query")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid filter parameters"})
		return
	}
	// facilities may arrive repeated or as one comma separated value
	if len(spec.Facilities) == 1 {
		spec.Facilities = filter.ParseFacilities(spec.Facilities[0])
	}

	listings, err := h.activeListings(c.Request.Context(), requestLanguage(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get properties")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get properties"})
		return
	}

	c.JSON(http.StatusOK, filter.Apply(listings, spec))
}

func (h *Handler) GetProperty(c *gin.Context) {
	lang := requestLanguage(c)
	p, err := h.db.GetPropertyBySlug(c.Request.Context(), lang, c.Param("slug"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Property not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get property")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get property"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"property": p,
		"slug":     p.LocalizedSlug(lang),
		"language": lang,
	})
}

func (h *Handler) GetMap(c *gin.Context) {
	precision := geometry.DefaultClusterPrecision
	if v, err := strconv.Atoi(c.Query("precision")); err == nil && v >= 1 && v <= 12 {
		precision = uint(v)
	}

	listings, err := h.activeListings(c.Request.Context(), requestLanguage(c))
	if err != nil {
		h.logger.WithError(err).Error("Failed to get map listings")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get map data"})
		return
	}

	c.JSON(http.StatusOK, geometry.MapCollection(listings, precision))
}

func (h *Handler) GetRegions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"regions":   config.GetRegions(),
		"languages": config.SupportedLanguages,
	})
}

func (h *Handler) GetBlogPosts(c *gin.Context) {
	posts, err := h.db.ListPublishedPosts(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get blog posts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get blog posts"})
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *Handler) GetBlogPost(c *gin.Context) {
	post, err := h.db.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	if err != nil {
		h.logger.WithError(err).Error("Failed to get blog post")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get blog post"})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) GetTestimonials(c *gin.Context) {
	testimonials, err := h.db.ListTestimonials(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get testimonials")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get testimonials"})
		return
	}
	c.JSON(http.StatusOK, testimonials)
}

func (h *Handler) GetTeamMembers(c *gin.Context) {
	members, err := h.db.ListTeamMembers(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to get team members")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get team members"})
		return
	}
	c.JSON(http.StatusOK, members)
}

// Contact forwards the contact form to the sales inbox and chat
func (h *Handler) Contact(c *gin.Context) {
	var req models.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Error("Invalid contact request")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Name, a valid email and a message are required"})
		return
	}

	ctx := c.Request.Context()
	delivered := 0
	if h.mail.Enabled() {
		msg := mail.Message{
			To:      []string{h.cfg.Mail.SalesTo},
			Subject: "Contact request from " + req.Name,
			Text:    contactText(req),
			ReplyTo: req.Email,
		}
		if err := h.mail.Send(ctx, msg); err != nil {
			h.logger.WithError(err).Error("Failed to email contact request")
		} else {
			delivered++
		}
	}
	if h.telegram.Enabled() {
		if err := h.telegram.NotifyContact(ctx, req); err != nil {
			h.logger.WithError(err).Error("Failed to notify sales chat")
		} else {
			delivered++
		}
	}

	if delivered == 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Failed to deliver contact request"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "sent"})
}

func contactText(req models.ContactRequest) string {
	lines := []string{
		"Name: " + req.Name,
		"Email: " + req.Email,
	}
	if req.Phone != "" {
		lines = append(lines, "Phone: "+req.Phone)
	}
	if req.PropertyRef != "" {
		lines = append(lines, "Property: "+req.PropertyRef)
	}
	lines = append(lines, "", req.Message)
	return strings.Join(lines, "\n")
}
