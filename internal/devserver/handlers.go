package devserver

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/nhle/certconsole/internal/model"
	"github.com/nhle/certconsole/internal/push"
	"github.com/nhle/certconsole/internal/store"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
	Reply  string `json:"reply"`
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	err := s.cfg.Store.Authenticate(c.Request.Context(), req.Email, req.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.internalError(c, err)
		return
	}

	token, err := GenerateToken(s.cfg.Secret, req.Email, s.cfg.TokenTTL, s.cfg.Now())
	if err != nil {
		s.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token, "email": req.Email})
}

func (s *Server) list(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		page := queryInt(c, "page", 1)
		if page < 1 {
			page = 1
		}
		limit := queryInt(c, "limit", defaultLimit)
		if limit < 1 {
			limit = defaultLimit
		}
		if limit > maxLimit {
			limit = maxLimit
		}

		f := store.RecordFilter{
			Status: c.Query("status"),
			Query:  c.Query("search"),
		}
		total, err := s.cfg.Store.CountRecords(c.Request.Context(), kind, f)
		if err != nil {
			s.internalError(c, err)
			return
		}

		f.Limit = limit
		f.Offset = (page - 1) * limit
		recs, err := s.cfg.Store.ListRecords(c.Request.Context(), kind, f)
		if err != nil {
			s.internalError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"data": recs,
			"pagination": gin.H{
				"page":       page,
				"limit":      limit,
				"total":      total,
				"totalPages": (total + limit - 1) / limit,
			},
		})
	}
}

func (s *Server) get(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := s.cfg.Store.GetRecord(c.Request.Context(), kind, c.Param("id"))
		if err != nil {
			s.storeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rec})
	}
}

func (s *Server) updateStatus(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req statusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
			return
		}
		rec, err := s.cfg.Store.UpdateStatus(c.Request.Context(), kind, c.Param("id"), req.Status, req.Reply)
		if err != nil {
			s.storeError(c, err)
			return
		}
		s.log.Info().
			Str("kind", string(kind)).
			Str("id", rec.GetID()).
			Str("status", rec.GetStatus()).
			Str("by", c.GetString(ctxEmail)).
			Msg("status changed")
		c.JSON(http.StatusOK, gin.H{"data": rec})
	}
}

// submit stores a record sent by a public user and announces it to every
// connected console.
func (s *Server) submit(kind model.RecordKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		rec, err := s.bindSubmission(c, kind)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := s.cfg.Store.CreateRecord(c.Request.Context(), rec); err != nil {
			s.internalError(c, err)
			return
		}

		s.announce(rec)
		c.JSON(http.StatusCreated, gin.H{"data": rec})
	}
}

func (s *Server) announce(rec model.Record) {
	t, ok := model.NotificationTypeFor(rec.GetKind())
	if !ok {
		return
	}
	frame, err := push.EncodeFrame(model.Notification{
		ID:        rec.GetID(),
		Type:      t,
		Title:     rec.GetTitle(),
		CreatedAt: rec.GetCreatedAt(),
	})
	if err != nil {
		s.log.Error().Err(err).Str("id", rec.GetID()).Msg("encoding push frame")
		return
	}
	s.hub.Broadcast(frame)
	s.log.Info().Str("type", string(t)).Str("id", rec.GetID()).Msg("record submitted")
}

// bindSubmission decodes the request body into a new record of kind with a
// fresh id, the kind's initial status and the current time. Client-supplied
// values for those fields are ignored.
func (s *Server) bindSubmission(c *gin.Context, kind model.RecordKind) (model.Record, error) {
	id := uuid.NewString()
	status := model.InitialStatus(kind)
	now := s.cfg.Now().UTC()

	var rec model.Record
	switch kind {
	case model.KindEnquiry:
		var e model.Enquiry
		if err := c.ShouldBindJSON(&e); err != nil {
			return nil, err
		}
		e.ID, e.Status, e.CreatedAt = id, status, now
		if e.Name == "" || e.Email == "" {
			return nil, errors.New("name and email are required")
		}
		rec = e
	case model.KindContactMessage:
		var m model.ContactMessage
		if err := c.ShouldBindJSON(&m); err != nil {
			return nil, err
		}
		m.ID, m.Status, m.CreatedAt, m.Reply = id, status, now, ""
		if m.Name == "" || m.Email == "" {
			return nil, errors.New("name and email are required")
		}
		rec = m
	case model.KindReportedProduct:
		var r model.ReportedProduct
		if err := c.ShouldBindJSON(&r); err != nil {
			return nil, err
		}
		r.ID, r.Status, r.CreatedAt = id, status, now
		if r.ProductID == "" || r.Reason == "" {
			return nil, errors.New("productId and reason are required")
		}
		rec = r
	case model.KindUserFAQ:
		var f model.UserFAQ
		if err := c.ShouldBindJSON(&f); err != nil {
			return nil, err
		}
		f.ID, f.Status, f.CreatedAt, f.Answer = id, status, now, ""
		rec = f
	default:
		return nil, errors.New("unknown record kind")
	}

	if rec.GetTitle() == "" {
		return nil, errors.New("a title, subject or question is required")
	}
	return rec, nil
}

func (s *Server) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrInvalidStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.internalError(c, err)
	}
}

func (s *Server) internalError(c *gin.Context, err error) {
	s.log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func queryInt(c *gin.Context, key string, def int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return def
	}
	return v
}
