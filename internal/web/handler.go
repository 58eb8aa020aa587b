// Package web serves the login page, the record entry form and the record listing.
package web

import (
	"context"
	"embed"
	"errors"
	"html/template"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"gardenjournal/internal/auth"
	"gardenjournal/internal/journal"
	"gardenjournal/internal/metrics"
	"gardenjournal/internal/roster"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// User-facing messages.
const (
	msgInvalidLogin     = "학번 또는 이름이 올바르지 않습니다."
	msgPhotoRequired    = "사진은 필수입니다."
	msgUnsupportedPhoto = "사진은 jpg, jpeg, png 파일만 올릴 수 있습니다."
	msgInvalidForm      = "입력값을 확인해 주세요."
	msgPhotoTooLarge    = "사진 파일이 너무 큽니다."
	msgSaved            = "저장 완료!"
	msgNoRecords        = "기록이 없습니다."
	msgUnavailable      = "잠시 후 다시 시도해 주세요. 저장소에 연결하지 못했습니다."
)

// Authenticator checks login credentials.
type Authenticator interface {
	Authenticate(ctx context.Context, id, name string) (roster.Student, error)
}

// Journal stores and lists records.
type Journal interface {
	Submit(ctx context.Context, author roster.Student, sub journal.Submission, photo *journal.Photo) (journal.Record, error)
	List(ctx context.Context) ([]journal.Summary, error)
	Today() string
}

// Handler renders the journal pages.
type Handler struct {
	title     string
	roster    Authenticator
	journal   Journal
	sessions  *auth.Sessions
	maxUpload int64
}

// New creates the page handler. maxUpload bounds the request body of a submission in bytes.
func New(title string, r Authenticator, j Journal, s *auth.Sessions, maxUpload int64) *Handler {
	return &Handler{title: title, roster: r, journal: j, sessions: s, maxUpload: maxUpload}
}

// Register installs templates and routes on the engine.
func (h *Handler) Register(r *gin.Engine) {
	r.SetHTMLTemplate(template.Must(template.ParseFS(templateFS, "templates/*.tmpl")))

	r.GET("/login", h.LoginPage)
	r.POST("/login", h.Login)
	r.POST("/logout", h.Logout)

	authed := r.Group("/", h.sessions.Require())
	authed.GET("/", func(c *gin.Context) { c.Redirect(http.StatusSeeOther, "/records/new") })
	authed.GET("/records/new", h.NewRecord)
	authed.POST("/records", h.CreateRecord)
	authed.GET("/records", h.ListRecords)
}

type page struct {
	Title   string
	Student roster.Student
	Active  string
	Error   string
	Notice  string

	LoginID   string
	LoginName string

	Form       formValues
	Weathers   []string
	Activities []string

	Records []journal.Summary
}

func (h *Handler) page(c *gin.Context, active string) page {
	st, _ := auth.CurrentStudent(c)
	return page{Title: h.title, Student: st, Active: active}
}

// LoginPage shows the login form, or skips it for a logged-in student.
func (h *Handler) LoginPage(c *gin.Context) {
	if _, _, ok := h.sessions.Current(c); ok {
		c.Redirect(http.StatusSeeOther, "/records/new")
		return
	}
	c.HTML(http.StatusOK, "login", h.page(c, "login"))
}

// Login checks the entered id and name against the roster.
func (h *Handler) Login(c *gin.Context) {
	id := c.PostForm("student_id")
	name := c.PostForm("name")

	st, err := h.roster.Authenticate(c.Request.Context(), id, name)
	if err != nil {
		p := h.page(c, "login")
		p.LoginID, p.LoginName = id, name
		if errors.Is(err, roster.ErrInvalidCredentials) {
			metrics.Logins.WithLabelValues("invalid").Inc()
			p.Error = msgInvalidLogin
			c.HTML(http.StatusUnauthorized, "login", p)
			return
		}
		metrics.Logins.WithLabelValues("error").Inc()
		zap.L().Error("roster lookup failed", zap.Error(err))
		p.Error = msgUnavailable
		c.HTML(http.StatusBadGateway, "login", p)
		return
	}

	if err := h.sessions.Start(c, st); err != nil {
		zap.L().Error("session start failed", zap.Error(err))
		c.HTML(http.StatusInternalServerError, "error", page{Title: h.title, Error: msgUnavailable})
		return
	}
	metrics.Logins.WithLabelValues("success").Inc()
	zap.L().Info("student logged in", zap.String("student_id", st.ID))
	c.Redirect(http.StatusSeeOther, "/records/new")
}

// Logout ends the session.
func (h *Handler) Logout(c *gin.Context) {
	if err := h.sessions.End(c); err != nil {
		zap.L().Warn("session revoke failed", zap.Error(err))
	}
	c.Redirect(http.StatusSeeOther, "/login")
}

// NewRecord shows an empty entry form.
func (h *Handler) NewRecord(c *gin.Context) {
	h.renderForm(c, http.StatusOK, defaultForm(h.journal.Today()), "", "")
}

// CreateRecord uploads the photo and appends the record.
func (h *Handler) CreateRecord(c *gin.Context) {
	st, _ := auth.CurrentStudent(c)
	if h.maxUpload > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)
	}

	var form recordForm
	if err := c.ShouldBind(&form); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.renderForm(c, http.StatusRequestEntityTooLarge, defaultForm(h.journal.Today()), msgPhotoTooLarge, "")
			return
		}
		metrics.Submissions.WithLabelValues("invalid").Inc()
		h.renderForm(c, http.StatusBadRequest, form.values(), msgInvalidForm, "")
		return
	}

	photo, err := readPhoto(c)
	if err != nil {
		zap.L().Warn("reading photo failed", zap.Error(err))
		h.renderForm(c, http.StatusBadRequest, form.values(), msgInvalidForm, "")
		return
	}

	_, err = h.journal.Submit(c.Request.Context(), st, form.submission(), photo)
	switch {
	case err == nil:
		h.renderForm(c, http.StatusOK, defaultForm(h.journal.Today()), "", msgSaved)
	case errors.Is(err, journal.ErrPhotoRequired):
		h.renderForm(c, http.StatusBadRequest, form.values(), msgPhotoRequired, "")
	case errors.Is(err, journal.ErrUnsupportedPhoto):
		h.renderForm(c, http.StatusBadRequest, form.values(), msgUnsupportedPhoto, "")
	case errors.Is(err, journal.ErrInvalidSubmission):
		h.renderForm(c, http.StatusBadRequest, form.values(), msgInvalidForm, "")
	default:
		zap.L().Error("record submission failed", zap.String("student_id", st.ID), zap.Error(err))
		h.renderForm(c, http.StatusBadGateway, form.values(), msgUnavailable, "")
	}
}

// ListRecords shows every stored record.
func (h *Handler) ListRecords(c *gin.Context) {
	p := h.page(c, "list")
	records, err := h.journal.List(c.Request.Context())
	if err != nil {
		zap.L().Error("record listing failed", zap.Error(err))
		p.Error = msgUnavailable
		c.HTML(http.StatusBadGateway, "records", p)
		return
	}
	p.Records = records
	c.HTML(http.StatusOK, "records", p)
}

func (h *Handler) renderForm(c *gin.Context, status int, values formValues, errMsg, notice string) {
	p := h.page(c, "new")
	p.Form = values
	p.Weathers = journal.Weathers
	p.Activities = journal.Activities
	p.Error = errMsg
	p.Notice = notice
	c.HTML(status, "record_form", p)
}

func readPhoto(c *gin.Context) (*journal.Photo, error) {
	header, err := c.FormFile("photo")
	if err != nil {
		// A body that is not multipart cannot carry a photo either.
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, err
	}
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return &journal.Photo{Filename: header.Filename, Data: data}, nil
}

// recordForm is the multipart body of a submission.
type recordForm struct {
	Class        string   `form:"class"`
	Group        string   `form:"group"`
	ActivityDate string   `form:"activity_date"`
	Plant        string   `form:"plant"`
	Weather      string   `form:"weather"`
	Activities   []string `form:"activities"`
	HeightCM     float64  `form:"height_cm"`
	LeafCount    int      `form:"leaf_count"`
	Observation  string   `form:"observation"`
	Growth       string   `form:"growth"`
}

func (f recordForm) submission() journal.Submission {
	return journal.Submission{
		Class:        f.Class,
		Group:        f.Group,
		ActivityDate: f.ActivityDate,
		Plant:        f.Plant,
		Weather:      f.Weather,
		Activities:   f.Activities,
		HeightCM:     f.HeightCM,
		LeafCount:    f.LeafCount,
		Observation:  f.Observation,
		Growth:       f.Growth,
	}
}

// formValues is what the form template redisplays.
type formValues struct {
	Class        string
	Group        string
	ActivityDate string
	Plant        string
	Weather      string
	Checked      map[string]bool
	HeightCM     string
	LeafCount    string
	Observation  string
	Growth       string
}

func (f recordForm) values() formValues {
	checked := make(map[string]bool, len(f.Activities))
	for _, a := range f.Activities {
		checked[a] = true
	}
	return formValues{
		Class:        f.Class,
		Group:        f.Group,
		ActivityDate: f.ActivityDate,
		Plant:        f.Plant,
		Weather:      f.Weather,
		Checked:      checked,
		HeightCM:     strconv.FormatFloat(f.HeightCM, 'f', -1, 64),
		LeafCount:    strconv.Itoa(f.LeafCount),
		Observation:  f.Observation,
		Growth:       f.Growth,
	}
}

func defaultForm(today string) formValues {
	return formValues{
		ActivityDate: today,
		Weather:      journal.Weathers[0],
		Checked:      map[string]bool{},
		HeightCM:     "0",
		LeafCount:    "0",
	}
}
