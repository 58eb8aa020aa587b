package journal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"gardenjournal/internal/drive"
	"gardenjournal/internal/metrics"
	"gardenjournal/internal/roster"
)

var (
	// ErrPhotoRequired is returned when a submission has no photo attached.
	ErrPhotoRequired = errors.New("photo is required")
	// ErrUnsupportedPhoto is returned for photos that are not jpg, jpeg or png.
	ErrUnsupportedPhoto = errors.New("photo must be a jpg, jpeg or png file")
	// ErrInvalidSubmission wraps form values outside their allowed choices or ranges.
	ErrInvalidSubmission = errors.New("invalid submission")
)

var photoExtensions = []string{".jpg", ".jpeg", ".png"}

// PhotoStore uploads a photo and returns its shareable link.
type PhotoStore interface {
	Upload(ctx context.Context, data []byte, filename string) (*drive.UploadResult, error)
}

// Submission holds the form fields of a new record.
type Submission struct {
	Class        string
	Group        string
	ActivityDate string   `validate:"omitempty,datetime=2006-01-02"`
	Plant        string
	Weather      string   `validate:"omitempty,weather"`
	Activities   []string `validate:"dive,activity"`
	HeightCM     float64  `validate:"gte=0,lte=300"`
	LeafCount    int      `validate:"gte=0"`
	Observation  string
	Growth       string
}

// Photo is an attached image file.
type Photo struct {
	Filename string
	Data     []byte
}

// Service coordinates photo upload and record persistence.
type Service struct {
	repo     *Repository
	photos   PhotoStore
	loc      *time.Location
	now      func() time.Time
	newID    func() string
	validate *validator.Validate
}

// NewService creates a service backed by a repository and a photo store.
func NewService(repo *Repository, photos PhotoStore, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		repo:     repo,
		photos:   photos,
		loc:      loc,
		now:      time.Now,
		newID:    newRecordID,
		validate: newValidator(),
	}
}

// Today is the default activity date.
func (s *Service) Today() string {
	return s.now().In(s.loc).Format(dateLayout)
}

// Submit uploads the photo and appends the record. Nothing is written without a photo.
// When the append fails after a successful upload the photo stays in Drive.
func (s *Service) Submit(ctx context.Context, author roster.Student, sub Submission, photo *Photo) (Record, error) {
	if photo == nil || len(photo.Data) == 0 {
		metrics.Submissions.WithLabelValues("missing_photo").Inc()
		return Record{}, ErrPhotoRequired
	}
	if !slices.Contains(photoExtensions, strings.ToLower(filepath.Ext(photo.Filename))) {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return Record{}, ErrUnsupportedPhoto
	}
	if err := s.validate.Struct(sub); err != nil {
		metrics.Submissions.WithLabelValues("invalid").Inc()
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidSubmission, err)
	}

	uploaded, err := s.photos.Upload(ctx, photo.Data, photo.Filename)
	if err != nil {
		metrics.Submissions.WithLabelValues("upload_failed").Inc()
		return Record{}, fmt.Errorf("upload photo: %w", err)
	}

	now := s.now().In(s.loc)
	rec := Record{
		ID:           s.newID(),
		SavedAt:      now,
		ActivityDate: sub.ActivityDate,
		StudentID:    author.ID,
		Author:       author.Name,
		Class:        sub.Class,
		Group:        sub.Group,
		Plant:        sub.Plant,
		Weather:      sub.Weather,
		Activities:   sub.Activities,
		HeightCM:     sub.HeightCM,
		LeafCount:    sub.LeafCount,
		Observation:  sub.Observation,
		Growth:       sub.Growth,
		PhotoLink:    uploaded.Link,
	}
	if rec.ActivityDate == "" {
		rec.ActivityDate = now.Format(dateLayout)
	}

	if err := s.repo.Append(ctx, rec); err != nil {
		metrics.Submissions.WithLabelValues("append_failed").Inc()
		zap.L().Error("record append failed, photo left in drive",
			zap.String("record_id", rec.ID),
			zap.String("file_id", uploaded.FileID),
			zap.Error(err),
		)
		return Record{}, err
	}

	metrics.Submissions.WithLabelValues("saved").Inc()
	zap.L().Info("record saved",
		zap.String("record_id", rec.ID),
		zap.String("student_id", rec.StudentID),
		zap.String("activity_date", rec.ActivityDate),
	)
	return rec, nil
}

// List returns all stored records as summaries.
func (s *Service) List(ctx context.Context) ([]Summary, error) {
	return s.repo.List(ctx)
}

func newRecordID() string {
	return uuid.NewString()[:8]
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("weather", func(fl validator.FieldLevel) bool {
		return slices.Contains(Weathers, fl.Field().String())
	})
	_ = v.RegisterValidation("activity", func(fl validator.FieldLevel) bool {
		return slices.Contains(Activities, fl.Field().String())
	})
	return v
}
