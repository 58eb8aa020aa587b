// Package roster validates student logins against the roster tab.
package roster

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"gardenjournal/internal/metrics"
	"gardenjournal/internal/sheets"
)

// Roster tab column headers.
const (
	ColStudentID = "학번"
	ColName      = "이름"
)

var (
	// ErrInvalidCredentials is returned when no roster entry matches the id and name.
	ErrInvalidCredentials = errors.New("invalid student id or name")
	// ErrMalformedRoster is returned when the roster tab lacks the expected columns.
	ErrMalformedRoster = errors.New("roster tab is missing the student id or name column")
)

// Student is one roster entry.
type Student struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// TableReader loads a spreadsheet tab.
type TableReader interface {
	ReadTable(ctx context.Context, tab string) (sheets.Table, error)
}

// Service answers login checks from a cached copy of the roster.
type Service struct {
	reader TableReader
	tab    string
	cache  Cache
	ttl    time.Duration
}

// NewService creates a roster service. A non-positive ttl disables caching.
func NewService(reader TableReader, tab string, cache Cache, ttl time.Duration) *Service {
	if cache == nil {
		cache = NoCache{}
	}
	return &Service{reader: reader, tab: tab, cache: cache, ttl: ttl}
}

// Students returns the roster, served from cache within the refresh window.
func (s *Service) Students(ctx context.Context) ([]Student, error) {
	if s.ttl > 0 {
		cached, ok, err := s.cache.Get(ctx)
		switch {
		case err != nil:
			metrics.RosterCache.WithLabelValues("error").Inc()
			zap.L().Warn("roster cache read failed", zap.Error(err))
		case ok:
			metrics.RosterCache.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.RosterCache.WithLabelValues("miss").Inc()
		}
	}

	table, err := s.reader.ReadTable(ctx, s.tab)
	if err != nil {
		return nil, fmt.Errorf("load roster: %w", err)
	}
	students, err := parse(table)
	if err != nil {
		return nil, err
	}

	if s.ttl > 0 {
		if err := s.cache.Set(ctx, students, s.ttl); err != nil {
			zap.L().Warn("roster cache write failed", zap.Error(err))
		}
	}
	return students, nil
}

// Authenticate returns the roster entry whose id and name equal the input exactly.
// Roster cells are trimmed when loaded; the input is not.
func (s *Service) Authenticate(ctx context.Context, id, name string) (Student, error) {
	students, err := s.Students(ctx)
	if err != nil {
		return Student{}, err
	}
	for _, st := range students {
		if st.ID == id && st.Name == name {
			return st, nil
		}
	}
	return Student{}, ErrInvalidCredentials
}

func parse(table sheets.Table) ([]Student, error) {
	if table.Len() == 0 {
		return []Student{}, nil
	}
	idCol, nameCol := -1, -1
	for i, h := range table.Header {
		switch h {
		case ColStudentID:
			idCol = i
		case ColName:
			nameCol = i
		}
	}
	if idCol < 0 || nameCol < 0 {
		return nil, ErrMalformedRoster
	}

	students := make([]Student, 0, table.Len())
	for _, row := range table.Rows {
		students = append(students, Student{
			ID:   strings.TrimSpace(row[idCol]),
			Name: strings.TrimSpace(row[nameCol]),
		})
	}
	return students, nil
}
