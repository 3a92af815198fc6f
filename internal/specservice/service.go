// Package specservice loads a project's spec tree, applies one engine
// operation, recomputes totals and persists the result.
package specservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/starford/millwork/internal/apperr"
	"github.com/starford/millwork/internal/checksum"
	"github.com/starford/millwork/internal/models"
	"github.com/starford/millwork/internal/pricing"
	"github.com/starford/millwork/internal/spectree"
	"github.com/starford/millwork/internal/storage"
)

// Publisher is notified after every persisted change.
type Publisher interface {
	PublishSpecEvent(kind, projectID string)
}

// Catalog exposes the price table behind the resolver for option listings.
type Catalog interface {
	Table() *pricing.Table
}

// SpecDetail is a project's tree with freshly computed totals.
type SpecDetail struct {
	ProjectID       string                `json:"project_id"`
	Rooms           *spectree.Forest      `json:"rooms"`
	TotalLinearFeet float64               `json:"total_linear_feet"`
	TotalPrice      float64               `json:"total_price"`
	LeadTimeDays    int                   `json:"lead_time_days"`
	NodeCount       int                   `json:"node_count"`
	Failures        []spectree.RunFailure `json:"failures,omitempty"`
	Checksum        string                `json:"checksum"`
	UpdatedAt       time.Time             `json:"updated_at"`
}

// Change is the outcome of a mutation.
type Change struct {
	Spec *SpecDetail `json:"spec"`
	// Path of the node the mutation created or targeted, when there is one.
	Path string `json:"path,omitempty"`
	// Rejected lists dimension fields dropped from an update.
	Rejected []string `json:"rejected,omitempty"`
}

// Service coordinates storage and the spec tree engine.
//
// Mutations are serialized per process; across processes the If-Match
// checksum is the only guard, and an empty If-Match means last write wins.
type Service struct {
	store        storage.Provider
	resolver     pricing.Resolver
	calc         *spectree.Calculator
	logger       *slog.Logger
	pub          Publisher
	catalog      Catalog
	shopCapacity float64

	mu sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithPublisher sets the change event publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) { s.pub = p }
}

// WithCatalog sets the source for pricing option listings.
func WithCatalog(c Catalog) Option {
	return func(s *Service) { s.catalog = c }
}

// WithShopCapacity sets the linear feet per day used for lead time estimates.
func WithShopCapacity(lfPerDay float64) Option {
	return func(s *Service) { s.shopCapacity = lfPerDay }
}

// NewService creates a new spec service.
func NewService(store storage.Provider, resolver pricing.Resolver, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:    store,
		resolver: resolver,
		calc:     spectree.NewCalculator(resolver),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListProjects returns metadata for every stored project.
func (s *Service) ListProjects(_ context.Context) ([]models.ProjectMeta, error) {
	metas, err := s.store.List()
	if err != nil {
		return nil, err
	}
	if metas == nil {
		metas = []models.ProjectMeta{}
	}
	return metas, nil
}

// CreateProject stores an empty spec for id.
func (s *Service) CreateProject(_ context.Context, id string) (*SpecDetail, error) {
	if err := storage.ValidateID(id); err != nil {
		return nil, fmt.Errorf("specservice: %w: %v", apperr.ErrInvalidInput, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.store.Read(id); err == nil {
		return nil, fmt.Errorf("specservice: project %s: %w", id, apperr.ErrAlreadyExists)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	f := &spectree.Forest{Rooms: []*spectree.Node{}}
	detail, err := s.save(id, f)
	if err != nil {
		return nil, err
	}
	s.publish("created", id)
	return detail, nil
}

// DeleteProject removes a project's spec.
func (s *Service) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.Delete(id); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("specservice: project %s: %w", id, apperr.ErrNotFound)
		}
		return err
	}
	s.publish("deleted", id)
	return nil
}

// GetSpec loads a project and recomputes its totals against current pricing.
func (s *Service) GetSpec(_ context.Context, id string) (*SpecDetail, error) {
	f, sum, err := s.load(id)
	if err != nil {
		return nil, err
	}
	return s.detail(id, f, sum), nil
}

// mutate runs fn against a freshly loaded tree and persists the result.
// Nothing is written when fn fails.
func (s *Service) mutate(id, ifMatch, op string, fn func(f *spectree.Forest) (*Change, error)) (*Change, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, sum, err := s.load(id)
	if err != nil {
		return nil, err
	}
	if !checksum.Match(ifMatch, sum) {
		return nil, fmt.Errorf("specservice: %s on %s: %w", op, id, apperr.ErrConflict)
	}

	ch, err := fn(f)
	if err != nil {
		if errors.Is(err, apperr.ErrPathNotFound) {
			s.logger.Warn("stale path",
				slog.String("project", id),
				slog.String("op", op),
				slog.String("error", err.Error()))
		}
		return nil, err
	}
	if ch == nil {
		ch = &Change{}
	}

	detail, err := s.save(id, f)
	if err != nil {
		return nil, err
	}
	ch.Spec = detail
	s.publish("updated", id)
	return ch, nil
}

func (s *Service) load(id string) (*spectree.Forest, string, error) {
	data, err := s.store.Read(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, "", fmt.Errorf("specservice: project %s: %w", id, apperr.ErrNotFound)
		}
		return nil, "", err
	}
	f := &spectree.Forest{}
	if err := json.Unmarshal(data, f); err != nil {
		return nil, "", fmt.Errorf("specservice: decode %s: %w", id, err)
	}
	return f, checksum.Sum(data), nil
}

// save recomputes totals, then writes the tree with its computed values.
func (s *Service) save(id string, f *spectree.Forest) (*SpecDetail, error) {
	rep := s.calc.Recalculate(f)
	data, err := json.Marshal(f)
	if err != nil {
		return nil, fmt.Errorf("specservice: encode %s: %w", id, err)
	}
	if err := s.store.Write(id, data); err != nil {
		return nil, err
	}
	return s.build(id, f, rep, checksum.Sum(data)), nil
}

func (s *Service) detail(id string, f *spectree.Forest, sum string) *SpecDetail {
	return s.build(id, f, s.calc.Recalculate(f), sum)
}

func (s *Service) build(id string, f *spectree.Forest, rep spectree.Report, sum string) *SpecDetail {
	for _, fail := range rep.Failures {
		s.logger.Warn("pricing unavailable",
			slog.String("project", id),
			slog.String("run", fail.Path),
			slog.String("error", fail.Reason))
	}
	return &SpecDetail{
		ProjectID:       id,
		Rooms:           f,
		TotalLinearFeet: rep.TotalLinearFeet,
		TotalPrice:      rep.TotalPrice,
		LeadTimeDays:    s.leadTime(f, rep.TotalLinearFeet),
		NodeCount:       f.Count(),
		Failures:        rep.Failures,
		Checksum:        sum,
		UpdatedAt:       time.Now().UTC(),
	}
}

// leadTime estimates production days at the most demanding level in use.
func (s *Service) leadTime(f *spectree.Forest, lf float64) int {
	if lf <= 0 {
		return 0
	}
	level := pricing.Level(0)
	f.Walk(func(p spectree.Path, n *spectree.Node) {
		if n.Type != spectree.KindRun || n.LinearFeet <= 0 {
			return
		}
		t, err := spectree.EffectiveAt(f, p)
		if err == nil && t.Level > level {
			level = t.Level
		}
	})
	return pricing.EstimateLeadTime(lf, level, s.shopCapacity)
}

func (s *Service) publish(kind, id string) {
	if s.pub != nil {
		s.pub.PublishSpecEvent(kind, id)
	}
}
