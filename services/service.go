package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/sigil/config"
	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/progression"
)

// Service holds the transactional domain logic behind the HTTP handlers.
// The progression engine stays pure; Service feeds it snapshots read
// inside transactions and persists what it returns.
type Service struct {
	db       *gorm.DB
	cfg      config.AppConfig
	curve    *progression.Curve
	mastery  progression.MasteryCurve
	registry *progression.Registry
	now      func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithCurve replaces the embedded level curve.
func WithCurve(c *progression.Curve) Option {
	return func(s *Service) { s.curve = c }
}

// WithRegistry replaces the built-in achievement set.
func WithRegistry(r *progression.Registry) Option {
	return func(s *Service) { s.registry = r }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New builds a Service over db.
func New(db *gorm.DB, cfg config.AppConfig, opts ...Option) *Service {
	s := &Service{
		db:       db,
		cfg:      cfg,
		curve:    progression.DefaultCurve(),
		mastery:  progression.MasteryCurve{Base: cfg.MasteryBase, Growth: cfg.MasteryGrowth},
		registry: progression.DefaultRegistry(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Curve exposes the active level curve.
func (s *Service) Curve() *progression.Curve { return s.curve }

// Registry exposes the active achievement set.
func (s *Service) Registry() *progression.Registry { return s.registry }

func (s *Service) today(u *models.User) string {
	return progression.Today(s.now(), u.Location())
}

func (s *Service) shardRate() int {
	if s.cfg.ShardRate < 1 {
		return 1
	}
	return s.cfg.ShardRate
}

func (s *Service) loadUser(ctx context.Context, uid uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, uid).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

func lockUser(tx *gorm.DB, uid uint) (*models.User, error) {
	var u models.User
	if err := lockForUpdate(tx).First(&u, uid).Error; err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return &u, nil
}

// levelInfo resolves the user's level from the folded total plus bonus.
func (s *Service) levelInfo(u *models.User) progression.LevelInfo {
	return s.curve.Resolve(u.XPTotal + u.BonusPoints)
}

func validDate(d string) bool {
	_, err := time.Parse(progression.DateLayout, d)
	return err == nil
}
