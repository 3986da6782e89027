package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"tabbook/backend/internal/domain"
	"tabbook/backend/internal/metrics"
	"tabbook/backend/internal/mirror"
	"tabbook/backend/internal/store"
)

const persistTimeout = 5 * time.Second

// state is the whole working set. It is only touched with Service.mu held.
type state struct {
	inventory  []domain.InventoryItem
	history    []domain.ProductHistoryEntry
	sales      []domain.SaleRecord
	guests     []domain.Guest
	expenses   []domain.ExpenseRecord
	manual     []domain.ManualMonthlyEntry
	addons     []domain.Addon
	activeView string
}

// Service is the single writer for every collection. Each exported
// operation runs to completion under mu before the next one starts; the
// in-memory commit happens first and persistence follows.
type Service struct {
	mu      sync.Mutex
	repo    store.Repository
	mirror  mirror.Mirror
	metrics *metrics.Metrics
	logger  *slog.Logger
	loc     *time.Location
	now     func() time.Time

	st state
}

type Option func(*Service)

func WithMirror(m mirror.Mirror) Option {
	return func(s *Service) {
		if m != nil {
			s.mirror = m
		}
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		if m != nil {
			s.metrics = m
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the timezone used for settlement dates and "today".
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func New(repo store.Repository, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		mirror:  mirror.Noop{},
		metrics: metrics.New(),
		logger:  slog.Default(),
		loc:     time.Local,
		now:     time.Now,
		st: state{
			inventory: []domain.InventoryItem{},
			history:   []domain.ProductHistoryEntry{},
			sales:     []domain.SaleRecord{},
			guests:    []domain.Guest{},
			expenses:  []domain.ExpenseRecord{},
			manual:    []domain.ManualMonthlyEntry{},
			addons:    []domain.Addon{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads every collection from the repository, then reconciles the
// inventory with the mirror: a populated mirror wins, an empty one is seeded
// from the local copy.
func (s *Service) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loaded := state{}
	targets := map[store.Collection]any{
		store.CollectionInventory:      &loaded.inventory,
		store.CollectionProductHistory: &loaded.history,
		store.CollectionSales:          &loaded.sales,
		store.CollectionGuests:         &loaded.guests,
		store.CollectionExpenses:       &loaded.expenses,
		store.CollectionManualMonthly:  &loaded.manual,
		store.CollectionAddons:         &loaded.addons,
		store.CollectionActiveView:     &loaded.activeView,
	}
	for _, collection := range store.Collections {
		if _, err := s.repo.Load(ctx, collection, targets[collection]); err != nil {
			return fmt.Errorf("load %s: %w", collection, err)
		}
	}
	s.st = normalizeState(loaded)

	remote, err := s.mirror.Snapshot(ctx)
	switch {
	case err != nil:
		s.logger.Warn("mirror snapshot failed; keeping local inventory", "error", err)
	case len(remote) > 0:
		s.st.inventory = remote
		s.persist(ctx, store.CollectionInventory)
	default:
		if err := s.mirror.Sync(ctx, s.st.inventory); err != nil {
			s.mirrorFailed("sync", err)
		}
	}

	s.metrics.OpenTabs.Set(float64(len(s.st.guests)))
	s.logger.Info("state loaded",
		"inventory", len(s.st.inventory),
		"tabs", len(s.st.guests),
		"sales", len(s.st.sales),
	)
	return nil
}

func normalizeState(st state) state {
	if st.inventory == nil {
		st.inventory = []domain.InventoryItem{}
	}
	if st.history == nil {
		st.history = []domain.ProductHistoryEntry{}
	}
	if st.sales == nil {
		st.sales = []domain.SaleRecord{}
	}
	if st.guests == nil {
		st.guests = []domain.Guest{}
	}
	for i := range st.guests {
		if st.guests[i].Items == nil {
			st.guests[i].Items = []domain.OrderLine{}
		}
	}
	if st.expenses == nil {
		st.expenses = []domain.ExpenseRecord{}
	}
	if st.manual == nil {
		st.manual = []domain.ManualMonthlyEntry{}
	}
	if st.addons == nil {
		st.addons = []domain.Addon{}
	}
	return st
}

// WatchMirror applies remote inventory changes until ctx is done.
func (s *Service) WatchMirror(ctx context.Context) error {
	return s.mirror.Subscribe(ctx, func(items []domain.InventoryItem) {
		s.ReplaceInventory(ctx, items)
	})
}

// ReplaceInventory swaps the whole inventory for a remote copy. It does not
// echo the change back to the mirror.
func (s *Service) ReplaceInventory(ctx context.Context, items []domain.InventoryItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := make([]domain.InventoryItem, len(items))
	copy(replaced, items)
	s.st.inventory = replaced
	s.persist(ctx, store.CollectionInventory)
	s.logger.Debug("inventory replaced from mirror", "items", len(replaced))
}

func (s *Service) ActiveView() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.st.activeView
}

func (s *Service) SetActiveView(ctx context.Context, view string) (string, error) {
	view = trim(view)
	if view == "" {
		return "", fmt.Errorf("%w: view is required", store.ErrValidation)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.st.activeView = view
	s.persist(ctx, store.CollectionActiveView)
	return view, nil
}

// persist writes the named collections in one repository call. Failures are
// logged and counted; the in-memory state stays committed.
func (s *Service) persist(ctx context.Context, collections ...store.Collection) {
	docs := make(map[store.Collection]any, len(collections))
	for _, collection := range collections {
		docs[collection] = s.document(collection)
	}

	saveCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	if err := s.repo.SaveAll(saveCtx, docs); err != nil {
		for _, collection := range collections {
			s.metrics.PersistenceFailures.WithLabelValues(string(collection)).Inc()
		}
		s.logger.Warn("persist failed", "collections", collections, "error", err)
	}
}

func (s *Service) document(collection store.Collection) any {
	switch collection {
	case store.CollectionInventory:
		return s.st.inventory
	case store.CollectionProductHistory:
		return s.st.history
	case store.CollectionSales:
		return s.st.sales
	case store.CollectionGuests:
		return s.st.guests
	case store.CollectionExpenses:
		return s.st.expenses
	case store.CollectionManualMonthly:
		return s.st.manual
	case store.CollectionAddons:
		return s.st.addons
	case store.CollectionActiveView:
		return s.st.activeView
	default:
		return nil
	}
}

type mirrorOp int

const (
	mirrorAdd mirrorOp = iota
	mirrorUpdate
	mirrorRemove
)

func (s *Service) pushMirror(ctx context.Context, op mirrorOp, item domain.InventoryItem) {
	pushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	var err error
	switch op {
	case mirrorAdd:
		err = s.mirror.Add(pushCtx, item)
	case mirrorUpdate:
		err = s.mirror.Update(pushCtx, item)
	case mirrorRemove:
		err = s.mirror.Remove(pushCtx, item)
	}
	if err != nil {
		s.mirrorFailed(item.ID, err)
	}
}

func (s *Service) mirrorFailed(subject string, err error) {
	s.metrics.MirrorFailures.Inc()
	s.logger.Warn("mirror write failed", "subject", subject, "error", err)
}

func (s *Service) today() string {
	return s.now().In(s.loc).Format(dateLayout)
}
