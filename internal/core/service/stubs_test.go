package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/eatwhat/eatwhat-api/internal/core/domain"
)

// ---------------------------------------------------------------------------
// In-memory stub repositories
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu        sync.Mutex
	users     map[string]*domain.User
	nextID    int64
	findErr   error
	createErr error
	batches   [][]string // usernames per CreateMany call
}

func newStubUserRepo(seed ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range seed {
		r.nextID++
		clone := *u
		clone.ID = r.nextID
		r.users[u.Username] = &clone
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return nil, r.createErr
	}
	if _, ok := r.users[u.Username]; ok {
		return nil, domain.ErrUserExists
	}
	r.nextID++
	clone := *u
	clone.ID = r.nextID
	r.users[u.Username] = &clone
	out := clone
	return &out, nil
}

func (r *stubUserRepo) CreateMany(_ context.Context, users []*domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	names := make([]string, 0, len(users))
	for _, u := range users {
		r.nextID++
		clone := *u
		clone.ID = r.nextID
		r.users[u.Username] = &clone
		names = append(names, u.Username)
	}
	r.batches = append(r.batches, names)
	return nil
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	u, ok := r.users[username]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) ExistsByUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[username]
	return ok, nil
}

func (r *stubUserRepo) ExistsByEmail(_ context.Context, email string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.users))
	for _, u := range r.users {
		clone := *u
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubSessionRepo struct {
	mu        sync.Mutex
	byCode    map[string]*domain.Session
	nextID    int64
	lockCalls int
	// insertConflicts makes the next N Create calls fail with ErrDuplicateSessionCode.
	insertConflicts int
}

func newStubSessionRepo() *stubSessionRepo {
	return &stubSessionRepo{byCode: make(map[string]*domain.Session)}
}

func (r *stubSessionRepo) Create(_ context.Context, s *domain.Session) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.insertConflicts > 0 {
		r.insertConflicts--
		return nil, domain.ErrDuplicateSessionCode
	}
	if _, ok := r.byCode[s.Code]; ok {
		return nil, domain.ErrDuplicateSessionCode
	}
	r.nextID++
	clone := *s
	clone.ID = r.nextID
	r.byCode[s.Code] = &clone
	out := clone
	return &out, nil
}

func (r *stubSessionRepo) FindByCode(_ context.Context, code string) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byCode[code]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *stubSessionRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.byCode[code]
	return ok, nil
}

// Lock mirrors the conditional update of the real stores.
func (r *stubSessionRepo) Lock(_ context.Context, code string, lockedAt time.Time, selected *int64) (*domain.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byCode[code]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	if s.Status == domain.SessionLocked {
		return nil, domain.ErrSessionAlreadyLocked
	}
	r.lockCalls++
	s.Status = domain.SessionLocked
	s.LockedAt = &lockedAt
	s.SelectedRestaurantID = selected
	clone := *s
	return &clone, nil
}

// seed inserts a session directly, bypassing the service.
func (r *stubSessionRepo) seed(code string, status domain.SessionStatus) *domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	s := &domain.Session{ID: r.nextID, Code: code, Status: status, CreatedAt: time.Now().UTC()}
	r.byCode[code] = s
	return s
}

type stubRestaurantRepo struct {
	mu      sync.Mutex
	byID    map[int64]*domain.Restaurant
	nextID  int64
	listErr error
}

func newStubRestaurantRepo() *stubRestaurantRepo {
	return &stubRestaurantRepo{byID: make(map[int64]*domain.Restaurant)}
}

func (r *stubRestaurantRepo) Create(_ context.Context, in *domain.Restaurant) (*domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	clone := *in
	clone.ID = r.nextID
	r.byID[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *stubRestaurantRepo) ListBySession(_ context.Context, sessionID int64) ([]*domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]*domain.Restaurant, 0)
	for _, rest := range r.byID {
		if rest.SessionID == sessionID {
			clone := *rest
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].SubmittedAt.Before(out[j].SubmittedAt)
	})
	return out, nil
}

func (r *stubRestaurantRepo) CountBySession(ctx context.Context, sessionID int64) (int64, error) {
	list, err := r.ListBySession(ctx, sessionID)
	return int64(len(list)), err
}

func (r *stubRestaurantRepo) FirstBySession(ctx context.Context, sessionID int64) (*domain.Restaurant, error) {
	list, err := r.ListBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrRestaurantNotFound
	}
	return list[0], nil
}

func (r *stubRestaurantRepo) FindByID(_ context.Context, id int64) (*domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rest, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrRestaurantNotFound
	}
	clone := *rest
	return &clone, nil
}

func (r *stubRestaurantRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrRestaurantNotFound
	}
	delete(r.byID, id)
	return nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.SessionEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev domain.SessionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []domain.EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.EventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

// steppingClock returns strictly increasing timestamps so that ledger order is
// deterministic in tests.
func steppingClock() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
