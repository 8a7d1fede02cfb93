package database

import (
	"context"
	"sort"
	"sync"

	"bookstore/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Memory is the in-process Store. Values are copied on the way in and out so callers never
// share state with the store.
type Memory struct {
	products *memoryProducts
	carts    *memoryCarts
	users    *memoryUsers
}

func NewMemory() *Memory {
	return &Memory{
		products: &memoryProducts{items: make(map[int]models.Product)},
		carts:    &memoryCarts{items: make(map[string]*models.Cart)},
		users:    &memoryUsers{items: make(map[string]models.User)},
	}
}

func (m *Memory) Products() ProductStore { return m.products }
func (m *Memory) Carts() CartStore       { return m.carts }
func (m *Memory) Users() UserStore       { return m.users }

func (m *Memory) Ping(context.Context) error  { return nil }
func (m *Memory) Close(context.Context) error { return nil }

type memoryProducts struct {
	mu    sync.RWMutex
	items map[int]models.Product
}

func (s *memoryProducts) List(ctx context.Context) ([]models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int, 0, len(s.items))
	for id := range s.items {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.items[id].Clone())
	}
	return out, nil
}

func (s *memoryProducts) Get(ctx context.Context, id int) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.items[id]
	if !ok {
		return models.Product{}, ErrNotFound
	}
	return p.Clone(), nil
}

func (s *memoryProducts) Insert(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for id := range s.items {
		if id > maxID {
			maxID = id
		}
	}
	p.ID = maxID + 1
	p.Version = 1
	s.items[p.ID] = p.Clone()
	return nil
}

func (s *memoryProducts) Replace(ctx context.Context, p *models.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[p.ID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != p.Version {
		return ErrVersionConflict
	}
	next := p.Clone()
	next.Version++
	s.items[p.ID] = next
	p.Version = next.Version
	return nil
}

func (s *memoryProducts) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return ErrNotFound
	}
	delete(s.items, id)
	return nil
}

type memoryCarts struct {
	mu    sync.Mutex
	items map[string]*models.Cart
}

func (s *memoryCarts) Load(ctx context.Context, id string) (*models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	return c.Clone(), nil
}

func (s *memoryCarts) Save(ctx context.Context, c *models.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[c.ID]
	switch {
	case !ok && c.Version != 0:
		return ErrVersionConflict
	case ok && cur.Version != c.Version:
		return ErrVersionConflict
	}
	next := c.Clone()
	next.Version = c.Version + 1
	s.items[c.ID] = next
	c.Version = next.Version
	return nil
}

type memoryUsers struct {
	mu    sync.RWMutex
	items map[string]models.User
}

func (s *memoryUsers) FindByEmail(ctx context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.items[normalizeEmail(email)]
	if !ok {
		return models.User{}, ErrNotFound
	}
	return u, nil
}

func (s *memoryUsers) Insert(ctx context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u.Email = normalizeEmail(u.Email)
	if _, ok := s.items[u.Email]; ok {
		return ErrDuplicate
	}
	if u.ID.IsZero() {
		u.ID = primitive.NewObjectID()
	}
	s.items[u.Email] = *u
	return nil
}
