// Package memstore holds in-memory implementations of the user and item
// repositories. They back the server when STORAGE=memory and the HTTP
// tests, and follow the same contract as the Postgres repositories: reads
// of missing rows return (nil, nil), emails are unique, and deleting a user
// deletes their items.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/user/starter-go/models"
)

// ErrDuplicateEmail mirrors the unique constraint on "user".email.
var ErrDuplicateEmail = errors.New("memstore: email already exists")

// ErrUnknownOwner mirrors the foreign key from item.user_id.
var ErrUnknownOwner = errors.New("memstore: item owner does not exist")

// Store is one shared dataset. Users and Items are views on it so the
// cascade from users to items can be honored under a single lock.
type Store struct {
	mu         sync.RWMutex
	users      map[int64]models.User
	items      map[int64]models.Item
	nextUserID int64
	nextItemID int64
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users: make(map[int64]models.User),
		items: make(map[int64]models.Item),
	}
}

// Users returns the user repository view of s.
func (s *Store) Users() *Users { return &Users{s: s} }

// Items returns the item repository view of s.
func (s *Store) Items() *Items { return &Items{s: s} }

// Users implements users.Repository and auth.UserReader.
type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *models.User) (int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return 0, ErrDuplicateEmail
		}
	}
	s.nextUserID++
	stored := *user
	stored.ID = s.nextUserID
	s.users[stored.ID] = stored
	return stored.ID, nil
}

// ReadAll returns safe fields only, ordered by id.
func (u *Users) ReadAll(_ context.Context) ([]models.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.User, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, models.User{ID: user.ID, Email: user.Email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (u *Users) ReadByID(_ context.Context, id int64) (*models.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &user, nil
}

func (u *Users) ReadByEmail(_ context.Context, email string) (*models.User, error) {
	s := u.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return &user, nil
		}
	}
	return nil, nil
}

func (u *Users) Update(_ context.Context, user *models.User) (int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return 0, nil
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return 0, ErrDuplicateEmail
		}
	}
	s.users[user.ID] = *user
	return 1, nil
}

func (u *Users) Delete(_ context.Context, id int64) (int64, error) {
	s := u.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return 0, nil
	}
	delete(s.users, id)
	for itemID, item := range s.items {
		if item.OwnerID == id {
			delete(s.items, itemID)
		}
	}
	return 1, nil
}

// Items implements items.Repository.
type Items struct{ s *Store }

func (i *Items) Create(_ context.Context, item *models.Item) (int64, error) {
	s := i.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[item.OwnerID]; !ok {
		return 0, ErrUnknownOwner
	}
	s.nextItemID++
	stored := *item
	stored.ID = s.nextItemID
	s.items[stored.ID] = stored
	return stored.ID, nil
}

func (i *Items) ReadAll(_ context.Context) ([]models.Item, error) {
	s := i.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Item, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (i *Items) ReadByID(_ context.Context, id int64) (*models.Item, error) {
	s := i.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, nil
	}
	return &item, nil
}

// Update changes the title only; ownership never moves.
func (i *Items) Update(_ context.Context, item *models.Item) (int64, error) {
	s := i.s
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.items[item.ID]
	if !ok {
		return 0, nil
	}
	stored.Title = item.Title
	s.items[item.ID] = stored
	return 1, nil
}

func (i *Items) Delete(_ context.Context, id int64) (int64, error) {
	s := i.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return 0, nil
	}
	delete(s.items, id)
	return 1, nil
}
