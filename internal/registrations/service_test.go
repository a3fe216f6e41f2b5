package registrations

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aura-workshops/backend/internal/models"
)

type mockFinder struct {
	workshops []*models.Workshop
	err       error
}

func (m *mockFinder) FindByTitle(_ context.Context, text string) (*models.Workshop, error) {
	if m.err != nil {
		return nil, m.err
	}
	q := strings.ToLower(strings.TrimSpace(text))
	for _, w := range m.workshops {
		if strings.Contains(strings.ToLower(w.Title), q) {
			cp := *w
			return &cp, nil
		}
	}
	return nil, nil
}

type memStore struct {
	regs      []*models.Registration
	capacity  map[uuid.UUID]int
	inserts   int
	insertErr error
	countErr  error
}

func newMemStore() *memStore {
	return &memStore{capacity: map[uuid.UUID]int{}}
}

func (m *memStore) confirmed(workshopID uuid.UUID) int {
	n := 0
	for _, r := range m.regs {
		if r.WorkshopID == workshopID && r.Status == models.RegistrationStatusConfirmed {
			n++
		}
	}
	return n
}

func (m *memStore) Insert(_ context.Context, reg *models.Registration) error {
	m.inserts++
	if m.insertErr != nil {
		return m.insertErr
	}
	if c, ok := m.capacity[reg.WorkshopID]; ok && m.confirmed(reg.WorkshopID) >= c {
		return ErrCapacityExceeded
	}
	reg.ID = uuid.New()
	reg.Status = models.RegistrationStatusConfirmed
	m.regs = append(m.regs, reg)
	return nil
}

func (m *memStore) CountByWorkshop(_ context.Context, workshopID uuid.UUID) (int, error) {
	return m.confirmed(workshopID), m.countErr
}

func (m *memStore) IsRegistered(_ context.Context, workshopID, userID uuid.UUID) (bool, error) {
	for _, r := range m.regs {
		if r.WorkshopID == workshopID && r.UserID != nil && *r.UserID == userID && r.Status == models.RegistrationStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) ExistsByEmail(_ context.Context, workshopID uuid.UUID, email string) (bool, error) {
	for _, r := range m.regs {
		if r.WorkshopID == workshopID && strings.EqualFold(r.Email, email) && r.Status == models.RegistrationStatusConfirmed {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MostRecentByUser(_ context.Context, userID uuid.UUID) (*models.Registration, error) {
	for i := len(m.regs) - 1; i >= 0; i-- {
		if r := m.regs[i]; r.UserID != nil && *r.UserID == userID {
			return r, nil
		}
	}
	return nil, nil
}

func (m *memStore) CancelByUser(_ context.Context, workshopID, userID uuid.UUID) (int64, error) {
	var n int64
	for _, r := range m.regs {
		if r.WorkshopID == workshopID && r.UserID != nil && *r.UserID == userID && r.Status == models.RegistrationStatusConfirmed {
			r.Status = models.RegistrationStatusCancelled
			n++
		}
	}
	return n, nil
}

func (m *memStore) CancelByEmail(_ context.Context, workshopID uuid.UUID, email string) (int64, error) {
	var n int64
	for _, r := range m.regs {
		if r.WorkshopID == workshopID && strings.EqualFold(r.Email, email) && r.Status == models.RegistrationStatusConfirmed {
			r.Status = models.RegistrationStatusCancelled
			n++
		}
	}
	return n, nil
}

func seed(store *memStore, w *models.Workshop, registered int) {
	store.capacity[w.ID] = w.Capacity
	for i := 0; i < registered; i++ {
		store.regs = append(store.regs, &models.Registration{
			ID: uuid.New(), WorkshopID: w.ID, Email: uuid.NewString() + "@example.com", Status: models.RegistrationStatusConfirmed,
		})
	}
}

func TestRegisterSucceedsWhenSeatsRemain(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "Web Dev", Capacity: 5}
	store := newMemStore()
	seed(store, w, 4)
	svc := NewService(store, &mockFinder{workshops: []*models.Workshop{w}}, nil)

	res, err := svc.Register(context.Background(), Request{
		WorkshopTitle: "web dev", FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com", Phone: " 555-0100 ",
	})
	require.NoError(t, err)
	require.NotNil(t, res.Registration)
	assert.Equal(t, "Web Dev", res.Workshop.Title)
	assert.Equal(t, 5, res.Workshop.RegisteredCount)
	require.NotNil(t, res.Registration.Phone)
	assert.Equal(t, "555-0100", *res.Registration.Phone)
}

func TestRegisterCapacityExceeded(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "Web Dev", Capacity: 5}
	store := newMemStore()
	seed(store, w, 5)
	svc := NewService(store, &mockFinder{workshops: []*models.Workshop{w}}, nil)

	res, err := svc.Register(context.Background(), Request{
		WorkshopTitle: "web dev", FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com",
	})
	require.ErrorIs(t, err, ErrCapacityExceeded)
	assert.Equal(t, "Web Dev", res.Workshop.Title)
	assert.Zero(t, store.inserts)
}

func TestRegisterWorkshopNotFound(t *testing.T) {
	svc := NewService(newMemStore(), &mockFinder{}, nil)
	_, err := svc.Register(context.Background(), Request{WorkshopTitle: "knitting", FirstName: "A", LastName: "B", Email: "a@b.co"})
	assert.ErrorIs(t, err, ErrWorkshopNotFound)
}

func TestRegisterIncompleteContact(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "Web Dev", Capacity: 5}
	svc := NewService(newMemStore(), &mockFinder{workshops: []*models.Workshop{w}}, nil)

	_, err := svc.Register(context.Background(), Request{WorkshopTitle: "web dev", Email: "ada@x.com"})
	var inc *IncompleteError
	require.ErrorAs(t, err, &inc)
	assert.Equal(t, []string{FieldFirstName, FieldLastName}, inc.Missing)
}

func TestRegisterDuplicateByUserAndEmail(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "Web Dev", Capacity: 5}
	store := newMemStore()
	svc := NewService(store, &mockFinder{workshops: []*models.Workshop{w}}, nil)
	ctx := context.Background()
	uid := uuid.New()

	req := Request{WorkshopTitle: "web dev", FirstName: "Ada", LastName: "Lovelace", Email: "ada@x.com", UserID: &uid}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)
	_, err = svc.Register(ctx, req)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)

	anon := Request{WorkshopTitle: "web dev", FirstName: "Ada", LastName: "Lovelace", Email: "ADA@x.com"}
	_, err = svc.Register(ctx, anon)
	assert.ErrorIs(t, err, ErrAlreadyRegistered)
	assert.Equal(t, 1, store.inserts)
}

func TestRegisterWrapsStoreFailure(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "Web Dev", Capacity: 5}
	store := newMemStore()
	store.insertErr = errors.New("connection reset")
	svc := NewService(store, &mockFinder{workshops: []*models.Workshop{w}}, nil)

	_, err := svc.Register(context.Background(), Request{WorkshopTitle: "web dev", FirstName: "A", LastName: "B", Email: "a@b.co"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "insert registration")
	assert.NotErrorIs(t, err, ErrCapacityExceeded)
}

func TestRegisterLookupFailure(t *testing.T) {
	svc := NewService(newMemStore(), &mockFinder{err: errors.New("timeout")}, nil)
	_, err := svc.Register(context.Background(), Request{WorkshopTitle: "web dev"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "find workshop")
}

func TestCancel(t *testing.T) {
	w := &models.Workshop{ID: uuid.New(), Title: "Web Dev", Capacity: 5}
	store := newMemStore()
	svc := NewService(store, &mockFinder{workshops: []*models.Workshop{w}}, nil)
	ctx := context.Background()
	uid := uuid.New()

	_, err := svc.Cancel(ctx, CancelRequest{WorkshopTitle: "web dev"})
	assert.ErrorIs(t, err, ErrMissingIdentity)

	_, err = svc.Cancel(ctx, CancelRequest{WorkshopTitle: "web dev", UserID: &uid})
	assert.ErrorIs(t, err, ErrNotRegistered)

	_, err = svc.Register(ctx, Request{WorkshopTitle: "web dev", FirstName: "A", LastName: "B", Email: "a@b.co", UserID: &uid})
	require.NoError(t, err)

	res, err := svc.Cancel(ctx, CancelRequest{WorkshopTitle: "web dev", UserID: &uid})
	require.NoError(t, err)
	assert.Equal(t, "Web Dev", res.Workshop.Title)

	ok, err := svc.IsRegistered(ctx, w.ID, uid)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingContactOrder(t *testing.T) {
	assert.Equal(t, []string{FieldFirstName, FieldLastName, FieldEmail}, Request{}.MissingContact())
	assert.Equal(t, []string{FieldEmail}, Request{FirstName: "A", LastName: "B"}.MissingContact())
	assert.Empty(t, Request{FirstName: "A", LastName: "B", Email: "a@b.co"}.MissingContact())
}
