package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/domain"
	"github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/internal/event"
	apperrors "github.com/FiliyaaOfficial/heartfelt-creations-emporium-27-sub000/pkg/errors"
)

// --- In-memory stores ---

// fakeCarts keeps cart rows in memory with the same keying rules as the
// cart_items table. failOn makes one row's write fail.
type fakeCarts struct {
	mu     sync.Mutex
	rows   []domain.CartLine
	failOn map[uuid.UUID]error
}

func (f *fakeCarts) ListByOwner(_ context.Context, owner domain.Owner) ([]domain.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.CartLine
	for _, r := range f.rows {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeCarts) Add(context.Context, *domain.CartLine) (*domain.CartLine, error) {
	panic("not used")
}

func (f *fakeCarts) SetQuantity(context.Context, domain.Owner, uuid.UUID, int) error {
	panic("not used")
}

func (f *fakeCarts) Delete(context.Context, domain.Owner, uuid.UUID) error { panic("not used") }

func (f *fakeCarts) Clear(context.Context, domain.Owner) error { panic("not used") }

func (f *fakeCarts) index(owner domain.Owner, id uuid.UUID) int {
	for i, r := range f.rows {
		if r.ID == id && r.Owner == owner {
			return i
		}
	}
	return -1
}

func (f *fakeCarts) Reassign(_ context.Context, id uuid.UUID, from, to domain.Owner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return err
	}
	i := f.index(from, id)
	if i < 0 {
		return apperrors.NotFound("cart line", id.String())
	}
	for _, r := range f.rows {
		if r.Owner == to && r.ProductID == f.rows[i].ProductID {
			return apperrors.Conflict("duplicate")
		}
	}
	f.rows[i].Owner = to
	return nil
}

func (f *fakeCarts) Absorb(_ context.Context, from domain.Owner, lineID uuid.UUID, into domain.Owner, targetID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[lineID]; err != nil {
		return 0, err
	}
	src := f.index(from, lineID)
	dst := f.index(into, targetID)
	if src < 0 || dst < 0 {
		return 0, apperrors.NotFound("cart line", lineID.String())
	}
	f.rows[dst].Quantity += f.rows[src].Quantity
	qty := f.rows[dst].Quantity
	f.rows = append(f.rows[:src], f.rows[src+1:]...)
	return qty, nil
}

type fakeWishlists struct {
	mu     sync.Mutex
	rows   []domain.WishlistEntry
	failOn map[uuid.UUID]error
}

func (f *fakeWishlists) ListByOwner(_ context.Context, owner domain.Owner) ([]domain.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.WishlistEntry
	for _, r := range f.rows {
		if r.Owner == owner {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeWishlists) Add(context.Context, domain.Owner, uuid.UUID) (*domain.WishlistEntry, error) {
	panic("not used")
}

func (f *fakeWishlists) Remove(context.Context, domain.Owner, uuid.UUID) error { panic("not used") }

func (f *fakeWishlists) Contains(context.Context, domain.Owner, uuid.UUID) (bool, error) {
	panic("not used")
}

func (f *fakeWishlists) DeleteByID(_ context.Context, owner domain.Owner, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return err
	}
	for i, r := range f.rows {
		if r.ID == id && r.Owner == owner {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("wishlist entry", id.String())
}

func (f *fakeWishlists) Reassign(_ context.Context, id uuid.UUID, from, to domain.Owner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failOn[id]; err != nil {
		return err
	}
	for i, r := range f.rows {
		if r.ID == id && r.Owner == from {
			f.rows[i].Owner = to
			return nil
		}
	}
	return apperrors.NotFound("wishlist entry", id.String())
}

// --- Helpers ---

var (
	testSession = domain.SessionOwner("sess-1")
	testUser    = domain.UserOwner("user-1")
	productA    = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	productB    = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	productX    = uuid.MustParse("00000000-0000-0000-0000-0000000000f1")
	productY    = uuid.MustParse("00000000-0000-0000-0000-0000000000f2")
)

func cartRow(owner domain.Owner, product uuid.UUID, qty int) domain.CartLine {
	return domain.CartLine{ID: uuid.New(), Owner: owner, ProductID: product, Quantity: qty, UnitPrice: 1000}
}

func wishRow(owner domain.Owner, product uuid.UUID) domain.WishlistEntry {
	return domain.WishlistEntry{ID: uuid.New(), Owner: owner, ProductID: product}
}

func newMergeService(carts *fakeCarts, wishes *fakeWishlists, pub *recordingPublisher) *MergeService {
	logger := newTestLogger()
	return NewMergeService(carts, wishes, nil, event.NewProducer(pub, logger), "INR", time.Second, logger)
}

func quantities(lines []domain.CartLine) map[uuid.UUID]int {
	out := make(map[uuid.UUID]int, len(lines))
	for _, l := range lines {
		out[l.ProductID] = l.Quantity
	}
	return out
}

// --- Cart merge ---

func TestMergeSession_SumsAndTransfersCart(t *testing.T) {
	carts := &fakeCarts{rows: []domain.CartLine{
		cartRow(testSession, productA, 2),
		cartRow(testUser, productA, 1),
		cartRow(testUser, productB, 3),
	}}
	pub := &recordingPublisher{}
	svc := newMergeService(carts, &fakeWishlists{}, pub)

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, map[uuid.UUID]int{productA: 3, productB: 3}, quantities(result.Cart.Lines))
	assert.Equal(t, 1, result.CartReport.Scanned)
	assert.Equal(t, 1, result.CartReport.Summed)
	assert.Zero(t, result.CartReport.Transferred)
	assert.False(t, result.CartReport.Partial())

	left, _ := carts.ListByOwner(context.Background(), testSession)
	assert.Empty(t, left)

	require.Len(t, pub.topics, 1)
	assert.Equal(t, event.TopicCartMerged, pub.topics[0])
	var data event.CartMergedData
	require.NoError(t, pub.events[0].UnmarshalData(&data))
	assert.Equal(t, 1, data.CartSummed)
}

func TestMergeSession_TransfersLineInPlace(t *testing.T) {
	custom := "Happy birthday, Asha"
	anon := cartRow(testSession, productB, 4)
	anon.Customization = &custom
	anon.SelectedOptions = map[string]any{"wrap": "gold"}
	carts := &fakeCarts{rows: []domain.CartLine{anon, cartRow(testUser, productA, 1)}}
	svc := newMergeService(carts, &fakeWishlists{}, &recordingPublisher{})

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)

	require.Len(t, result.Cart.Lines, 2)
	var moved domain.CartLine
	for _, l := range result.Cart.Lines {
		if l.ProductID == productB {
			moved = l
		}
	}
	assert.Equal(t, anon.ID, moved.ID)
	assert.Equal(t, 4, moved.Quantity)
	assert.Equal(t, &custom, moved.Customization)
	assert.Equal(t, "gold", moved.SelectedOptions["wrap"])
	assert.Equal(t, testUser, moved.Owner)
	assert.Equal(t, 1, result.CartReport.Transferred)
}

func TestMergeSession_SecondRunIsNoop(t *testing.T) {
	carts := &fakeCarts{rows: []domain.CartLine{
		cartRow(testSession, productA, 2),
		cartRow(testUser, productA, 1),
	}}
	pub := &recordingPublisher{}
	svc := newMergeService(carts, &fakeWishlists{}, pub)

	_, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)
	second, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, map[uuid.UUID]int{productA: 3}, quantities(second.Cart.Lines))
	assert.Zero(t, second.CartReport.Scanned)
	assert.Len(t, pub.topics, 1, "nothing to report on the second run")
}

func TestMergeSession_RowFailureIsReportedAndOthersContinue(t *testing.T) {
	broken := cartRow(testSession, productA, 2)
	carts := &fakeCarts{
		rows: []domain.CartLine{
			broken,
			cartRow(testSession, productB, 1),
			cartRow(testUser, productA, 5),
		},
		failOn: map[uuid.UUID]error{broken.ID: errors.New("connection reset")},
	}
	svc := newMergeService(carts, &fakeWishlists{}, &recordingPublisher{})

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)

	assert.True(t, result.CartReport.Partial())
	require.Len(t, result.CartReport.Failures, 1)
	assert.Equal(t, broken.ID, result.CartReport.Failures[0].LineID)
	assert.Equal(t, "cart.sum", result.CartReport.Failures[0].Step)
	assert.Equal(t, 1, result.CartReport.Transferred)

	assert.Equal(t, map[uuid.UUID]int{productA: 5, productB: 1}, quantities(result.Cart.Lines))
	left, _ := carts.ListByOwner(context.Background(), testSession)
	require.Len(t, left, 1)
	assert.Equal(t, broken.ID, left[0].ID)

	// Once the fault clears a retry folds the leftover row in exactly once.
	carts.failOn = nil
	retry, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[uuid.UUID]int{productA: 7, productB: 1}, quantities(retry.Cart.Lines))
}

// --- Wishlist merge ---

func TestMergeSession_Wishlist(t *testing.T) {
	keep := wishRow(testUser, productY)
	dup := wishRow(testSession, productY)
	move := wishRow(testSession, productX)
	wishes := &fakeWishlists{rows: []domain.WishlistEntry{keep, dup, move}}
	svc := newMergeService(&fakeCarts{}, wishes, &recordingPublisher{})

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)

	require.Len(t, result.Wishlist, 2)
	ids := map[uuid.UUID]uuid.UUID{}
	for _, e := range result.Wishlist {
		ids[e.ProductID] = e.ID
	}
	assert.Equal(t, keep.ID, ids[productY], "existing user entry is left untouched")
	assert.Equal(t, move.ID, ids[productX], "transferred entry keeps its id")
	assert.Equal(t, 1, result.WishlistReport.Summed)
	assert.Equal(t, 1, result.WishlistReport.Transferred)

	left, _ := wishes.ListByOwner(context.Background(), testSession)
	assert.Empty(t, left)
}

func TestMergeSession_WishlistRowFailuresAreReportedAndRetried(t *testing.T) {
	productZ := uuid.MustParse("00000000-0000-0000-0000-0000000000f3")
	saved := wishRow(testUser, productY)
	brokenDrop := wishRow(testSession, productY)
	brokenMove := wishRow(testSession, productX)
	move := wishRow(testSession, productZ)
	wishes := &fakeWishlists{
		rows: []domain.WishlistEntry{saved, brokenDrop, brokenMove, move},
		failOn: map[uuid.UUID]error{
			brokenDrop.ID: errors.New("connection reset"),
			brokenMove.ID: errors.New("deadlock detected"),
		},
	}
	svc := newMergeService(&fakeCarts{}, wishes, &recordingPublisher{})

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)

	report := result.WishlistReport
	assert.True(t, report.Partial())
	assert.Equal(t, 3, report.Scanned)
	assert.Equal(t, 1, report.Transferred)
	assert.Zero(t, report.Summed)
	require.Len(t, report.Failures, 2)
	steps := map[uuid.UUID]string{}
	for _, f := range report.Failures {
		steps[f.LineID] = f.Step
	}
	assert.Equal(t, "wishlist.drop", steps[brokenDrop.ID])
	assert.Equal(t, "wishlist.transfer", steps[brokenMove.ID])

	left, _ := wishes.ListByOwner(context.Background(), testSession)
	leftIDs := make([]uuid.UUID, 0, len(left))
	for _, e := range left {
		leftIDs = append(leftIDs, e.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{brokenDrop.ID, brokenMove.ID}, leftIDs)

	// With the fault cleared a retry finishes the leftovers.
	wishes.failOn = nil
	retry, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)
	assert.False(t, retry.WishlistReport.Partial())
	assert.Equal(t, 1, retry.WishlistReport.Summed)
	assert.Equal(t, 1, retry.WishlistReport.Transferred)
	assert.Len(t, retry.Wishlist, 3)

	left, _ = wishes.ListByOwner(context.Background(), testSession)
	assert.Empty(t, left)
}

func TestMergeSession_EmptySession(t *testing.T) {
	carts := &fakeCarts{rows: []domain.CartLine{cartRow(testUser, productA, 1)}}
	pub := &recordingPublisher{}
	svc := newMergeService(carts, &fakeWishlists{}, pub)

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)
	assert.Len(t, result.Cart.Lines, 1)
	assert.Empty(t, pub.topics)
}

// --- Locking and inputs ---

func TestMergeSession_RequiresBothIDs(t *testing.T) {
	svc := newMergeService(&fakeCarts{}, &fakeWishlists{}, &recordingPublisher{})

	_, err := svc.MergeSession(context.Background(), "", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = svc.MergeSession(context.Background(), "sess-1", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestMergeSession_LockHeldElsewhere(t *testing.T) {
	lock := new(mockMergeLock)
	lock.On("Acquire", mock.Anything, "sess-1", "user-1", time.Second).
		Return(nil, apperrors.Conflict("merge already in progress"))

	logger := newTestLogger()
	svc := NewMergeService(&fakeCarts{}, &fakeWishlists{}, lock, event.NewProducer(nil, logger), "INR", time.Second, logger)

	_, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	assert.ErrorIs(t, err, apperrors.ErrConflict)
	lock.AssertExpectations(t)
}

func TestMergeSession_ReleasesLock(t *testing.T) {
	released := false
	lock := new(mockMergeLock)
	lock.On("Acquire", mock.Anything, "sess-1", "user-1", time.Second).
		Return(func(context.Context) error { released = true; return nil }, nil)

	logger := newTestLogger()
	carts := &fakeCarts{rows: []domain.CartLine{cartRow(testSession, productA, 1)}}
	svc := NewMergeService(carts, &fakeWishlists{}, lock, event.NewProducer(nil, logger), "INR", time.Second, logger)

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)
	assert.Len(t, result.Cart.Lines, 1)
	assert.True(t, released)
}

func TestMergeSession_LockBackendDownStillMerges(t *testing.T) {
	lock := new(mockMergeLock)
	lock.On("Acquire", mock.Anything, "sess-1", "user-1", time.Second).
		Return(nil, errors.New("dial tcp: connection refused"))

	logger := newTestLogger()
	carts := &fakeCarts{rows: []domain.CartLine{cartRow(testSession, productA, 1)}}
	svc := NewMergeService(carts, &fakeWishlists{}, lock, event.NewProducer(nil, logger), "INR", time.Second, logger)

	result, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	require.NoError(t, err)
	assert.Len(t, result.Cart.Lines, 1)
}

func TestMergeSession_LoadFailureIsFatal(t *testing.T) {
	carts := new(mockCartRepository)
	carts.On("ListByOwner", mock.Anything, testSession).Return(nil, errors.New("db down"))

	logger := newTestLogger()
	svc := NewMergeService(carts, &fakeWishlists{}, nil, event.NewProducer(nil, logger), "INR", time.Second, logger)

	_, err := svc.MergeSession(context.Background(), "sess-1", "user-1")
	assert.Error(t, err)
	carts.AssertExpectations(t)
}
