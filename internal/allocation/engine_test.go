package allocation

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/einsicht/review-scheduler/internal/model"
)

// memStore is an in-memory Store used to exercise the engine without a
// database.  All methods are safe for concurrent use.  failAddFor and
// failReleaseFor inject storage faults for one timeslot id; checkDelay
// widens the race window between the enrollment check and the insert.
type memStore struct {
	mu             sync.Mutex
	slots          map[uint64]*model.Timeslot
	students       map[uint64]bool
	enrollments    map[[2]uint64]bool // (studentID, timeslotID)
	failAddFor     uint64
	failReleaseFor uint64
	checkDelay     time.Duration
}

func newMemStore() *memStore {
	return &memStore{
		slots:       make(map[uint64]*model.Timeslot),
		students:    make(map[uint64]bool),
		enrollments: make(map[[2]uint64]bool),
	}
}

func (m *memStore) addSlot(id, reviewID uint64, max uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slots[id] = &model.Timeslot{ID: id, ReviewID: reviewID, MaxOccupancy: max}
}

func (m *memStore) addStudent(id uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.students[id] = true
}

func (m *memStore) occupancy(id uint64) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.slots[id].CurrentOccupancy
}

func (m *memStore) seatsHeldBy(studentID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.enrollments {
		if k[0] == studentID {
			n++
		}
	}
	return n
}

func (m *memStore) enrollmentCount(slotID uint64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.enrollments {
		if k[1] == slotID {
			n++
		}
	}
	return n
}

func (m *memStore) Timeslot(_ context.Context, id uint64) (*model.Timeslot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.slots[id]
	if !ok {
		return nil, ErrTimeslotNotFound
	}
	cp := *ts
	return &cp, nil
}

func (m *memStore) StudentExists(_ context.Context, id uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.students[id], nil
}

func (m *memStore) HasEnrollmentInReview(_ context.Context, studentID, reviewID uint64) (bool, error) {
	m.mu.Lock()
	held := false
	for k := range m.enrollments {
		if k[0] != studentID {
			continue
		}
		if ts, ok := m.slots[k[1]]; ok && ts.ReviewID == reviewID {
			held = true
			break
		}
	}
	delay := m.checkDelay
	m.mu.Unlock()
	// Simulated query latency after the read, so a caller that does not
	// serialize per student would act on a stale answer.
	if delay > 0 {
		time.Sleep(delay)
	}
	return held, nil
}

func (m *memStore) IsEnrolled(_ context.Context, studentID, timeslotID uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enrollments[[2]uint64{studentID, timeslotID}], nil
}

func (m *memStore) AddEnrollment(_ context.Context, studentID, timeslotID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAddFor == timeslotID {
		return errors.New("injected storage fault")
	}
	m.enrollments[[2]uint64{studentID, timeslotID}] = true
	return nil
}

func (m *memStore) RemoveEnrollment(_ context.Context, studentID, timeslotID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.enrollments, [2]uint64{studentID, timeslotID})
	return nil
}

func (m *memStore) Reserve(_ context.Context, timeslotID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts, ok := m.slots[timeslotID]
	if !ok {
		return ErrTimeslotNotFound
	}
	if ts.CurrentOccupancy >= ts.MaxOccupancy {
		return ErrTimeslotFull
	}
	ts.CurrentOccupancy++
	return nil
}

func (m *memStore) Release(_ context.Context, timeslotID uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReleaseFor == timeslotID {
		return errors.New("injected storage fault")
	}
	ts, ok := m.slots[timeslotID]
	if !ok {
		return ErrTimeslotNotFound
	}
	if ts.CurrentOccupancy > 0 {
		ts.CurrentOccupancy--
	}
	return nil
}

var _ Store = (*memStore)(nil)

func TestSignUp(t *testing.T) {
	ctx := context.Background()

	t.Run("takes a seat", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 2)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		assert.Equal(t, uint32(1), st.occupancy(1))
		assert.Equal(t, 1, st.enrollmentCount(1))
	})

	t.Run("unknown timeslot", func(t *testing.T) {
		st := newMemStore()
		st.addStudent(100)
		eng := NewEngine(st, nil)

		err := eng.SignUp(ctx, 100, 99)
		assert.ErrorIs(t, err, ErrTimeslotNotFound)
	})

	t.Run("unknown student", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 2)
		eng := NewEngine(st, nil)

		err := eng.SignUp(ctx, 999, 1)
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("full timeslot", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addStudent(100)
		st.addStudent(101)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		err := eng.SignUp(ctx, 101, 1)
		assert.ErrorIs(t, err, ErrTimeslotFull)
		assert.Equal(t, uint32(1), st.occupancy(1))
	})

	t.Run("duplicate signup same slot", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 5)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		err := eng.SignUp(ctx, 100, 1)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
		assert.Equal(t, uint32(1), st.occupancy(1))
	})

	t.Run("second slot of same review", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 5)
		st.addSlot(2, 10, 5)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		err := eng.SignUp(ctx, 100, 2)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
		assert.Equal(t, uint32(0), st.occupancy(2))
	})

	t.Run("slots of different reviews are independent", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 5)
		st.addSlot(2, 20, 5)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		require.NoError(t, eng.SignUp(ctx, 100, 2))
	})

	t.Run("failed enrollment insert gives the seat back", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 5)
		st.addStudent(100)
		st.failAddFor = 1
		eng := NewEngine(st, nil)

		err := eng.SignUp(ctx, 100, 1)
		require.Error(t, err)
		assert.Equal(t, uint32(0), st.occupancy(1))
		assert.Equal(t, 0, st.enrollmentCount(1))
	})
}

func TestSignOut(t *testing.T) {
	ctx := context.Background()

	t.Run("frees the seat", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addStudent(100)
		st.addStudent(101)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		require.NoError(t, eng.SignOut(ctx, 100, 1))
		assert.Equal(t, uint32(0), st.occupancy(1))

		// The freed seat can be taken again.
		require.NoError(t, eng.SignUp(ctx, 101, 1))
	})

	t.Run("not enrolled", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		err := eng.SignOut(ctx, 100, 1)
		assert.ErrorIs(t, err, ErrNotEnrolled)
		assert.Equal(t, uint32(0), st.occupancy(1))
	})
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("moves the seat", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addSlot(2, 10, 1)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		require.NoError(t, eng.Transfer(ctx, 100, 1, 2))
		assert.Equal(t, uint32(0), st.occupancy(1))
		assert.Equal(t, uint32(1), st.occupancy(2))
		assert.Equal(t, 0, st.enrollmentCount(1))
		assert.Equal(t, 1, st.enrollmentCount(2))
	})

	t.Run("full destination keeps the old seat", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addSlot(2, 10, 1)
		st.addStudent(100)
		st.addStudent(101)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		require.NoError(t, eng.SignUp(ctx, 101, 2))

		err := eng.Transfer(ctx, 100, 1, 2)
		assert.ErrorIs(t, err, ErrTimeslotFull)
		assert.Equal(t, uint32(1), st.occupancy(1))
		assert.Equal(t, 1, st.enrollmentCount(1))
	})

	t.Run("same slot", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		err := eng.Transfer(ctx, 100, 1, 1)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
	})

	t.Run("not enrolled in source", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addSlot(2, 10, 1)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		err := eng.Transfer(ctx, 100, 1, 2)
		assert.ErrorIs(t, err, ErrNotEnrolled)
	})

	t.Run("cross review with seat already held", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addSlot(2, 20, 5)
		st.addSlot(3, 20, 5)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		require.NoError(t, eng.SignUp(ctx, 100, 2))

		err := eng.Transfer(ctx, 100, 1, 3)
		assert.ErrorIs(t, err, ErrAlreadyEnrolled)
		assert.Equal(t, uint32(1), st.occupancy(1))
	})

	t.Run("release fault after the move still succeeds", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addSlot(2, 10, 1)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		st.failReleaseFor = 1

		// The enrollment has moved by the time the old seat is
		// released; the student keeps the new seat and the stuck
		// counter is an operator concern, not a caller error.
		require.NoError(t, eng.Transfer(ctx, 100, 1, 2))
		assert.Equal(t, 0, st.enrollmentCount(1))
		assert.Equal(t, 1, st.enrollmentCount(2))
		assert.Equal(t, uint32(1), st.occupancy(2))
	})

	t.Run("storage fault restores source", func(t *testing.T) {
		st := newMemStore()
		st.addSlot(1, 10, 1)
		st.addSlot(2, 10, 1)
		st.addStudent(100)
		eng := NewEngine(st, nil)

		require.NoError(t, eng.SignUp(ctx, 100, 1))
		st.failAddFor = 2

		err := eng.Transfer(ctx, 100, 1, 2)
		require.Error(t, err)
		assert.Equal(t, uint32(1), st.occupancy(1))
		assert.Equal(t, 1, st.enrollmentCount(1))
		assert.Equal(t, uint32(0), st.occupancy(2))
		assert.Equal(t, 0, st.enrollmentCount(2))
	})
}

func TestConcurrentSignUp(t *testing.T) {
	const capacity = 5
	const contenders = 50

	st := newMemStore()
	st.addSlot(1, 10, capacity)
	for i := uint64(1); i <= contenders; i++ {
		st.addStudent(i)
	}
	eng := NewEngine(st, nil)

	var wg sync.WaitGroup
	errs := make([]error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = eng.SignUp(context.Background(), uint64(i+1), 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, ErrTimeslotFull, fmt.Sprintf("student %d", i+1))
	}
	assert.Equal(t, capacity, succeeded)
	assert.Equal(t, uint32(capacity), st.occupancy(1))
	assert.Equal(t, capacity, st.enrollmentCount(1))
}

func TestConcurrentSwapDoesNotDeadlock(t *testing.T) {
	// Two students each hold the only seat of one slot and try to
	// swap simultaneously.  Reserve-before-release means both must
	// fail, but neither may lose their seat and neither goroutine may
	// block forever.
	st := newMemStore()
	st.addSlot(1, 10, 1)
	st.addSlot(2, 10, 1)
	st.addStudent(100)
	st.addStudent(101)
	eng := NewEngine(st, nil)

	ctx := context.Background()
	require.NoError(t, eng.SignUp(ctx, 100, 1))
	require.NoError(t, eng.SignUp(ctx, 101, 2))

	var wg sync.WaitGroup
	var errA, errB error
	wg.Add(2)
	go func() { defer wg.Done(); errA = eng.Transfer(ctx, 100, 1, 2) }()
	go func() { defer wg.Done(); errB = eng.Transfer(ctx, 101, 2, 1) }()
	wg.Wait()

	assert.ErrorIs(t, errA, ErrTimeslotFull)
	assert.ErrorIs(t, errB, ErrTimeslotFull)
	assert.Equal(t, uint32(1), st.occupancy(1))
	assert.Equal(t, uint32(1), st.occupancy(2))
	assert.Equal(t, 1, st.enrollmentCount(1))
	assert.Equal(t, 1, st.enrollmentCount(2))
}

func TestConcurrentSameStudentSignUp(t *testing.T) {
	// One student races sign-ups for two different slots of the same
	// review.  Without per-student serialization both enrollment checks
	// read "no seat yet" and both inserts go through, so the student
	// ends up holding two seats.  checkDelay widens that window.
	for iter := 0; iter < 20; iter++ {
		st := newMemStore()
		st.addSlot(1, 10, 5)
		st.addSlot(2, 10, 5)
		st.addStudent(100)
		st.checkDelay = 2 * time.Millisecond
		eng := NewEngine(st, nil)

		var wg sync.WaitGroup
		var errA, errB error
		wg.Add(2)
		go func() { defer wg.Done(); errA = eng.SignUp(context.Background(), 100, 1) }()
		go func() { defer wg.Done(); errB = eng.SignUp(context.Background(), 100, 2) }()
		wg.Wait()

		if errA == nil {
			require.ErrorIs(t, errB, ErrAlreadyEnrolled)
		} else {
			require.ErrorIs(t, errA, ErrAlreadyEnrolled)
			require.NoError(t, errB)
		}
		require.Equal(t, 1, st.seatsHeldBy(100))
		require.Equal(t, 1, st.enrollmentCount(1)+st.enrollmentCount(2))
	}
}

func TestConcurrentTransferAndSignUpSameReview(t *testing.T) {
	// A cross-review transfer races a sign-up into another slot of the
	// destination review.  Exactly one of the two may win; the loser
	// must see the seat the winner just took.
	for iter := 0; iter < 20; iter++ {
		st := newMemStore()
		st.addSlot(1, 10, 5)
		st.addSlot(2, 20, 5)
		st.addSlot(3, 20, 5)
		st.addStudent(100)
		st.checkDelay = 2 * time.Millisecond
		eng := NewEngine(st, nil)
		require.NoError(t, eng.SignUp(context.Background(), 100, 1))

		var wg sync.WaitGroup
		var errTransfer, errSignUp error
		wg.Add(2)
		go func() { defer wg.Done(); errTransfer = eng.Transfer(context.Background(), 100, 1, 3) }()
		go func() { defer wg.Done(); errSignUp = eng.SignUp(context.Background(), 100, 2) }()
		wg.Wait()

		if errTransfer == nil {
			require.ErrorIs(t, errSignUp, ErrAlreadyEnrolled)
		} else {
			require.ErrorIs(t, errTransfer, ErrAlreadyEnrolled)
			require.NoError(t, errSignUp)
		}
		require.Equal(t, 1, st.enrollmentCount(2)+st.enrollmentCount(3))
	}
}

func TestConcurrentSignUpAndSignOut(t *testing.T) {
	// Churn a single-seat slot: each student signs up and immediately
	// signs out again.  At the end the slot must be empty with no
	// enrollment rows left behind.
	st := newMemStore()
	st.addSlot(1, 10, 1)
	const contenders = 20
	for i := uint64(1); i <= contenders; i++ {
		st.addStudent(i)
	}
	eng := NewEngine(st, nil)

	var wg sync.WaitGroup
	for i := uint64(1); i <= contenders; i++ {
		wg.Add(1)
		go func(id uint64) {
			defer wg.Done()
			ctx := context.Background()
			for j := 0; j < 10; j++ {
				if err := eng.SignUp(ctx, id, 1); err == nil {
					require.NoError(t, eng.SignOut(ctx, id, 1))
				}
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, uint32(0), st.occupancy(1))
	assert.Equal(t, 0, st.enrollmentCount(1))
}
