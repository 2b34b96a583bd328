package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveCommit(t *testing.T) {
	l := New(2)
	r, err := l.Reserve(1)
	require.NoError(t, err)
	assert.Equal(t, 1, l.Balance())
	require.NoError(t, l.Commit(r))
	assert.Equal(t, 1, l.Balance())
	assert.ErrorIs(t, l.Commit(r), ErrReservationSettled)
	assert.ErrorIs(t, l.Release(r), ErrReservationSettled)
	assert.Equal(t, 1, l.Balance())
}

func TestReserveRelease(t *testing.T) {
	l := New(1)
	r, err := l.Reserve(1)
	require.NoError(t, err)
	assert.Equal(t, 0, l.Balance())
	require.NoError(t, l.Release(r))
	assert.Equal(t, 1, l.Balance())
	assert.ErrorIs(t, l.Release(r), ErrReservationSettled)
}

func TestReserveInsufficient(t *testing.T) {
	l := New(0)
	_, err := l.Reserve(1)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 0, l.Balance())

	l = New(3)
	_, err = l.Reserve(4)
	assert.ErrorIs(t, err, ErrInsufficientBalance)
	assert.Equal(t, 3, l.Balance())
}

func TestReserveInvalidAmount(t *testing.T) {
	l := New(3)
	for _, n := range []int{0, -1} {
		_, err := l.Reserve(n)
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.ErrorIs(t, l.Credit(0), ErrInvalidAmount)
	assert.Equal(t, 3, l.Balance())
}

func TestNegativeInitialBalance(t *testing.T) {
	assert.Equal(t, 0, New(-5).Balance())
}

func TestResetDropsReservations(t *testing.T) {
	l := New(5)
	r, err := l.Reserve(2)
	require.NoError(t, err)
	l.Reset()
	assert.Equal(t, 0, l.Balance())
	assert.ErrorIs(t, l.Release(r), ErrReservationSettled)
	assert.Equal(t, 0, l.Balance())
}

func TestForeignReservation(t *testing.T) {
	a, b := New(1), New(1)
	r, err := a.Reserve(1)
	require.NoError(t, err)
	assert.ErrorIs(t, b.Commit(r), ErrUnknownReservation)
	assert.ErrorIs(t, b.Commit(Reservation{}), ErrUnknownReservation)
}

func TestConcurrentReserveNeverOverdraws(t *testing.T) {
	l := New(50)
	var wg sync.WaitGroup
	var mu sync.Mutex
	granted := 0
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r, err := l.Reserve(1)
			if err != nil {
				return
			}
			if l.Commit(r) == nil {
				mu.Lock()
				granted++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, granted)
	assert.Equal(t, 0, l.Balance())
}
