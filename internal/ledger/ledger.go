// Package ledger tracks the consumable token balance of one session.
package ledger

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrReservationSettled  = errors.New("reservation already settled")
	ErrUnknownReservation  = errors.New("reservation does not belong to this ledger")
)

// Ledger holds a non-negative balance. Reserve debits immediately; Release
// gives the amount back and Commit makes the debit final.
type Ledger struct {
	mu      sync.Mutex
	balance int
	nextID  uint64
	open    map[uint64]int
}

// Reservation is a handle to an amount held by Reserve. It can be settled once.
type Reservation struct {
	id     uint64
	amount int
	ledger *Ledger
}

func (r Reservation) Amount() int { return r.amount }

func New(initial int) *Ledger {
	if initial < 0 {
		initial = 0
	}
	return &Ledger{balance: initial, open: map[uint64]int{}}
}

func (l *Ledger) Balance() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance
}

func (l *Ledger) Reserve(n int) (Reservation, error) {
	if n <= 0 {
		return Reservation{}, fmt.Errorf("%w: %d", ErrInvalidAmount, n)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.balance < n {
		return Reservation{}, fmt.Errorf("%w: have %d, need %d", ErrInsufficientBalance, l.balance, n)
	}
	l.balance -= n
	l.nextID++
	l.open[l.nextID] = n
	return Reservation{id: l.nextID, amount: n, ledger: l}, nil
}

func (l *Ledger) Commit(r Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, err := l.settle(r)
	return err
}

func (l *Ledger) Release(r Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	n, err := l.settle(r)
	if err != nil {
		return err
	}
	l.balance += n
	return nil
}

// Reset zeroes the balance and drops every open reservation. Dropped
// reservations can no longer be settled.
func (l *Ledger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance = 0
	l.open = map[uint64]int{}
}

// Credit adds n tokens, for restoring a persisted balance or a top-up.
func (l *Ledger) Credit(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidAmount, n)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balance += n
	return nil
}

func (l *Ledger) settle(r Reservation) (int, error) {
	if r.ledger != l {
		return 0, ErrUnknownReservation
	}
	n, ok := l.open[r.id]
	if !ok {
		return 0, ErrReservationSettled
	}
	delete(l.open, r.id)
	return n, nil
}
