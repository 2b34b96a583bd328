package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/wallet"
)

var ErrSessionNotFound = errors.New("session not found")

type WalletService interface {
	Connect(ctx context.Context, walletType string) (wallet.Info, error)
	Disconnect(ctx context.Context, address string) error
	CheckBalance(ctx context.Context, address string) (int, error)
}

// Manager creates sessions from wallet connections, keeps the live ones in
// memory and persists them through a StateStore.
type Manager struct {
	store  StateStore
	wallet WalletService
	now    func() time.Time
	newID  func() string

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewManager(store StateStore, w WalletService) *Manager {
	return &Manager{
		store:    store,
		wallet:   w,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		sessions: map[string]*Session{},
	}
}

func metaKey(id string) string    { return "session:" + id + ":meta" }
func balanceKey(id string) string { return "session:" + id + ":balance" }
func historyKey(id string) string { return "session:" + id + ":history" }

// Connect opens a wallet connection and starts a session funded with the
// wallet's balance.
func (m *Manager) Connect(ctx context.Context, walletType string) (*Session, error) {
	info, err := m.wallet.Connect(ctx, walletType)
	if err != nil {
		return nil, err
	}
	balance, err := m.wallet.CheckBalance(ctx, info.Address)
	if err != nil {
		return nil, fmt.Errorf("check wallet balance: %w", err)
	}
	sess := New(m.newID(), info.Address, info.Type, balance, m.now())
	if err := m.Save(ctx, sess); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	zerolog.Ctx(ctx).Info().Str("session_id", sess.ID).Str("wallet_type", info.Type).Int("balance", balance).Msg("session connected")
	return sess, nil
}

// Get returns a live session, restoring it from the store when it is not in
// memory.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sess, ok := m.sessions[id]; ok {
		return sess, nil
	}
	sess, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	m.sessions[id] = sess
	return sess, nil
}

// Disconnect zeroes the balance, releases the wallet and forgets the session.
func (m *Manager) Disconnect(ctx context.Context, id string) error {
	sess, err := m.Get(ctx, id)
	if err != nil {
		return err
	}
	_ = sess.Do(func() error {
		sess.Ledger.Reset()
		return nil
	})
	if err := m.wallet.Disconnect(ctx, sess.WalletAddress); err != nil {
		return fmt.Errorf("disconnect wallet: %w", err)
	}
	for _, key := range []string{metaKey(id), balanceKey(id), historyKey(id)} {
		if err := m.store.Delete(ctx, key); err != nil {
			return err
		}
	}
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	zerolog.Ctx(ctx).Info().Str("session_id", id).Msg("session disconnected")
	return nil
}

// Save writes the session's metadata, balance and history. It does not take
// the session lock, so it can run inside Session.Do.
func (m *Manager) Save(ctx context.Context, sess *Session) error {
	metaJSON, err := json.Marshal(meta{
		ID:            sess.ID,
		WalletAddress: sess.WalletAddress,
		WalletType:    sess.WalletType,
		ConnectedAt:   sess.ConnectedAt,
	})
	if err != nil {
		return fmt.Errorf("marshal session meta: %w", err)
	}
	historyJSON, err := json.Marshal(sess.History.All())
	if err != nil {
		return fmt.Errorf("marshal session history: %w", err)
	}
	if err := m.store.Set(ctx, metaKey(sess.ID), metaJSON); err != nil {
		return err
	}
	if err := m.store.Set(ctx, balanceKey(sess.ID), []byte(strconv.Itoa(sess.Ledger.Balance()))); err != nil {
		return err
	}
	return m.store.Set(ctx, historyKey(sess.ID), historyJSON)
}

func (m *Manager) load(ctx context.Context, id string) (*Session, error) {
	raw, ok, err := m.store.Get(ctx, metaKey(id))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	var md meta
	if err := json.Unmarshal(raw, &md); err != nil {
		return nil, fmt.Errorf("decode session meta: %w", err)
	}

	balance := 0
	if raw, ok, err := m.store.Get(ctx, balanceKey(id)); err != nil {
		return nil, err
	} else if ok {
		if balance, err = strconv.Atoi(string(raw)); err != nil {
			return nil, fmt.Errorf("decode session balance: %w", err)
		}
	}

	var history []reports.Report
	if raw, ok, err := m.store.Get(ctx, historyKey(id)); err != nil {
		return nil, err
	} else if ok {
		if err := json.Unmarshal(raw, &history); err != nil {
			return nil, fmt.Errorf("decode session history: %w", err)
		}
	}
	return restore(md, balance, history), nil
}
