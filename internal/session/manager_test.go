package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/joelkehle/xperience-reports/internal/reports"
	"github.com/joelkehle/xperience-reports/internal/wallet"
)

type mockWallet struct {
	mock.Mock
}

func (m *mockWallet) Connect(ctx context.Context, walletType string) (wallet.Info, error) {
	args := m.Called(ctx, walletType)
	return args.Get(0).(wallet.Info), args.Error(1)
}

func (m *mockWallet) Disconnect(ctx context.Context, address string) error {
	return m.Called(ctx, address).Error(0)
}

func (m *mockWallet) CheckBalance(ctx context.Context, address string) (int, error) {
	args := m.Called(ctx, address)
	return args.Int(0), args.Error(1)
}

func newTestManager(store StateStore) *Manager {
	m := NewManager(store, wallet.NewSimulated(wallet.DefaultInitialBalance))
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m
}

func TestConnectFundsSession(t *testing.T) {
	m := newTestManager(NewMemoryStore())
	sess, err := m.Connect(context.Background(), wallet.TypeMetaMask)
	require.NoError(t, err)
	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, wallet.SimulatedAddress, sess.WalletAddress)
	assert.Equal(t, 5, sess.Ledger.Balance())
	assert.Equal(t, 0, sess.History.Len())

	got, err := m.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Same(t, sess, got)
}

func TestSessionsAreIsolated(t *testing.T) {
	m := newTestManager(NewMemoryStore())
	a, err := m.Connect(context.Background(), wallet.TypeMetaMask)
	require.NoError(t, err)
	b, err := m.Connect(context.Background(), wallet.TypeWalletConnect)
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)

	r, err := a.Ledger.Reserve(1)
	require.NoError(t, err)
	require.NoError(t, a.Ledger.Commit(r))
	a.History.Append(reports.Report{ID: "r1"})

	assert.Equal(t, 4, a.Ledger.Balance())
	assert.Equal(t, 5, b.Ledger.Balance())
	assert.Equal(t, 0, b.History.Len())
}

func TestGetRestoresFromStore(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	first := newTestManager(store)
	sess, err := first.Connect(ctx, wallet.TypeMetaMask)
	require.NoError(t, err)

	r, err := sess.Ledger.Reserve(1)
	require.NoError(t, err)
	require.NoError(t, sess.Ledger.Commit(r))
	sess.History.Append(reports.Report{ID: "r1", Type: reports.TypeSEO, Title: "one"})
	sess.History.Append(reports.Report{ID: "r2", Type: reports.TypeBlueOcean, Title: "two"})
	require.NoError(t, first.Save(ctx, sess))

	second := newTestManager(store)
	restored, err := second.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, restored.Ledger.Balance())
	assert.Equal(t, wallet.TypeMetaMask, restored.WalletType)
	assert.True(t, sess.ConnectedAt.Equal(restored.ConnectedAt))
	all := restored.History.All()
	require.Len(t, all, 2)
	assert.Equal(t, "r1", all[0].ID)
	assert.Equal(t, "r2", all[1].ID)
}

func TestGetUnknownSession(t *testing.T) {
	_, err := newTestManager(NewMemoryStore()).Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestDisconnectResetsAndForgets(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	m := newTestManager(store)
	sess, err := m.Connect(ctx, wallet.TypeMetaMask)
	require.NoError(t, err)

	require.NoError(t, m.Disconnect(ctx, sess.ID))
	assert.Equal(t, 0, sess.Ledger.Balance())
	_, err = m.Get(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, ok, _ := store.Get(ctx, historyKey(sess.ID))
	assert.False(t, ok)
}

func TestConnectUsesWalletBalance(t *testing.T) {
	w := &mockWallet{}
	w.On("Connect", mock.Anything, "metamask").Return(wallet.Info{Address: "0xabc", Type: "metamask", Balance: 5}, nil)
	w.On("CheckBalance", mock.Anything, "0xabc").Return(2, nil)

	sess, err := NewManager(NewMemoryStore(), w).Connect(context.Background(), "metamask")
	require.NoError(t, err)
	assert.Equal(t, 2, sess.Ledger.Balance())
	w.AssertExpectations(t)
}

func TestConnectWalletErrors(t *testing.T) {
	w := &mockWallet{}
	w.On("Connect", mock.Anything, "phantom").Return(wallet.Info{}, wallet.ErrUnsupportedWallet)
	_, err := NewManager(NewMemoryStore(), w).Connect(context.Background(), "phantom")
	assert.ErrorIs(t, err, wallet.ErrUnsupportedWallet)

	w = &mockWallet{}
	w.On("Connect", mock.Anything, "metamask").Return(wallet.Info{Address: "0xabc", Type: "metamask"}, nil)
	w.On("CheckBalance", mock.Anything, "0xabc").Return(0, errors.New("rpc down"))
	_, err = NewManager(NewMemoryStore(), w).Connect(context.Background(), "metamask")
	assert.Error(t, err)
}

func TestSessionDoSerializes(t *testing.T) {
	sess := New("s", "0x1", "metamask", 0, time.Now())
	inside := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_ = sess.Do(func() error {
			close(inside)
			<-release
			return nil
		})
	}()
	<-inside

	acquired := make(chan struct{})
	go func() {
		_ = sess.Do(func() error { close(acquired); return nil })
	}()
	select {
	case <-acquired:
		t.Fatal("second Do ran while the first held the session")
	case <-time.After(30 * time.Millisecond):
	}
	close(release)
	<-acquired
}
