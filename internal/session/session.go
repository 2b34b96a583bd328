// Package session holds the per-connection context: one token ledger and one
// report history per connected wallet. Sessions share no mutable state.
package session

import (
	"sync"
	"time"

	"github.com/joelkehle/xperience-reports/internal/ledger"
	"github.com/joelkehle/xperience-reports/internal/reports"
)

type Session struct {
	ID            string
	WalletAddress string
	WalletType    string
	ConnectedAt   time.Time
	Ledger        *ledger.Ledger
	History       *History

	mu sync.Mutex
}

func New(id, address, walletType string, balance int, connectedAt time.Time) *Session {
	return &Session{
		ID:            id,
		WalletAddress: address,
		WalletType:    walletType,
		ConnectedAt:   connectedAt,
		Ledger:        ledger.New(balance),
		History:       NewHistory(),
	}
}

// Do runs fn with the session locked, so work on one session runs one at a
// time.
func (s *Session) Do(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn()
}

// Summary is the wire view of a session.
type Summary struct {
	ID            string    `json:"session_id"`
	WalletAddress string    `json:"wallet_address"`
	WalletType    string    `json:"wallet_type"`
	ConnectedAt   time.Time `json:"connected_at"`
	Balance       int       `json:"balance"`
	ReportCount   int       `json:"report_count"`
}

func (s *Session) Summary() Summary {
	return Summary{
		ID:            s.ID,
		WalletAddress: s.WalletAddress,
		WalletType:    s.WalletType,
		ConnectedAt:   s.ConnectedAt,
		Balance:       s.Ledger.Balance(),
		ReportCount:   s.History.Len(),
	}
}

type meta struct {
	ID            string    `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	WalletType    string    `json:"wallet_type"`
	ConnectedAt   time.Time `json:"connected_at"`
}

func restore(m meta, balance int, history []reports.Report) *Session {
	s := New(m.ID, m.WalletAddress, m.WalletType, balance, m.ConnectedAt)
	s.History = NewHistory(history...)
	return s
}
