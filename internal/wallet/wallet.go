// Package wallet simulates the wallet connection that funds a session. No
// chain is contacted; every connection gets the same address and a fixed
// starting balance.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

const (
	TypeMetaMask      = "metamask"
	TypeWalletConnect = "walletconnect"

	SimulatedAddress      = "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"
	DefaultInitialBalance = 5
)

var ErrUnsupportedWallet = errors.New("unsupported wallet type")

type Info struct {
	Address string `json:"address"`
	Type    string `json:"type"`
	Balance int    `json:"balance"`
}

type Simulated struct {
	mu        sync.Mutex
	initial   int
	connected map[string]int
}

func NewSimulated(initialBalance int) *Simulated {
	if initialBalance < 0 {
		initialBalance = 0
	}
	return &Simulated{initial: initialBalance, connected: map[string]int{}}
}

func SupportedTypes() []string {
	return []string{TypeMetaMask, TypeWalletConnect}
}

func (s *Simulated) Connect(_ context.Context, walletType string) (Info, error) {
	walletType = strings.ToLower(strings.TrimSpace(walletType))
	if walletType != TypeMetaMask && walletType != TypeWalletConnect {
		return Info{}, fmt.Errorf("%w: %q", ErrUnsupportedWallet, walletType)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected[SimulatedAddress] = s.initial
	return Info{Address: SimulatedAddress, Type: walletType, Balance: s.initial}, nil
}

func (s *Simulated) Disconnect(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.connected, address)
	return nil
}

// CheckBalance reports the funded balance of a connected address, or 0.
func (s *Simulated) CheckBalance(_ context.Context, address string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected[address], nil
}
