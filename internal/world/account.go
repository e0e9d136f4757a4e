package world

import (
	"context"
	"errors"
	"fmt"

	"github.com/pixil98/go-worldserver/internal/persistence"
)

var (
	ErrBanned         = errors.New("account is banned")
	ErrInvalidAccount = errors.New("invalid account name")
)

// Authenticate resolves name to an account id, creating the account on first
// use, and records addr as its last address. Banned accounts and addresses
// are refused with ErrBanned.
func (w *WorldManager) Authenticate(ctx context.Context, name, addr string) (uint32, error) {
	if name == "" {
		return 0, ErrInvalidAccount
	}

	ipBanned := false
	err := w.repo.Query(ctx, persistence.Prepare(persistence.SelIPBanned, addr), func(persistence.Scanner) error {
		ipBanned = true
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("checking ip ban: %w", err)
	}
	if ipBanned {
		return 0, fmt.Errorf("%w: %s", ErrBanned, addr)
	}

	accounts, err := w.queryAccounts(ctx, persistence.Prepare(persistence.SelAccountIDByName, name))
	if err != nil {
		return 0, err
	}
	if len(accounts) == 0 {
		if err := w.repo.Execute(ctx, persistence.Prepare(persistence.InsAccount, name, addr)); err != nil {
			return 0, fmt.Errorf("creating account %s: %w", name, err)
		}
		accounts, err = w.queryAccounts(ctx, persistence.Prepare(persistence.SelAccountIDByName, name))
		if err != nil {
			return 0, err
		}
		if len(accounts) == 0 {
			return 0, fmt.Errorf("%w: %s", ErrInvalidAccount, name)
		}
	}
	id := accounts[0].id

	banned, err := w.IsAccountBanned(ctx, id)
	if err != nil {
		return 0, err
	}
	if banned {
		return 0, fmt.Errorf("%w: %s", ErrBanned, name)
	}

	if err := w.repo.Execute(ctx, persistence.Prepare(persistence.UpdAccountLastIP, addr, id)); err != nil {
		return 0, fmt.Errorf("recording address of %s: %w", name, err)
	}
	return id, nil
}
