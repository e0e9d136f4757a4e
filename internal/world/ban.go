package world

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pixil98/go-worldserver/internal/persistence"
)

// BanMode selects what BanAccount matches on.
type BanMode int

const (
	BanAccount BanMode = iota
	BanIP
)

// BanResult is the outcome reported to administrative tooling.
type BanResult int

const (
	BanSuccess BanResult = iota
	BanSyntaxError
	BanNotFound
	BanExists
)

func (r BanResult) String() string {
	switch r {
	case BanSuccess:
		return "success"
	case BanSyntaxError:
		return "syntax error"
	case BanNotFound:
		return "not found"
	case BanExists:
		return "already banned"
	default:
		return "unknown"
	}
}

type bannedAccount struct {
	id   uint32
	name string
}

// BanAccount bans an account name or an IP address. A zero duration is
// permanent. Every online session of an affected account is kicked unless
// its player is the author. An IP ban that matches no account still
// succeeds.
func (w *WorldManager) BanAccount(ctx context.Context, mode BanMode, nameOrIP string, duration time.Duration, reason, author string) (BanResult, error) {
	if nameOrIP == "" {
		return BanSyntaxError, nil
	}

	banDate := w.clock.Now().Unix()
	unbanDate := banDate
	if duration > 0 {
		unbanDate += int64(duration / time.Second)
	}

	var accounts []bannedAccount
	switch mode {
	case BanIP:
		exists := false
		err := w.repo.Query(ctx, persistence.Prepare(persistence.SelIPBanned, nameOrIP), func(persistence.Scanner) error {
			exists = true
			return nil
		})
		if err != nil {
			return BanSyntaxError, fmt.Errorf("checking ip ban: %w", err)
		}
		if exists {
			return BanExists, nil
		}

		accounts, err = w.queryAccounts(ctx, persistence.Prepare(persistence.SelAccountsByIP, nameOrIP))
		if err != nil {
			return BanSyntaxError, err
		}
		err = w.repo.Execute(ctx, persistence.Prepare(persistence.InsIPBanned, nameOrIP, banDate, unbanDate, author, reason))
		if err != nil {
			return BanSyntaxError, fmt.Errorf("saving ip ban: %w", err)
		}
	case BanAccount:
		var err error
		accounts, err = w.queryAccounts(ctx, persistence.Prepare(persistence.SelAccountIDByName, nameOrIP))
		if err != nil {
			return BanSyntaxError, err
		}
		for i := range accounts {
			accounts[i].name = nameOrIP
		}
	default:
		return BanSyntaxError, nil
	}

	if len(accounts) == 0 {
		if mode == BanIP {
			return BanSuccess, nil
		}
		return BanNotFound, nil
	}

	tx := w.repo.Begin()
	for _, a := range accounts {
		if mode != BanIP {
			tx.Append(persistence.Prepare(persistence.UpdAccountBanInactive, a.id))
			tx.Append(persistence.Prepare(persistence.InsAccountBanned, a.id, banDate, unbanDate, author, reason))
		}

		s := w.sessions.Get(a.id)
		if s == nil {
			continue
		}
		if p := s.Player(); p != nil && p.Name() == author {
			continue
		}
		s.Kick("banned: " + reason)
	}
	if err := tx.Commit(ctx); err != nil {
		return BanSyntaxError, fmt.Errorf("saving account ban: %w", err)
	}

	slog.InfoContext(ctx, "ban applied", "target", nameOrIP, "accounts", len(accounts), "author", author)
	return BanSuccess, nil
}

// RemoveBanAccount lifts a ban. It reports false when the account does not
// exist.
func (w *WorldManager) RemoveBanAccount(ctx context.Context, mode BanMode, nameOrIP string) (bool, error) {
	if mode == BanIP {
		if err := w.repo.Execute(ctx, persistence.Prepare(persistence.DelIPBanned, nameOrIP)); err != nil {
			return false, fmt.Errorf("removing ip ban: %w", err)
		}
		return true, nil
	}

	accounts, err := w.queryAccounts(ctx, persistence.Prepare(persistence.SelAccountIDByName, nameOrIP))
	if err != nil {
		return false, err
	}
	if len(accounts) == 0 {
		return false, nil
	}
	if err := w.repo.Execute(ctx, persistence.Prepare(persistence.UpdAccountBanInactive, accounts[0].id)); err != nil {
		return false, fmt.Errorf("removing account ban: %w", err)
	}
	return true, nil
}

// IsAccountBanned reports whether account has an active ban.
func (w *WorldManager) IsAccountBanned(ctx context.Context, account uint32) (bool, error) {
	banned := false
	err := w.repo.Query(ctx, persistence.Prepare(persistence.SelAccountBanned, account), func(persistence.Scanner) error {
		banned = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking account ban: %w", err)
	}
	return banned, nil
}

func (w *WorldManager) queryAccounts(ctx context.Context, stmt persistence.Statement) ([]bannedAccount, error) {
	var out []bannedAccount
	err := w.repo.Query(ctx, stmt, func(row persistence.Scanner) error {
		var a bannedAccount
		if stmt.ID == persistence.SelAccountsByIP {
			if err := row.Scan(&a.id, &a.name); err != nil {
				return err
			}
		} else if err := row.Scan(&a.id); err != nil {
			return err
		}
		out = append(out, a)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("looking up accounts: %w", err)
	}
	return out, nil
}
