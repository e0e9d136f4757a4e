package world

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pixil98/go-testutil"

	"github.com/pixil98/go-worldserver/internal/unit"
)

func TestWorldManager_BanAccount(t *testing.T) {
	tests := map[string]struct {
		mode      BanMode
		target    string
		author    string
		expResult BanResult
		expKicked bool
	}{
		"account": {
			mode:      BanAccount,
			target:    "alice",
			author:    "gm",
			expResult: BanSuccess,
			expKicked: true,
		},
		"unknown account": {
			mode:      BanAccount,
			target:    "nobody",
			expResult: BanNotFound,
		},
		"empty target": {
			mode:      BanAccount,
			expResult: BanSyntaxError,
		},
		"bad mode": {
			mode:      BanMode(9),
			target:    "alice",
			expResult: BanSyntaxError,
		},
		"ip": {
			mode:      BanIP,
			target:    "10.0.0.1",
			author:    "gm",
			expResult: BanSuccess,
			expKicked: true,
		},
		"ip with no accounts": {
			mode:      BanIP,
			target:    "10.9.9.9",
			expResult: BanSuccess,
		},
		"author is spared": {
			mode:      BanAccount,
			target:    "alice",
			author:    "Alice",
			expResult: BanSuccess,
			expKicked: false,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			sink := newRecordingSink()
			w := newTestWorld(t, openTestRepo(t), Config{})
			id, err := w.Authenticate(ctx, "alice", "10.0.0.1")
			if err != nil {
				t.Fatal(err)
			}
			s := inWorld(newTestSession(sink, id), "Alice", unit.TeamAlliance)
			w.AddSession(s)
			tick(w, time.Second)

			result, err := w.BanAccount(ctx, tt.mode, tt.target, time.Hour, "testing", tt.author)
			if err != nil {
				t.Fatal(err)
			}
			testutil.AssertEqual(t, "result", result, tt.expResult)
			testutil.AssertEqual(t, "kicked", s.IsKicked(), tt.expKicked)
		})
	}
}

func TestWorldManager_BanBlocksAuthentication(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, openTestRepo(t), Config{})
	if _, err := w.Authenticate(ctx, "alice", "10.0.0.1"); err != nil {
		t.Fatal(err)
	}

	result, err := w.BanAccount(ctx, BanAccount, "alice", 0, "cheating", "gm")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "banned", result, BanSuccess)

	_, err = w.Authenticate(ctx, "alice", "10.0.0.2")
	testutil.AssertEqual(t, "refused", errors.Is(err, ErrBanned), true)

	lifted, err := w.RemoveBanAccount(ctx, BanAccount, "alice")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "lifted", lifted, true)
	if _, err := w.Authenticate(ctx, "alice", "10.0.0.2"); err != nil {
		t.Fatalf("after unban: %v", err)
	}

	lifted, err = w.RemoveBanAccount(ctx, BanAccount, "nobody")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "unknown", lifted, false)
}

func TestWorldManager_IPBan(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, openTestRepo(t), Config{})

	result, err := w.BanAccount(ctx, BanIP, "10.0.0.5", time.Hour, "spam", "gm")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "banned", result, BanSuccess)

	result, err = w.BanAccount(ctx, BanIP, "10.0.0.5", time.Hour, "spam", "gm")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "exists", result, BanExists)

	_, err = w.Authenticate(ctx, "bob", "10.0.0.5")
	testutil.AssertErrorContains(t, err, "account is banned")

	if _, err := w.RemoveBanAccount(ctx, BanIP, "10.0.0.5"); err != nil {
		t.Fatal(err)
	}
	if _, err := w.Authenticate(ctx, "bob", "10.0.0.5"); err != nil {
		t.Fatalf("after unban: %v", err)
	}
}

func TestWorldManager_Authenticate(t *testing.T) {
	ctx := context.Background()
	w := newTestWorld(t, openTestRepo(t), Config{})

	first, err := w.Authenticate(ctx, "carol", "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	again, err := w.Authenticate(ctx, "carol", "10.0.0.2")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "same account", again, first)

	other, err := w.Authenticate(ctx, "dave", "10.0.0.1")
	if err != nil {
		t.Fatal(err)
	}
	testutil.AssertEqual(t, "new account", other != first, true)

	_, err = w.Authenticate(ctx, "", "10.0.0.1")
	testutil.AssertEqual(t, "empty name", errors.Is(err, ErrInvalidAccount), true)
}
