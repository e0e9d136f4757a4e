package persistence

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pixil98/go-testutil"
)

func openTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("opening repository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestSQLiteRepository_ExecuteAndQuery(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	if err := repo.Execute(ctx, Prepare(RepWorldVariable, "NextDailyQuestResetTime", 100)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Execute(ctx, Prepare(RepWorldVariable, "NextDailyQuestResetTime", 200)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := map[string]int64{}
	err := repo.Query(ctx, Prepare(SelWorldVariables), func(s Scanner) error {
		var id string
		var v int64
		if err := s.Scan(&id, &v); err != nil {
			return err
		}
		got[id] = v
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "rows", len(got), 1)
	testutil.AssertEqual(t, "value", got["NextDailyQuestResetTime"], int64(200))
}

func TestSQLiteRepository_UnknownStatement(t *testing.T) {
	repo := openTestRepo(t)
	err := repo.Execute(context.Background(), Prepare(StatementID(9999)))
	testutil.AssertErrorContains(t, err, "unknown statement")
}

func TestSQLiteRepository_Transaction(t *testing.T) {
	tests := map[string]struct {
		stmts   []Statement
		wantErr string
		wantN   int
	}{
		"empty transaction": {
			wantN: 0,
		},
		"commits all": {
			stmts: []Statement{
				Prepare(RepWorldStateValue, 1, 10),
				Prepare(RepWorldStateValue, 2, 20),
			},
			wantN: 2,
		},
		"rolls back on failure": {
			stmts: []Statement{
				Prepare(RepWorldStateValue, 1, 10),
				Prepare(StatementID(9999)),
			},
			wantErr: "unknown statement",
			wantN:   0,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			repo := openTestRepo(t)

			tx := repo.Begin()
			for _, s := range tt.stmts {
				tx.Append(s)
			}
			err := tx.Commit(ctx)
			if tt.wantErr != "" {
				testutil.AssertErrorContains(t, err, tt.wantErr)
			} else if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			n := 0
			err = repo.Query(ctx, Prepare(SelWorldStateValues), func(Scanner) error {
				n++
				return nil
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "rows", n, tt.wantN)
		})
	}
}

func TestSQLiteRepository_AsyncQueryCallbackDeferred(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)
	if err := repo.Execute(ctx, Prepare(RepWorldStateValue, 7, 70)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var value int64
	called := false
	repo.AsyncQuery(Prepare(SelWorldStateValues), func(s Scanner) error {
		var id int64
		return s.Scan(&id, &value)
	}, func(err error) {
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		called = true
	})

	repo.Wait()
	testutil.AssertEqual(t, "called before pump", called, false)

	repo.ProcessQueryCallbacks()
	testutil.AssertEqual(t, "called after pump", called, true)
	testutil.AssertEqual(t, "value", value, int64(70))
}

func TestSQLiteRepository_Closed(t *testing.T) {
	repo, err := OpenSQLite(filepath.Join(t.TempDir(), "world.db"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err = repo.Ping(context.Background())
	testutil.AssertErrorContains(t, err, "repository closed")

	var got error
	repo.AsyncQuery(Prepare(Ping), func(Scanner) error { return nil }, func(err error) { got = err })
	repo.ProcessQueryCallbacks()
	testutil.AssertErrorContains(t, got, "repository closed")
}
