package repository

import (
	"context"
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

// MockDB stands in for both the pool and the transaction it begins.
// Statements are matched with whitespace collapsed.
type MockDB struct {
	pgx.Tx
	mock.Mock
}

func (m *MockDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	ret := m.Called(squash(sql), args)
	return ret.Get(0).(pgconn.CommandTag), ret.Error(1)
}

func (m *MockDB) Query(_ context.Context, sql string, args ...any) (pgx.Rows, error) {
	ret := m.Called(squash(sql), args)
	rows, _ := ret.Get(0).(pgx.Rows)
	return rows, ret.Error(1)
}

func (m *MockDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	return m.Called(squash(sql), args).Get(0).(pgx.Row)
}

func (m *MockDB) Begin(context.Context) (pgx.Tx, error) {
	ret := m.Called()
	tx, _ := ret.Get(0).(pgx.Tx)
	return tx, ret.Error(1)
}

func (m *MockDB) Commit(context.Context) error {
	return m.Called().Error(0)
}

func (m *MockDB) Rollback(context.Context) error {
	return m.Called().Error(0)
}

// expectCommit primes a transaction that commits. pgx.BeginFunc still calls
// Rollback from its defer, which reports the closed transaction.
func expectCommit(db *MockDB) {
	db.On("Begin").Return(db, nil).Once()
	db.On("Commit").Return(nil).Once()
	db.On("Rollback").Return(pgx.ErrTxClosed).Once()
}

// expectRollback primes a transaction whose body fails.
func expectRollback(db *MockDB) {
	db.On("Begin").Return(db, nil).Once()
	db.On("Rollback").Return(nil)
}

func sqlHas(fragment string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, fragment)
	})
}

func squash(sql string) string {
	return strings.Join(strings.Fields(sql), " ")
}

func tag(s string) pgconn.CommandTag {
	return pgconn.NewCommandTag(s)
}

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d targets for %d values", len(dest), len(r.values))
	}
	for i, v := range r.values {
		reflect.ValueOf(dest[i]).Elem().Set(reflect.ValueOf(v))
	}
	return nil
}
