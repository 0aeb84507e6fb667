package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

type flakyPinger struct {
	failures int
	calls    int
}

func (f *flakyPinger) PingContext(context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestPingWithRetry(t *testing.T) {
	p := &flakyPinger{failures: 2}
	if err := pingWithRetry(context.Background(), p, 2, time.Millisecond); err != nil {
		t.Fatalf("should succeed on third attempt: %v", err)
	}
	if p.calls != 3 {
		t.Fatalf("calls = %d", p.calls)
	}

	p = &flakyPinger{failures: 5}
	if err := pingWithRetry(context.Background(), p, 1, time.Millisecond); err == nil {
		t.Fatal("expected failure after retries")
	}
	if p.calls != 2 {
		t.Fatalf("calls = %d", p.calls)
	}
}

func TestPingWithRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := &flakyPinger{failures: 5}
	if err := pingWithRetry(ctx, p, 3, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestPingWithRetry_SQLMock(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("down"))
	mock.ExpectPing()

	if err := pingWithRetry(context.Background(), db, 1, time.Millisecond); err != nil {
		t.Fatalf("ping: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
