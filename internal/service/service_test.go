package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/kurlerprudent/kubo-backend-go/internal/events"
	"github.com/kurlerprudent/kubo-backend-go/internal/security"
)

type testEnv struct {
	store       *fakeStore
	codec       *security.TokenCodec
	auth        *AuthService
	accounts    *AccountService
	assignments *AssignmentService
	reports     *ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store := newFakeStore()
	logger := zerolog.Nop()
	publisher := events.NewPublisher(nil, "", logger)
	codec := security.NewTokenCodec("test-secret", time.Hour)

	assignments := NewAssignmentService(store, publisher, logger)
	return &testEnv{
		store:       store,
		codec:       codec,
		auth:        NewAuthService(store, codec, assignments, publisher, logger),
		accounts:    NewAccountService(store, assignments, publisher, logger),
		assignments: assignments,
		reports:     NewReportService(store, logger),
	}
}

func ctxb() context.Context { return context.Background() }
