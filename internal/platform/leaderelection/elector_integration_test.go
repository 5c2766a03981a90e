//go:build integration

package leaderelection_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"huskelapp/internal/platform/leaderelection"
	"huskelapp/pkg/testutil/containers"
)

const leaseKey = "huskelapp.publisher.leader"

type ElectorSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	logger *slog.Logger
}

func TestElectorSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ElectorSuite))
}

func (s *ElectorSuite) SetupSuite() {
	s.redis = containers.NewRedisContainer(s.T())
	s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
}

func (s *ElectorSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *ElectorSuite) TestSingleInstanceBecomesLeader() {
	ctx := context.Background()
	elector := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)

	s.True(elector.IsLeader(ctx))
	s.True(elector.IsLeader(ctx), "the holder keeps the lease across checks")
}

func (s *ElectorSuite) TestOnlyOneInstanceHoldsTheLease() {
	ctx := context.Background()
	a := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)
	b := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)

	s.True(a.IsLeader(ctx))
	s.False(b.IsLeader(ctx))
	s.True(a.IsLeader(ctx), "the contender must not steal the lease")
}

func (s *ElectorSuite) TestResignHandsOverImmediately() {
	ctx := context.Background()
	a := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)
	b := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)

	s.Require().True(a.IsLeader(ctx))
	a.Resign(ctx)
	s.True(b.IsLeader(ctx), "resignation must not leave the TTL running")
}

func (s *ElectorSuite) TestResignLeavesAForeignLeaseAlone() {
	ctx := context.Background()
	a := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)
	b := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)

	s.Require().True(a.IsLeader(ctx))
	b.Resign(ctx)
	s.True(a.IsLeader(ctx))
}

func (s *ElectorSuite) TestExpiredLeaseIsTakenOver() {
	ctx := context.Background()
	a := leaderelection.New(s.redis.Client, leaseKey, 100*time.Millisecond, s.logger)
	b := leaderelection.New(s.redis.Client, leaseKey, time.Minute, s.logger)

	s.Require().True(a.IsLeader(ctx))
	time.Sleep(200 * time.Millisecond)
	s.True(b.IsLeader(ctx), "an expired lease is up for grabs")
}
