//go:build integration

package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "contactsync/internal/platform/redis"
	"contactsync/pkg/testutil/containers"
)

type LockerSuite struct {
	suite.Suite
	redis  *containers.RedisContainer
	locker *platformredis.Locker
}

func TestLockerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(LockerSuite))
}

func (s *LockerSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	s.locker = platformredis.NewLocker(s.redis.Client, "contactsync:test:")
}

func (s *LockerSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *LockerSuite) TestSecondHolderIsRejected() {
	ctx := context.Background()

	release, ok, err := s.locker.TryLock(ctx, "run", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	_, ok, err = s.locker.TryLock(ctx, "run", time.Minute)
	s.Require().NoError(err)
	s.False(ok, "lock must not be granted twice")

	s.Require().NoError(release(ctx))

	release, ok, err = s.locker.TryLock(ctx, "run", time.Minute)
	s.Require().NoError(err)
	s.True(ok, "lock must be available after release")
	s.Require().NoError(release(ctx))
}

func (s *LockerSuite) TestStaleReleaseDoesNotDropNewHolder() {
	ctx := context.Background()

	staleRelease, ok, err := s.locker.TryLock(ctx, "run", 50*time.Millisecond)
	s.Require().NoError(err)
	s.Require().True(ok)

	time.Sleep(100 * time.Millisecond)

	_, ok, err = s.locker.TryLock(ctx, "run", time.Minute)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.Require().NoError(staleRelease(ctx))

	_, ok, err = s.locker.TryLock(ctx, "run", time.Minute)
	s.Require().NoError(err)
	s.False(ok, "stale release must not free the current holder's lock")
}

func (s *LockerSuite) TestClientHealth() {
	cfgClient := &platformredis.Client{Client: s.redis.Client}
	s.NoError(cfgClient.Health(context.Background()))
}
