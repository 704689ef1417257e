package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"ginvault/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExpirer struct {
	calls int
	err   error
}

func (f *fakeExpirer) ExpireDue(context.Context, time.Time) (int, error) {
	f.calls++
	return 2, f.err
}

type fakePurger struct {
	olderThan time.Duration
}

func (f *fakePurger) PurgeStalePending(_ context.Context, olderThan time.Duration) (int, error) {
	f.olderThan = olderThan
	return 1, nil
}

func TestMaintenanceScheduler_RunNow(t *testing.T) {
	expirer := &fakeExpirer{}
	purger := &fakePurger{}
	s := NewMaintenanceScheduler(config.JobsConfig{PendingPhotoMaxAge: 6 * time.Hour}, expirer, purger)

	require.NoError(t, s.RunNow(context.Background(), JobSubscriptionExpiry))
	require.NoError(t, s.RunNow(context.Background(), JobPhotoPurge))
	assert.Equal(t, 1, expirer.calls)
	assert.Equal(t, 6*time.Hour, purger.olderThan)

	assert.Error(t, s.RunNow(context.Background(), "unknown"))

	expirer.err = errors.New("db down")
	assert.Error(t, s.RunNow(context.Background(), JobSubscriptionExpiry))
}

func TestMaintenanceScheduler_StartStop(t *testing.T) {
	s := NewMaintenanceScheduler(config.JobsConfig{
		SubscriptionExpiryCron: "@hourly",
		PhotoPurgeCron:         "30 3 * * *",
	}, &fakeExpirer{}, &fakePurger{})

	require.NoError(t, s.Start())
	defer s.Stop()
	assert.Error(t, s.Start())

	jobs := s.Jobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, JobSubscriptionExpiry, jobs[0].Name)
	assert.False(t, jobs[0].NextRun.IsZero())
}

func TestMaintenanceScheduler_InvalidSpec(t *testing.T) {
	s := NewMaintenanceScheduler(config.JobsConfig{SubscriptionExpiryCron: "not a cron"}, &fakeExpirer{}, &fakePurger{})
	assert.Error(t, s.Start())
}
