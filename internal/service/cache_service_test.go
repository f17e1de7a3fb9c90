package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appErrors "github.com/eduport/center-api/pkg/errors"
)

type mockCacheRepo struct {
	values   map[string]interface{}
	getErr   error
	setCalls int
	deleted  []string
}

func (m *mockCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	if _, ok := m.values[key]; !ok {
		return appErrors.ErrCacheMiss
	}
	return nil
}

func (m *mockCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = make(map[string]interface{})
	}
	m.values[key] = value
	m.setCalls++
	return nil
}

func (m *mockCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	return nil
}

func TestCacheServiceDisabledIsStraightThrough(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), false)

	var out string
	hit, err := svc.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(context.Background(), "key", "value", time.Minute))
	assert.Zero(t, repo.setCalls)
}

func TestCacheServiceNilReceiverIsSafe(t *testing.T) {
	var svc *CacheService
	assert.False(t, svc.Enabled())

	var out string
	hit, err := svc.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, svc.Set(context.Background(), "key", "value", time.Minute))
	require.NoError(t, svc.Invalidate(context.Background(), "key"))
}

func TestCacheServiceMissIsNotAnError(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	var out string
	hit, err := svc.Get(context.Background(), "absent", &out)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceHitAfterSet(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.Set(context.Background(), "key", "value", 0))
	assert.Equal(t, 1, repo.setCalls)

	var out string
	hit, err := svc.Get(context.Background(), "key", &out)
	require.NoError(t, err)
	assert.True(t, hit)
}

func TestCacheServiceGetBackendFailure(t *testing.T) {
	repo := &mockCacheRepo{getErr: errors.New("connection refused")}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	var out string
	hit, err := svc.Get(context.Background(), "key", &out)
	require.Error(t, err)
	assert.False(t, hit)
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := &mockCacheRepo{}
	svc := NewCacheService(repo, nil, time.Minute, zap.NewNop(), true)

	require.NoError(t, svc.Invalidate(context.Background(), "attendance:summary:student:stu-1"))
	assert.Equal(t, []string{"attendance:summary:student:stu-1"}, repo.deleted)
}
