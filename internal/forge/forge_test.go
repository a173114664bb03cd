package forge_test

import (
	"context"
	"testing"
	"time"

	"emperror.dev/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diamond-stack/diamond/internal/forge"
	"github.com/diamond-stack/diamond/internal/forge/forgetest"
)

func TestWithRateLimitRetrySucceedsAfterRetries(t *testing.T) {
	orig := forge.RetryBackoffUnit
	forge.RetryBackoffUnit = time.Millisecond
	defer func() { forge.RetryBackoffUnit = orig }()

	ctx := context.Background()
	attempts := 0

	err := forge.WithRateLimitRetry(ctx, func() error {
		attempts++
		if attempts < 2 {
			return errors.New("secondary rate limit exceeded")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestWithRateLimitRetryPassesThroughNonRateLimitErrors(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	attempts := 0

	err := forge.WithRateLimitRetry(ctx, func() error {
		attempts++
		return errors.New("not found")
	})
	assert.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestCIWaitReturnsImmediatelyOnTerminalState(t *testing.T) {
	ctx := context.Background()
	m := forgetest.New()
	m.Seed("feature", &forge.FullPullRequest{CI: forge.CISuccess})

	result, err := forge.CIWait(ctx, m, "feature", time.Second)
	require.NoError(t, err)
	assert.Equal(t, forge.CIResultSuccess, result)
}

func TestCIWaitPropagatesInitialError(t *testing.T) {
	ctx := context.Background()
	m := forgetest.New()

	_, err := forge.CIWait(ctx, m, "nonexistent", time.Second)
	assert.Error(t, err)
}

func TestWrapAsyncFansOutOverBranches(t *testing.T) {
	ctx := context.Background()
	m := forgetest.New()
	m.Seed("a", &forge.FullPullRequest{})
	m.Seed("b", nil)

	async := forge.WrapAsync(m)
	exists, err := async.CheckPRsExist(ctx, []string{"a", "b"})
	require.NoError(t, err)
	assert.True(t, exists["a"])
	assert.True(t, exists["b"])
}
