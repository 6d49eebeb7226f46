package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefaults(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, RequestID(ctx))
	assert.Empty(t, Subject(ctx))
	assert.WithinDuration(t, time.Now(), Now(ctx), time.Second)
}

func TestInjectedValues(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	ctx := WithRequestID(context.Background(), "req-1")
	ctx = WithTime(ctx, fixed)
	ctx = WithSubject(ctx, "reporting-job")

	assert.Equal(t, "req-1", RequestID(ctx))
	assert.Equal(t, fixed, Now(ctx))
	assert.Equal(t, "reporting-job", Subject(ctx))
}
