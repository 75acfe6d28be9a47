package outbox

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazario/models"
	"bazario/repository"
)

type fakePublisher struct {
	published []string
	failAfter int // fail every publish once this many succeeded; -1 never fails
}

func (f *fakePublisher) PublishEvent(kind string, body []byte, priority uint8) error {
	if f.failAfter >= 0 && len(f.published) >= f.failAfter {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, kind)
	return nil
}

func TestDrainPublishesAndMarksSent(t *testing.T) {
	store := repository.NewMemoryStore()
	repo := repository.NewMemoryOutbox(store)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.EventVerification, models.EmailEvent{To: "a@example.com"}))
	require.NoError(t, repo.Insert(ctx, models.EventOrderStatus, models.EmailEvent{To: "b@example.com"}))

	pub := &fakePublisher{failAfter: -1}
	relay := NewRelay(repo, pub)

	require.NoError(t, relay.Drain(ctx))
	assert.Equal(t, []string{string(models.EventVerification), string(models.EventOrderStatus)}, pub.published)

	pending, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	// nothing left; a second drain is a no-op
	require.NoError(t, relay.Drain(ctx))
	assert.Len(t, pub.published, 2)
}

func TestDrainKeepsUnpublishedRowsPending(t *testing.T) {
	store := repository.NewMemoryStore()
	repo := repository.NewMemoryOutbox(store)
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, models.EventVerification, models.EmailEvent{To: "a@example.com"}))
	require.NoError(t, repo.Insert(ctx, models.EventOrderStatus, models.EmailEvent{To: "b@example.com"}))

	pub := &fakePublisher{failAfter: 1}
	relay := NewRelay(repo, pub)

	err := relay.Drain(ctx)
	require.Error(t, err)

	// the first row was delivered and marked; the second stays pending
	pending, err := repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, string(models.EventOrderStatus), pending[0].Kind)

	pub.failAfter = -1
	require.NoError(t, relay.Drain(ctx))
	pending, err = repo.FetchPending(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
