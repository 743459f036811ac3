package orders

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Stan-lee13/auracart-ng/pkg/enums"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

func newTestService(t *testing.T) (Service, Repository) {
	t.Helper()
	repo := NewRepository(setupOrdersTestDB(t))
	svc, err := NewService(ServiceParams{
		Repo:   repo,
		Logger: logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)
	return svc, repo
}

func TestGenerateOrderNumberShape(t *testing.T) {
	number := GenerateOrderNumber()

	parts := strings.Split(number, "-")
	require.Len(t, parts, 3)
	assert.Equal(t, "ORD", parts[0])
	assert.Len(t, parts[2], tokenLength)

	// consecutive calls never collide on the random token
	assert.NotEqual(t, number, GenerateOrderNumber())
}

func TestTrackByNumberProjectsOrder(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	created := mustCreateOrder(t, repo, time.Now())
	won, err := repo.MarkPaid(ctx, created.ID)
	require.NoError(t, err)
	require.True(t, won)

	view, err := svc.TrackByNumber(ctx, created.OrderNumber)
	require.NoError(t, err)
	assert.Equal(t, created.OrderNumber, view.OrderNumber)
	assert.Equal(t, StatusPaid, view.Status)
	assert.Equal(t, enums.PaymentStatusPaid, view.PaymentStatus)
	require.Len(t, view.Items, 1)
	assert.Equal(t, "20", view.Items[0].LineTotal.String())
}

func TestTrackByNumberNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.TrackByNumber(context.Background(), "ORD-0-unknown")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())

	_, err = svc.TrackByNumber(context.Background(), "  ")
	require.Error(t, err)
}

func TestGetNotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
