package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Stan-lee13/auracart-ng/pkg/db/models"
	pkgerrors "github.com/Stan-lee13/auracart-ng/pkg/errors"
	"github.com/Stan-lee13/auracart-ng/pkg/logger"
)

// Service exposes order read operations.
type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	TrackByNumber(ctx context.Context, orderNumber string) (*TrackingView, error)
}

// ServiceParams collects the service dependencies.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService constructs the orders read service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// Get loads one order by id.
func (s *service) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	if order == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order not found: %s", id)
	}
	return order, nil
}

// TrackByNumber resolves the customer tracking view for an order number.
func (s *service) TrackByNumber(ctx context.Context, orderNumber string) (*TrackingView, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order by number")
	}
	if order == nil {
		return nil, pkgerrors.Newf(pkgerrors.CodeNotFound, "order not found: %s", orderNumber)
	}
	return newTrackingView(order), nil
}
