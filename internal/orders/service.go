package orders

import (
	"context"
	"fmt"
	"strings"

	"github.com/angelmondragon/storefront-backend/internal/checkout"
	"github.com/angelmondragon/storefront-backend/internal/repo"
	"github.com/angelmondragon/storefront-backend/pkg/db"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
	"github.com/angelmondragon/storefront-backend/pkg/pagination"
	"github.com/google/uuid"
)

// Service stores checkout confirmations and serves the order history of a
// client session.
type Service interface {
	CreateOrder(ctx context.Context, conf checkout.Confirmation) (uuid.UUID, error)
	Get(ctx context.Context, sessionID string, orderID uuid.UUID) (*OrderDetail, error)
	List(ctx context.Context, sessionID string, params pagination.Params) (*OrderList, error)
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService wires the orders service.
func NewService(repo Repository, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, logg: logg}, nil
}

// CreateOrder persists the confirmation. The stored row carries only the last
// four card digits and the card network.
func (s *service) CreateOrder(ctx context.Context, conf checkout.Confirmation) (uuid.UUID, error) {
	if conf.OrderID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if strings.TrimSpace(conf.SessionID) == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}
	if len(conf.Items) == 0 {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order has no items")
	}

	order := fromConfirmation(conf)
	if err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "order already exists")
		}
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"order_id":   order.ID.String(),
		"session_id": order.SessionID,
		"total":      order.Total.StringFixed(2),
	})
	s.logg.Info(ctx, "orders.created")
	return order.ID, nil
}

func (s *service) Get(ctx context.Context, sessionID string, orderID uuid.UUID) (*OrderDetail, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	// orders of other sessions are reported as missing
	if order.SessionID != sessionID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toDetail(*order), nil
}

func (s *service) List(ctx context.Context, sessionID string, params pagination.Params) (*OrderList, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id required")
	}

	query := listParams{SessionID: sessionID, Limit: params.Limit}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListBySession(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}

	list := &OrderList{Orders: make([]OrderSummary, 0, len(rows))}
	for _, row := range rows {
		list.Orders = append(list.Orders, toSummary(row))
	}
	if next != nil {
		list.NextCursor = pagination.EncodeCursor(*next)
	}
	return list, nil
}
