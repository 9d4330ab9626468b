package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/muraqqa/storefront/pkg/enums"
	pkgerrors "github.com/muraqqa/storefront/pkg/errors"
	"github.com/muraqqa/storefront/pkg/logger"
)

// Service is the order provider used by checkout and the order endpoints.
type Service interface {
	Create(ctx context.Context, draft Draft) (uuid.UUID, error)
	GetByID(ctx context.Context, id uuid.UUID) (*Detail, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, trackingRef *string) (*Detail, error)
	MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string) error
	Cancel(ctx context.Context, id uuid.UUID) error
	AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error
}

var allowedTransitions = map[enums.OrderStatus][]enums.OrderStatus{
	enums.OrderStatusPending:          {enums.OrderStatusPaid, enums.OrderStatusCanceled},
	enums.OrderStatusAwaitingTransfer: {enums.OrderStatusPaid, enums.OrderStatusCanceled},
	enums.OrderStatusPaid:             {enums.OrderStatusShipped, enums.OrderStatusCanceled},
	enums.OrderStatusShipped:          {enums.OrderStatusDelivered},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to enums.OrderStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, draft Draft) (uuid.UUID, error) {
	if err := validateDraft(draft); err != nil {
		return uuid.Nil, err
	}

	record := draft.toModel()
	if _, err := s.repo.Create(ctx, record); err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}

	ctx = s.logg.WithOrderID(ctx, record.ID.String())
	s.logg.Info(ctx, fmt.Sprintf("order created (%s, %s)", record.Status, record.PaymentMethod))
	return record.ID, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapLoadError(err)
	}
	return detailFromModel(order), nil
}

func (s *service) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, trackingRef *string) (*Detail, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status")
	}

	var result *Detail
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}

		updates := map[string]any{}
		if order.Status != status {
			if !CanTransition(order.Status, status) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "order status change not allowed").WithDetails(map[string]any{
					"from": order.Status,
					"to":   status,
				})
			}
			updates["status"] = status
			order.Status = status
		}
		if ref := normalizeRef(trackingRef); ref != nil {
			updates["tracking_ref"] = *ref
			order.TrackingRef = ref
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
		}
		result = detailFromModel(order)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithOrderID(ctx, id.String()), fmt.Sprintf("order status now %s", result.Status))
	return result, nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID, paymentRef string) error {
	var ref *string
	if trimmed := strings.TrimSpace(paymentRef); trimmed != "" {
		ref = &trimmed
	}
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}
		if order.Status == enums.OrderStatusPaid {
			return nil
		}
		if !CanTransition(order.Status, enums.OrderStatusPaid) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be marked paid")
		}
		updates := map[string]any{"status": enums.OrderStatusPaid}
		if ref != nil && order.PaymentIntentID == nil {
			updates["payment_intent_id"] = *ref
		}
		if err := repo.Update(ctx, id, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		return nil
	})
}

func (s *service) Cancel(ctx context.Context, id uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapLoadError(err)
		}
		if order.Status == enums.OrderStatusCanceled {
			return nil
		}
		if !CanTransition(order.Status, enums.OrderStatusCanceled) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order cannot be canceled")
		}
		if err := repo.Update(ctx, id, map[string]any{"status": enums.OrderStatusCanceled}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		return nil
	})
}

func (s *service) AttachPaymentIntent(ctx context.Context, id uuid.UUID, intentID string) error {
	intentID = strings.TrimSpace(intentID)
	if intentID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment intent id required")
	}
	if err := s.repo.Update(ctx, id, map[string]any{"payment_intent_id": intentID}); err != nil {
		return mapLoadError(err)
	}
	return nil
}

func validateDraft(draft Draft) error {
	switch {
	case draft.UserID == uuid.Nil:
		return pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	case !draft.PaymentMethod.IsValid():
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment method")
	case len(draft.Lines) == 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "order requires at least one line")
	case strings.TrimSpace(draft.Shipping.RateID) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "shipping rate required")
	case strings.TrimSpace(draft.Currency) == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "currency required")
	case draft.Amounts.Total < 0:
		return pkgerrors.New(pkgerrors.CodeValidation, "order total cannot be negative")
	}
	return nil
}

func mapLoadError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
}

func normalizeRef(ref *string) *string {
	if ref == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*ref)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
