package basket

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/MikeMC777/storefront/internal/apperr"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service { return &Service{repo: repo} }

func mapErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNoBasket):
		return apperr.Wrap(apperr.KindNotFound, apperr.CodeNoActiveBasket, "no active basket", err)
	case errors.Is(err, ErrProductNotFound):
		return apperr.Wrap(apperr.KindNotFound, apperr.CodeProductNotFound, "product not found", err)
	case errors.Is(err, ErrItemNotFound):
		return apperr.Wrap(apperr.KindNotFound, apperr.CodeItemNotFound, "basket item not found", err)
	case errors.Is(err, ErrItemHeld):
		return apperr.Wrap(apperr.KindConflict, apperr.CodeBasketLocked, "item is held by a pending checkout; pay or cancel it first", err)
	case errors.Is(err, ErrOutOfStock):
		return apperr.Wrap(apperr.KindConflict, apperr.CodeOutOfStock, "product is out of stock", err)
	}
	return apperr.Internal(err)
}

// Add reserves one unit of the product and puts it in the user's basket.
func (s *Service) Add(ctx context.Context, userID, productID string) (*Item, error) {
	if productID == "" {
		return nil, apperr.Validation("product_id is required")
	}
	if uuid.Validate(productID) != nil {
		return nil, mapErr(ErrProductNotFound)
	}
	it, err := s.repo.Add(ctx, userID, productID)
	return it, mapErr(err)
}

// Remove soft-deletes a line and releases its whole quantity back to stock.
func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	if uuid.Validate(itemID) != nil {
		return mapErr(ErrItemNotFound)
	}
	return mapErr(s.repo.Remove(ctx, userID, itemID))
}

// SetQuantity moves the line to qty, reserving or releasing the difference.
func (s *Service) SetQuantity(ctx context.Context, userID, itemID string, qty int) (*Item, error) {
	if qty < 1 {
		return nil, apperr.Validation("quantity must be a positive integer")
	}
	if uuid.Validate(itemID) != nil {
		return nil, mapErr(ErrItemNotFound)
	}
	it, err := s.repo.SetQuantity(ctx, userID, itemID, qty)
	return it, mapErr(err)
}

func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	v, err := s.repo.View(ctx, userID)
	return v, mapErr(err)
}
