package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gameia/engine/internal/model"
	"github.com/gameia/engine/internal/repository"
	"github.com/gameia/engine/internal/validation"
	"github.com/google/uuid"
)

type GrantInput struct {
	UserID string `json:"user_id" validate:"required"`
	Coins  int64  `json:"coins" validate:"gte=0"`
	XP     int64  `json:"xp" validate:"gte=0"`
}

type PurchaseInput struct {
	Coins int64  `json:"coins" validate:"gte=1"`
	Item  string `json:"item" validate:"required,max=200"`
}

// LedgerService owns coin and XP balances outside of goal settlement.
type LedgerService struct {
	store *repository.Store
	now   func() time.Time
}

func NewLedgerService(store *repository.Store) *LedgerService {
	return &LedgerService{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *LedgerService) Balance(ctx context.Context, userID string) (*model.UserBalance, error) {
	return s.store.Ledger.Balance(ctx, userID)
}

// History returns the user's most recent ledger entries first.
func (s *LedgerService) History(ctx context.Context, userID string, limit int) ([]*model.LedgerEntry, error) {
	return s.store.Ledger.Entries(ctx, userID, limit)
}

// Grant credits coins and XP to a user. Only admins and system actors grant.
func (s *LedgerService) Grant(ctx context.Context, actor model.Actor, input GrantInput) (*model.UserBalance, error) {
	if !actor.IsAdmin() && !actor.IsSystem() {
		return nil, fmt.Errorf("%w: only admins grant coins", ErrForbidden)
	}

	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}
	if input.Coins == 0 && input.XP == 0 {
		return nil, validation.Field("coins", "grant must include coins or xp")
	}

	var balance *model.UserBalance
	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		now := s.now()
		err := r.Ledger.Credit(ctx, input.UserID, input.Coins, input.XP, now)
		if err != nil {
			return err
		}

		err = r.Ledger.AddEntry(ctx, &model.LedgerEntry{
			ID:         uuid.New().String(),
			UserID:     input.UserID,
			Kind:       model.LedgerKindGrant,
			CoinsDelta: input.Coins,
			XPDelta:    input.XP,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		balance, err = r.Ledger.Balance(ctx, input.UserID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to grant: %w", err)
	}

	slog.Info("balance granted", "user_id", input.UserID, "coins", input.Coins, "xp", input.XP, "by", actor.UserID)
	return balance, nil
}

// Spend debits coins for a purchase. The balance never goes negative.
func (s *LedgerService) Spend(ctx context.Context, userID string, input PurchaseInput) (*model.UserBalance, error) {
	err := validation.Struct(input)
	if err != nil {
		return nil, err
	}

	var balance *model.UserBalance
	err = s.store.InTx(ctx, func(r *repository.Repositories) error {
		now := s.now()
		err := r.Ledger.Debit(ctx, userID, input.Coins, now)
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return fmt.Errorf("%w: cannot spend %d coins", ErrInsufficientBalance, input.Coins)
		}
		if err != nil {
			return err
		}

		err = r.Ledger.AddEntry(ctx, &model.LedgerEntry{
			ID:         uuid.New().String(),
			UserID:     userID,
			Kind:       model.LedgerKindPurchase,
			CoinsDelta: -input.Coins,
			CreatedAt:  now,
		})
		if err != nil {
			return err
		}

		balance, err = r.Ledger.Balance(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("coins spent", "user_id", userID, "coins", input.Coins, "item", input.Item)
	return balance, nil
}
