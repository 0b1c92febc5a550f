package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/rbac"
	"gorm.io/gorm"
)

// StockService — журнал движения остатков расходников. Журнал — источник истины,
// assets.quantity — кэш, который пишется только в одной транзакции со строкой журнала.
type StockService struct {
	db       *gorm.DB
	producer EventProducer
}

func NewStockService(db *gorm.DB, producer EventProducer) *StockService {
	return &StockService{db: db, producer: producer}
}

type AdjustStockInput struct {
	Type            model.TransactionType
	Quantity        int
	Reason          string
	ReferenceNumber string
}

// Adjust проводит движение остатка одной транзакцией: блокировка строки актива,
// расчёт нового остатка, запись кэша и добавление строки журнала. При любом отказе
// ни кэш, ни журнал не меняются.
func (s *StockService) Adjust(ctx context.Context, actor model.Actor, assetID uint64, in AdjustStockInput) (*model.Asset, *model.StockTransaction, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionStockAdjust, rbac.Facts{}); err != nil {
		return nil, nil, err
	}
	var asset model.Asset
	var tr model.StockTransaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&asset, assetID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrAssetNotFound
			}
			return err
		}
		if !asset.IsConsumable {
			return errs.ErrNotConsumable
		}

		before := asset.Quantity
		var change int
		switch in.Type {
		case model.TransactionTypeAdd:
			change = abs(in.Quantity)
		case model.TransactionTypeRemove:
			change = -abs(in.Quantity)
		case model.TransactionTypeAdjustment:
			// Абсолютная цель: change может быть отрицательным, но остаток не уходит в минус.
			change = in.Quantity - before
		case model.TransactionTypeInitial:
			var n int64
			if err := tx.Model(&model.StockTransaction{}).Where("asset_id = ?", asset.ID).Count(&n).Error; err != nil {
				return err
			}
			if n > 0 {
				return errs.ErrStockAlreadyTracked
			}
			before = 0
			change = abs(in.Quantity)
		default:
			return fmt.Errorf("unknown transaction type %q", in.Type)
		}
		after := before + change
		if after < 0 {
			return errs.ErrInsufficientStock
		}

		if err := tx.Model(&model.Asset{}).Where("id = ?", asset.ID).Update("quantity", after).Error; err != nil {
			return err
		}
		asset.Quantity = after
		tr = model.StockTransaction{
			AssetID:         asset.ID,
			TransactionType: in.Type,
			QuantityChange:  change,
			QuantityBefore:  before,
			QuantityAfter:   after,
			PerformedBy:     performedBy(actor),
			Reason:          in.Reason,
			ReferenceNumber: in.ReferenceNumber,
		}
		return tx.Create(&tr).Error
	})
	if err != nil {
		return nil, nil, err
	}
	s.producer.Produce(ctx, "stock.changed", map[string]interface{}{
		"asset_id":        asset.ID,
		"type":            string(tr.TransactionType),
		"quantity_before": tr.QuantityBefore,
		"quantity_after":  tr.QuantityAfter,
		"performed_by":    tr.PerformedBy,
	})
	return &asset, &tr, nil
}

// Transactions возвращает журнал по активу, новые записи первыми.
func (s *StockService) Transactions(ctx context.Context, actor model.Actor, assetID uint64, limit, offset int) ([]model.StockTransaction, int64, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionStockRead, rbac.Facts{}); err != nil {
		return nil, 0, err
	}
	var exists int64
	if err := s.db.WithContext(ctx).Model(&model.Asset{}).Where("id = ?", assetID).Count(&exists).Error; err != nil {
		return nil, 0, err
	}
	if exists == 0 {
		return nil, 0, errs.ErrAssetNotFound
	}
	tx := s.db.WithContext(ctx).Model(&model.StockTransaction{}).Where("asset_id = ?", assetID)
	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	if offset > 0 {
		tx = tx.Offset(offset)
	}
	var items []model.StockTransaction
	if err := tx.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// LowStock — расходники не в статусе retired с остатком не выше минимального,
// самый глубокий дефицит первым.
func (s *StockService) LowStock(ctx context.Context, actor model.Actor) ([]model.Asset, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionStockRead, rbac.Facts{}); err != nil {
		return nil, err
	}
	var items []model.Asset
	err := s.db.WithContext(ctx).
		Where("is_consumable = ? AND status <> ? AND quantity <= min_stock_level", true, model.AssetStatusRetired).
		Order("quantity - min_stock_level ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func performedBy(actor model.Actor) string {
	if actor.FullName != "" {
		return actor.FullName
	}
	return actor.Email
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
