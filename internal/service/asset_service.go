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

type AssetService struct {
	db       *gorm.DB
	producer EventProducer
}

func NewAssetService(db *gorm.DB, producer EventProducer) *AssetService {
	return &AssetService{db: db, producer: producer}
}

type CreateAssetInput struct {
	AssetID           string
	SerialNumber      string
	Hostname          string
	QRCodeData        string
	Category          string
	Status            model.AssetStatus
	AssignedUser      string
	AssignedUserEmail string
	IsConsumable      bool
	Quantity          int
	MinStockLevel     int
}

// Create заводит актив. Начальный остаток расходника проводится транзакцией initial,
// а не прямой записью quantity: кэш заполняется только через журнал.
func (s *AssetService) Create(ctx context.Context, actor model.Actor, in CreateAssetInput) (*model.Asset, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetCreate, rbac.Facts{}); err != nil {
		return nil, err
	}
	return s.create(ctx, actor, in)
}

func (s *AssetService) create(ctx context.Context, actor model.Actor, in CreateAssetInput) (*model.Asset, error) {
	if in.AssetID == "" {
		return nil, fmt.Errorf("asset_id is required")
	}
	asset := &model.Asset{
		AssetID:           in.AssetID,
		SerialNumber:      in.SerialNumber,
		Hostname:          in.Hostname,
		QRCodeData:        in.QRCodeData,
		Category:          in.Category,
		Status:            in.Status,
		AssignedUser:      in.AssignedUser,
		AssignedUserEmail: in.AssignedUserEmail,
		IsConsumable:      in.IsConsumable,
		MinStockLevel:     in.MinStockLevel,
	}
	if asset.Status == "" {
		asset.Status = model.AssetStatusInStock
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(asset).Error; err != nil {
			return err
		}
		if asset.IsConsumable && in.Quantity > 0 {
			qty := abs(in.Quantity)
			if err := tx.Model(&model.Asset{}).Where("id = ?", asset.ID).Update("quantity", qty).Error; err != nil {
				return err
			}
			asset.Quantity = qty
			return tx.Create(&model.StockTransaction{
				AssetID:         asset.ID,
				TransactionType: model.TransactionTypeInitial,
				QuantityChange:  qty,
				QuantityBefore:  0,
				QuantityAfter:   qty,
				PerformedBy:     performedBy(actor),
				Reason:          "initial stock",
			}).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.producer.Produce(ctx, "asset.created", map[string]interface{}{
		"id":       asset.ID,
		"asset_id": asset.AssetID,
		"category": asset.Category,
	})
	return asset, nil
}

func (s *AssetService) GetByID(ctx context.Context, actor model.Actor, id uint64) (*model.Asset, error) {
	var a model.Asset
	if err := s.db.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrAssetNotFound
		}
		return nil, err
	}
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetRead, assetFacts(actor, &a)); err != nil {
		// Репортёр не должен узнать о существовании чужого актива.
		if actor.Role == model.RoleReporter {
			return nil, errs.ErrAssetNotFound
		}
		return nil, err
	}
	return &a, nil
}

type AssetFilter struct {
	Category     string
	Status       string
	IsConsumable *bool
}

// List возвращает активы в зоне видимости актора: репортёр видит только назначенные ему.
func (s *AssetService) List(ctx context.Context, actor model.Actor, f AssetFilter, limit, offset int) ([]model.Asset, int64, error) {
	tx := s.db.WithContext(ctx).Model(&model.Asset{})
	switch actor.Role {
	case model.RoleAdmin, model.RoleEngineer:
	case model.RoleReporter:
		tx = tx.Where("assigned_user = ? OR assigned_user_email = ?", actor.FullName, actor.Email)
	default:
		return nil, 0, errs.PermissionDenied("unknown role")
	}
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.IsConsumable != nil {
		tx = tx.Where("is_consumable = ?", *f.IsConsumable)
	}
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
	var items []model.Asset
	if err := tx.Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// UpdateAssetInput — частичное обновление. Quantity здесь нет: остаток меняется
// только через StockService.Adjust.
type UpdateAssetInput struct {
	SerialNumber      *string
	Hostname          *string
	QRCodeData        *string
	Category          *string
	Status            *model.AssetStatus
	AssignedUser      *string
	AssignedUserEmail *string
	MinStockLevel     *int
}

func (s *AssetService) Update(ctx context.Context, actor model.Actor, id uint64, in UpdateAssetInput) (*model.Asset, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetUpdate, rbac.Facts{}); err != nil {
		return nil, err
	}
	var a model.Asset
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrAssetNotFound
			}
			return err
		}
		changes := map[string]interface{}{}
		if in.SerialNumber != nil {
			changes["serial_number"] = *in.SerialNumber
		}
		if in.Hostname != nil {
			changes["hostname"] = *in.Hostname
		}
		if in.QRCodeData != nil {
			changes["qr_code_data"] = *in.QRCodeData
		}
		if in.Category != nil {
			changes["category"] = *in.Category
		}
		if in.Status != nil {
			changes["status"] = *in.Status
		}
		if in.AssignedUser != nil {
			changes["assigned_user"] = *in.AssignedUser
		}
		if in.AssignedUserEmail != nil {
			changes["assigned_user_email"] = *in.AssignedUserEmail
		}
		if in.MinStockLevel != nil {
			changes["min_stock_level"] = *in.MinStockLevel
		}
		if len(changes) == 0 {
			return nil
		}
		if err := tx.Model(&model.Asset{}).Where("id = ?", a.ID).Updates(changes).Error; err != nil {
			return err
		}
		return tx.First(&a, a.ID).Error
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Delete удаляет актив вместе с его журналом остатков и строками аудита.
// Журнал привязан каскадным FK, аудиты чистятся явно (asset_id=0 у несматченных
// сканов не позволяет навесить строгий FK на asset_audits).
func (s *AssetService) Delete(ctx context.Context, actor model.Actor, id uint64) error {
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetDelete, rbac.Facts{}); err != nil {
		return err
	}
	return s.delete(ctx, id)
}

func (s *AssetService) delete(ctx context.Context, id uint64) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var a model.Asset
		if err := tx.First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errs.ErrAssetNotFound
			}
			return err
		}
		if err := tx.Where("asset_id = ?", id).Delete(&model.StockTransaction{}).Error; err != nil {
			return err
		}
		if err := tx.Where("asset_id = ?", id).Delete(&model.AssetAudit{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Asset{}, id).Error
	})
	if err != nil {
		return err
	}
	s.producer.Produce(ctx, "asset.deleted", map[string]interface{}{"id": id})
	return nil
}

// BulkItemResult — исход одного элемента пакетной операции.
type BulkItemResult struct {
	Index   int    `json:"index"`
	AssetID string `json:"asset_id,omitempty"`
	ID      uint64 `json:"id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// BulkReport — пер-элементный отчёт пакетной операции: сбой одного элемента
// не откатывает уже проведённые.
type BulkReport struct {
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Items     []BulkItemResult `json:"items"`
}

// BulkImport заводит активы пачкой, каждый в своей под-транзакции.
func (s *AssetService) BulkImport(ctx context.Context, actor model.Actor, items []CreateAssetInput) (*BulkReport, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetImport, rbac.Facts{}); err != nil {
		return nil, err
	}
	report := &BulkReport{}
	for i, in := range items {
		res := BulkItemResult{Index: i, AssetID: in.AssetID}
		asset, err := s.create(ctx, actor, in)
		if err != nil {
			res.Error = err.Error()
			report.Failed++
		} else {
			res.ID = asset.ID
			report.Succeeded++
		}
		report.Items = append(report.Items, res)
	}
	return report, nil
}

// BulkDelete удаляет активы пачкой, каждый в своей под-транзакции.
func (s *AssetService) BulkDelete(ctx context.Context, actor model.Actor, ids []uint64) (*BulkReport, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetDelete, rbac.Facts{}); err != nil {
		return nil, err
	}
	report := &BulkReport{}
	for i, id := range ids {
		res := BulkItemResult{Index: i, ID: id}
		if err := s.delete(ctx, id); err != nil {
			res.Error = err.Error()
			report.Failed++
		} else {
			report.Succeeded++
		}
		report.Items = append(report.Items, res)
	}
	return report, nil
}

func assetFacts(actor model.Actor, a *model.Asset) rbac.Facts {
	assigned := (a.AssignedUser != "" && a.AssignedUser == actor.FullName) ||
		(a.AssignedUserEmail != "" && a.AssignedUserEmail == actor.Email)
	return rbac.Facts{AssetAssignedToActor: assigned}
}
