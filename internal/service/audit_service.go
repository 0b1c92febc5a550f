package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/psds-microservice/helpdesk-service/internal/rbac"
	"gorm.io/gorm"
)

// AuditService сверяет отсканированные коды с реестром активов и ведёт
// append-only журнал результатов: ровно одна строка на каждую попытку скана.
type AuditService struct {
	db       *gorm.DB
	producer EventProducer
}

func NewAuditService(db *gorm.DB, producer EventProducer) *AuditService {
	return &AuditService{db: db, producer: producer}
}

type ScanInput struct {
	CodeData string
	Notes    string
}

// ScanResult — исход сверки. not_found и invalid — нормальные результаты, не ошибки.
type ScanResult struct {
	Status model.AuditStatus `json:"status"`
	Asset  *model.Asset      `json:"asset,omitempty"`
	Audit  *model.AssetAudit `json:"audit"`
}

// scanPayload — структурированное содержимое QR-кода.
type scanPayload struct {
	Company      string `json:"company"`
	Hostname     string `json:"hostname"`
	SerialNumber string `json:"serial_number"`
	Year         string `json:"year"`
}

// parseScanData пробует JSON, затем формат COMPANY|HOSTNAME|SERIAL|YEAR.
func parseScanData(raw string) (scanPayload, bool) {
	var p scanPayload
	if err := json.Unmarshal([]byte(raw), &p); err == nil && p.SerialNumber != "" && p.Hostname != "" {
		return p, true
	}
	parts := strings.Split(raw, "|")
	if len(parts) == 4 {
		p = scanPayload{
			Company:      strings.TrimSpace(parts[0]),
			Hostname:     strings.TrimSpace(parts[1]),
			SerialNumber: strings.TrimSpace(parts[2]),
			Year:         strings.TrimSpace(parts[3]),
		}
		if p.SerialNumber != "" && p.Hostname != "" {
			return p, true
		}
	}
	return scanPayload{}, false
}

// Scan сверяет код с реестром и всегда записывает одну строку аудита,
// независимо от исхода (asset_id = 0, если актив не найден).
func (s *AuditService) Scan(ctx context.Context, actor model.Actor, in ScanInput) (*ScanResult, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionAssetScan, rbac.Facts{}); err != nil {
		return nil, err
	}

	status := model.AuditStatusNotFound
	var matched *model.Asset

	if p, ok := parseScanData(in.CodeData); ok {
		var asset model.Asset
		err := s.db.WithContext(ctx).
			Where("serial_number = ? AND (hostname = ? OR asset_id = ?)", p.SerialNumber, p.Hostname, p.Hostname).
			First(&asset).Error
		switch {
		case err == nil:
			status = model.AuditStatusValid
			matched = &asset
		case errors.Is(err, gorm.ErrRecordNotFound):
			// Актив с таким серийником существует, но hostname разошёлся —
			// данные на наклейке и в реестре неконсистентны.
			err = s.db.WithContext(ctx).Where("serial_number = ?", p.SerialNumber).First(&asset).Error
			switch {
			case err == nil:
				status = model.AuditStatusInvalid
				matched = &asset
			case errors.Is(err, gorm.ErrRecordNotFound):
			default:
				return nil, err
			}
		default:
			return nil, err
		}
	} else {
		raw := strings.TrimSpace(in.CodeData)
		var asset model.Asset
		err := s.db.WithContext(ctx).
			Where("qr_code_data = ? OR asset_id = ? OR serial_number = ?", raw, raw, raw).
			First(&asset).Error
		switch {
		case err == nil:
			status = model.AuditStatusValid
			matched = &asset
		case errors.Is(err, gorm.ErrRecordNotFound):
		default:
			return nil, err
		}
	}

	audit := &model.AssetAudit{
		AuditedBy:   performedBy(actor),
		AuditDate:   time.Now(),
		Status:      status,
		ScannedData: in.CodeData,
		Notes:       in.Notes,
	}
	if matched != nil {
		audit.AssetID = matched.ID
	}
	if err := s.db.WithContext(ctx).Create(audit).Error; err != nil {
		return nil, err
	}
	s.producer.Produce(ctx, "audit.recorded", map[string]interface{}{
		"audit_id":   audit.ID,
		"asset_id":   audit.AssetID,
		"status":     string(audit.Status),
		"audited_by": audit.AuditedBy,
	})

	res := &ScanResult{Status: status, Audit: audit}
	if status == model.AuditStatusValid || status == model.AuditStatusInvalid {
		res.Asset = matched
	}
	return res, nil
}

type AuditFilter struct {
	Status  string
	AssetID uint64
}

func (s *AuditService) List(ctx context.Context, actor model.Actor, f AuditFilter, limit, offset int) ([]model.AssetAudit, int64, error) {
	if err := rbac.Authorize(actor.Role, rbac.ActionAuditRead, rbac.Facts{}); err != nil {
		return nil, 0, err
	}
	tx := s.db.WithContext(ctx).Model(&model.AssetAudit{})
	if f.Status != "" {
		tx = tx.Where("status = ?", f.Status)
	}
	if f.AssetID != 0 {
		tx = tx.Where("asset_id = ?", f.AssetID)
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
	var items []model.AssetAudit
	if err := tx.Order("created_at DESC, id DESC").Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
