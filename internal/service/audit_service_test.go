package service

import (
	"context"
	"errors"
	"testing"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"gorm.io/gorm"
)

func newAuditService(t *testing.T) (*AuditService, *gorm.DB, *producerRecorder) {
	t.Helper()
	db := setupDB(t)
	producer := &producerRecorder{}
	return NewAuditService(db, producer), db, producer
}

func createRegistryAsset(t *testing.T, db *gorm.DB) *model.Asset {
	t.Helper()
	a := &model.Asset{
		AssetID:      "INV-0042",
		SerialNumber: "SN12345",
		Hostname:     "ws-ivanov-01",
		QRCodeData:   `{"company":"PSDS","hostname":"ws-ivanov-01","serial_number":"SN12345","year":"2024"}`,
		Category:     "workstation",
		Status:       model.AssetStatusInUse,
	}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	return a
}

func auditCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&model.AssetAudit{}).Count(&n).Error; err != nil {
		t.Fatalf("count audits: %v", err)
	}
	return n
}

func TestScanStructuredValid(t *testing.T) {
	svc, db, producer := newAuditService(t)
	asset := createRegistryAsset(t, db)

	res, err := svc.Scan(context.Background(), engineerActor, ScanInput{
		CodeData: `{"company":"PSDS","hostname":"ws-ivanov-01","serial_number":"SN12345","year":"2024"}`,
	})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != model.AuditStatusValid {
		t.Fatalf("status = %s, want valid", res.Status)
	}
	if res.Asset == nil || res.Asset.ID != asset.ID {
		t.Fatalf("matched asset = %v, want id %d", res.Asset, asset.ID)
	}
	if res.Audit.AssetID != asset.ID || res.Audit.Status != model.AuditStatusValid {
		t.Fatalf("audit row = {asset:%d status:%s}", res.Audit.AssetID, res.Audit.Status)
	}
	if n := auditCount(t, db); n != 1 {
		t.Fatalf("audit rows = %d, want 1", n)
	}
	if len(producer.events) != 1 || producer.events[0].Name != "audit.recorded" {
		t.Fatalf("events = %v, want one audit.recorded", producer.names())
	}
}

func TestScanStructuredMatchesBusinessAssetID(t *testing.T) {
	svc, db, _ := newAuditService(t)
	createRegistryAsset(t, db)

	// Во втором поле наклейки может стоять инвентарный номер вместо hostname.
	res, err := svc.Scan(context.Background(), adminActor, ScanInput{CodeData: "PSDS|INV-0042|SN12345|2024"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != model.AuditStatusValid {
		t.Fatalf("status = %s, want valid", res.Status)
	}
}

func TestScanStructuredMismatchIsInvalid(t *testing.T) {
	svc, db, _ := newAuditService(t)
	asset := createRegistryAsset(t, db)

	// Серийник есть в реестре, но hostname на наклейке разошёлся с учётом.
	res, err := svc.Scan(context.Background(), engineerActor, ScanInput{CodeData: "PSDS|ws-petrov-07|SN12345|2024"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != model.AuditStatusInvalid {
		t.Fatalf("status = %s, want invalid", res.Status)
	}
	if res.Asset == nil || res.Asset.ID != asset.ID {
		t.Fatalf("matched asset = %v, want the conflicting registry row", res.Asset)
	}
	if res.Audit.AssetID != asset.ID {
		t.Fatalf("audit asset_id = %d, want %d", res.Audit.AssetID, asset.ID)
	}
}

func TestScanNotFoundStillRecordsAudit(t *testing.T) {
	svc, db, _ := newAuditService(t)
	createRegistryAsset(t, db)

	res, err := svc.Scan(context.Background(), engineerActor, ScanInput{CodeData: "PSDS|ws-ghost|SN-MISSING|2020"})
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if res.Status != model.AuditStatusNotFound {
		t.Fatalf("status = %s, want not_found", res.Status)
	}
	if res.Asset != nil {
		t.Fatalf("asset = %v, want nil", res.Asset)
	}
	if res.Audit.AssetID != 0 {
		t.Fatalf("audit asset_id = %d, want 0 for unmatched scan", res.Audit.AssetID)
	}
	if n := auditCount(t, db); n != 1 {
		t.Fatalf("audit rows = %d, want 1", n)
	}
}

func TestScanRawTokenLookup(t *testing.T) {
	svc, db, _ := newAuditService(t)
	createRegistryAsset(t, db)
	ctx := context.Background()

	for _, token := range []string{"SN12345", "INV-0042"} {
		res, err := svc.Scan(ctx, engineerActor, ScanInput{CodeData: token})
		if err != nil {
			t.Fatalf("Scan(%q) error = %v", token, err)
		}
		if res.Status != model.AuditStatusValid {
			t.Fatalf("Scan(%q) status = %s, want valid", token, res.Status)
		}
	}

	res, err := svc.Scan(ctx, engineerActor, ScanInput{CodeData: "garbage-token"})
	if err != nil {
		t.Fatalf("Scan(garbage) error = %v", err)
	}
	if res.Status != model.AuditStatusNotFound {
		t.Fatalf("Scan(garbage) status = %s, want not_found", res.Status)
	}
	// Ровно одна строка аудита на каждый вызов, какой бы ни был исход.
	if n := auditCount(t, db); n != 3 {
		t.Fatalf("audit rows = %d, want 3", n)
	}
}

func TestScanDeniedForReporter(t *testing.T) {
	svc, db, _ := newAuditService(t)
	createRegistryAsset(t, db)

	_, err := svc.Scan(context.Background(), reporterActor, ScanInput{CodeData: "SN12345"})
	if !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("Scan() error = %v, want permission denied", err)
	}
	// Отказ политики не оставляет строки аудита.
	if n := auditCount(t, db); n != 0 {
		t.Fatalf("audit rows = %d, want 0", n)
	}
}

func TestListAuditsFilters(t *testing.T) {
	svc, db, _ := newAuditService(t)
	asset := createRegistryAsset(t, db)
	ctx := context.Background()

	if _, err := svc.Scan(ctx, engineerActor, ScanInput{CodeData: "SN12345"}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if _, err := svc.Scan(ctx, engineerActor, ScanInput{CodeData: "missing"}); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}

	items, total, err := svc.List(ctx, adminActor, AuditFilter{Status: string(model.AuditStatusNotFound)}, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].AssetID != 0 {
		t.Fatalf("List(not_found) = %d rows, total %d", len(items), total)
	}

	items, total, err = svc.List(ctx, engineerActor, AuditFilter{AssetID: asset.ID}, 0, 0)
	if err != nil {
		t.Fatalf("List(asset) error = %v", err)
	}
	if total != 1 || items[0].Status != model.AuditStatusValid {
		t.Fatalf("List(asset) total = %d status = %s", total, items[0].Status)
	}

	if _, _, err := svc.List(ctx, reporterActor, AuditFilter{}, 0, 0); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("List(reporter) error = %v, want permission denied", err)
	}
}

func TestParseScanData(t *testing.T) {
	cases := []struct {
		raw      string
		ok       bool
		hostname string
		serial   string
	}{
		{`{"company":"PSDS","hostname":"h1","serial_number":"s1","year":"2024"}`, true, "h1", "s1"},
		{"PSDS|h1|s1|2024", true, "h1", "s1"},
		{"PSDS | h1 | s1 | 2024", true, "h1", "s1"},
		{"just-a-token", false, "", ""},
		{"a|b|c", false, "", ""},
		{"PSDS||s1|2024", false, "", ""},
	}
	for _, tc := range cases {
		p, ok := parseScanData(tc.raw)
		if ok != tc.ok {
			t.Errorf("parseScanData(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
			continue
		}
		if ok && (p.Hostname != tc.hostname || p.SerialNumber != tc.serial) {
			t.Errorf("parseScanData(%q) = %+v", tc.raw, p)
		}
	}
}
