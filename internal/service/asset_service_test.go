package service

import (
	"context"
	"errors"
	"testing"

	"github.com/psds-microservice/helpdesk-service/internal/errs"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"gorm.io/gorm"
)

func newAssetService(t *testing.T) (*AssetService, *gorm.DB, *producerRecorder) {
	t.Helper()
	db := setupDB(t)
	producer := &producerRecorder{}
	return NewAssetService(db, producer), db, producer
}

func TestCreateConsumableBootstrapsLedger(t *testing.T) {
	svc, db, _ := newAssetService(t)

	asset, err := svc.Create(context.Background(), adminActor, CreateAssetInput{
		AssetID:       "TONER-1",
		Category:      "toner",
		IsConsumable:  true,
		Quantity:      12,
		MinStockLevel: 3,
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if asset.Quantity != 12 {
		t.Fatalf("quantity = %d, want 12", asset.Quantity)
	}

	// Начальный остаток проведён через журнал, а не записан напрямую.
	var txs []model.StockTransaction
	if err := db.Where("asset_id = ?", asset.ID).Find(&txs).Error; err != nil {
		t.Fatalf("load transactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("transactions = %d, want 1", len(txs))
	}
	if txs[0].TransactionType != model.TransactionTypeInitial || txs[0].QuantityBefore != 0 || txs[0].QuantityAfter != 12 {
		t.Fatalf("initial tx = %+v", txs[0])
	}
}

func TestCreateDeniedForNonAdmin(t *testing.T) {
	svc, _, _ := newAssetService(t)
	ctx := context.Background()
	for _, actor := range []model.Actor{engineerActor, reporterActor} {
		_, err := svc.Create(ctx, actor, CreateAssetInput{AssetID: "X-1"})
		if !errors.Is(err, errs.ErrPermissionDenied) {
			t.Fatalf("Create(%s) error = %v, want permission denied", actor.Role, err)
		}
	}
}

func TestReporterSeesOnlyAssignedAssets(t *testing.T) {
	svc, db, _ := newAssetService(t)
	ctx := context.Background()

	mine := &model.Asset{AssetID: "M-1", AssignedUserEmail: reporterActor.Email, Status: model.AssetStatusInUse}
	foreign := &model.Asset{AssetID: "F-1", AssignedUserEmail: "other@client.test", Status: model.AssetStatusInUse}
	for _, a := range []*model.Asset{mine, foreign} {
		if err := db.Create(a).Error; err != nil {
			t.Fatalf("create asset: %v", err)
		}
	}

	items, total, err := svc.List(ctx, reporterActor, AssetFilter{}, 0, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if total != 1 || len(items) != 1 || items[0].AssetID != "M-1" {
		t.Fatalf("reporter List = %d items, total %d", len(items), total)
	}

	if _, err := svc.GetByID(ctx, reporterActor, mine.ID); err != nil {
		t.Fatalf("GetByID(assigned) error = %v", err)
	}
	// Чужой актив для репортёра неотличим от несуществующего.
	if _, err := svc.GetByID(ctx, reporterActor, foreign.ID); !errors.Is(err, errs.ErrAssetNotFound) {
		t.Fatalf("GetByID(foreign) error = %v, want ErrAssetNotFound", err)
	}

	if _, total, err = svc.List(ctx, engineerActor, AssetFilter{}, 0, 0); err != nil || total != 2 {
		t.Fatalf("engineer List total = %d err = %v, want 2", total, err)
	}
}

func TestUpdateAssetPartial(t *testing.T) {
	svc, db, _ := newAssetService(t)
	a := &model.Asset{AssetID: "U-1", Category: "laptop", Status: model.AssetStatusInStock}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}
	ctx := context.Background()

	if _, err := svc.Update(ctx, engineerActor, a.ID, UpdateAssetInput{}); !errors.Is(err, errs.ErrPermissionDenied) {
		t.Fatalf("Update(engineer) error = %v, want permission denied", err)
	}

	status := model.AssetStatusInUse
	user := "Rita Reporter"
	got, err := svc.Update(ctx, adminActor, a.ID, UpdateAssetInput{Status: &status, AssignedUser: &user})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if got.Status != model.AssetStatusInUse || got.AssignedUser != user {
		t.Fatalf("updated asset = %+v", got)
	}
	if got.Category != "laptop" {
		t.Fatalf("category changed to %q on partial update", got.Category)
	}
}

func TestDeleteAssetRemovesLedgerAndAudits(t *testing.T) {
	svc, db, _ := newAssetService(t)
	ctx := context.Background()

	asset, err := svc.Create(ctx, adminActor, CreateAssetInput{AssetID: "D-1", IsConsumable: true, Quantity: 5})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := db.Create(&model.AssetAudit{AssetID: asset.ID, AuditedBy: "x", Status: model.AuditStatusValid}).Error; err != nil {
		t.Fatalf("create audit: %v", err)
	}

	if err := svc.Delete(ctx, adminActor, asset.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var txs, audits int64
	if err := db.Model(&model.StockTransaction{}).Where("asset_id = ?", asset.ID).Count(&txs).Error; err != nil {
		t.Fatalf("count transactions: %v", err)
	}
	if err := db.Model(&model.AssetAudit{}).Where("asset_id = ?", asset.ID).Count(&audits).Error; err != nil {
		t.Fatalf("count audits: %v", err)
	}
	if txs != 0 || audits != 0 {
		t.Fatalf("leftover rows: transactions %d, audits %d", txs, audits)
	}
}

func TestBulkImportPartialFailure(t *testing.T) {
	svc, _, _ := newAssetService(t)

	report, err := svc.BulkImport(context.Background(), adminActor, []CreateAssetInput{
		{AssetID: "B-1", Category: "mouse"},
		{AssetID: "B-1", Category: "mouse"}, // дубликат инвентарного номера
		{AssetID: "B-2", Category: "keyboard"},
	})
	if err != nil {
		t.Fatalf("BulkImport() error = %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("report = %d/%d, want 2 succeeded 1 failed", report.Succeeded, report.Failed)
	}
	if report.Items[1].Error == "" {
		t.Fatalf("item 1 error empty, want duplicate key failure")
	}
	// Сбой второго элемента не откатил первый и не помешал третьему.
	if report.Items[0].ID == 0 || report.Items[2].ID == 0 {
		t.Fatalf("items 0/2 not persisted: %+v", report.Items)
	}
}

func TestBulkDeletePartialFailure(t *testing.T) {
	svc, db, _ := newAssetService(t)
	a := &model.Asset{AssetID: "BD-1"}
	if err := db.Create(a).Error; err != nil {
		t.Fatalf("create asset: %v", err)
	}

	report, err := svc.BulkDelete(context.Background(), adminActor, []uint64{a.ID, 9999})
	if err != nil {
		t.Fatalf("BulkDelete() error = %v", err)
	}
	if report.Succeeded != 1 || report.Failed != 1 {
		t.Fatalf("report = %d/%d, want 1/1", report.Succeeded, report.Failed)
	}
	var n int64
	if err := db.Model(&model.Asset{}).Count(&n).Error; err != nil {
		t.Fatalf("count assets: %v", err)
	}
	if n != 0 {
		t.Fatalf("assets left = %d, want 0", n)
	}
}
