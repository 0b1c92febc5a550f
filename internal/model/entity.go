package model

import "time"

// Role — роль вызывающего пользователя. Выдаётся внешним identity-сервисом.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleEngineer Role = "engineer"
	RoleReporter Role = "reporter"
)

// Actor — аутентифицированный вызывающий. Не хранится в БД, приходит с каждым запросом.
type Actor struct {
	ID       uint64 `json:"id"`
	Role     Role   `json:"role"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
}

type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// Valid сообщает, известен ли статус.
func (s TicketStatus) Valid() bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// Terminal — статус, в котором тикет считается завершённым (resolved_at выставлен).
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusResolved || s == TicketStatusClosed
}

type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
	TicketPriorityUrgent TicketPriority = "urgent"
)

type Ticket struct {
	ID               uint64         `gorm:"primaryKey" json:"id"`
	Subject          string         `gorm:"type:varchar(255);not null" json:"subject"`
	Description      string         `gorm:"type:text" json:"description,omitempty"`
	Status           TicketStatus   `gorm:"type:varchar(32);index;not null" json:"status"`
	Priority         TicketPriority `gorm:"type:varchar(32);index" json:"priority,omitempty"`
	AssignedEngineer string         `gorm:"type:varchar(255);index" json:"assigned_engineer,omitempty"`
	ReporterName     string         `gorm:"type:varchar(255);not null" json:"reporter_name"`
	ReporterEmail    string         `gorm:"type:varchar(255);index" json:"reporter_email,omitempty"`
	CompanyName      string         `gorm:"type:varchar(255)" json:"company_name,omitempty"`
	Resolution       string         `gorm:"type:text" json:"resolution,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CustomDate *time.Time `json:"custom_date,omitempty"`
}

type TicketComment struct {
	ID          uint64 `gorm:"primaryKey" json:"id"`
	TicketID    uint64 `gorm:"index;not null" json:"ticket_id"`
	AuthorName  string `gorm:"type:varchar(255);not null" json:"author_name"`
	AuthorEmail string `gorm:"type:varchar(255)" json:"author_email,omitempty"`
	Body        string `gorm:"type:text;not null" json:"body"`
	// IsInternal — служебный комментарий: репортёрам не показывается.
	IsInternal bool `gorm:"index" json:"is_internal"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type AssetStatus string

const (
	AssetStatusInStock AssetStatus = "in_stock"
	AssetStatusInUse   AssetStatus = "in_use"
	AssetStatusRepair  AssetStatus = "repair"
	AssetStatusRetired AssetStatus = "retired"
)

type Asset struct {
	ID uint64 `gorm:"primaryKey" json:"id"`
	// AssetID — бизнес-ключ (инвентарный номер), уникален.
	AssetID           string      `gorm:"type:varchar(64);uniqueIndex;not null" json:"asset_id"`
	SerialNumber      string      `gorm:"type:varchar(128);index" json:"serial_number"`
	Hostname          string      `gorm:"type:varchar(128);index" json:"hostname,omitempty"`
	QRCodeData        string      `gorm:"type:text" json:"qr_code_data,omitempty"`
	Category          string      `gorm:"type:varchar(64);index" json:"category"`
	Status            AssetStatus `gorm:"type:varchar(32);index" json:"status"`
	AssignedUser      string      `gorm:"type:varchar(255)" json:"assigned_user,omitempty"`
	AssignedUserEmail string      `gorm:"type:varchar(255);index" json:"assigned_user_email,omitempty"`

	// Поля расходников. Quantity меняется только через StockTransaction
	// (кэш поверх журнала, пишется в той же транзакции, что и строка журнала).
	IsConsumable  bool `gorm:"index" json:"is_consumable"`
	Quantity      int  `json:"quantity"`
	MinStockLevel int  `json:"min_stock_level"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type TransactionType string

const (
	TransactionTypeAdd        TransactionType = "add"
	TransactionTypeRemove     TransactionType = "remove"
	TransactionTypeAdjustment TransactionType = "adjustment"
	// TransactionTypeInitial — только при постановке расходника на учёт.
	TransactionTypeInitial TransactionType = "initial"
)

// StockTransaction — строка append-only журнала движения остатков.
// Никогда не обновляется и не удаляется по отдельности (только каскадом с активом).
type StockTransaction struct {
	ID              uint64          `gorm:"primaryKey" json:"id"`
	AssetID         uint64          `gorm:"index;not null" json:"asset_id"`
	TransactionType TransactionType `gorm:"type:varchar(32);not null" json:"transaction_type"`
	QuantityChange  int             `json:"quantity_change"`
	QuantityBefore  int             `json:"quantity_before"`
	QuantityAfter   int             `json:"quantity_after"`
	PerformedBy     string          `gorm:"type:varchar(255);not null" json:"performed_by"`
	Reason          string          `gorm:"type:text" json:"reason,omitempty"`
	ReferenceNumber string          `gorm:"type:varchar(128)" json:"reference_number,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

type AuditStatus string

const (
	AuditStatusValid    AuditStatus = "valid"
	AuditStatusInvalid  AuditStatus = "invalid"
	AuditStatusNotFound AuditStatus = "not_found"
)

// AssetAudit — результат сверки отсканированного кода с реестром.
// Append-only: ровно одна строка на каждую попытку скана, AssetID=0 если актив не найден.
type AssetAudit struct {
	ID          uint64      `gorm:"primaryKey" json:"id"`
	AssetID     uint64      `gorm:"index" json:"asset_id"`
	AuditedBy   string      `gorm:"type:varchar(255);not null" json:"audited_by"`
	AuditDate   time.Time   `json:"audit_date"`
	Status      AuditStatus `gorm:"type:varchar(32);index;not null" json:"status"`
	ScannedData string      `gorm:"type:text" json:"scanned_data"`
	Notes       string      `gorm:"type:text" json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
