package models

import "time"

// Trade is a logged trade row. Relations live in their own tables and
// cascade on delete.
type Trade struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	Datetime    string      `gorm:"type:text;not null;index" json:"datetime"` // RFC3339, UTC
	Symbol      string      `gorm:"type:text;not null;index" json:"symbol"`
	AccountType AccountType `gorm:"type:text;not null;index" json:"accountType"`
	Result      Result      `gorm:"type:text;not null;index" json:"result"`
	PnL         *float64    `gorm:"column:pnl" json:"pnl"`
	RiskAmount  *float64    `gorm:"column:risk_amount" json:"riskAmount"`
	RMultiple   *float64    `gorm:"column:r_multiple" json:"rMultiple"`
	IsCompliant bool        `gorm:"column:is_compliant;not null;default:false" json:"isCompliant"`
	Notes       string      `gorm:"type:text;not null;default:''" json:"notes"`
	CreatedAt   time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Trade) TableName() string {
	return "trades"
}
