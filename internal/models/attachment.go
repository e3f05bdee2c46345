package models

import "time"

// Attachment is the metadata of an uploaded file. TradeID stays nil until the
// file is linked to a trade.
type Attachment struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	TradeID   *uint     `gorm:"index" json:"tradeId"`
	Path      string    `gorm:"type:text;not null" json:"path"`
	MimeType  string    `gorm:"type:text;not null" json:"mimeType"`
	Size      int64     `gorm:"not null" json:"size"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`

	Trade *Trade `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (Attachment) TableName() string {
	return "attachments"
}
