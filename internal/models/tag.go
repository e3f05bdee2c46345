package models

import "time"

// Tag is a global label that can be attached to any number of trades.
type Tag struct {
	ID        uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"type:text;not null;uniqueIndex" json:"name"`
	Color     *string   `gorm:"type:text" json:"color"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
}

func (Tag) TableName() string {
	return "tags"
}

// TradeTag joins trades and tags. Deleting either side removes the link.
type TradeTag struct {
	TradeID uint `gorm:"primaryKey"`
	TagID   uint `gorm:"primaryKey;index"`

	Trade *Trade `gorm:"constraint:OnDelete:CASCADE"`
	Tag   *Tag   `gorm:"constraint:OnDelete:CASCADE"`
}

func (TradeTag) TableName() string {
	return "trade_tags"
}
