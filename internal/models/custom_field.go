package models

import "time"

// CustomField is a user-defined extension of the trade schema.
type CustomField struct {
	ID        uint      `gorm:"primaryKey;autoIncrement"`
	Key       string    `gorm:"type:text;not null;uniqueIndex"`
	Label     string    `gorm:"type:text;not null"`
	Type      FieldType `gorm:"type:text;not null"`
	Required  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (CustomField) TableName() string {
	return "custom_fields"
}

// CustomFieldOption is one choice of a select field.
type CustomFieldOption struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	FieldID   uint   `gorm:"not null;index"`
	Value     string `gorm:"type:text;not null"`
	Label     string `gorm:"type:text;not null"`
	SortOrder int    `gorm:"not null;default:0"`

	Field *CustomField `gorm:"constraint:OnDelete:CASCADE"`
}

func (CustomFieldOption) TableName() string {
	return "custom_field_options"
}

// CustomFieldValue stores one trade's value for a field in the column that
// matches the field type. Text and select values use ValueText; a
// multiSelect value is one row per selected option.
type CustomFieldValue struct {
	ID            uint     `gorm:"primaryKey;autoIncrement"`
	TradeID       uint     `gorm:"not null;index:idx_cfv_trade_field"`
	FieldID       uint     `gorm:"not null;index:idx_cfv_trade_field;index"`
	ValueText     *string  `gorm:"type:text"`
	ValueNumber   *float64 `gorm:"column:value_number"`
	ValueBool     *bool    `gorm:"column:value_bool"`
	ValueDate     *string  `gorm:"type:text"`
	ValueDatetime *string  `gorm:"type:text"`

	Trade *Trade       `gorm:"constraint:OnDelete:CASCADE"`
	Field *CustomField `gorm:"constraint:OnDelete:CASCADE"`
}

func (CustomFieldValue) TableName() string {
	return "custom_field_values"
}
