package models

// AccountType is the kind of account a trade was placed on.
type AccountType string

const (
	AccountLive AccountType = "live"
	AccountSim  AccountType = "sim"
)

// Valid reports whether a is a known account type.
func (a AccountType) Valid() bool {
	return a == AccountLive || a == AccountSim
}

// Result is how a trade was closed.
type Result string

const (
	ResultTakeProfit Result = "takeProfit"
	ResultStopLoss   Result = "stopLoss"
	ResultBreakeven  Result = "breakeven"
	ResultManualExit Result = "manualExit"
)

// Valid reports whether r is a known result.
func (r Result) Valid() bool {
	switch r {
	case ResultTakeProfit, ResultStopLoss, ResultBreakeven, ResultManualExit:
		return true
	}
	return false
}

// FieldType is the declared value type of a custom field.
type FieldType string

const (
	FieldText         FieldType = "text"
	FieldNumber       FieldType = "number"
	FieldBoolean      FieldType = "boolean"
	FieldSingleSelect FieldType = "singleSelect"
	FieldMultiSelect  FieldType = "multiSelect"
	FieldDate         FieldType = "date"
	FieldDatetime     FieldType = "datetime"
)

// Valid reports whether f is a known field type.
func (f FieldType) Valid() bool {
	switch f {
	case FieldText, FieldNumber, FieldBoolean, FieldSingleSelect, FieldMultiSelect, FieldDate, FieldDatetime:
		return true
	}
	return false
}

// HasOptions reports whether values of this type are picked from a fixed option list.
func (f FieldType) HasOptions() bool {
	return f == FieldSingleSelect || f == FieldMultiSelect
}
