package journal

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"trade-journal-go/internal/models"
)

// Trade is a trade row with its tags, attachments and custom values.
type Trade struct {
	models.Trade
	Tags         []models.Tag        `json:"tags"`
	Attachments  []models.Attachment `json:"attachments"`
	CustomValues []CustomValue       `json:"customValues"`
}

// Page is one page of a filtered trade listing. Total counts every match,
// not just the returned items.
type Page struct {
	Items    []Trade `json:"items"`
	Total    int64   `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"pageSize"`
}

// TradeInput holds everything needed to create a trade.
type TradeInput struct {
	Datetime      string             `json:"datetime"`
	Symbol        string             `json:"symbol"`
	AccountType   models.AccountType `json:"accountType"`
	Result        models.Result      `json:"result"`
	PnL           *float64           `json:"pnl"`
	RiskAmount    *float64           `json:"riskAmount"`
	RMultiple     *float64           `json:"rMultiple"`
	IsCompliant   bool               `json:"isCompliant"`
	Notes         string             `json:"notes"`
	TagIDs        []uint             `json:"tagIds"`
	AttachmentIDs []uint             `json:"attachmentIds"`
	CustomValues  []CustomValueInput `json:"customValues"`
}

func (in TradeInput) toRow() (models.Trade, error) {
	row := models.Trade{
		Symbol:      strings.TrimSpace(in.Symbol),
		AccountType: in.AccountType,
		Result:      in.Result,
		PnL:         in.PnL,
		RiskAmount:  in.RiskAmount,
		RMultiple:   in.RMultiple,
		IsCompliant: in.IsCompliant,
		Notes:       in.Notes,
	}
	var err error
	if row.Datetime, err = normalizeDatetime(in.Datetime); err != nil {
		return models.Trade{}, err
	}
	if err := validateRow(row); err != nil {
		return models.Trade{}, err
	}
	row.PnL = derivePnL(row.PnL, row.RiskAmount, row.RMultiple)
	return row, nil
}

// TradePatch is a partial update. Nil pointers leave the stored value as
// is. For the relation lists nil means "not sent" and a non-nil empty list
// clears the relation.
type TradePatch struct {
	Datetime      *string             `json:"datetime"`
	Symbol        *string             `json:"symbol"`
	AccountType   *models.AccountType `json:"accountType"`
	Result        *models.Result      `json:"result"`
	PnL           *float64            `json:"pnl"`
	RiskAmount    *float64            `json:"riskAmount"`
	RMultiple     *float64            `json:"rMultiple"`
	IsCompliant   *bool               `json:"isCompliant"`
	Notes         *string             `json:"notes"`
	TagIDs        *[]uint             `json:"tagIds"`
	AttachmentIDs *[]uint             `json:"attachmentIds"`
	CustomValues  *[]CustomValueInput `json:"customValues"`
}

// apply merges p onto row. A stored P&L that was derived from risk and
// R-multiple is derived again when either input changes and no explicit
// P&L is given.
func (p TradePatch) apply(row *models.Trade) error {
	wasDerived := row.PnL != nil && sameFloat(row.PnL, derivePnL(nil, row.RiskAmount, row.RMultiple))

	if p.Datetime != nil {
		dt, err := normalizeDatetime(*p.Datetime)
		if err != nil {
			return err
		}
		row.Datetime = dt
	}
	if p.Symbol != nil {
		row.Symbol = strings.TrimSpace(*p.Symbol)
	}
	if p.AccountType != nil {
		row.AccountType = *p.AccountType
	}
	if p.Result != nil {
		row.Result = *p.Result
	}
	if p.RiskAmount != nil {
		row.RiskAmount = p.RiskAmount
	}
	if p.RMultiple != nil {
		row.RMultiple = p.RMultiple
	}
	if p.IsCompliant != nil {
		row.IsCompliant = *p.IsCompliant
	}
	if p.Notes != nil {
		row.Notes = *p.Notes
	}

	switch {
	case p.PnL != nil:
		row.PnL = p.PnL
	case wasDerived && (p.RiskAmount != nil || p.RMultiple != nil):
		row.PnL = derivePnL(nil, row.RiskAmount, row.RMultiple)
	default:
		row.PnL = derivePnL(row.PnL, row.RiskAmount, row.RMultiple)
	}
	return validateRow(*row)
}

func validateRow(row models.Trade) error {
	if row.Symbol == "" {
		return validationf("symbol is required")
	}
	if !row.AccountType.Valid() {
		return validationf("unknown account type %q", row.AccountType)
	}
	if !row.Result.Valid() {
		return validationf("unknown result %q", row.Result)
	}
	return nil
}

// normalizeDatetime accepts RFC3339 and stores it in UTC so that string
// comparison orders trades chronologically.
func normalizeDatetime(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", validationf("datetime is required")
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", validationf("datetime %q is not RFC3339", raw)
	}
	return ts.UTC().Format(time.RFC3339), nil
}

// derivePnL returns pnl when set, otherwise risk × R when both are known.
func derivePnL(pnl, risk, rMultiple *float64) *float64 {
	if pnl != nil || risk == nil || rMultiple == nil {
		return pnl
	}
	v, _ := decimal.NewFromFloat(*risk).Mul(decimal.NewFromFloat(*rMultiple)).Round(8).Float64()
	return &v
}

func sameFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
