package catalogsync

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ManuelReschke/SubTrackr/app/models"
)

// trialToken is the only feed value that marks a plan as having a trial.
const trialToken = "Sí"

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParsePrice reads a feed price. Unparseable input yields zero, trailing
// garbage after a leading number is ignored ("9.99 EUR" -> 9.99).
func ParsePrice(raw string) decimal.Decimal {
	s := strings.TrimSpace(raw)
	if s == "" {
		return decimal.Zero
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d
	}
	if m := leadingNumber.FindString(s); m != "" {
		if d, err := decimal.NewFromString(m); err == nil {
			return d
		}
	}
	return decimal.Zero
}

// normalizedRecord is a feed record with defaults applied.
type normalizedRecord struct {
	Category string
	Service  string
	Plan     models.Plan
}

func orDefault(v FeedText, def string) string {
	if s := strings.TrimSpace(v.String()); s != "" {
		return s
	}
	return def
}

func normalize(rec FeedRecord, position int, syncedAt time.Time) normalizedRecord {
	return normalizedRecord{
		Category: orDefault(rec.Category, models.DefaultCategoryName),
		Service:  strings.TrimSpace(rec.Service.String()),
		Plan: models.Plan{
			ExternalID:       strings.TrimSpace(rec.PlanID.String()),
			Name:             strings.TrimSpace(rec.PlanName.String()),
			BasePrice:        ParsePrice(rec.BasePrice.String()),
			Currency:         orDefault(rec.Currency, models.DefaultCurrency),
			BillingFrequency: orDefault(rec.BillingFrequency, models.DefaultBillingFrequency),
			Features:         rec.Features.String(),
			TrialAvailable:   rec.TrialAvailable.String() == trialToken,
			Country:          orDefault(rec.Country, models.DefaultCountry),
			FeedPosition:     position,
			LastSyncedAt:     syncedAt,
		},
	}
}
