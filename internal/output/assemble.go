package output

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/rickgao/b3-data/internal/model"
)

// UpdatedAtFormat is the layout of Snapshot.UpdatedAt.
const UpdatedAtFormat = "02/01/2006 15:04"

// Unavailable is appended to the provider name when no exchange dataset
// contributed to the snapshot.
const Unavailable = "(COTAHIST indisponível)"

// AssembleInput describes where the instruments came from.
type AssembleInput struct {
	// ExchangeSource labels the exchange dataset. Empty means the run was
	// provider-only.
	ExchangeSource string
	ReferenceDate  model.Date
	ProviderName   string
	Now            time.Time
	RunID          uuid.UUID
}

// Provenance returns the source label of a snapshot.
func (in AssembleInput) Provenance() string {
	if in.ExchangeSource != "" {
		return in.ExchangeSource + " + " + in.ProviderName
	}
	return in.ProviderName + " " + Unavailable
}

// Assemble sorts instruments by descending volume and wraps them in a
// snapshot. Missing volumes sort as zero; ties are ordered by ticker.
func Assemble(instruments []model.Instrument, in AssembleInput) *model.Snapshot {
	sorted := slices.Clone(instruments)
	slices.SortStableFunc(sorted, func(a, b model.Instrument) int {
		if c := volumeOf(b).Cmp(volumeOf(a)); c != 0 {
			return c
		}
		return strings.Compare(a.Ticker, b.Ticker)
	})
	if sorted == nil {
		sorted = []model.Instrument{}
	}

	ref := in.ReferenceDate
	if in.ExchangeSource == "" || ref.IsZero() {
		ref = model.DateOf(in.Now)
	}

	runID := in.RunID
	if runID == uuid.Nil {
		runID = uuid.New()
	}

	return &model.Snapshot{
		RunID:         runID,
		UpdatedAt:     in.Now.Format(UpdatedAtFormat),
		ReferenceDate: ref,
		Source:        in.Provenance(),
		Total:         len(sorted),
		Instruments:   sorted,
	}
}

func volumeOf(inst model.Instrument) decimal.Decimal {
	if !inst.Volume.Valid {
		return decimal.Zero
	}
	return inst.Volume.Decimal
}
