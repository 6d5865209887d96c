package deal

// Fee item keys. The same keys address entries in Config.CustomFees.
const (
	FeeBase           = "base"
	FeeUnder100       = "under_100"
	FeeDistance       = "distance"
	FeeCheaperMusic   = "cheaper_music"
	FeeOver250        = "over_250"
	FeeSongSchus      = "scs_song_schus"
	FeeSongNone       = "scs_song_none"
	FeeShirtsExcluded = "scs_no_shirts"
)

// Children thresholds are exclusive: under_100 applies below 100, over_250 above 250.
const (
	smallSchoolLimit = 100
	largeSchoolLimit = 250
)

// Default amounts in cents.
const (
	mimuBaseCents      = 0
	mimuSCSBaseCents   = 250000
	under100Cents      = 15000
	distanceCents      = 10000
	cheaperMusicCents  = 30000
	cheaperMusicLarge  = 50000
	over250Cents       = 50000
	songSchusDiscount  = -40000
	songNoneDiscount   = -80000
	shirtsExcludedDisc = -25000
)

// LineItem is one signed fee entry. Discounts carry negative amounts.
type LineItem struct {
	Key         string `json:"key"`
	Label       string `json:"label"`
	AmountCents int64  `json:"amountCents"`
}

// FeeBreakdown is the school-facing fee for an event package.
type FeeBreakdown struct {
	BaseCents  int64      `json:"baseCents"`
	Items      []LineItem `json:"items"`
	TotalCents int64      `json:"totalCents"`
}

// CalculateFee returns the fee breakdown, or nil for package types without fee tracking.
func CalculateFee(dealType Type, cfg Config, estimatedChildren int) *FeeBreakdown {
	switch dealType {
	case Mimu:
		return calculateMimu(cfg, estimatedChildren)
	case MimuSCS:
		return calculateMimuSCS(cfg, estimatedChildren)
	default:
		return nil
	}
}

func calculateMimu(cfg Config, children int) *FeeBreakdown {
	b := newBreakdown(cfg, mimuBaseCents)

	if children < smallSchoolLimit {
		b.add(cfg, FeeUnder100, "Surcharge for fewer than 100 children", under100Cents)
	}
	if cfg.DistanceSurcharge {
		b.add(cfg, FeeDistance, "Distance surcharge", distanceCents)
	}
	if cfg.CheaperMusic {
		amount := int64(cheaperMusicCents)
		if children > largeSchoolLimit {
			amount = cheaperMusicLarge
		}
		b.add(cfg, FeeCheaperMusic, "Reduced music package surcharge", amount)
	}

	return b.finish()
}

func calculateMimuSCS(cfg Config, children int) *FeeBreakdown {
	b := newBreakdown(cfg, mimuSCSBaseCents)

	if children > largeSchoolLimit {
		b.add(cfg, FeeOver250, "Surcharge for more than 250 children", over250Cents)
	}

	switch cfg.SCSSongOption {
	case SongSchus:
		b.add(cfg, FeeSongSchus, "Schulsong booked separately", songSchusDiscount)
	case SongNone:
		b.add(cfg, FeeSongNone, "Without schulsong", songNoneDiscount)
	}

	if cfg.SCSShirtsIncluded != nil && !*cfg.SCSShirtsIncluded {
		b.add(cfg, FeeShirtsExcluded, "Without shirts", shirtsExcludedDisc)
	}

	return b.finish()
}

func newBreakdown(cfg Config, defaultBase int64) *FeeBreakdown {
	return &FeeBreakdown{BaseCents: feeAmount(cfg, FeeBase, defaultBase), Items: []LineItem{}}
}

func (b *FeeBreakdown) add(cfg Config, key, label string, defaultAmount int64) {
	b.Items = append(b.Items, LineItem{Key: key, Label: label, AmountCents: feeAmount(cfg, key, defaultAmount)})
}

func (b *FeeBreakdown) finish() *FeeBreakdown {
	b.TotalCents = b.BaseCents
	for _, item := range b.Items {
		b.TotalCents += item.AmountCents
	}
	return b
}

// feeAmount returns the custom fee for key when present (0 included), else def.
func feeAmount(cfg Config, key string, def int64) int64 {
	if v, ok := cfg.CustomFees[key]; ok {
		return v
	}
	return def
}

var feeKeys = map[string]bool{
	FeeBase:           false,
	FeeUnder100:       false,
	FeeDistance:       false,
	FeeCheaperMusic:   false,
	FeeOver250:        false,
	FeeSongSchus:      true,
	FeeSongNone:       true,
	FeeShirtsExcluded: true,
}

// IsFeeKey reports whether key names a fee item that CustomFees may override.
func IsFeeKey(key string) bool {
	_, ok := feeKeys[key]
	return ok
}

// IsDiscountKey reports whether the item is a discount and so carries a negative amount.
func IsDiscountKey(key string) bool {
	return feeKeys[key]
}
