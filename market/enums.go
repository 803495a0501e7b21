package market

// Category is the dataset category. The wire value is the display label.
type Category string

const (
	CategoryMarketTrading     Category = "Market Trading"
	CategoryAlternativeData   Category = "Alternative Data"
	CategoryReferenceData     Category = "Reference Data"
	CategoryRiskCompliance    Category = "Risk & Compliance"
	CategoryCustomerAnalytics Category = "Customer Analytics"
	CategoryESGSustainability Category = "ESG & Sustainability"
	CategoryCreditRisk        Category = "Credit Risk"
	CategoryFraudDetection    Category = "Fraud Detection"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryMarketTrading,
	CategoryAlternativeData,
	CategoryReferenceData,
	CategoryRiskCompliance,
	CategoryCustomerAnalytics,
	CategoryESGSustainability,
	CategoryCreditRisk,
	CategoryFraudDetection,
}

// ParseCategory converts a wire label into a Category.
func ParseCategory(s string) (Category, error) { return parseEnum("category", s, Categories) }

func (c Category) String() string               { return string(c) }
func (c Category) MarshalText() ([]byte, error) { return []byte(c), nil }

// Frequency is how often a dataset is updated.
type Frequency string

const (
	FrequencyRealTime  Frequency = "Real-time"
	FrequencyDaily     Frequency = "Daily"
	FrequencyWeekly    Frequency = "Weekly"
	FrequencyMonthly   Frequency = "Monthly"
	FrequencyQuarterly Frequency = "Quarterly"
	FrequencyAnnually  Frequency = "Annual"
)

var frequencies = []Frequency{
	FrequencyRealTime, FrequencyDaily, FrequencyWeekly,
	FrequencyMonthly, FrequencyQuarterly, FrequencyAnnually,
}

func ParseFrequency(s string) (Frequency, error) { return parseEnum("frequency", s, frequencies) }

func (f Frequency) MarshalText() ([]byte, error) { return []byte(f), nil }

// PricingModel is descriptive metadata; nothing in this module enforces it.
type PricingModel string

const (
	PricingFree         PricingModel = "Free"
	PricingOneTime      PricingModel = "One-time Purchase"
	PricingSubscription PricingModel = "Subscription"
	PricingPayPerUse    PricingModel = "Pay-per-use"
)

var pricingModels = []PricingModel{PricingFree, PricingOneTime, PricingSubscription, PricingPayPerUse}

func ParsePricingModel(s string) (PricingModel, error) {
	return parseEnum("pricingModel", s, pricingModels)
}

func (p PricingModel) MarshalText() ([]byte, error) { return []byte(p), nil }

// AccessLevel is descriptive metadata; nothing in this module enforces it.
type AccessLevel string

const (
	AccessPublic     AccessLevel = "Public"
	AccessPremium    AccessLevel = "Premium"
	AccessEnterprise AccessLevel = "Enterprise"
)

var accessLevels = []AccessLevel{AccessPublic, AccessPremium, AccessEnterprise}

func ParseAccessLevel(s string) (AccessLevel, error) {
	return parseEnum("accessLevel", s, accessLevels)
}

func (a AccessLevel) MarshalText() ([]byte, error) { return []byte(a), nil }

// ConnectionState is reported by the preview connection test.
type ConnectionState string

const (
	Connected    ConnectionState = "connected"
	Disconnected ConnectionState = "disconnected"
)

var connectionStates = []ConnectionState{Connected, Disconnected}

func ParseConnectionState(s string) (ConnectionState, error) {
	return parseEnum("status", s, connectionStates)
}

func (s ConnectionState) MarshalText() ([]byte, error) { return []byte(s), nil }

func parseEnum[T ~string](field, s string, set []T) (T, error) {
	for _, v := range set {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, &DecodeError{Field: field, Value: s, Err: ErrUnknownValue}
}

// checkEnum validates a decoded wire value. An empty value is an absent
// field and passes.
func checkEnum[T ~string](field string, v T, set []T) error {
	if v == "" {
		return nil
	}
	_, err := parseEnum(field, string(v), set)
	return err
}
