package contracts

// SecurityType classifies a tradable instrument
type SecurityType string

const (
	TypeStock       SecurityType = "stock"
	TypeFund        SecurityType = "fund"
	TypeETF         SecurityType = "etf"
	TypeCertificate SecurityType = "certificate"
)

// Valid reports whether the security type is one of the known values
func (t SecurityType) Valid() bool {
	switch t {
	case TypeStock, TypeFund, TypeETF, TypeCertificate:
		return true
	}
	return false
}

// Security represents a registered instrument, identified by its ISIN
type Security struct {
	ISIN string       `json:"isin"`
	NSIN string       `json:"nsin"`
	Name string       `json:"name"`
	Type SecurityType `json:"type"`
}

// Exchange represents a securities exchange with a unique name
type Exchange struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
