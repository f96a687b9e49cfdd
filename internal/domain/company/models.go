package company

type Country string

const (
	CountryBD  Country = "BD"
	CountryKSA Country = "KSA"
	CountryUAE Country = "UAE"
	CountryUSA Country = "USA"
)

type CountryInfo struct {
	Code     Country `json:"code"`
	Name     string  `json:"name"`
	Currency string  `json:"currency"`
	Symbol   string  `json:"symbol"`
}

var Countries = map[Country]CountryInfo{
	CountryBD:  {Code: CountryBD, Name: "Bangladesh", Currency: "BDT", Symbol: "৳"},
	CountryKSA: {Code: CountryKSA, Name: "Saudi Arabia", Currency: "SAR", Symbol: "﷼"},
	CountryUAE: {Code: CountryUAE, Name: "United Arab Emirates", Currency: "AED", Symbol: "د.إ"},
	CountryUSA: {Code: CountryUSA, Name: "United States", Currency: "USD", Symbol: "$"},
}

func (c Country) Valid() bool {
	_, ok := Countries[c]
	return ok
}

// Company is a tenant.
type Company struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Logo           string  `json:"logo"`
	Currency       string  `json:"currency"`
	Symbol         string  `json:"symbol"`
	DefaultCountry Country `json:"defaultCountry"`
}

type CreateInput struct {
	Name    string  `json:"name"`
	Logo    string  `json:"logo"`
	Country Country `json:"country"`
}

const DefaultLogo = "🏢"
