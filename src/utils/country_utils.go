package utils

import (
	"fmt"
	"strings"
)

// CountryInfo describes a country a listed security can originate from.
// NamePL is the Polish name used on the PIT forms, Numeric the ISO 3166-1
// numeric code.
type CountryInfo struct {
	Alpha2  string `json:"alpha2"`
	Name    string `json:"country"`
	NamePL  string `json:"country_pl"`
	Numeric string `json:"numeric"`
}

// countryMap indexes the countries commonly seen in broker exports by their
// ISIN prefix (ISO 3166-1 alpha-2).
var countryMap = map[string]CountryInfo{
	"AT": {"AT", "Austria", "Austria", "040"},
	"AU": {"AU", "Australia", "Australia", "036"},
	"BE": {"BE", "Belgium", "Belgia", "056"},
	"BM": {"BM", "Bermuda", "Bermudy", "060"},
	"BR": {"BR", "Brazil", "Brazylia", "076"},
	"CA": {"CA", "Canada", "Kanada", "124"},
	"CH": {"CH", "Switzerland", "Szwajcaria", "756"},
	"CN": {"CN", "China", "Chiny", "156"},
	"DE": {"DE", "Germany", "Niemcy", "276"},
	"DK": {"DK", "Denmark", "Dania", "208"},
	"ES": {"ES", "Spain", "Hiszpania", "724"},
	"FI": {"FI", "Finland", "Finlandia", "246"},
	"FR": {"FR", "France", "Francja", "250"},
	"GB": {"GB", "United Kingdom", "Wielka Brytania", "826"},
	"GR": {"GR", "Greece", "Grecja", "300"},
	"HK": {"HK", "Hong Kong", "Hongkong", "344"},
	"IE": {"IE", "Ireland", "Irlandia", "372"},
	"IL": {"IL", "Israel", "Izrael", "376"},
	"IN": {"IN", "India", "Indie", "356"},
	"IT": {"IT", "Italy", "Włochy", "380"},
	"JP": {"JP", "Japan", "Japonia", "392"},
	"KR": {"KR", "South Korea", "Korea Południowa", "410"},
	"LU": {"LU", "Luxembourg", "Luksemburg", "442"},
	"MX": {"MX", "Mexico", "Meksyk", "484"},
	"NL": {"NL", "Netherlands", "Holandia", "528"},
	"NO": {"NO", "Norway", "Norwegia", "578"},
	"NZ": {"NZ", "New Zealand", "Nowa Zelandia", "554"},
	"PL": {"PL", "Poland", "Polska", "616"},
	"PT": {"PT", "Portugal", "Portugalia", "620"},
	"SE": {"SE", "Sweden", "Szwecja", "752"},
	"SG": {"SG", "Singapore", "Singapur", "702"},
	"US": {"US", "United States", "Stany Zjednoczone", "840"},
	"ZA": {"ZA", "South Africa", "Republika Południowej Afryki", "710"},
}

// CountryFromISIN resolves the issuing country from the first two letters of
// an ISIN. The second return value is false when the prefix is unknown or the
// ISIN is malformed.
func CountryFromISIN(isin string) (CountryInfo, bool) {
	if len(isin) < 2 {
		return CountryInfo{}, false
	}
	info, found := countryMap[strings.ToUpper(isin[:2])]
	return info, found
}

// CountryCodeFromISIN returns the ISO alpha-2 country code for an ISIN, or
// the raw prefix when the country is not in the registry. Used as the
// reporting key for realized gains and dividend buckets.
func CountryCodeFromISIN(isin string) string {
	if info, found := CountryFromISIN(isin); found {
		return info.Alpha2
	}
	if len(isin) >= 2 {
		return strings.ToUpper(isin[:2])
	}
	return "??"
}

// IsKnownCountry reports whether the alpha-2 code is in the registry.
// Unknown codes still flow through the reports but get flagged for manual
// verification.
func IsKnownCountry(alpha2 string) bool {
	_, found := countryMap[strings.ToUpper(alpha2)]
	return found
}

// CountryDisplayString formats a country the way the tax report labels it,
// e.g. "840 - Stany Zjednoczone".
func CountryDisplayString(alpha2 string) string {
	info, found := countryMap[strings.ToUpper(alpha2)]
	if !found {
		return "Unknown Code: " + strings.ToUpper(alpha2)
	}
	return fmt.Sprintf("%s - %s", info.Numeric, info.NamePL)
}
