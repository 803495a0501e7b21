package market

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// sampleNames maps known sample file stems to friendly table names.
var sampleNames = []struct{ stem, name string }{
	{"msci-esg", "ESG Ratings"},
	{"bloomberg-corporate", "Corporate Bonds"},
	{"sp500", "S&P 500 Data"},
	{"refinitiv-worldcheck", "Risk Intelligence"},
	{"moody-credit", "Credit Ratings"},
	{"visa-fraud", "Fraud Detection"},
	{"dowjones-kyc", "KYC/AML Data"},
}

// ExtractTableName derives a display name from a dataset sample URL such as
// "/samples/msci-esg-sample.csv".
func ExtractTableName(sampleURL string) string {
	name := strings.Replace(sampleURL, "/samples/", "", 1)
	for _, ext := range []string{".csv", ".parquet", ".json"} {
		name = strings.Replace(name, ext, "", 1)
	}
	for _, s := range sampleNames {
		if strings.Contains(name, s.stem) {
			return s.name
		}
	}
	words := strings.Split(name, "-")
	for i, w := range words {
		if r, size := utf8.DecodeRuneInString(w); size > 0 {
			words[i] = string(unicode.ToUpper(r)) + w[size:]
		}
	}
	return strings.Join(words, " ")
}

var dataTypeNames = map[string]string{
	"string":    "Text",
	"integer":   "Number",
	"int":       "Number",
	"bigint":    "Number",
	"double":    "Decimal",
	"float":     "Decimal",
	"decimal":   "Decimal",
	"boolean":   "Boolean",
	"timestamp": "Date/Time",
	"date":      "Date",
	"array":     "List",
	"struct":    "Object",
}

// FormatDataType simplifies warehouse column types for display. Unknown
// types are returned unchanged.
func FormatDataType(t string) string {
	if v, ok := dataTypeNames[strings.ToLower(t)]; ok {
		return v
	}
	return t
}

// PreviewAvailable reports whether a dataset advertises a sample to preview.
func PreviewAvailable(d Dataset) bool {
	return d.SampleAvailable && d.SampleURL != ""
}
