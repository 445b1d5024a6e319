package csv

// CsvDelimiter represents supported CSV delimiters
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// candidateDelimiters is the detection order; earlier entries win ties
var candidateDelimiters = []CsvDelimiter{DelimiterComma, DelimiterSemicolon, DelimiterTab}

// DefaultQuoteChar is used when a parse config leaves quote_char empty
const DefaultQuoteChar = '"'

// detectionSampleLines is how many non-blank lines delimiter detection inspects
const detectionSampleLines = 3

// Name returns a human-readable delimiter name
func (d CsvDelimiter) Name() string {
	switch d {
	case DelimiterComma:
		return "comma"
	case DelimiterSemicolon:
		return "semicolon"
	case DelimiterTab:
		return "tab"
	default:
		return string(d)
	}
}
