package data

// delimiters in order of preference when counts tie.
var delimiters = []rune{',', '\t', ';', '|'}

// DetectDelimiter guesses the field separator from a header line by counting
// candidate runes outside double quotes. Defaults to a comma.
func DetectDelimiter(header string) rune {
	counts := map[rune]int{}
	quoted := false
	for _, r := range header {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if quoted {
			continue
		}
		for _, d := range delimiters {
			if r == d {
				counts[r]++
			}
		}
	}
	best, bestN := ',', 0
	for _, d := range delimiters {
		if counts[d] > bestN {
			best, bestN = d, counts[d]
		}
	}
	return best
}
