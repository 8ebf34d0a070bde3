package currency

import "regexp"

// declarationTags lists currency tags the registry harvests payout
// addresses for. BTC is parseable (see ParseAddress) but not harvested: the
// source format only ever declared Monero addresses this way, and BTC
// disbursement remains a stub (internal/walletrpc).
var declarationTags = []Symbol{XMR}

// declarationPattern matches "XMR <addr>" and "XMR: <addr>" — the Open
// Question in spec.md §9 on whether the colon is required or forbidden is
// resolved by accepting both forms.
var declarationPattern = regexp.MustCompile(`(?m)\b(XMR)\s*:?\s+(\S+)`)

// ExtractDeclaration scans a commit message for the first recognized
// currency declaration and returns the parsed Address. The second return
// value is false if no declaration is present.
func ExtractDeclaration(message string) (Address, bool) {
	match := declarationPattern.FindStringSubmatch(message)
	if match == nil {
		return Address{}, false
	}

	addr, err := ParseAddress(match[1], match[2])
	if err != nil {
		return Address{}, false
	}
	return addr, true
}
