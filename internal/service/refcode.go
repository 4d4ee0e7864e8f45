package service

import "fmt"

// NextCode derives a human-readable case reference from the owning
// organization's code and the count of prior cases. Organization-prefixed
// codes are zero-padded to three digits; individual accounts fall back to a
// plain running number.
//
// The contract is sequential creation only: two concurrent creations that
// read the same prior count will produce the same code. The design accepts
// that window; strict uniqueness would need a transactional increment.
func NextCode(orgPrefix string, priorCaseCount int) string {
	if orgPrefix != "" {
		return fmt.Sprintf("%s-%03d", orgPrefix, priorCaseCount+1)
	}
	return fmt.Sprintf("CASE-%d", priorCaseCount+1)
}
