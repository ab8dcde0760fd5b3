package auth

import (
	"fmt"
	"log"
)

// OperatorChecker gates every inbound update against the configured
// operator account. The bot is a single-operator tool; anyone else gets a
// polite refusal.
type OperatorChecker struct {
	adminID int64
}

// NewOperatorChecker creates a checker for the given operator account ID.
func NewOperatorChecker(adminID int64) (*OperatorChecker, error) {
	if adminID == 0 {
		return nil, fmt.Errorf("operator ID cannot be zero")
	}
	return &OperatorChecker{adminID: adminID}, nil
}

// IsOperator reports whether the user is the configured operator.
func (c *OperatorChecker) IsOperator(userID int64) bool {
	if userID != c.adminID {
		log.Printf("[Auth User:%d] Rejected non-operator update", userID)
		return false
	}
	return true
}
