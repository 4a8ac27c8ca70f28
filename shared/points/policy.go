// Package points maps verification outcomes to quiz reward points.
package points

import "edu-gate/internal/models"

const (
	VerifiedPoints   = 150
	AIVerifiedPoints = 100
	BasePoints       = 50
)

// Award returns the points for a quiz completed on content with the given
// verification status.
func Award(status models.VerificationStatus) int {
	switch status {
	case models.StatusVerified:
		return VerifiedPoints
	case models.StatusAIVerified:
		return AIVerifiedPoints
	case models.StatusRejected, models.StatusPending:
		return BasePoints
	default:
		return BasePoints
	}
}
