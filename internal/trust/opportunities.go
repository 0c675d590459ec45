package trust

import "fmt"

// Opportunity is a downstream financial product gated on the trust score or
// on verified-transaction volume.
type Opportunity struct {
	Name     string  `json:"name"`
	Progress float64 `json:"progress"`
	Eligible bool    `json:"eligible"`
	Status   string  `json:"status"`
}

const (
	rentalScoreThreshold = 750
	jobScoreThreshold    = 650
	microLoanVerifiedMin = 15
)

// Opportunities reports how close the user is to each unlockable product.
func (s *Service) Opportunities(email string) ([]Opportunity, error) {
	info, err := s.GetScore(email)
	if err != nil {
		return nil, err
	}
	sum, err := s.Summary(email)
	if err != nil {
		return nil, err
	}
	score := info.Score

	rental := Opportunity{
		Name:     "Apartment Rental Eligibility",
		Progress: pct(float64(score), rentalScoreThreshold),
		Eligible: score >= rentalScoreThreshold,
	}
	if rental.Eligible {
		rental.Status = "Ready to apply"
	} else {
		rental.Status = fmt.Sprintf("Need %d more points", rentalScoreThreshold-score)
	}

	loan := Opportunity{
		Name:     "Micro-Loan ($500 - $2000)",
		Progress: pct(float64(sum.VerifiedCount), microLoanVerifiedMin),
		Eligible: sum.VerifiedCount >= microLoanVerifiedMin,
	}
	if loan.Eligible {
		loan.Status = "Eligible now!"
	} else {
		loan.Status = fmt.Sprintf("Record %d more verified transactions", microLoanVerifiedMin-sum.VerifiedCount)
	}

	job := Opportunity{
		Name:     "Job Verification Premium",
		Progress: pct(float64(score), jobScoreThreshold),
		Eligible: score >= jobScoreThreshold,
	}
	if job.Eligible {
		job.Status = "Unlocked!"
	} else {
		job.Status = fmt.Sprintf("Need %d more points", jobScoreThreshold-score)
	}

	return []Opportunity{rental, loan, job}, nil
}

func pct(value, target float64) float64 {
	p := value / target * 100
	if p > 100 {
		p = 100
	}
	return p
}
