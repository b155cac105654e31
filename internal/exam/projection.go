package exam

// Advisory policy mirrored from the remote authority, which remains the
// source of truth for grading and attempt counting.
const (
	PassThreshold = 80.0
	MaxAttempts   = 3
)

// Projection is the display-ready reading of a terminal result.
type Projection struct {
	Certified         bool    `json:"certified"`
	Score             int     `json:"score"`
	Percentage        float64 `json:"percentage"`
	Passed            bool    `json:"passed"`
	AttemptsUsed      int     `json:"attemptsUsed"`
	AttemptsRemaining int     `json:"attemptsRemaining"`
	RetryEligible     bool    `json:"retryEligible"`
	CertificateFile   string  `json:"certificateFile,omitempty"`
}

// Project derives pass/fail, attempt usage and retry eligibility from a
// result. previousAttempts is the count known before this submission and
// is used when the result does not report its own.
func Project(result Result, previousAttempts int) Projection {
	var p Projection

	switch r := result.(type) {
	case *Certified:
		p.Certified = true
		p.Percentage = 100
		p.AttemptsUsed = previousAttempts + 1
		p.CertificateFile = r.SavedPath
		if p.CertificateFile == "" {
			p.CertificateFile = r.SuggestedFilename
		}
	case *Scored:
		p.Score = r.Score
		p.Percentage = r.Percentage
		p.AttemptsUsed = r.AttemptsUsed
		if p.AttemptsUsed <= 0 {
			p.AttemptsUsed = previousAttempts + 1
		}
	default:
		return Projection{AttemptsUsed: previousAttempts, AttemptsRemaining: remaining(previousAttempts)}
	}

	p.Passed = p.Percentage >= PassThreshold
	p.AttemptsRemaining = remaining(p.AttemptsUsed)
	p.RetryEligible = !p.Passed && p.AttemptsUsed < MaxAttempts
	return p
}

func remaining(used int) int {
	if used >= MaxAttempts {
		return 0
	}
	return MaxAttempts - used
}
