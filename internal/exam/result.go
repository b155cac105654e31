package exam

// Result is the terminal outcome of a submission: exactly one of Certified
// or Scored.
type Result interface {
	isResult()
	State() State
}

// Certified carries the certificate document issued on a pass.
type Certified struct {
	ArtifactBytes     []byte
	SuggestedFilename string
	// SavedPath is where the artifact was written, "" if saving failed.
	SavedPath string
	// SaveErr is set when the artifact could not be saved. The submission
	// itself still counts; the bytes are kept so saving can be retried.
	SaveErr error
}

// Scored is the structured outcome returned when no certificate is issued.
type Scored struct {
	Score        int
	Percentage   float64
	AttemptsUsed int
	Passed       bool
}

func (*Certified) isResult() {}
func (*Scored) isResult()    {}

// State returns the session state this result terminates in.
func (*Certified) State() State { return StateCertified }

// State returns the session state this result terminates in.
func (*Scored) State() State { return StateScored }
