package model

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailed:
		return "failed"
	}
	return "unknown"
}

// FetchState 查询状态机快照
type FetchState struct {
	Phase      Phase        `json:"phase"`
	Identifier string       `json:"identifier,omitempty"`
	Result     *QueryResult `json:"result,omitempty"`
	Message    string       `json:"message,omitempty"`
	Generation uint64       `json:"generation"`
}

// Settled reports whether the state is a finished Success or Failed lookup.
func (s FetchState) Settled() bool {
	return s.Phase == PhaseSuccess || s.Phase == PhaseFailed
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}
