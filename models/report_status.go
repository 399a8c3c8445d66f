package models

// RunState is a step of one script pipeline invocation.
type RunState string

const (
	StatePending   RunState = "pending"
	StateWriting   RunState = "writing"
	StateCompiling RunState = "compiling"
	StateRunning   RunState = "running"
	StateParsing   RunState = "parsing"
	StateSucceeded RunState = "succeeded"
	StateFailed    RunState = "failed"
)

type FailureReason string

const (
	ReasonNone    FailureReason = ""
	ReasonWrite   FailureReason = "write_error"
	ReasonCompile FailureReason = "compile_error"
	ReasonExec    FailureReason = "exec_error"
	ReasonDecode  FailureReason = "decode_error"
)

type PhaseTiming struct {
	State   RunState `json:"state"`
	Seconds float64  `json:"seconds"`
}

type RunReport struct {
	ScriptHash    string        `json:"script_hash"`
	State         RunState      `json:"state"`
	Reason        FailureReason `json:"reason,omitempty"`
	ArtifactDir   string        `json:"artifact_dir,omitempty"`
	Phases        []PhaseTiming `json:"phases"`
	Done          bool          `json:"done"`
	ExecutionTime float64       `json:"execution_time"`
}
