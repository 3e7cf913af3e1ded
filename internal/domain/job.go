package domain

// GenerationJob correlates one accepted generation request with its worker
// invocation and output descriptor. It lives only for the duration of the
// request and is never persisted.
type GenerationJob struct {
	ID      string
	UserID  string
	Payload []byte
}

// OutputDescriptor is the structured record the worker writes next to itself
// when it finishes. The presence and validity of this file, not the worker's
// exit code, is the authoritative success signal.
type OutputDescriptor struct {
	OutputFile string `json:"output_file"`
}
