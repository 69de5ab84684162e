package types

// UploadStatus is the terminal state of one record.
type UploadStatus string

const (
	StatusSucceeded UploadStatus = "succeeded"
	StatusFailed    UploadStatus = "failed"
	StatusCancelled UploadStatus = "cancelled"
	// StatusPending only appears in snapshots of running batches.
	StatusPending UploadStatus = "pending"
)

// ErrorKind classifies why a record did not succeed.
type ErrorKind string

const (
	ErrorKindNone       ErrorKind = ""
	ErrorKindRetrieval  ErrorKind = "retrieval"
	ErrorKindSubmission ErrorKind = "submission"
	ErrorKindCancelled  ErrorKind = "cancelled"
	ErrorKindConfig     ErrorKind = "config"
)

// UploadResult is the outcome of one record. It is never modified after creation.
type UploadResult struct {
	Index     int          `json:"index"`
	Filename  string       `json:"filename"`
	Status    UploadStatus `json:"status"`
	ErrorKind ErrorKind    `json:"errorKind,omitempty"`
	Transient bool         `json:"transient,omitempty"` // last failure was retryable
	Attempts  int          `json:"attempts"`
	Error     string       `json:"error,omitempty"`
	Err       error        `json:"-"`
}

// Succeeded is a shorthand used by callers that only care about success.
func (r UploadResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// BatchSummary aggregates a result sequence.
type BatchSummary struct {
	Total     int `json:"total"`
	Success   int `json:"success"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

func Summarize(results []UploadResult) BatchSummary {
	s := BatchSummary{Total: len(results)}
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			s.Success++
		case StatusCancelled:
			s.Cancelled++
		default:
			s.Failed++
		}
	}
	return s
}

// UploadBatchRequest is the body of POST /api/self/v1/upload-batch and the manifest file format.
type UploadBatchRequest struct {
	Records     []FileRecord `json:"records" yaml:"records"`
	Config      UploadConfig `json:"config" yaml:"config"`
	Concurrency int          `json:"concurrency,omitempty" yaml:"concurrency,omitempty"`
}

// BatchSnapshot is the externally visible state of a batch.
type BatchSnapshot struct {
	BatchId   string         `json:"batchId"`
	Action    string         `json:"action"`
	Total     int            `json:"total"`
	Completed int            `json:"completed"`
	Done      bool           `json:"done"`
	Cancelled bool           `json:"cancelled"`
	Summary   *BatchSummary  `json:"summary,omitempty"`
	Results   []UploadResult `json:"results"`
	Error     string         `json:"error,omitempty"`
}
