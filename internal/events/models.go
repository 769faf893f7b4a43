package events

// DocumentProcessedEvent is emitted when both pipeline stages finished for a
// document and its catalog entries are live.
type DocumentProcessedEvent struct {
	DocumentID          string `json:"document_id"`
	Title               string `json:"title"`
	ItemCount           int    `json:"item_count"`
	CrossReferenceCount int    `json:"cross_reference_count"`
}

// PipelineFailedEvent is emitted when a stage fails terminally, including the
// insufficient content case where no classification stage was chained.
type PipelineFailedEvent struct {
	DocumentID string `json:"document_id"`
	Stage      string `json:"stage"`
	ErrorKind  string `json:"error_kind"`
	Error      string `json:"error"`
}

type TrainingCompletedEvent struct {
	DatasetID    string  `json:"dataset_id"`
	ModelVersion string  `json:"model_version"`
	Accuracy     float64 `json:"accuracy"`
}
