package api

// Response statuses for /predict.
const (
	StatusOK     = "ok"
	StatusNoEyes = "no_eyes_detected"
	StatusError  = "error" // batch-only: a file that failed outright
)

// PredictResponse is the canonical predict payload. On rejection only
// Status, Message, and Filename are set; the result fields are absent.
type PredictResponse struct {
	Status             string   `json:"status"`
	HemoglobinEstimate *float64 `json:"hemoglobin_estimate,omitempty"`
	Unit               string   `json:"unit,omitempty"`
	HealthStatus       string   `json:"health_status,omitempty"`
	HealthMessage      string   `json:"health_message,omitempty"`
	HealthColor        string   `json:"health_color,omitempty"`
	ProcessingTimeMS   *int64   `json:"processing_time_ms,omitempty"`
	Message            string   `json:"message,omitempty"`
	Filename           string   `json:"filename,omitempty"`
}

// BatchResponse aggregates per-file predict results.
type BatchResponse struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Results    []PredictResponse `json:"results"`
}

// HealthResponse reports whether the model artifact loaded.
type HealthResponse struct {
	Status       string `json:"status"` // "healthy" | "unhealthy"
	ModelsLoaded bool   `json:"models_loaded"`
}

// InfoResponse describes the loaded model.
type InfoResponse struct {
	ModelName   string          `json:"model_name"`
	Version     string          `json:"version"`
	Features    InfoFeatures    `json:"features"`
	Performance InfoPerformance `json:"performance"`
	Training    InfoTraining    `json:"training"`
}

// InfoFeatures describes the extractor contract.
type InfoFeatures struct {
	Count       int      `json:"count"`
	Names       []string `json:"names"`
	Description []string `json:"description"`
}

// InfoPerformance carries the artifact's reported accuracy metrics.
type InfoPerformance struct {
	R2   float64 `json:"r2_score"`
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	MAPE float64 `json:"mape"`
	Unit string  `json:"unit"`
}

// InfoTraining carries the artifact's training provenance.
type InfoTraining struct {
	TotalSamples    int       `json:"total_samples"`
	TrainSamples    int       `json:"train_samples"`
	TestSamples     int       `json:"test_samples"`
	Regions         []string  `json:"regions,omitempty"`
	HemoglobinRange []float64 `json:"hemoglobin_range,omitempty"`
}

// ErrorResponse is the body of 4xx/5xx replies.
type ErrorResponse struct {
	Error string `json:"error"`
}
