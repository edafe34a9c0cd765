// Package api implements the HTTP serving boundary for the hemoglobin
// estimation pipeline.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"hemolens/internal/config"
	"hemolens/internal/imaging"
	"hemolens/internal/inference"
	"hemolens/internal/observability"
	"hemolens/internal/pipeline"
	"hemolens/internal/version"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

// maxUploadBytes bounds multipart parsing memory.
const maxUploadBytes = 50 << 20

// Deps are the collaborators the server needs. Pipe and Eng may be nil when
// the model artifact failed to load; the server then reports unhealthy and
// refuses predictions instead of crashing per request.
type Deps struct {
	Cfg  config.Config
	Log  *slog.Logger
	Pipe *pipeline.Pipeline
	Eng  *inference.Engine
	Met  *observability.Metrics
}

// Server is the HTTP serving boundary.
type Server struct{ d Deps }

// NewServer builds a server from its dependencies.
func NewServer(d Deps) *Server { return &Server{d: d} }

// Router assembles the route table with CORS, request logging, and metrics.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/info", s.handleInfo).Methods(http.MethodGet)
	r.Handle("/predict", s.instrument("/predict", s.handlePredict)).Methods(http.MethodPost)
	r.Handle("/predict/batch", s.instrument("/predict/batch", s.handlePredictBatch)).Methods(http.MethodPost)
	if s.d.Met != nil {
		r.Handle("/metrics", s.d.Met.Handler()).Methods(http.MethodGet)
	}

	cors := handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type"}),
	)
	return cors(logging(s.d.Log, r))
}

func (s *Server) instrument(route string, h http.HandlerFunc) http.Handler {
	if s.d.Met == nil {
		return h
	}
	return s.d.Met.WrapHandler(route, h)
}

func (s *Server) ready() bool {
	return s.d.Pipe != nil && s.d.Eng != nil
}

func (s *Server) handleRoot(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"name":        "HemoLens API",
		"description": "Non-invasive hemoglobin estimation from eye images",
		"version":     version.Version,
		"endpoints": map[string]string{
			"GET /health":         "Check API health and model status",
			"GET /info":           "Get model information and features",
			"POST /predict":       "Predict hemoglobin from image",
			"POST /predict/batch": "Batch predictions from multiple images",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	resp := HealthResponse{Status: "healthy", ModelsLoaded: true}
	if !s.ready() {
		resp = HealthResponse{Status: "unhealthy", ModelsLoaded: false}
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInfo(w http.ResponseWriter, _ *http.Request) {
	if !s.ready() {
		s.unavailable(w)
		return
	}
	art := s.d.Eng.Artifact()
	respondJSON(w, http.StatusOK, infoFromArtifact(art))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		s.d.Met.ObservePrediction(observability.OutcomeError, 0)
		s.unavailable(w)
		return
	}

	data, filename, ok := s.readUpload(w, r, "file")
	if !ok {
		return
	}

	resp, status := s.predictOne(r, data, filename)
	respondJSON(w, status, resp)
}

// predictOne runs the pipeline for one upload and shapes the response.
func (s *Server) predictOne(r *http.Request, data []byte, filename string) (PredictResponse, int) {
	start := time.Now()

	outcome, err := s.d.Pipe.Process(r.Context(), data)
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrInvalidImage):
			s.d.Met.ObservePrediction(observability.OutcomeInvalid, 0)
			return PredictResponse{Status: StatusError, Message: err.Error(), Filename: filename}, http.StatusBadRequest
		case errors.Is(err, inference.ErrModelUnavailable):
			s.d.Met.ObservePrediction(observability.OutcomeError, 0)
			return PredictResponse{Status: StatusError, Message: "model unavailable", Filename: filename}, http.StatusServiceUnavailable
		default:
			s.d.Log.Error("prediction failed", "error", err, "filename", filename)
			s.d.Met.ObservePrediction(observability.OutcomeError, 0)
			return PredictResponse{Status: StatusError, Message: "prediction failed", Filename: filename}, http.StatusInternalServerError
		}
	}

	if outcome.Reading == nil {
		s.d.Met.ObservePrediction(observability.OutcomeRejected, 0)
		return PredictResponse{
			Status:   StatusNoEyes,
			Message:  outcome.Detection.Reason,
			Filename: filename,
		}, http.StatusOK
	}

	reading := outcome.Reading
	s.d.Met.ObservePrediction(observability.OutcomeOK, reading.InferenceTime)

	estimate := reading.GramsPerDL
	elapsedMS := time.Since(start).Milliseconds()
	return PredictResponse{
		Status:             StatusOK,
		HemoglobinEstimate: &estimate,
		Unit:               "g/dL",
		HealthStatus:       reading.Health.Status.String(),
		HealthMessage:      reading.Health.Message,
		HealthColor:        reading.Health.Color,
		ProcessingTimeMS:   &elapsedMS,
		Filename:           filename,
	}, http.StatusOK
}

func (s *Server) handlePredictBatch(w http.ResponseWriter, r *http.Request) {
	if !s.ready() {
		s.unavailable(w)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	resp := BatchResponse{Total: len(files)}
	for _, fh := range files {
		data, err := readFileHeader(fh)
		if err != nil {
			resp.Results = append(resp.Results, PredictResponse{
				Status: StatusError, Message: "failed to read file", Filename: fh.Filename,
			})
			continue
		}
		result, _ := s.predictOne(r, data, fh.Filename)
		if result.Status == StatusOK {
			resp.Successful++
		}
		resp.Results = append(resp.Results, result)
	}

	respondJSON(w, http.StatusOK, resp)
}

// readUpload pulls the named multipart file, writing the error response on
// failure.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request, field string) ([]byte, string, bool) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, "", false
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		respondError(w, http.StatusBadRequest, "no file uploaded")
		return nil, "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read file")
		return nil, "", false
	}
	return data, header.Filename, true
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (s *Server) unavailable(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "30")
	respondError(w, http.StatusServiceUnavailable, "model not loaded")
}

func infoFromArtifact(art *inference.Artifact) InfoResponse {
	return InfoResponse{
		ModelName: modelName(art.Algorithm),
		Version:   art.Version,
		Features: InfoFeatures{
			Count: len(art.FeatureNames),
			Names: art.FeatureNames,
			Description: []string{
				"RGB (4): Color means and R/G ratio",
				"LAB (6): Perceptual color space features",
				"HSV (6): Hue, saturation, value",
				"YCrCb (3): Skin tone features",
				"Statistical (12): Std, percentiles, skewness per channel",
				"Edge (4): Sobel edge detection",
				"Contrast (3): RMS contrast, brightness, dynamic range",
				"Histogram (8): Entropy, energy, mean, std, skewness, kurtosis",
			},
		},
		Performance: InfoPerformance{
			R2:   art.Metrics.R2,
			MAE:  art.Metrics.MAE,
			RMSE: art.Metrics.RMSE,
			MAPE: art.Metrics.MAPE,
			Unit: "g/dL",
		},
		Training: InfoTraining{
			TotalSamples:    art.Training.TotalSamples,
			TrainSamples:    art.Training.TrainSamples,
			TestSamples:     art.Training.TestSamples,
			Regions:         art.Training.Regions,
			HemoglobinRange: art.Training.RangeGDL,
		},
	}
}

func modelName(algorithm string) string {
	switch algorithm {
	case inference.AlgorithmRidge:
		return "Ridge Regression (46-Feature)"
	case inference.AlgorithmGBTrees:
		return "Gradient Boosting (46-Feature)"
	default:
		return algorithm
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, ErrorResponse{Error: message})
}

func logging(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r)
		if log != nil {
			log.Info("request", slog.String("method", r.Method), slog.String("path", r.URL.Path), slog.String("remote", r.RemoteAddr))
		}
	})
}
