package api

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"hemolens/internal/config"
	"hemolens/internal/eye"
	"hemolens/internal/features"
	"hemolens/internal/inference"
	"hemolens/internal/pipeline"
	"hemolens/pkg/geometry"

	"gocv.io/x/gocv"
)

type stubDetector struct{ result eye.Result }

func (s stubDetector) DetectMat(_ gocv.Mat) (eye.Result, error) { return s.result, nil }

type stubEstimator struct {
	value float64
	err   error
}

func (s stubEstimator) Estimate(_ features.Vector) (inference.Estimate, error) {
	if s.err != nil {
		return inference.Estimate{}, s.err
	}
	return inference.Estimate{GramsPerDL: s.value}, nil
}

func testArtifact() *inference.Artifact {
	return &inference.Artifact{
		Algorithm:    inference.AlgorithmRidge,
		Version:      "2.0",
		FeatureNames: features.SlotNames(),
		Metrics:      inference.Metrics{R2: 0.6267, MAE: 0.96, RMSE: 1.3745, MAPE: 7.49},
		Training:     inference.Training{TotalSamples: 145, TrainSamples: 116, TestSamples: 29},
	}
}

func testServer(t *testing.T, det pipeline.Detector, est pipeline.Estimator) *Server {
	t.Helper()
	eng, err := inference.NewEngine(testArtifact())
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	return NewServer(Deps{
		Cfg:  config.Config{},
		Log:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		Pipe: pipeline.New(det, est, 0),
		Eng:  eng,
	})
}

func imageUpload(t *testing.T, field string, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 160, 120))
	for y := 0; y < 120; y++ {
		for x := 0; x < 160; x++ {
			img.SetRGBA(x, y, color.RGBA{R: 170, G: 100, B: 90, A: 255})
		}
	}
	var encoded bytes.Buffer
	if err := png.Encode(&encoded, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	for _, name := range names {
		part, err := mw.CreateFormFile(field, name)
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		if _, err := part.Write(encoded.Bytes()); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func rawUpload(t *testing.T, field, name string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	part, err := mw.CreateFormFile(field, name)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, mw.FormDataContentType()
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func TestHealthEndpoint(t *testing.T) {
	region := geometry.RectInt{X: 20, Y: 20, Width: 60, Height: 50}
	srv := testServer(t, stubDetector{result: eye.Accept(region, 1.0)}, stubEstimator{value: 14})
	router := srv.Router()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeBody[HealthResponse](t, rec)
	if resp.Status != "healthy" || !resp.ModelsLoaded {
		t.Fatalf("health = %+v", resp)
	}
}

func TestHealthEndpointUnhealthy(t *testing.T) {
	srv := NewServer(Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	resp := decodeBody[HealthResponse](t, rec)
	if resp.Status != "unhealthy" || resp.ModelsLoaded {
		t.Fatalf("health = %+v", resp)
	}
}

func TestPredictUnavailable(t *testing.T) {
	srv := NewServer(Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil))})
	body, contentType := imageUpload(t, "file", "eye.png")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status %d, want 503", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "30" {
		t.Fatalf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
}

func TestPredictSuccess(t *testing.T) {
	region := geometry.RectInt{X: 20, Y: 20, Width: 60, Height: 50}
	srv := testServer(t, stubDetector{result: eye.Accept(region, 1.0)}, stubEstimator{value: 14.5})
	body, contentType := imageUpload(t, "file", "eye.png")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[PredictResponse](t, rec)
	if resp.Status != StatusOK {
		t.Fatalf("status = %q", resp.Status)
	}
	if resp.HemoglobinEstimate == nil || *resp.HemoglobinEstimate != 14.5 {
		t.Fatalf("estimate = %v", resp.HemoglobinEstimate)
	}
	if resp.Unit != "g/dL" || resp.HealthStatus != "SAFE" {
		t.Fatalf("unit=%q health=%q", resp.Unit, resp.HealthStatus)
	}
	if resp.ProcessingTimeMS == nil {
		t.Fatalf("no processing time")
	}
	if resp.Filename != "eye.png" {
		t.Fatalf("filename = %q", resp.Filename)
	}
}

func TestPredictRejection(t *testing.T) {
	srv := testServer(t, stubDetector{result: eye.Reject(eye.ReasonNoEye)}, stubEstimator{value: 99})
	body, contentType := imageUpload(t, "file", "eye.png")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("rejection status %d, want 200", rec.Code)
	}
	resp := decodeBody[PredictResponse](t, rec)
	if resp.Status != StatusNoEyes || resp.Message != eye.ReasonNoEye {
		t.Fatalf("resp = %+v", resp)
	}
	// Result fields must be absent, not zeroed.
	if resp.HemoglobinEstimate != nil || resp.HealthStatus != "" {
		t.Fatalf("rejection carries result fields: %+v", resp)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`"status"`)) ||
		bytes.Contains(rec.Body.Bytes(), []byte(`"hemoglobin_estimate"`)) {
		t.Fatalf("rejection body leaks estimate key: %s", rec.Body.String())
	}
}

func TestPredictInvalidImage(t *testing.T) {
	region := geometry.RectInt{X: 20, Y: 20, Width: 60, Height: 50}
	srv := testServer(t, stubDetector{result: eye.Accept(region, 1.0)}, stubEstimator{value: 14})
	body, contentType := rawUpload(t, "file", "junk.bin", []byte("not an image at all"))
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	resp := decodeBody[PredictResponse](t, rec)
	if resp.Status != StatusError {
		t.Fatalf("status = %q", resp.Status)
	}
}

func TestPredictMissingFile(t *testing.T) {
	region := geometry.RectInt{X: 20, Y: 20, Width: 60, Height: 50}
	srv := testServer(t, stubDetector{result: eye.Accept(region, 1.0)}, stubEstimator{value: 14})
	body, contentType := imageUpload(t, "wrong_field", "eye.png")
	req := httptest.NewRequest(http.MethodPost, "/predict", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestPredictBatch(t *testing.T) {
	region := geometry.RectInt{X: 20, Y: 20, Width: 60, Height: 50}
	srv := testServer(t, stubDetector{result: eye.Accept(region, 1.0)}, stubEstimator{value: 13.8})
	body, contentType := imageUpload(t, "files", "a.png", "b.png", "c.png")
	req := httptest.NewRequest(http.MethodPost, "/predict/batch", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d: %s", rec.Code, rec.Body.String())
	}
	resp := decodeBody[BatchResponse](t, rec)
	if resp.Total != 3 || resp.Successful != 3 || len(resp.Results) != 3 {
		t.Fatalf("batch = %+v", resp)
	}
	if resp.Results[1].Filename != "b.png" {
		t.Fatalf("result order lost: %+v", resp.Results)
	}
}

func TestInfoEndpoint(t *testing.T) {
	region := geometry.RectInt{X: 20, Y: 20, Width: 60, Height: 50}
	srv := testServer(t, stubDetector{result: eye.Accept(region, 1.0)}, stubEstimator{value: 14})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/info", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	resp := decodeBody[InfoResponse](t, rec)
	if resp.Features.Count != features.NumSlots {
		t.Fatalf("feature count = %d, want %d", resp.Features.Count, features.NumSlots)
	}
	if resp.ModelName == "" || resp.Performance.R2 != 0.6267 {
		t.Fatalf("info = %+v", resp)
	}
	if resp.Training.TotalSamples != 145 {
		t.Fatalf("training = %+v", resp.Training)
	}
}

func TestRootEndpoint(t *testing.T) {
	srv := NewServer(Deps{Log: slog.New(slog.NewTextHandler(io.Discard, nil))})
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	body := decodeBody[map[string]any](t, rec)
	if body["name"] != "HemoLens API" {
		t.Fatalf("root = %+v", body)
	}
}
