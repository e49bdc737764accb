package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/api/middleware"
	"github.com/AymenMB/autogen-backend/internal/garage"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

func TestGarageUploadImagesRequiresAuth(t *testing.T) {
	handler := GarageUploadImages(&stubGarageService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/garage/drafts/images", strings.NewReader(`{"images":[{"data":"aGVsbG8="}]}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without user context, got %d", rec.Code)
	}
}

func TestGarageUploadImagesSuccess(t *testing.T) {
	svc := &stubGarageService{
		uploadResp: &garage.UploadImagesResponse{
			Draft:       garage.CarDraft{Images: []string{"data:image/png;base64,aGVsbG8="}},
			FailedCount: 1,
		},
	}
	handler := GarageUploadImages(svc, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/garage/drafts/images", `{"images":[{"data":"aGVsbG8=","mime_type":"image/png"}]}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var envelope struct {
		Data garage.UploadImagesResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.FailedCount != 1 || len(envelope.Data.Draft.Images) != 1 {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestGarageUploadImagesRejectsUnknownFields(t *testing.T) {
	handler := GarageUploadImages(&stubGarageService{}, testLogger())

	req := authedRequest(http.MethodPost, "/api/v1/garage/drafts/images", `{"images":[],"bogus":true}`)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest && rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected a client error for unknown fields, got %d", rec.Code)
	}
}

func TestGarageGetCarParsesPathParam(t *testing.T) {
	carID := uuid.New()
	svc := &stubGarageService{car: &garage.CarDTO{ID: carID, Make: "Porsche", Model: "911"}}

	router := chi.NewRouter()
	router.Get("/cars/{carID}", GarageGetCar(svc, testLogger()))

	req := authedRequest(http.MethodGet, "/cars/"+carID.String(), "")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.gotCarID != carID {
		t.Fatalf("expected car id %s to reach the service, got %s", carID, svc.gotCarID)
	}

	req = authedRequest(http.MethodGet, "/cars/not-a-uuid", "")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a bad car id, got %d", rec.Code)
	}
}

func TestStudioStylesCatalog(t *testing.T) {
	handler := StudioStyles()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/studio/styles", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var envelope struct {
		Data struct {
			Styles []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"styles"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data.Styles) != 8 {
		t.Fatalf("expected 8 presets, got %d", len(envelope.Data.Styles))
	}
	if envelope.Data.Styles[0].ID != "cyberpunk" || envelope.Data.Styles[7].ID != "custom" {
		t.Fatalf("catalog order is fixed, got %+v", envelope.Data.Styles)
	}
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func authedRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := middleware.WithUserID(req.Context(), uuid.New().String())
	return req.WithContext(ctx)
}

type stubGarageService struct {
	uploadResp *garage.UploadImagesResponse
	car        *garage.CarDTO
	gotCarID   uuid.UUID
}

func (s *stubGarageService) UploadDraftImages(ctx context.Context, req garage.UploadImagesRequest) (*garage.UploadImagesResponse, error) {
	if s.uploadResp == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unexpected call")
	}
	return s.uploadResp, nil
}

func (s *stubGarageService) Analyze(ctx context.Context, req garage.AnalyzeRequest) (*garage.AnalyzeResponse, error) {
	return &garage.AnalyzeResponse{Draft: req.Draft}, nil
}

func (s *stubGarageService) SaveCar(ctx context.Context, userID uuid.UUID, carID *uuid.UUID, req garage.SaveCarRequest) (*garage.CarDTO, error) {
	return s.car, nil
}

func (s *stubGarageService) ListCars(ctx context.Context, userID uuid.UUID, params pagination.Params) (*garage.CarList, error) {
	return &garage.CarList{}, nil
}

func (s *stubGarageService) GetCar(ctx context.Context, userID, carID uuid.UUID) (*garage.CarDTO, error) {
	s.gotCarID = carID
	if s.car == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
	}
	return s.car, nil
}

func (s *stubGarageService) DeleteCar(ctx context.Context, userID, carID uuid.UUID) error {
	return nil
}

func (s *stubGarageService) Discover(ctx context.Context, params pagination.Params) (*garage.CarList, error) {
	return &garage.CarList{}, nil
}
