package garage

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/gemini"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

const (
	pngDataURL  = "data:image/png;base64,aGVsbG8="
	jpegDataURL = "data:image/jpeg;base64,d29ybGQ="
)

func TestSaveCarRequiresMakeAndModel(t *testing.T) {
	repo := &stubCarRepo{}
	uploader := &stubUploader{}
	analyzer := &stubAnalyzer{}
	svc := buildGarageService(t, repo, analyzer, uploader, config.GarageConfig{})

	_, err := svc.SaveCar(context.Background(), uuid.New(), nil, SaveCarRequest{
		Draft: CarDraft{Make: "  ", Model: "911", Images: []string{pngDataURL}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if uploader.calls != 0 || repo.createCalls != 0 || analyzer.calls != 0 {
		t.Fatalf("no collaborator may be touched when validation fails")
	}
}

func TestSaveCarUploadsInlineImagesInOrder(t *testing.T) {
	repo := &stubCarRepo{}
	uploader := &stubUploader{}
	svc := buildGarageService(t, repo, &stubAnalyzer{}, uploader, config.GarageConfig{})
	userID := uuid.New()

	dto, err := svc.SaveCar(context.Background(), userID, nil, SaveCarRequest{
		Draft: CarDraft{
			Make:   "Porsche",
			Model:  "911 GT3 RS",
			Year:   "2024",
			Color:  "Ruby Star Neo",
			Images: []string{pngDataURL, "https://cdn.example.com/kept.jpg", jpegDataURL},
		},
	})
	if err != nil {
		t.Fatalf("save car: %v", err)
	}

	if len(dto.Images) != 3 {
		t.Fatalf("expected 3 images, got %d", len(dto.Images))
	}
	if dto.Images[1] != "https://cdn.example.com/kept.jpg" {
		t.Fatalf("hosted URL must pass through in place, got %q", dto.Images[1])
	}
	if dto.ImageURL != dto.Images[0] {
		t.Fatalf("primary image must be the first of the list")
	}
	if len(uploader.objects) != 2 {
		t.Fatalf("expected 2 uploads, got %d", len(uploader.objects))
	}
	for _, object := range uploader.objects {
		if !strings.HasPrefix(object, userID.String()+"/") {
			t.Fatalf("object %q must be namespaced under the owner", object)
		}
		if strings.ContainsAny(object, " $") {
			t.Fatalf("object %q must be sanitized", object)
		}
	}
	if !strings.HasSuffix(uploader.objects[0], ".png") || !strings.HasSuffix(uploader.objects[1], ".jpg") {
		t.Fatalf("extensions should follow the image mime types, got %v", uploader.objects)
	}
	if dto.Year == nil || *dto.Year != 2024 {
		t.Fatalf("expected parsed year 2024, got %v", dto.Year)
	}
	if repo.created == nil {
		t.Fatalf("expected car row to be created")
	}
}

func TestSaveCarSkipPolicyDropsFailedUploads(t *testing.T) {
	repo := &stubCarRepo{}
	uploader := &stubUploader{failObjectsContaining: "car-1"}
	svc := buildGarageService(t, repo, &stubAnalyzer{}, uploader, config.GarageConfig{UploadFailurePolicy: "skip"})

	dto, err := svc.SaveCar(context.Background(), uuid.New(), nil, SaveCarRequest{
		Draft: CarDraft{Make: "Nissan", Model: "Skyline GT-R", Images: []string{pngDataURL, jpegDataURL}},
	})
	if err != nil {
		t.Fatalf("save car: %v", err)
	}
	if len(dto.Images) != 1 {
		t.Fatalf("failed upload must be dropped, got %d images", len(dto.Images))
	}
	if dto.ImageURL != dto.Images[0] {
		t.Fatalf("primary must follow the surviving image")
	}
}

func TestSaveCarStrictPolicyAborts(t *testing.T) {
	repo := &stubCarRepo{}
	uploader := &stubUploader{failObjectsContaining: "car-2"}
	svc := buildGarageService(t, repo, &stubAnalyzer{}, uploader, config.GarageConfig{UploadFailurePolicy: "strict"})

	_, err := svc.SaveCar(context.Background(), uuid.New(), nil, SaveCarRequest{
		Draft: CarDraft{Make: "Nissan", Model: "Skyline GT-R", Images: []string{pngDataURL, jpegDataURL}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeDependency {
		t.Fatalf("expected dependency error under strict policy, got %v", err)
	}
	if repo.createCalls != 0 {
		t.Fatalf("nothing may be persisted when a strict save aborts")
	}
}

func TestSaveCarNumericAndDescriptionDefaults(t *testing.T) {
	repo := &stubCarRepo{}
	svc := buildGarageService(t, repo, &stubAnalyzer{}, &stubUploader{}, config.GarageConfig{})

	dto, err := svc.SaveCar(context.Background(), uuid.New(), nil, SaveCarRequest{
		Draft: CarDraft{
			Make:       "Toyota",
			Model:      "Supra",
			Year:       "not-a-year",
			Horsepower: "",
			Color:      "Renaissance Red",
		},
	})
	if err != nil {
		t.Fatalf("save car: %v", err)
	}
	if dto.Year != nil {
		t.Fatalf("unparsable year must be stored as null, got %v", *dto.Year)
	}
	if dto.Specs.Horsepower != nil {
		t.Fatalf("blank horsepower must be stored as null")
	}
	if dto.VisualDescription == nil || *dto.VisualDescription != "Renaissance Red Toyota Supra" {
		t.Fatalf("expected fallback description, got %v", dto.VisualDescription)
	}
	if dto.ImageURL != "" {
		t.Fatalf("a car without images has no primary")
	}
}

func TestSaveCarUpdateMissingCar(t *testing.T) {
	repo := &stubCarRepo{findErr: gorm.ErrRecordNotFound}
	svc := buildGarageService(t, repo, &stubAnalyzer{}, &stubUploader{}, config.GarageConfig{})

	carID := uuid.New()
	_, err := svc.SaveCar(context.Background(), uuid.New(), &carID, SaveCarRequest{
		Draft: CarDraft{Make: "Mazda", Model: "RX-7"},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestUploadDraftImagesPreservesOrderAndCountsFailures(t *testing.T) {
	svc := buildGarageService(t, &stubCarRepo{}, &stubAnalyzer{}, &stubUploader{}, config.GarageConfig{})

	resp, err := svc.UploadDraftImages(context.Background(), UploadImagesRequest{
		Draft: CarDraft{Make: "BMW", AutoAnalysisConsumed: false},
		Images: []NewImage{
			{Data: "aGVsbG8=", MimeType: "image/png"},
			{Data: "!!! not base64 !!!"},
			{Data: "d29ybGQ=", MimeType: "image/webp"},
		},
	})
	if err != nil {
		t.Fatalf("upload images: %v", err)
	}
	if resp.FailedCount != 1 {
		t.Fatalf("expected 1 failed item, got %d", resp.FailedCount)
	}
	if len(resp.Draft.Images) != 2 {
		t.Fatalf("expected 2 encoded images, got %d", len(resp.Draft.Images))
	}
	if !strings.HasPrefix(resp.Draft.Images[0], "data:image/png;base64,") ||
		!strings.HasPrefix(resp.Draft.Images[1], "data:image/webp;base64,") {
		t.Fatalf("batch order must be preserved, got %v", resp.Draft.Images)
	}
}

func TestUploadDraftImagesAutoAnalysisRunsOnce(t *testing.T) {
	analyzer := &stubAnalyzer{raw: json.RawMessage(`{"make":"Honda","model":"NSX","year":1992,"color":"Formula Red"}`)}
	svc := buildGarageService(t, &stubCarRepo{}, analyzer, &stubUploader{}, config.GarageConfig{})

	resp, err := svc.UploadDraftImages(context.Background(), UploadImagesRequest{
		Draft:  CarDraft{},
		Images: []NewImage{{Data: "aGVsbG8=", MimeType: "image/png"}},
	})
	if err != nil {
		t.Fatalf("upload images: %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatalf("expected one automatic analysis, got %d", analyzer.calls)
	}
	if !resp.Draft.AutoAnalysisConsumed {
		t.Fatalf("the one-shot flag must be set after the automatic analysis")
	}
	if resp.Draft.Make != "Honda" || resp.Draft.Year != "1992" {
		t.Fatalf("extracted fields must land on the draft, got %+v", resp.Draft)
	}

	// A second batch on the same draft must not analyze again.
	resp, err = svc.UploadDraftImages(context.Background(), UploadImagesRequest{
		Draft:  resp.Draft,
		Images: []NewImage{{Data: "d29ybGQ=", MimeType: "image/png"}},
	})
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatalf("auto analysis must not run twice, got %d calls", analyzer.calls)
	}
}

func TestUploadDraftImagesNoAutoAnalysisWhenMakeEntered(t *testing.T) {
	analyzer := &stubAnalyzer{raw: json.RawMessage(`{}`)}
	svc := buildGarageService(t, &stubCarRepo{}, analyzer, &stubUploader{}, config.GarageConfig{})

	_, err := svc.UploadDraftImages(context.Background(), UploadImagesRequest{
		Draft:  CarDraft{Make: "Audi"},
		Images: []NewImage{{Data: "aGVsbG8=", MimeType: "image/png"}},
	})
	if err != nil {
		t.Fatalf("upload images: %v", err)
	}
	if analyzer.calls != 0 {
		t.Fatalf("auto analysis must not run when the user already entered a make")
	}
}

func TestAnalyzeMergesWithoutOverwriting(t *testing.T) {
	analyzer := &stubAnalyzer{raw: json.RawMessage(`{"make":"Honda","model":"NSX","year":1992,"color":"Formula Red","specs":{"engine":"3.0L V6","horsepower":270,"mods":["Aftermarket Wheels"]}}`)}
	svc := buildGarageService(t, &stubCarRepo{}, analyzer, &stubUploader{}, config.GarageConfig{})

	resp, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Draft: CarDraft{Make: "Acura", Images: []string{pngDataURL}},
	})
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	draft := resp.Draft
	if draft.Make != "Acura" {
		t.Fatalf("user-entered make must not be overwritten, got %q", draft.Make)
	}
	if draft.Model != "NSX" || draft.Color != "Formula Red" || draft.Horsepower != "270" {
		t.Fatalf("blank fields must be filled from the extraction, got %+v", draft)
	}
	if draft.AIAnalysis == nil || draft.AIAnalysis["make"] != "Honda" {
		t.Fatalf("raw extraction payload must be retained on the draft")
	}
	if len(analyzer.gotImages) != 1 || analyzer.gotImages[0].MimeType != "image/png" {
		t.Fatalf("inline image must reach the model, got %+v", analyzer.gotImages)
	}
}

func TestAnalyzeParseFailureLeavesDraftUnchanged(t *testing.T) {
	analyzer := &stubAnalyzer{err: pkgerrors.New(pkgerrors.CodeParse, "model returned no structured output")}
	svc := buildGarageService(t, &stubCarRepo{}, analyzer, &stubUploader{}, config.GarageConfig{})

	resp, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Draft: CarDraft{Model: "already typed", Images: []string{pngDataURL}},
	})
	if err != nil {
		t.Fatalf("a parse failure must not fail the request: %v", err)
	}
	if resp.Draft.Model != "already typed" || resp.Draft.Make != "" {
		t.Fatalf("draft must come back unchanged, got %+v", resp.Draft)
	}
}

func TestAnalyzeDependencyErrorPropagates(t *testing.T) {
	analyzer := &stubAnalyzer{err: pkgerrors.New(pkgerrors.CodeRateLimit, "AI model is busy, please wait a moment")}
	svc := buildGarageService(t, &stubCarRepo{}, analyzer, &stubUploader{}, config.GarageConfig{})

	_, err := svc.Analyze(context.Background(), AnalyzeRequest{
		Draft: CarDraft{Images: []string{pngDataURL}},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeRateLimit {
		t.Fatalf("expected rate limit to propagate, got %v", err)
	}
}

func TestListCarsPagination(t *testing.T) {
	repo := &stubCarRepo{}
	for i := 0; i < 3; i++ {
		repo.cars = append(repo.cars, models.Car{ID: uuid.New(), Make: "Make", Model: fmt.Sprintf("M%d", i)})
	}
	svc := buildGarageService(t, repo, &stubAnalyzer{}, &stubUploader{}, config.GarageConfig{})

	list, err := svc.ListCars(context.Background(), uuid.New(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list cars: %v", err)
	}
	if len(list.Cars) != 2 {
		t.Fatalf("expected the page to be trimmed to the limit, got %d", len(list.Cars))
	}
	if list.NextCursor == nil {
		t.Fatalf("expected a next cursor when more rows exist")
	}

	_, err = svc.ListCars(context.Background(), uuid.New(), pagination.Params{Cursor: "not-a-cursor"})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for a bad cursor, got %v", err)
	}
}

func TestDeleteCarNotFound(t *testing.T) {
	svc := buildGarageService(t, &stubCarRepo{}, &stubAnalyzer{}, &stubUploader{}, config.GarageConfig{})

	err := svc.DeleteCar(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func buildGarageService(t *testing.T, repo *stubCarRepo, analyzer *stubAnalyzer, uploader *stubUploader, garageCfg config.GarageConfig) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		CarRepo:       repo,
		Analyzer:      analyzer,
		Uploader:      uploader,
		StorageConfig: config.StorageConfig{GarageBucket: "garage"},
		GarageConfig:  garageCfg,
		Logger:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type stubCarRepo struct {
	cars        []models.Car
	created     *models.Car
	updated     *models.Car
	createCalls int
	findErr     error
}

func (s *stubCarRepo) Create(ctx context.Context, car *models.Car) error {
	s.createCalls++
	s.created = car
	return nil
}

func (s *stubCarRepo) Update(ctx context.Context, car *models.Car) error {
	s.updated = car
	return nil
}

func (s *stubCarRepo) FindByID(ctx context.Context, userID, carID uuid.UUID) (*models.Car, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	for i := range s.cars {
		if s.cars[i].ID == carID {
			return &s.cars[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubCarRepo) ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Car, error) {
	if limit > len(s.cars) {
		limit = len(s.cars)
	}
	return s.cars[:limit], nil
}

func (s *stubCarRepo) ListRecent(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Car, error) {
	return s.ListByUser(ctx, uuid.Nil, cursor, limit)
}

func (s *stubCarRepo) Delete(ctx context.Context, userID, carID uuid.UUID) (int64, error) {
	return 0, nil
}

type stubAnalyzer struct {
	raw       json.RawMessage
	err       error
	calls     int
	gotImages []gemini.ImageInput
}

func (s *stubAnalyzer) ExtractJSON(ctx context.Context, instruction string, images []gemini.ImageInput, schema *gemini.Schema) (json.RawMessage, error) {
	s.calls++
	s.gotImages = images
	if s.err != nil {
		return nil, s.err
	}
	return s.raw, nil
}

type stubUploader struct {
	calls                 int
	objects               []string
	failObjectsContaining string
}

func (s *stubUploader) Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error) {
	s.calls++
	if s.failObjectsContaining != "" && strings.Contains(object, s.failObjectsContaining) {
		return "", fmt.Errorf("upload refused")
	}
	s.objects = append(s.objects, object)
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, object), nil
}
