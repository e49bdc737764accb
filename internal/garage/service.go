package garage

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	dbtypes "github.com/AymenMB/autogen-backend/pkg/db/types"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/gemini"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

// Service defines the behavior needed by the garage controller.
type Service interface {
	UploadDraftImages(ctx context.Context, req UploadImagesRequest) (*UploadImagesResponse, error)
	Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error)
	SaveCar(ctx context.Context, userID uuid.UUID, carID *uuid.UUID, req SaveCarRequest) (*CarDTO, error)
	ListCars(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CarList, error)
	GetCar(ctx context.Context, userID, carID uuid.UUID) (*CarDTO, error)
	DeleteCar(ctx context.Context, userID, carID uuid.UUID) error
	Discover(ctx context.Context, params pagination.Params) (*CarList, error)
}

type carRepository interface {
	Create(ctx context.Context, car *models.Car) error
	Update(ctx context.Context, car *models.Car) error
	FindByID(ctx context.Context, userID, carID uuid.UUID) (*models.Car, error)
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Car, error)
	ListRecent(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Car, error)
	Delete(ctx context.Context, userID, carID uuid.UUID) (int64, error)
}

type imageAnalyzer interface {
	ExtractJSON(ctx context.Context, instruction string, images []gemini.ImageInput, schema *gemini.Schema) (json.RawMessage, error)
}

type imageUploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

type service struct {
	cars      carRepository
	analyzer  imageAnalyzer
	uploader  imageUploader
	storage   config.StorageConfig
	garageCfg config.GarageConfig
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build a garage service.
type ServiceParams struct {
	CarRepo       carRepository
	Analyzer      imageAnalyzer
	Uploader      imageUploader
	StorageConfig config.StorageConfig
	GarageConfig  config.GarageConfig
	Logger        *logger.Logger
}

// NewService constructs a garage service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CarRepo == nil {
		return nil, fmt.Errorf("car repository is required")
	}
	if params.Analyzer == nil {
		return nil, fmt.Errorf("image analyzer is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("image uploader is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		cars:      params.CarRepo,
		analyzer:  params.Analyzer,
		uploader:  params.Uploader,
		storage:   params.StorageConfig,
		garageCfg: params.GarageConfig,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// UploadDraftImages encodes an image batch into data URLs appended to the
// draft. Items are processed concurrently but the batch order is preserved;
// a bad item is dropped and counted rather than failing the batch. When the
// draft arrives empty the first batch triggers a single automatic analysis.
func (s *service) UploadDraftImages(ctx context.Context, req UploadImagesRequest) (*UploadImagesResponse, error) {
	if len(req.Images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	if max := s.garageCfg.MaxImagesPerCar; max > 0 && len(req.Draft.Images)+len(req.Images) > max {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("a car can hold at most %d images", max))
	}

	draft := req.Draft
	wantAutoAnalysis := len(draft.Images) == 0 && strings.TrimSpace(draft.Make) == "" && !draft.AutoAnalysisConsumed

	encoded := make([]string, len(req.Images))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, img := range req.Images {
		i, img := i, img
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			dataURL, err := encodeImage(img, s.garageCfg.MaxImageBytes)
			if err != nil {
				s.logg.Warn(s.logg.WithField(ctx, "image_index", i), fmt.Sprintf("dropping image from batch: %v", err))
				return nil
			}
			encoded[i] = dataURL
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode image batch")
	}

	failed := 0
	for _, dataURL := range encoded {
		if dataURL == "" {
			failed++
			continue
		}
		draft.Images = append(draft.Images, dataURL)
	}

	if wantAutoAnalysis && failed < len(req.Images) {
		analyzed, err := s.analyzeDraft(ctx, draft)
		if err != nil {
			s.logg.Warn(ctx, fmt.Sprintf("automatic analysis skipped: %v", err))
		} else {
			draft = analyzed
		}
		draft.AutoAnalysisConsumed = true
	}

	return &UploadImagesResponse{Draft: draft, FailedCount: failed}, nil
}

// Analyze runs AI extraction over the draft's inline images and fills blank
// fields from the result. A malformed model response leaves the draft as-is.
func (s *service) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResponse, error) {
	if len(req.Draft.Images) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one image is required")
	}
	draft, err := s.analyzeDraft(ctx, req.Draft)
	if err != nil {
		return nil, err
	}
	return &AnalyzeResponse{Draft: draft}, nil
}

func (s *service) analyzeDraft(ctx context.Context, draft CarDraft) (CarDraft, error) {
	inputs := inlineImageInputs(draft.Images)
	if len(inputs) == 0 {
		return draft, pkgerrors.New(pkgerrors.CodeValidation, "no inline images to analyze")
	}

	raw, err := s.analyzer.ExtractJSON(ctx, analysisInstruction, inputs, analysisSchema())
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeParse {
			s.logg.Warn(ctx, "analysis returned no usable structure, keeping draft unchanged")
			return draft, nil
		}
		return draft, err
	}

	var extracted carExtraction
	if err := json.Unmarshal(raw, &extracted); err != nil {
		s.logg.Warn(ctx, fmt.Sprintf("analysis payload did not match the expected shape: %v", err))
		return draft, nil
	}
	return mergeExtraction(draft, extracted, raw), nil
}

// SaveCar validates and persists a draft. New inline images are uploaded to
// object storage first; already hosted URLs pass through untouched and the
// original ordering is kept, so the first image stays primary.
func (s *service) SaveCar(ctx context.Context, userID uuid.UUID, carID *uuid.UUID, req SaveCarRequest) (*CarDTO, error) {
	draft := req.Draft
	draft.Make = strings.TrimSpace(draft.Make)
	draft.Model = strings.TrimSpace(draft.Model)
	if draft.Make == "" || draft.Model == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "make and model are required")
	}

	var existing *models.Car
	if carID != nil {
		found, err := s.cars.FindByID(ctx, userID, *carID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load car")
		}
		existing = found
	}

	images, err := s.uploadNewImages(ctx, userID, draft.Images)
	if err != nil {
		return nil, err
	}

	car := s.buildCar(userID, draft, images)
	if existing != nil {
		car.ID = existing.ID
		car.CreatedAt = existing.CreatedAt
		if err := s.cars.Update(ctx, car); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update car")
		}
	} else {
		car.ID = uuid.New()
		if err := s.cars.Create(ctx, car); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create car")
		}
	}
	return FromModel(car), nil
}

// uploadNewImages pushes every inline image to the garage bucket, keeping the
// slice order. Hosted URLs are passed through. Under the skip policy a failed
// upload drops the image; under strict the whole save aborts.
func (s *service) uploadNewImages(ctx context.Context, userID uuid.UUID, images []string) ([]string, error) {
	final := make([]string, 0, len(images))
	var dropped error
	for i, img := range images {
		if strings.HasPrefix(img, "http") {
			final = append(final, img)
			continue
		}

		mime, data, err := gemini.DecodeDataURL(img)
		if err == nil {
			object := fmt.Sprintf("%s/%d-%s", userID, s.now().UnixMilli(),
				sanitizeObjectName(fmt.Sprintf("car-%d%s", i+1, extensionForMime(mime))))
			var url string
			url, err = s.uploader.Upload(ctx, s.storage.GarageBucket, object, mime, data)
			if err == nil {
				final = append(final, url)
				continue
			}
		}

		if s.garageCfg.StrictUploads() {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload car image")
		}
		s.logg.Warn(s.logg.WithField(ctx, "image_index", i), fmt.Sprintf("dropping image that failed to upload: %v", err))
		dropped = multierr.Append(dropped, fmt.Errorf("image %d: %w", i, err))
	}
	if dropped != nil {
		s.logg.Warn(ctx, fmt.Sprintf("car saved without %d image(s): %v", len(multierr.Errors(dropped)), dropped))
	}
	return final, nil
}

func (s *service) buildCar(userID uuid.UUID, draft CarDraft, images []string) *models.Car {
	primary := ""
	if len(images) > 0 {
		primary = images[0]
	}

	visual := strings.TrimSpace(draft.VisualDescription)
	if visual == "" {
		visual = strings.Join(strings.Fields(strings.Join([]string{draft.Color, draft.Year, draft.Make, draft.Model}, " ")), " ")
	}

	return &models.Car{
		UserID:   userID,
		Make:     draft.Make,
		Model:    draft.Model,
		Year:     parseOptionalInt(draft.Year),
		Color:    optionalString(draft.Color),
		Category: optionalString(draft.Category),
		ImageURL: primary,
		Images:   pq.StringArray(images),
		Specs: models.CarSpecs{
			Engine:     strings.TrimSpace(draft.Engine),
			Horsepower: parseOptionalInt(draft.Horsepower),
			Mods:       draft.Mods,
		},
		AIAnalysis:        dbtypes.JSONMap(draft.AIAnalysis),
		VisualDescription: optionalString(visual),
	}
}

func (s *service) ListCars(ctx context.Context, userID uuid.UUID, params pagination.Params) (*CarList, error) {
	return s.listCars(ctx, params, func(cursor *pagination.Cursor, limit int) ([]models.Car, error) {
		return s.cars.ListByUser(ctx, userID, cursor, limit)
	})
}

func (s *service) Discover(ctx context.Context, params pagination.Params) (*CarList, error) {
	return s.listCars(ctx, params, func(cursor *pagination.Cursor, limit int) ([]models.Car, error) {
		return s.cars.ListRecent(ctx, cursor, limit)
	})
}

func (s *service) listCars(ctx context.Context, params pagination.Params, fetch func(*pagination.Cursor, int) ([]models.Car, error)) (*CarList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	cars, err := fetch(cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list cars")
	}

	list := &CarList{Cars: make([]CarDTO, 0, len(cars))}
	if len(cars) > limit {
		cars = cars[:limit]
		last := cars[len(cars)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	for i := range cars {
		list.Cars = append(list.Cars, *FromModel(&cars[i]))
	}
	return list, nil
}

func (s *service) GetCar(ctx context.Context, userID, carID uuid.UUID) (*CarDTO, error) {
	car, err := s.cars.FindByID(ctx, userID, carID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load car")
	}
	return FromModel(car), nil
}

func (s *service) DeleteCar(ctx context.Context, userID, carID uuid.UUID) error {
	affected, err := s.cars.Delete(ctx, userID, carID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete car")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
	}
	return nil
}

var objectNameSanitizer = regexp.MustCompile(`[^a-zA-Z0-9.]`)

func sanitizeObjectName(name string) string {
	return objectNameSanitizer.ReplaceAllString(name, "_")
}

// encodeImage normalizes one batch item into a data URL, validating that the
// payload really is base64 and within the size limit.
func encodeImage(img NewImage, maxBytes int64) (string, error) {
	payload := strings.TrimSpace(img.Data)
	mime := strings.TrimSpace(img.MimeType)
	if m, bare, err := gemini.DecodeDataURL(payload); err == nil {
		if maxBytes > 0 && int64(len(bare)) > maxBytes {
			return "", fmt.Errorf("image exceeds %d bytes", maxBytes)
		}
		if mime == "" {
			mime = m
		}
		return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(bare)), nil
	}

	bare, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", fmt.Errorf("invalid base64 payload: %w", err)
	}
	if maxBytes > 0 && int64(len(bare)) > maxBytes {
		return "", fmt.Errorf("image exceeds %d bytes", maxBytes)
	}
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, payload), nil
}

// inlineImageInputs converts the draft's data URLs into inference inputs,
// skipping already hosted URLs.
func inlineImageInputs(images []string) []gemini.ImageInput {
	inputs := make([]gemini.ImageInput, 0, len(images))
	for _, img := range images {
		mime, data, err := gemini.DecodeDataURL(img)
		if err != nil {
			continue
		}
		inputs = append(inputs, gemini.ImageInput{
			DataBase64: base64.StdEncoding.EncodeToString(data),
			MimeType:   mime,
		})
	}
	return inputs
}

func parseOptionalInt(value string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return nil
	}
	return &n
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func extensionForMime(mime string) string {
	switch strings.ToLower(mime) {
	case "image/png":
		return ".png"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".jpg"
	}
}
