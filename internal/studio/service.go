package studio

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/internal/styles"
	"github.com/AymenMB/autogen-backend/pkg/config"
	"github.com/AymenMB/autogen-backend/pkg/db"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	dbtypes "github.com/AymenMB/autogen-backend/pkg/db/types"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/gemini"
	"github.com/AymenMB/autogen-backend/pkg/logger"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

const maxReferenceImageBytes = 20 << 20

// Service defines the behavior needed by the studio controller.
type Service interface {
	Generate(ctx context.Context, userID uuid.UUID, req GenerateRequest) (*GenerateResponse, error)
	SavePhotoshoot(ctx context.Context, userID uuid.UUID, req SavePhotoshootRequest) (*PhotoshootDTO, error)
	ListPhotoshoots(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PhotoshootList, error)
}

type carLoader interface {
	FindByID(ctx context.Context, userID, carID uuid.UUID) (*models.Car, error)
}

type shootRepository interface {
	Create(ctx context.Context, shoot *models.Photoshoot) error
	ListByUser(ctx context.Context, userID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.Photoshoot, error)
}

type imageGenerator interface {
	GenerateImage(ctx context.Context, prompt string, images []gemini.ImageInput) (string, error)
}

type imageUploader interface {
	Upload(ctx context.Context, bucket, object, contentType string, data []byte) (string, error)
}

type cooldownGate interface {
	ArmCooldown(ctx context.Context, scope string, window time.Duration) error
	CooldownRemaining(ctx context.Context, scope string) (time.Duration, error)
}

type service struct {
	cars      carLoader
	shoots    shootRepository
	generator imageGenerator
	uploader  imageUploader
	cooldown  cooldownGate
	fetch     *http.Client
	storage   config.StorageConfig
	studioCfg config.StudioConfig
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build a studio service.
type ServiceParams struct {
	CarRepo       carLoader
	ShootRepo     shootRepository
	Generator     imageGenerator
	Uploader      imageUploader
	Cooldown      cooldownGate
	StorageConfig config.StorageConfig
	StudioConfig  config.StudioConfig
	Logger        *logger.Logger
}

// NewService constructs a studio service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.CarRepo == nil {
		return nil, fmt.Errorf("car repository is required")
	}
	if params.ShootRepo == nil {
		return nil, fmt.Errorf("photoshoot repository is required")
	}
	if params.Generator == nil {
		return nil, fmt.Errorf("image generator is required")
	}
	if params.Uploader == nil {
		return nil, fmt.Errorf("image uploader is required")
	}
	if params.Cooldown == nil {
		return nil, fmt.Errorf("cooldown gate is required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &service{
		cars:      params.CarRepo,
		shoots:    params.ShootRepo,
		generator: params.Generator,
		uploader:  params.Uploader,
		cooldown:  params.Cooldown,
		fetch:     &http.Client{Timeout: 30 * time.Second},
		storage:   params.StorageConfig,
		studioCfg: params.StudioConfig,
		logg:      params.Logger,
		now:       time.Now,
	}, nil
}

// Generate renders the car in the requested style. The per-user cooldown is
// checked before any work and re-armed after every model attempt, including
// failed ones.
func (s *service) Generate(ctx context.Context, userID uuid.UUID, req GenerateRequest) (*GenerateResponse, error) {
	preset, ok := styles.PresetByID(req.StyleID)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unknown style")
	}
	description := preset.Description
	if req.StyleID == styles.StyleCustom {
		description = strings.TrimSpace(req.CustomPrompt)
		if description == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "a custom style needs a prompt")
		}
	}

	scope := cooldownScope(userID)
	remaining, err := s.cooldown.CooldownRemaining(ctx, scope)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check cooldown")
	}
	if remaining > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeRateLimit,
			fmt.Sprintf("please wait %d seconds before generating again", ceilSeconds(remaining)))
	}

	car, err := s.cars.FindByID(ctx, userID, req.CarID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load car")
	}
	if car.ImageURL == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "car has no photos to restyle")
	}

	reference, err := s.loadReferenceImage(ctx, car.ImageURL)
	if err != nil {
		return nil, err
	}

	prompt := styles.ConstructPrompt(req.StyleID, description, vehicleOf(car))

	dataURL, genErr := s.generator.GenerateImage(ctx, prompt, []gemini.ImageInput{reference})
	if window := s.studioCfg.Cooldown(); window > 0 {
		if armErr := s.cooldown.ArmCooldown(ctx, scope, window); armErr != nil {
			s.logg.Warn(ctx, fmt.Sprintf("failed to arm generation cooldown: %v", armErr))
		}
	}
	if genErr != nil {
		return nil, genErr
	}

	return &GenerateResponse{
		ImageDataURL: dataURL,
		Prompt:       prompt,
		StyleID:      req.StyleID,
	}, nil
}

// SavePhotoshoot uploads a generated render to the studio bucket and records
// it alongside the prompt and car context it was produced with.
func (s *service) SavePhotoshoot(ctx context.Context, userID uuid.UUID, req SavePhotoshootRequest) (*PhotoshootDTO, error) {
	mime, data, err := gemini.DecodeDataURL(req.ImageDataURL)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "image payload must be a data URL")
	}

	car, err := s.cars.FindByID(ctx, userID, req.CarID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load car")
	}

	object := fmt.Sprintf("%s/%d-studio-%s-%s.png", userID, s.now().UnixMilli(), car.Make, car.Model)
	url, err := s.uploader.Upload(ctx, s.storage.StudioBucket, object, mime, data)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upload render")
	}

	environment := req.StyleID
	if preset, ok := styles.PresetByID(req.StyleID); ok {
		environment = preset.Name
	}

	shoot := &models.Photoshoot{
		ID:          uuid.New(),
		UserID:      userID,
		CarID:       car.ID,
		Prompt:      req.Prompt,
		Environment: environment,
		ImageURL:    url,
		Settings: dbtypes.JSONMap{
			"style": req.StyleID,
			"car": map[string]any{
				"make":  car.Make,
				"model": car.Model,
				"year":  car.Year,
				"color": car.Color,
			},
		},
	}
	if err := s.shoots.Create(ctx, shoot); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create photoshoot")
	}
	return FromModel(shoot), nil
}

func (s *service) ListPhotoshoots(ctx context.Context, userID uuid.UUID, params pagination.Params) (*PhotoshootList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	shoots, err := s.shoots.ListByUser(ctx, userID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list photoshoots")
	}

	list := &PhotoshootList{Photoshoots: make([]PhotoshootDTO, 0, len(shoots))}
	if len(shoots) > limit {
		shoots = shoots[:limit]
		last := shoots[len(shoots)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}
	for i := range shoots {
		list.Photoshoots = append(list.Photoshoots, *FromModel(&shoots[i]))
	}
	return list, nil
}

// loadReferenceImage resolves the car's primary image into inference input,
// fetching hosted URLs and decoding inline ones.
func (s *service) loadReferenceImage(ctx context.Context, source string) (gemini.ImageInput, error) {
	if !strings.HasPrefix(source, "http") {
		mime, data, err := gemini.DecodeDataURL(source)
		if err != nil {
			return gemini.ImageInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "primary image is not usable")
		}
		return gemini.ImageInput{DataBase64: encodeBase64(data), MimeType: mime}, nil
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return gemini.ImageInput{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build image fetch")
	}
	resp, err := s.fetch.Do(httpReq)
	if err != nil {
		return gemini.ImageInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch primary image")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return gemini.ImageInput{}, pkgerrors.New(pkgerrors.CodeDependency,
			fmt.Sprintf("fetch primary image: unexpected status %d", resp.StatusCode))
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxReferenceImageBytes))
	if err != nil {
		return gemini.ImageInput{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read primary image")
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return gemini.ImageInput{DataBase64: encodeBase64(data), MimeType: mime}, nil
}

func vehicleOf(car *models.Car) styles.Vehicle {
	color := ""
	if car.Color != nil {
		color = *car.Color
	}
	return styles.Vehicle{
		Make:  car.Make,
		Model: car.Model,
		Year:  car.Year,
		Color: color,
	}
}

func cooldownScope(userID uuid.UUID) string {
	return "studio:generate:" + userID.String()
}

func encodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

func ceilSeconds(d time.Duration) int {
	seconds := int((d + time.Second - 1) / time.Second)
	if seconds < 1 {
		seconds = 1
	}
	return seconds
}
