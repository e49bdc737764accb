package feed

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/AymenMB/autogen-backend/pkg/db/models"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

func TestCreatePostFromCar(t *testing.T) {
	userID := uuid.New()
	car := &models.Car{ID: uuid.New(), UserID: userID, Make: "Porsche", Model: "911", ImageURL: "https://cdn.example.com/hero.jpg"}
	repo := &stubPostRepo{}
	svc := buildFeedService(t, repo, &stubCars{car: car}, &stubShoots{}, &stubProfiles{})

	dto, err := svc.CreatePost(context.Background(), userID, CreatePostRequest{CarID: &car.ID, Caption: "track day"})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if dto.ImageURL != car.ImageURL {
		t.Fatalf("image url must be copied from the car, got %q", dto.ImageURL)
	}
	if repo.created == nil || repo.created.Caption != "track day" {
		t.Fatalf("expected post row, got %+v", repo.created)
	}
}

func TestCreatePostFromPhotoshoot(t *testing.T) {
	userID := uuid.New()
	shoot := &models.Photoshoot{ID: uuid.New(), UserID: userID, ImageURL: "https://cdn.example.com/render.png"}
	repo := &stubPostRepo{}
	svc := buildFeedService(t, repo, &stubCars{}, &stubShoots{shoot: shoot}, &stubProfiles{})

	dto, err := svc.CreatePost(context.Background(), userID, CreatePostRequest{PhotoshootID: &shoot.ID})
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	if dto.ImageURL != shoot.ImageURL {
		t.Fatalf("image url must be copied from the render, got %q", dto.ImageURL)
	}
}

func TestCreatePostRequiresExactlyOneReference(t *testing.T) {
	svc := buildFeedService(t, &stubPostRepo{}, &stubCars{}, &stubShoots{}, &stubProfiles{})
	carID := uuid.New()
	shootID := uuid.New()

	for _, req := range []CreatePostRequest{
		{},
		{CarID: &carID, PhotoshootID: &shootID},
	} {
		_, err := svc.CreatePost(context.Background(), uuid.New(), req)
		typed := pkgerrors.As(err)
		if typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("expected validation error for %+v, got %v", req, err)
		}
	}
}

func TestCreatePostForeignCarNotFound(t *testing.T) {
	owner := uuid.New()
	car := &models.Car{ID: uuid.New(), UserID: owner, ImageURL: "https://cdn.example.com/hero.jpg"}
	svc := buildFeedService(t, &stubPostRepo{}, &stubCars{car: car}, &stubShoots{}, &stubProfiles{})

	_, err := svc.CreatePost(context.Background(), uuid.New(), CreatePostRequest{CarID: &car.ID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("posting someone else's car must read as not found, got %v", err)
	}
}

func TestListFeedJoinsAuthors(t *testing.T) {
	author := uuid.New()
	repo := &stubPostRepo{}
	for i := 0; i < 3; i++ {
		repo.posts = append(repo.posts, models.Post{ID: uuid.New(), UserID: author, ImageURL: fmt.Sprintf("img-%d", i)})
	}
	prof := &stubProfiles{profiles: []models.Profile{{ID: author, Username: "nightdriver"}}}
	svc := buildFeedService(t, repo, &stubCars{}, &stubShoots{}, prof)

	list, err := svc.ListFeed(context.Background(), pagination.Params{Limit: 2})
	if err != nil {
		t.Fatalf("list feed: %v", err)
	}
	if len(list.Posts) != 2 || list.NextCursor == nil {
		t.Fatalf("expected trimmed page with next cursor, got %d posts", len(list.Posts))
	}
	for _, post := range list.Posts {
		if post.Author == nil || post.Author.Username != "nightdriver" {
			t.Fatalf("author profile must be joined onto the post, got %+v", post.Author)
		}
	}
	if prof.queries != 1 {
		t.Fatalf("authors must be loaded in one batch, got %d queries", prof.queries)
	}
}

func TestLikePostIsIdempotent(t *testing.T) {
	post := models.Post{ID: uuid.New(), UserID: uuid.New()}
	repo := &stubPostRepo{posts: []models.Post{post}}
	svc := buildFeedService(t, repo, &stubCars{}, &stubShoots{}, &stubProfiles{})
	userID := uuid.New()

	res, err := svc.LikePost(context.Background(), userID, post.ID)
	if err != nil {
		t.Fatalf("like: %v", err)
	}
	if res.LikeCount != 1 || !res.Liked {
		t.Fatalf("expected count 1 after first like, got %+v", res)
	}

	res, err = svc.LikePost(context.Background(), userID, post.ID)
	if err != nil {
		t.Fatalf("second like: %v", err)
	}
	if res.LikeCount != 1 {
		t.Fatalf("a repeated like must not move the counter, got %d", res.LikeCount)
	}

	res, err = svc.UnlikePost(context.Background(), userID, post.ID)
	if err != nil {
		t.Fatalf("unlike: %v", err)
	}
	if res.LikeCount != 0 || res.Liked {
		t.Fatalf("expected count 0 after unlike, got %+v", res)
	}

	res, err = svc.UnlikePost(context.Background(), userID, post.ID)
	if err != nil {
		t.Fatalf("second unlike: %v", err)
	}
	if res.LikeCount != 0 {
		t.Fatalf("a repeated unlike must not move the counter, got %d", res.LikeCount)
	}
}

func TestLikeMissingPost(t *testing.T) {
	svc := buildFeedService(t, &stubPostRepo{}, &stubCars{}, &stubShoots{}, &stubProfiles{})

	_, err := svc.LikePost(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func buildFeedService(t *testing.T, posts *stubPostRepo, cars *stubCars, shoots *stubShoots, profs *stubProfiles) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		PostRepo:    posts,
		CarRepo:     cars,
		ShootRepo:   shoots,
		ProfileRepo: profs,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

type likeKey struct {
	postID uuid.UUID
	userID uuid.UUID
}

type stubPostRepo struct {
	posts   []models.Post
	created *models.Post
	likes   map[likeKey]struct{}
	counts  map[uuid.UUID]int
}

func (s *stubPostRepo) Create(ctx context.Context, post *models.Post) error {
	s.created = post
	s.posts = append(s.posts, *post)
	return nil
}

func (s *stubPostRepo) FindByID(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return &s.posts[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubPostRepo) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Post, error) {
	if limit > len(s.posts) {
		limit = len(s.posts)
	}
	return s.posts[:limit], nil
}

func (s *stubPostRepo) Like(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.ensureMaps()
	key := likeKey{postID: postID, userID: userID}
	if _, ok := s.likes[key]; ok {
		return false, nil
	}
	s.likes[key] = struct{}{}
	s.counts[postID]++
	return true, nil
}

func (s *stubPostRepo) Unlike(ctx context.Context, postID, userID uuid.UUID) (bool, error) {
	s.ensureMaps()
	key := likeKey{postID: postID, userID: userID}
	if _, ok := s.likes[key]; !ok {
		return false, nil
	}
	delete(s.likes, key)
	s.counts[postID]--
	return true, nil
}

func (s *stubPostRepo) LikeCount(ctx context.Context, postID uuid.UUID) (int, error) {
	s.ensureMaps()
	return s.counts[postID], nil
}

func (s *stubPostRepo) ensureMaps() {
	if s.likes == nil {
		s.likes = make(map[likeKey]struct{})
		s.counts = make(map[uuid.UUID]int)
	}
}

type stubCars struct {
	car *models.Car
}

func (s *stubCars) FindByID(ctx context.Context, userID, carID uuid.UUID) (*models.Car, error) {
	if s.car == nil || s.car.ID != carID || s.car.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.car, nil
}

type stubShoots struct {
	shoot *models.Photoshoot
}

func (s *stubShoots) FindByID(ctx context.Context, userID, shootID uuid.UUID) (*models.Photoshoot, error) {
	if s.shoot == nil || s.shoot.ID != shootID || s.shoot.UserID != userID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.shoot, nil
}

type stubProfiles struct {
	profiles []models.Profile
	queries  int
}

func (s *stubProfiles) FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Profile, error) {
	s.queries++
	return s.profiles, nil
}
