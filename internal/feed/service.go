package feed

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/AymenMB/autogen-backend/internal/profiles"
	"github.com/AymenMB/autogen-backend/pkg/db"
	"github.com/AymenMB/autogen-backend/pkg/db/models"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/pagination"
)

// Service defines the behavior needed by the feed controller.
type Service interface {
	CreatePost(ctx context.Context, userID uuid.UUID, req CreatePostRequest) (*PostDTO, error)
	ListFeed(ctx context.Context, params pagination.Params) (*PostList, error)
	LikePost(ctx context.Context, userID, postID uuid.UUID) (*LikeResult, error)
	UnlikePost(ctx context.Context, userID, postID uuid.UUID) (*LikeResult, error)
}

type postRepository interface {
	Create(ctx context.Context, post *models.Post) error
	FindByID(ctx context.Context, postID uuid.UUID) (*models.Post, error)
	List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Post, error)
	Like(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	Unlike(ctx context.Context, postID, userID uuid.UUID) (bool, error)
	LikeCount(ctx context.Context, postID uuid.UUID) (int, error)
}

type carLoader interface {
	FindByID(ctx context.Context, userID, carID uuid.UUID) (*models.Car, error)
}

type shootLoader interface {
	FindByID(ctx context.Context, userID, shootID uuid.UUID) (*models.Photoshoot, error)
}

type profileLoader interface {
	FindByUserIDs(ctx context.Context, userIDs []uuid.UUID) ([]models.Profile, error)
}

type service struct {
	posts    postRepository
	cars     carLoader
	shoots   shootLoader
	profiles profileLoader
}

// ServiceParams bundles the dependencies required to build a feed service.
type ServiceParams struct {
	PostRepo    postRepository
	CarRepo     carLoader
	ShootRepo   shootLoader
	ProfileRepo profileLoader
}

// NewService constructs a feed service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.PostRepo == nil {
		return nil, fmt.Errorf("post repository is required")
	}
	if params.CarRepo == nil {
		return nil, fmt.Errorf("car repository is required")
	}
	if params.ShootRepo == nil {
		return nil, fmt.Errorf("photoshoot repository is required")
	}
	if params.ProfileRepo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	return &service{
		posts:    params.PostRepo,
		cars:     params.CarRepo,
		shoots:   params.ShootRepo,
		profiles: params.ProfileRepo,
	}, nil
}

// CreatePost publishes an owned car or saved render. The image URL is copied
// onto the post so feed reads never join back to the source tables.
func (s *service) CreatePost(ctx context.Context, userID uuid.UUID, req CreatePostRequest) (*PostDTO, error) {
	if (req.CarID == nil) == (req.PhotoshootID == nil) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "exactly one of car_id or photoshoot_id is required")
	}

	var imageURL string
	switch {
	case req.CarID != nil:
		car, err := s.cars.FindByID(ctx, userID, *req.CarID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "car not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load car")
		}
		if car.ImageURL == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "car has no image to post")
		}
		imageURL = car.ImageURL
	case req.PhotoshootID != nil:
		shoot, err := s.shoots.FindByID(ctx, userID, *req.PhotoshootID)
		if err != nil {
			if db.IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "photoshoot not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load photoshoot")
		}
		imageURL = shoot.ImageURL
	}

	post := &models.Post{
		ID:           uuid.New(),
		UserID:       userID,
		CarID:        req.CarID,
		PhotoshootID: req.PhotoshootID,
		ImageURL:     imageURL,
		Caption:      req.Caption,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create post")
	}
	return FromModel(post), nil
}

// ListFeed returns the public feed newest first with author profiles joined.
func (s *service) ListFeed(ctx context.Context, params pagination.Params) (*PostList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	posts, err := s.posts.List(ctx, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list posts")
	}

	list := &PostList{Posts: make([]PostDTO, 0, len(posts))}
	if len(posts) > limit {
		posts = posts[:limit]
		last := posts[len(posts)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		list.NextCursor = &next
	}

	authors, err := s.loadAuthors(ctx, posts)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		dto := FromModel(&posts[i])
		if author, ok := authors[posts[i].UserID]; ok {
			dto.Author = author
		}
		list.Posts = append(list.Posts, *dto)
	}
	return list, nil
}

func (s *service) loadAuthors(ctx context.Context, posts []models.Post) (map[uuid.UUID]*profiles.ProfileDTO, error) {
	seen := make(map[uuid.UUID]struct{}, len(posts))
	ids := make([]uuid.UUID, 0, len(posts))
	for i := range posts {
		if _, ok := seen[posts[i].UserID]; ok {
			continue
		}
		seen[posts[i].UserID] = struct{}{}
		ids = append(ids, posts[i].UserID)
	}

	found, err := s.profiles.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load authors")
	}
	authors := make(map[uuid.UUID]*profiles.ProfileDTO, len(found))
	for i := range found {
		authors[found[i].ID] = profiles.FromModel(&found[i])
	}
	return authors, nil
}

// LikePost records a like; liking twice is a no-op.
func (s *service) LikePost(ctx context.Context, userID, postID uuid.UUID) (*LikeResult, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.posts.Like(ctx, postID, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "like post")
	}
	count, err := s.posts.LikeCount(ctx, postID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read like count")
	}
	return &LikeResult{PostID: postID, LikeCount: count, Liked: true}, nil
}

// UnlikePost removes a like; unliking a post that was never liked is a no-op.
func (s *service) UnlikePost(ctx context.Context, userID, postID uuid.UUID) (*LikeResult, error) {
	if _, err := s.loadPost(ctx, postID); err != nil {
		return nil, err
	}
	if _, err := s.posts.Unlike(ctx, postID, userID); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unlike post")
	}
	count, err := s.posts.LikeCount(ctx, postID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "read like count")
	}
	return &LikeResult{PostID: postID, LikeCount: count, Liked: false}, nil
}

func (s *service) loadPost(ctx context.Context, postID uuid.UUID) (*models.Post, error) {
	post, err := s.posts.FindByID(ctx, postID)
	if err != nil {
		if db.IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "post not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load post")
	}
	return post, nil
}
