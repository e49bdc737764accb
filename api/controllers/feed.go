package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AymenMB/autogen-backend/api/responses"
	"github.com/AymenMB/autogen-backend/api/validators"
	"github.com/AymenMB/autogen-backend/internal/feed"
	pkgerrors "github.com/AymenMB/autogen-backend/pkg/errors"
	"github.com/AymenMB/autogen-backend/pkg/logger"
)

// FeedCreatePost publishes a car or saved render to the public feed.
func FeedCreatePost(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body feed.CreatePostRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		post, err := svc.CreatePost(r.Context(), userID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, post)
	}
}

// FeedList returns the public feed newest first.
func FeedList(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListFeed(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// FeedLikePost records the caller's like on a post.
func FeedLikePost(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return likeHandler(svc, logg, true)
}

// FeedUnlikePost removes the caller's like from a post.
func FeedUnlikePost(svc feed.Service, logg *logger.Logger) http.HandlerFunc {
	return likeHandler(svc, logg, false)
}

func likeHandler(svc feed.Service, logg *logger.Logger, like bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "feed service unavailable"))
			return
		}

		userID, err := requireUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		postID, err := parseUUIDParam(chi.URLParam(r, "postID"), "post id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var result *feed.LikeResult
		if like {
			result, err = svc.LikePost(r.Context(), userID, postID)
		} else {
			result, err = svc.UnlikePost(r.Context(), userID, postID)
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
