package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/croustipeze/cookbook/internal/config"
	"github.com/croustipeze/cookbook/internal/cookbook"
	"github.com/croustipeze/cookbook/internal/errors"
	"github.com/croustipeze/cookbook/internal/middleware"
	"github.com/croustipeze/cookbook/internal/recipe"
	"github.com/croustipeze/cookbook/internal/worker"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// MaxImageSize bounds the body of a classify request.
const MaxImageSize = 8 << 20

// Cookbook is implemented by *cookbook.Service.
type Cookbook interface {
	LoadRecipes(ctx context.Context) (int, error)
	LocateNearest(ctx context.Context, ref recipe.GeoPoint) (recipe.Nearest, error)
	LocateNearestToDevice(ctx context.Context) (recipe.Nearest, error)
	ClassifyAndFilter(ctx context.Context, image []byte, threshold float64) (cookbook.Match, error)
	Recipes() []recipe.Recipe
	FilterByCategory(category string) []recipe.Recipe
}

type Server struct {
	cfg         *config.Config
	cookbook    Cookbook
	asynqClient worker.Enqueuer
}

// NewServer creates the API handlers. asynqClient may be nil, in which case
// asynchronous refreshes are refused.
func NewServer(cfg *config.Config, cb Cookbook, asynqClient worker.Enqueuer) *Server {
	return &Server{
		cfg:         cfg,
		cookbook:    cb,
		asynqClient: asynqClient,
	}
}

// Routes registers the API on r. The refresh endpoint requires a bearer
// token when a JWT secret is configured.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HandleHealth)

	r.Route("/api/recipes", func(r chi.Router) {
		r.Get("/", s.HandleListRecipes)
		r.Get("/nearest", s.HandleNearest)
		r.Post("/classify", s.HandleClassify)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Optional(s.cfg.Auth.JWTSecret != "", middleware.AuthMiddleware(s.cfg.Auth)))
			r.Post("/refresh", s.HandleRefresh)
		})
	})
}

func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

type RecipesResponse struct {
	Count   int             `json:"count"`
	Recipes []recipe.Recipe `json:"recipes"`
}

func (s *Server) HandleListRecipes(w http.ResponseWriter, r *http.Request) {
	var recipes []recipe.Recipe
	if category, ok := r.URL.Query()["category"]; ok {
		recipes = s.cookbook.FilterByCategory(category[0])
	} else {
		recipes = s.cookbook.Recipes()
	}
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}

	writeJSON(w, http.StatusOK, RecipesResponse{Count: len(recipes), Recipes: recipes})
}

type RefreshResponse struct {
	Count  int    `json:"count,omitempty"`
	TaskID string `json:"task_id,omitempty"`
	Status string `json:"status"`
}

func (s *Server) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("async") == "true" {
		s.enqueueRefresh(w, r)
		return
	}

	count, err := s.cookbook.LoadRecipes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshResponse{Count: count, Status: "loaded"})
}

func (s *Server) enqueueRefresh(w http.ResponseWriter, r *http.Request) {
	if s.asynqClient == nil {
		writeError(w, r, errors.NewValidationError(
			"asynchronous refresh is not available",
			"ASYNC_UNAVAILABLE",
			"Configure REDIS_URL or call the endpoint without async=true.",
		))
		return
	}

	taskID := uuid.New().String()
	task, err := worker.NewRefreshCatalogTask(worker.RefreshCatalogPayload{
		RequestID: taskID,
		Reason:    worker.ReasonAPI,
	})
	if err != nil {
		writeError(w, r, errors.NewInternalError("failed to create task", err))
		return
	}

	if _, err := s.asynqClient.EnqueueContext(r.Context(), task); err != nil {
		writeError(w, r, errors.NewInternalError("failed to enqueue task", err))
		return
	}

	writeJSON(w, http.StatusAccepted, RefreshResponse{TaskID: taskID, Status: "queued"})
}

type NearestResponse struct {
	recipe.Nearest
	Summary string `json:"summary"`
}

func (s *Server) HandleNearest(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	latRaw, lonRaw := q.Get("lat"), q.Get("lon")

	var (
		nearest recipe.Nearest
		err     error
	)
	switch {
	case latRaw == "" && lonRaw == "":
		nearest, err = s.cookbook.LocateNearestToDevice(r.Context())
	case latRaw == "" || lonRaw == "":
		err = errors.NewValidationError("lat and lon must be given together", "INVALID_POSITION", "Pass both lat and lon, or neither to use the device position.")
	default:
		var ref recipe.GeoPoint
		ref, err = parsePoint(latRaw, lonRaw)
		if err == nil {
			nearest, err = s.cookbook.LocateNearest(r.Context(), ref)
		}
	}
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, NearestResponse{Nearest: nearest, Summary: NearestSummary(nearest.Recipe)})
}

func parsePoint(latRaw, lonRaw string) (recipe.GeoPoint, error) {
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return recipe.GeoPoint{}, errors.NewValidationError(fmt.Sprintf("invalid lat %q", latRaw), "INVALID_POSITION", "lat must be a decimal number.")
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return recipe.GeoPoint{}, errors.NewValidationError(fmt.Sprintf("invalid lon %q", lonRaw), "INVALID_POSITION", "lon must be a decimal number.")
	}
	return recipe.GeoPoint{Latitude: lat, Longitude: lon}, nil
}

type ClassifyResponse struct {
	cookbook.Match
	Summary string `json:"summary"`
}

func (s *Server) HandleClassify(w http.ResponseWriter, r *http.Request) {
	threshold := s.cfg.Classification.ConfidenceThreshold
	if raw := r.URL.Query().Get("threshold"); raw != "" {
		t, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, r, errors.NewValidationError(fmt.Sprintf("invalid threshold %q", raw), "INVALID_THRESHOLD", "Use a threshold between 0 and 1."))
			return
		}
		threshold = t
	}

	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxImageSize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			appErr := errors.NewValidationError(fmt.Sprintf("image is larger than %d bytes", tooLarge.Limit), "IMAGE_TOO_LARGE", "Send a JPEG or PNG photo of at most 8 MiB.")
			appErr.StatusCode = http.StatusRequestEntityTooLarge
			writeError(w, r, appErr)
			return
		}
		writeError(w, r, errors.NewValidationError("image could not be read", "IMAGE_UNREADABLE", "Retry the upload."))
		return
	}
	if len(image) == 0 {
		writeError(w, r, errors.NewValidationError("request body must contain an image", "IMAGE_MISSING", "Send the photo bytes as the request body."))
		return
	}

	match, err := s.cookbook.ClassifyAndFilter(r.Context(), image, threshold)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if match.Recognized && match.Recipes == nil {
		match.Recipes = []recipe.Recipe{}
	}

	writeJSON(w, http.StatusOK, ClassifyResponse{Match: match, Summary: MatchSummary(match)})
}
