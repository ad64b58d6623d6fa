// Package video содержит логику бизнес-уровня для работы с видеокаталогом:
// фильтрацию и пагинацию списка, метаданные каталога с кэшированием в Redis.
package video

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/streaming-service/internal/lib/sl"
	"github.com/magabrotheeeer/streaming-service/internal/models"
)

// Ключи и срок жизни кэша метаданных каталога.
const (
	cacheKeyCategories = "videos:categories"
	cacheKeyGenres     = "videos:genres"
	metaCacheTTL       = 10 * time.Minute
)

const (
	defaultPage  = 1
	defaultLimit = 12
	maxLimit     = 100

	suggestionsMinQuery = 2
	suggestionsLimit    = 10
)

// VideoRepository описывает контракт слоя данных каталога.
type VideoRepository interface {
	ListVideos(ctx context.Context, filter models.VideoFilter, page, limit int) ([]models.Video, int, error)
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	ListVideosByCategory(ctx context.Context, category string, page, limit int) ([]models.Video, error)
	ListCategories(ctx context.Context) ([]string, error)
	ListGenres(ctx context.Context) ([]string, error)
	SearchSuggestions(ctx context.Context, query string, limit int) ([]string, error)
}

// MetaCache — кэш для списков категорий и жанров.
type MetaCache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

// VideoService реализует операции каталога поверх репозитория и кэша.
type VideoService struct {
	repo  VideoRepository
	cache MetaCache
	log   *slog.Logger
}

// NewVideoService создает новый экземпляр VideoService.
func NewVideoService(repo VideoRepository, cache MetaCache, log *slog.Logger) *VideoService {
	return &VideoService{repo: repo, cache: cache, log: log}
}

// ListParams — разобранные параметры запроса списка каталога.
type ListParams struct {
	Filter models.VideoFilter
	Page   int
	Limit  int
}

// ParseListParams переводит строковые query‑параметры в ListParams.
// Непонятные значения молча приводятся к значениям по умолчанию:
// листинг каталога не должен падать из-за кривого query.
func ParseListParams(get func(key string) string) ListParams {
	p := ListParams{
		Filter: models.VideoFilter{
			Search:   strings.TrimSpace(get("search")),
			Category: get("category"),
			Genre:    get("genre"),
			Duration: get("duration"),
			SortBy:   get("sortBy"),
		},
		Page:  defaultPage,
		Limit: defaultLimit,
	}

	// Рейтинг приходит строкой вида "7+".
	if raw := get("rating"); raw != "" {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(raw, "+"), 64); err == nil && v > 0 {
			p.Filter.MinRating = v
		}
	}
	if raw := get("year"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			p.Filter.Year = v
		}
	}
	if v, err := strconv.Atoi(get("page")); err == nil && v > 0 {
		p.Page = v
	}
	if v, err := strconv.Atoi(get("limit")); err == nil && v > 0 {
		p.Limit = v
		if p.Limit > maxLimit {
			p.Limit = maxLimit
		}
	}
	return p
}

// ListResult — страница каталога с вычисленной пагинацией.
type ListResult struct {
	Videos     []models.Video    `json:"videos"`
	Pagination models.Pagination `json:"pagination"`
}

// List возвращает страницу каталога по фильтру.
func (s *VideoService) List(ctx context.Context, p ListParams) (*ListResult, error) {
	const op = "video.List"

	videos, total, err := s.repo.ListVideos(ctx, p.Filter, p.Page, p.Limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return &ListResult{
		Videos:     videos,
		Pagination: models.NewPagination(p.Page, p.Limit, total),
	}, nil
}

// Get возвращает запись каталога по идентификатору.
func (s *VideoService) Get(ctx context.Context, id int64) (*models.Video, error) {
	return s.repo.GetVideo(ctx, id)
}

// ListByCategory возвращает страницу каталога одной категории.
func (s *VideoService) ListByCategory(ctx context.Context, category string, page, limit int) ([]models.Video, error) {
	const op = "video.ListByCategory"

	if page < 1 {
		page = defaultPage
	}
	if limit < 1 || limit > maxLimit {
		limit = defaultLimit
	}
	videos, err := s.repo.ListVideosByCategory(ctx, category, page, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if videos == nil {
		videos = []models.Video{}
	}
	return videos, nil
}

// Categories возвращает список категорий каталога. Результат кэшируется;
// отказ кэша не фатален — список читается из базы.
func (s *VideoService) Categories(ctx context.Context) ([]string, error) {
	return s.cachedStrings(ctx, cacheKeyCategories, s.repo.ListCategories)
}

// Genres возвращает список жанров каталога.
func (s *VideoService) Genres(ctx context.Context) ([]string, error) {
	return s.cachedStrings(ctx, cacheKeyGenres, s.repo.ListGenres)
}

func (s *VideoService) cachedStrings(ctx context.Context, key string, load func(context.Context) ([]string, error)) ([]string, error) {
	const op = "video.cachedStrings"

	var cached []string
	if s.cache != nil {
		found, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			s.log.Warn("cache read failed", slog.String("key", key), sl.Err(err))
		} else if found {
			return cached, nil
		}
	}

	values, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if values == nil {
		values = []string{}
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, key, values, metaCacheTTL); err != nil {
			s.log.Warn("cache write failed", slog.String("key", key), sl.Err(err))
		}
	}
	return values, nil
}

// Suggestions возвращает подсказки поиска по подстроке названия.
// Запросы короче двух символов дают пустой список без похода в базу.
func (s *VideoService) Suggestions(ctx context.Context, query string) ([]string, error) {
	const op = "video.Suggestions"

	query = strings.TrimSpace(query)
	if len(query) < suggestionsMinQuery {
		return []string{}, nil
	}
	titles, err := s.repo.SearchSuggestions(ctx, query, suggestionsLimit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if titles == nil {
		titles = []string{}
	}
	return titles, nil
}
