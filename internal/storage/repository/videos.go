package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/magabrotheeeer/streaming-service/internal/models"
)

// selectColumns собирает список колонок выборки каталога с учётом схемных
// возможностей: отсутствующие колонки заменяются значениями по умолчанию,
// запрос не падает на частично накатанной схеме.
func (c Capabilities) selectColumns() string {
	cols := []string{"id", "title", "description", "thumbnail", "video_url", "duration_minutes", "category"}
	if c.HasGenre {
		cols = append(cols, "genre")
	} else {
		cols = append(cols, "COALESCE(category, 'Unknown') AS genre")
	}
	if c.HasRating {
		cols = append(cols, "rating")
	} else {
		cols = append(cols, "0.0 AS rating")
	}
	if c.HasReleaseYear {
		cols = append(cols, "release_year")
	} else {
		cols = append(cols, "date_part('year', now())::int AS release_year")
	}
	if c.HasViewCount {
		cols = append(cols, "view_count")
	} else {
		cols = append(cols, "0 AS view_count")
	}
	cols = append(cols, "created_at")
	return strings.Join(cols, ", ")
}

// buildVideoConditions строит WHERE‑условия и аргументы параметризованного
// запроса. Фильтры по отсутствующим колонкам молча пропускаются.
func buildVideoConditions(filter models.VideoFilter, caps Capabilities) (string, []any) {
	var conditions []string
	var args []any

	next := func() string { return "$" + strconv.Itoa(len(args)) }

	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		p := next()
		conditions = append(conditions, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, "category = "+next())
	}
	if filter.Genre != "" && caps.HasGenre {
		args = append(args, filter.Genre)
		conditions = append(conditions, "genre = "+next())
	}
	if filter.MinRating > 0 && caps.HasRating {
		args = append(args, filter.MinRating)
		conditions = append(conditions, "rating >= "+next())
	}
	if filter.Year > 0 && caps.HasReleaseYear {
		args = append(args, filter.Year)
		conditions = append(conditions, "release_year = "+next())
	}
	switch filter.Duration {
	case models.DurationShort:
		conditions = append(conditions, "duration_minutes < 60")
	case models.DurationMedium:
		conditions = append(conditions, "duration_minutes BETWEEN 60 AND 120")
	case models.DurationLong:
		conditions = append(conditions, "duration_minutes > 120")
	}

	if len(conditions) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(conditions, " AND "), args
}

// orderClause отображает ключ сортировки в детерминированный ORDER BY.
// created_at выступает вторичным ключом, чтобы порядок страниц был устойчив.
func orderClause(sortBy string, caps Capabilities) string {
	switch sortBy {
	case models.SortOldest:
		return "ORDER BY created_at ASC"
	case models.SortTitle:
		return "ORDER BY title ASC"
	case models.SortRating:
		if caps.HasRating {
			return "ORDER BY rating DESC, created_at DESC"
		}
	case models.SortPopular:
		if caps.HasViewCount {
			return "ORDER BY view_count DESC, created_at DESC"
		}
	}
	return "ORDER BY created_at DESC"
}

func scanVideos(rows *sql.Rows) ([]models.Video, error) {
	var result []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Thumbnail, &v.VideoURL,
			&v.DurationMinutes, &v.Category, &v.Genre, &v.Rating, &v.ReleaseYear,
			&v.ViewCount, &v.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// ListVideos возвращает страницу каталога по фильтру и общее число записей.
func (s *Storage) ListVideos(ctx context.Context, filter models.VideoFilter, page, limit int) ([]models.Video, int, error) {
	const op = "repository.ListVideos"

	where, args := buildVideoConditions(filter, s.Caps)

	var total int
	countQuery := "SELECT COUNT(*) FROM videos " + where
	if err := s.DB.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	offset := (page - 1) * limit
	query := fmt.Sprintf("SELECT %s FROM videos %s %s LIMIT %d OFFSET %d",
		s.Caps.selectColumns(), where, orderClause(filter.SortBy, s.Caps), limit, offset)
	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return videos, total, nil
}

// GetVideo возвращает запись каталога по идентификатору.
func (s *Storage) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	const op = "repository.GetVideo"

	query := fmt.Sprintf("SELECT %s FROM videos WHERE id = $1", s.Caps.selectColumns())
	rows, err := s.DB.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if len(videos) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &videos[0], nil
}

// ListVideosByCategory возвращает страницу каталога одной категории.
func (s *Storage) ListVideosByCategory(ctx context.Context, category string, page, limit int) ([]models.Video, error) {
	const op = "repository.ListVideosByCategory"

	offset := (page - 1) * limit
	query := fmt.Sprintf(`SELECT %s FROM videos WHERE category = $1
			  ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		s.Caps.selectColumns(), limit, offset)
	rows, err := s.DB.QueryContext(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	videos, err := scanVideos(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return videos, nil
}

// ListCategories возвращает отсортированный список непустых категорий.
func (s *Storage) ListCategories(ctx context.Context) ([]string, error) {
	const op = "repository.ListCategories"

	query := `SELECT DISTINCT category FROM videos
			  WHERE category IS NOT NULL AND category != ''
			  ORDER BY category ASC`
	return s.listStrings(ctx, op, query)
}

// ListGenres возвращает отсортированный список жанров. При отсутствии
// колонки genre в качестве жанров выступают категории.
func (s *Storage) ListGenres(ctx context.Context) ([]string, error) {
	const op = "repository.ListGenres"

	if !s.Caps.HasGenre {
		return s.ListCategories(ctx)
	}
	query := `SELECT DISTINCT genre FROM videos
			  WHERE genre IS NOT NULL AND genre != ''
			  ORDER BY genre ASC`
	return s.listStrings(ctx, op, query)
}

// SearchSuggestions возвращает до limit названий, содержащих подстроку query.
func (s *Storage) SearchSuggestions(ctx context.Context, query string, limit int) ([]string, error) {
	const op = "repository.SearchSuggestions"

	sqlQuery := fmt.Sprintf(`SELECT DISTINCT title FROM videos
			  WHERE title ILIKE $1 ORDER BY title ASC LIMIT %d`, limit)
	rows, err := s.DB.QueryContext(ctx, sqlQuery, "%"+query+"%")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return collectStrings(op, rows)
}

func (s *Storage) listStrings(ctx context.Context, op, query string) ([]string, error) {
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()
	return collectStrings(op, rows)
}

func collectStrings(op string, rows *sql.Rows) ([]string, error) {
	var result []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
