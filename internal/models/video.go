package models

import "time"

// Video представляет запись видеокаталога. Поля Genre, Rating, ReleaseYear
// и ViewCount опциональны на уровне схемы: при их отсутствии хранилище
// подставляет значения по умолчанию.
type Video struct {
	ID              int64     `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Thumbnail       string    `json:"thumbnail"`
	VideoURL        string    `json:"video_url,omitempty"`
	DurationMinutes int       `json:"duration_minutes"`
	Category        string    `json:"category"`
	Genre           string    `json:"genre"`
	Rating          float64   `json:"rating"`
	ReleaseYear     int       `json:"release_year"`
	ViewCount       int64     `json:"view_count"`
	CreatedAt       time.Time `json:"created_at"`
}

// Допустимые значения ключа сортировки каталога.
const (
	SortNewest  = "newest"
	SortOldest  = "oldest"
	SortTitle   = "title"
	SortRating  = "rating"
	SortPopular = "popular"
)

// Корзины длительности для фильтра duration.
const (
	DurationShort  = "short"  // меньше часа
	DurationMedium = "medium" // от одного до двух часов
	DurationLong   = "long"   // больше двух часов
)

// VideoFilter — параметры фильтрации каталога, передаваемые в слой
// доступа к данным. Нулевые значения означают отсутствие фильтра.
type VideoFilter struct {
	Search    string  // Подстрока в названии или описании
	Category  string  // Точное совпадение категории
	Genre     string  // Точное совпадение жанра
	MinRating float64 // Минимальный рейтинг (из строки вида "7+")
	Year      int     // Год выпуска
	Duration  string  // Корзина длительности: short, medium, long
	SortBy    string  // Ключ сортировки
}

// Pagination описывает вычисленное состояние постраничного вывода.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	TotalPages   int  `json:"totalPages"`
	TotalResults int  `json:"totalResults"`
	HasNextPage  bool `json:"hasNextPage"`
	HasPrevPage  bool `json:"hasPrevPage"`
}

// NewPagination вычисляет состояние пагинации по общему числу записей.
func NewPagination(page, limit, total int) Pagination {
	totalPages := (total + limit - 1) / limit
	return Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalResults: total,
		HasNextPage:  page < totalPages,
		HasPrevPage:  page > 1,
	}
}
