// Package repository реализует хранилище данных на основе PostgreSQL
// для пользователей, видеокаталога, подписок и платежей. Ошибки слоя данных
// не содержат SQL‑деталей для клиента: наружу отдаются типизированные
// ошибки ErrNotFound и ErrEmailTaken, остальное логируется выше по стеку.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// Типизированные ошибки слоя данных. Контроллеры переключаются по ним
// явно вместо разбора кодов ошибок SQL.
var (
	// ErrNotFound — запрошенная строка отсутствует.
	ErrNotFound = errors.New("not found")
	// ErrEmailTaken — пользователь с таким email уже существует.
	ErrEmailTaken = errors.New("email already taken")
)

// Capabilities фиксирует наличие опциональных колонок каталога видео.
// Проверка выполняется один раз при старте: при частично накатанных
// миграциях запросы деградируют до значений по умолчанию, а не падают.
type Capabilities struct {
	HasGenre       bool
	HasRating      bool
	HasReleaseYear bool
	HasViewCount   bool
}

// Storage инкапсулирует соединение с базой данных PostgreSQL
// и реализует методы работы с доменными таблицами.
type Storage struct {
	DB   *sql.DB
	Caps Capabilities
}

// New создаёт подключение к PostgreSQL и снимает схемные возможности каталога.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "repository.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Storage{DB: db}
	return s, nil
}

// ProbeCapabilities перечитывает information_schema и запоминает,
// какие опциональные колонки каталога доступны. Вызывается после миграций.
func (s *Storage) ProbeCapabilities(ctx context.Context) error {
	const op = "repository.ProbeCapabilities"

	query := `SELECT column_name FROM information_schema.columns
			  WHERE table_name = 'videos'`
	rows, err := s.DB.QueryContext(ctx, query)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var caps Capabilities
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		switch name {
		case "genre":
			caps.HasGenre = true
		case "rating":
			caps.HasRating = true
		case "release_year":
			caps.HasReleaseYear = true
		case "view_count":
			caps.HasViewCount = true
		}
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.Caps = caps
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}
