package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/xaenox/feature-scout/internal/models"
)

//go:embed migrations.sql
var migrations embed.FS

type DatabaseConfig struct {
	Host        string
	Port        int
	User        string
	Password    string
	DBName      string
	SSLMode     string
	UseInMemory bool
}

type PostgresStorage struct {
	db *sql.DB
}

func NewPostgresStorage(config DatabaseConfig) (*PostgresStorage, error) {
	connStr := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to the database: %w", err)
	}

	storage := &PostgresStorage{db: db}

	if err := storage.initializeSchema(); err != nil {
		return nil, fmt.Errorf("error initializing database schema: %w", err)
	}

	return storage, nil
}

func (s *PostgresStorage) initializeSchema() error {
	migrationSQL, err := migrations.ReadFile("migrations.sql")
	if err != nil {
		return fmt.Errorf("error reading migrations file: %w", err)
	}

	if _, err := s.db.Exec(string(migrationSQL)); err != nil {
		return fmt.Errorf("error executing migrations: %w", err)
	}

	return nil
}

// translateError maps postgres unique violations onto ErrDuplicate so
// callers don't need to know pq error codes.
func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrDuplicate
	}
	return err
}

func (s *PostgresStorage) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, product_role, experience_level, discovery_score)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowContext(ctx, query,
		user.Username,
		user.Email,
		user.ProductRole,
		user.ExperienceLevel,
		user.DiscoveryScore,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		return fmt.Errorf("error creating user: %w", translateError(err))
	}
	return nil
}

func (s *PostgresStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, email, product_role, experience_level, discovery_score, created_at
		FROM users
		WHERE id = $1`

	user := &models.User{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.ProductRole,
		&user.ExperienceLevel,
		&user.DiscoveryScore,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying user: %w", err)
	}
	return user, nil
}

func (s *PostgresStorage) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	if limit <= 0 {
		limit = 100
	}
	query := `
		SELECT id, username, email, product_role, experience_level, discovery_score, created_at
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		user := &models.User{}
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.ProductRole,
			&user.ExperienceLevel,
			&user.DiscoveryScore,
			&user.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *PostgresStorage) CountUsers(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting users: %w", err)
	}
	return count, nil
}

func (s *PostgresStorage) UpdateUserScore(ctx context.Context, userID int64, score float64) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET discovery_score = $1 WHERE id = $2`, score, userID)
	if err != nil {
		return fmt.Errorf("error updating user score: %w", err)
	}
	return ensureAffected(result)
}

func (s *PostgresStorage) CreateFeature(ctx context.Context, feature *models.Feature) error {
	query := `
		INSERT INTO features (name, description, category, complexity, keywords, popularity)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		feature.Name,
		feature.Description,
		feature.Category,
		feature.Complexity,
		pq.Array(feature.Keywords),
		feature.Popularity,
	).Scan(&feature.ID)

	if err != nil {
		return fmt.Errorf("error creating feature: %w", translateError(err))
	}
	return nil
}

func (s *PostgresStorage) GetFeature(ctx context.Context, id int64) (*models.Feature, error) {
	query := `
		SELECT id, name, description, category, complexity, keywords, popularity
		FROM features
		WHERE id = $1`

	feature := &models.Feature{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&feature.ID,
		&feature.Name,
		&feature.Description,
		&feature.Category,
		&feature.Complexity,
		pq.Array(&feature.Keywords),
		&feature.Popularity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying feature: %w", err)
	}
	return feature, nil
}

func (s *PostgresStorage) ListFeatures(ctx context.Context, offset, limit int) ([]*models.Feature, error) {
	query := `
		SELECT id, name, description, category, complexity, keywords, popularity
		FROM features
		ORDER BY id
		OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying features: %w", err)
	}
	defer rows.Close()

	var features []*models.Feature
	for rows.Next() {
		feature := &models.Feature{}
		if err := rows.Scan(
			&feature.ID,
			&feature.Name,
			&feature.Description,
			&feature.Category,
			&feature.Complexity,
			pq.Array(&feature.Keywords),
			&feature.Popularity,
		); err != nil {
			return nil, fmt.Errorf("error scanning feature: %w", err)
		}
		features = append(features, feature)
	}
	return features, rows.Err()
}

func (s *PostgresStorage) UpdateFeaturePopularity(ctx context.Context, featureID int64, popularity float64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE features SET popularity = $1 WHERE id = $2`, popularity, featureID)
	if err != nil {
		return fmt.Errorf("error updating feature popularity: %w", err)
	}
	return ensureAffected(result)
}

func (s *PostgresStorage) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	query := `
		INSERT INTO interactions (user_id, feature_id, discovery_status, tutorial_views, automation_uses, rating, feedback, last_interaction)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := s.db.QueryRowContext(ctx, query,
		interaction.UserID,
		interaction.FeatureID,
		interaction.DiscoveryStatus,
		interaction.TutorialViews,
		interaction.AutomationUses,
		interaction.Rating,
		interaction.Feedback,
		interaction.LastInteraction,
	).Scan(&interaction.ID)

	if err != nil {
		return fmt.Errorf("error creating interaction: %w", translateError(err))
	}
	return nil
}

func (s *PostgresStorage) UpdateInteraction(ctx context.Context, interaction *models.Interaction) error {
	query := `
		UPDATE interactions
		SET discovery_status = $1, tutorial_views = $2, automation_uses = $3,
		    rating = $4, feedback = $5, last_interaction = $6
		WHERE id = $7`

	result, err := s.db.ExecContext(ctx, query,
		interaction.DiscoveryStatus,
		interaction.TutorialViews,
		interaction.AutomationUses,
		interaction.Rating,
		interaction.Feedback,
		interaction.LastInteraction,
		interaction.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating interaction: %w", err)
	}
	return ensureAffected(result)
}

func (s *PostgresStorage) GetInteraction(ctx context.Context, id int64) (*models.Interaction, error) {
	return s.queryInteraction(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStorage) FindInteraction(ctx context.Context, userID, featureID int64) (*models.Interaction, error) {
	return s.queryInteraction(ctx, `WHERE user_id = $1 AND feature_id = $2`, userID, featureID)
}

func (s *PostgresStorage) queryInteraction(ctx context.Context, where string, args ...any) (*models.Interaction, error) {
	query := `
		SELECT id, user_id, feature_id, discovery_status, tutorial_views, automation_uses, rating, feedback, last_interaction
		FROM interactions ` + where

	interaction := &models.Interaction{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&interaction.ID,
		&interaction.UserID,
		&interaction.FeatureID,
		&interaction.DiscoveryStatus,
		&interaction.TutorialViews,
		&interaction.AutomationUses,
		&interaction.Rating,
		&interaction.Feedback,
		&interaction.LastInteraction,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error querying interaction: %w", err)
	}
	return interaction, nil
}

func (s *PostgresStorage) ListUserInteractions(ctx context.Context, userID int64) ([]*models.Interaction, error) {
	return s.listInteractions(ctx, `WHERE user_id = $1`, userID)
}

func (s *PostgresStorage) ListFeatureInteractions(ctx context.Context, featureID int64) ([]*models.Interaction, error) {
	return s.listInteractions(ctx, `WHERE feature_id = $1`, featureID)
}

func (s *PostgresStorage) listInteractions(ctx context.Context, where string, args ...any) ([]*models.Interaction, error) {
	query := `
		SELECT id, user_id, feature_id, discovery_status, tutorial_views, automation_uses, rating, feedback, last_interaction
		FROM interactions ` + where + `
		ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error querying interactions: %w", err)
	}
	defer rows.Close()

	var interactions []*models.Interaction
	for rows.Next() {
		interaction := &models.Interaction{}
		if err := rows.Scan(
			&interaction.ID,
			&interaction.UserID,
			&interaction.FeatureID,
			&interaction.DiscoveryStatus,
			&interaction.TutorialViews,
			&interaction.AutomationUses,
			&interaction.Rating,
			&interaction.Feedback,
			&interaction.LastInteraction,
		); err != nil {
			return nil, fmt.Errorf("error scanning interaction: %w", err)
		}
		interactions = append(interactions, interaction)
	}
	return interactions, rows.Err()
}

func (s *PostgresStorage) SaveSnapshot(ctx context.Context, snapshot *models.ContextSnapshot) error {
	contextJSON, err := json.Marshal(snapshot.Context)
	if err != nil {
		return fmt.Errorf("error encoding context: %w", err)
	}

	query := `
		INSERT INTO context_snapshots (id, user_id, url, query, context, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := s.db.ExecContext(ctx, query,
		snapshot.ID,
		snapshot.UserID,
		snapshot.URL,
		snapshot.Query,
		contextJSON,
		snapshot.CreatedAt,
	); err != nil {
		return fmt.Errorf("error saving snapshot: %w", err)
	}
	return nil
}

func (s *PostgresStorage) ListUserSnapshots(ctx context.Context, userID int64, limit int) ([]*models.ContextSnapshot, error) {
	if limit <= 0 {
		limit = 50
	}
	query := `
		SELECT id, user_id, url, query, context, created_at
		FROM context_snapshots
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying snapshots: %w", err)
	}
	defer rows.Close()

	var snapshots []*models.ContextSnapshot
	for rows.Next() {
		snapshot := &models.ContextSnapshot{}
		var contextJSON []byte
		if err := rows.Scan(
			&snapshot.ID,
			&snapshot.UserID,
			&snapshot.URL,
			&snapshot.Query,
			&contextJSON,
			&snapshot.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning snapshot: %w", err)
		}
		if err := json.Unmarshal(contextJSON, &snapshot.Context); err != nil {
			return nil, fmt.Errorf("error decoding context: %w", err)
		}
		snapshots = append(snapshots, snapshot)
	}
	return snapshots, rows.Err()
}

func ensureAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}
