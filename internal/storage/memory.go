package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/xaenox/feature-scout/internal/models"
)

// MemoryStorage is an in-memory Storage used for local development and
// tests. All exported methods are safe for concurrent use.
type MemoryStorage struct {
	mu sync.RWMutex

	users        map[int64]*models.User
	features     map[int64]*models.Feature
	interactions map[int64]*models.Interaction
	snapshots    map[string]*models.ContextSnapshot

	nextUserID        int64
	nextFeatureID     int64
	nextInteractionID int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users:        make(map[int64]*models.User),
		features:     make(map[int64]*models.Feature),
		interactions: make(map[int64]*models.Interaction),
		snapshots:    make(map[string]*models.ContextSnapshot),
	}
}

func (s *MemoryStorage) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return ErrDuplicate
		}
	}

	s.nextUserID++
	user.ID = s.nextUserID
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	copied := *user
	s.users[user.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *MemoryStorage) ListUsers(ctx context.Context, offset, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var users []*models.User
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(users) >= limit {
			break
		}
		copied := *s.users[id]
		users = append(users, &copied)
	}
	return users, nil
}

func (s *MemoryStorage) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users), nil
}

func (s *MemoryStorage) UpdateUserScore(ctx context.Context, userID int64, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return ErrNotFound
	}
	user.DiscoveryScore = score
	return nil
}

func (s *MemoryStorage) CreateFeature(ctx context.Context, feature *models.Feature) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.features {
		if existing.Name == feature.Name {
			return ErrDuplicate
		}
	}

	s.nextFeatureID++
	feature.ID = s.nextFeatureID
	copied := *feature
	s.features[feature.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetFeature(ctx context.Context, id int64) (*models.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	feature, exists := s.features[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *feature
	return &copied, nil
}

func (s *MemoryStorage) ListFeatures(ctx context.Context, offset, limit int) ([]*models.Feature, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0, len(s.features))
	for id := range s.features {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var features []*models.Feature
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit > 0 && len(features) >= limit {
			break
		}
		copied := *s.features[id]
		features = append(features, &copied)
	}
	return features, nil
}

func (s *MemoryStorage) UpdateFeaturePopularity(ctx context.Context, featureID int64, popularity float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	feature, exists := s.features[featureID]
	if !exists {
		return ErrNotFound
	}
	feature.Popularity = popularity
	return nil
}

func (s *MemoryStorage) CreateInteraction(ctx context.Context, interaction *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.interactions {
		if existing.UserID == interaction.UserID && existing.FeatureID == interaction.FeatureID {
			return ErrDuplicate
		}
	}

	s.nextInteractionID++
	interaction.ID = s.nextInteractionID
	copied := *interaction
	s.interactions[interaction.ID] = &copied
	return nil
}

func (s *MemoryStorage) UpdateInteraction(ctx context.Context, interaction *models.Interaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.interactions[interaction.ID]; !exists {
		return ErrNotFound
	}
	copied := *interaction
	s.interactions[interaction.ID] = &copied
	return nil
}

func (s *MemoryStorage) GetInteraction(ctx context.Context, id int64) (*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	interaction, exists := s.interactions[id]
	if !exists {
		return nil, ErrNotFound
	}
	copied := *interaction
	return &copied, nil
}

func (s *MemoryStorage) FindInteraction(ctx context.Context, userID, featureID int64) (*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, interaction := range s.interactions {
		if interaction.UserID == userID && interaction.FeatureID == featureID {
			copied := *interaction
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStorage) ListUserInteractions(ctx context.Context, userID int64) ([]*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listInteractions(func(i *models.Interaction) bool { return i.UserID == userID }), nil
}

func (s *MemoryStorage) ListFeatureInteractions(ctx context.Context, featureID int64) ([]*models.Interaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listInteractions(func(i *models.Interaction) bool { return i.FeatureID == featureID }), nil
}

func (s *MemoryStorage) listInteractions(match func(*models.Interaction) bool) []*models.Interaction {
	var out []*models.Interaction
	for _, interaction := range s.interactions {
		if match(interaction) {
			copied := *interaction
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *MemoryStorage) SaveSnapshot(ctx context.Context, snapshot *models.ContextSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *snapshot
	s.snapshots[snapshot.ID] = &copied
	return nil
}

func (s *MemoryStorage) ListUserSnapshots(ctx context.Context, userID int64, limit int) ([]*models.ContextSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.ContextSnapshot
	for _, snapshot := range s.snapshots {
		if snapshot.UserID == userID {
			copied := *snapshot
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStorage) Close() error {
	// Nothing to close for in-memory storage
	return nil
}
