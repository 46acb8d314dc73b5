package store

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"buskport-cli/model"
)

const (
	appDir          = "buskport"
	DefaultVenueTTL = 24 * time.Hour
	DefaultMonthTTL = 5 * time.Minute
	maxRecentVenues = 8
)

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

type RecentVenue struct {
	LocationID int    `json:"location_id"`
	Name       string `json:"name"`
}

type venueHistory struct {
	Venues []RecentVenue `json:"venues"`
}

type venueFavorites struct {
	IDs []int `json:"ids"`
}

// Scoped prefixes name with a short digest of the API base so data from one
// backend is never served for another. An empty base leaves name unchanged.
func Scoped(apiBase string, name string) string {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		return name
	}
	sum := sha256.Sum256([]byte(apiBase))
	return hex.EncodeToString(sum[:4]) + "_" + name
}

// LoadVenueCache returns the venue list cached for apiBase and whether it is
// younger than ttl.
func LoadVenueCache(apiBase string, ttl time.Duration) ([]model.Location, bool, error) {
	path, err := CachePath(Scoped(apiBase, "venues.json"))
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Location](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, ttl), nil
}

func SaveVenueCache(apiBase string, venues []model.Location) error {
	path, err := CachePath(Scoped(apiBase, "venues.json"))
	if err != nil {
		return err
	}
	return saveCache(path, venues)
}

func monthCachePath(apiBase string, month string) (string, error) {
	return CachePath(Scoped(apiBase, "performances_"+month+".json"))
}

// LoadMonthCache returns cached performances for a month key (YYYY-MM).
func LoadMonthCache(apiBase string, month string, ttl time.Duration) ([]model.Performance, bool, error) {
	path, err := monthCachePath(apiBase, month)
	if err != nil {
		return nil, false, err
	}
	cache, err := loadCache[[]model.Performance](path)
	if err != nil {
		return nil, false, err
	}
	return cache.Data, fresh(cache.UpdatedAt, ttl), nil
}

func SaveMonthCache(apiBase string, month string, perfs []model.Performance) error {
	path, err := monthCachePath(apiBase, month)
	if err != nil {
		return err
	}
	return saveCache(path, perfs)
}

// InvalidateMonthCache drops a month so the next read goes to the API.
func InvalidateMonthCache(apiBase string, month string) error {
	path, err := monthCachePath(apiBase, month)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func LoadRecentVenues() ([]RecentVenue, error) {
	path, err := ConfigPath("venues.json")
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var history venueHistory
	if err := json.Unmarshal(data, &history); err != nil {
		return nil, errors.New("invalid venue history format")
	}
	return history.Venues, nil
}

// RememberVenue moves the venue to the front of the history.
func RememberVenue(venue model.Location) error {
	if venue.LocationId <= 0 {
		return errors.New("venue id is required")
	}
	history, _ := LoadRecentVenues()
	next := []RecentVenue{{LocationID: venue.LocationId, Name: venue.DisplayName()}}

	for _, existing := range history {
		if existing.LocationID == venue.LocationId {
			continue
		}
		next = append(next, existing)
		if len(next) >= maxRecentVenues {
			break
		}
	}

	path, err := ConfigPath("venues.json")
	if err != nil {
		return err
	}
	return writeJSON(path, venueHistory{Venues: next}, 0o644)
}

func LoadFavoriteVenues() (map[int]bool, error) {
	favorites, err := loadFavorites()
	if err != nil {
		return nil, err
	}
	result := make(map[int]bool, len(favorites.IDs))
	for _, id := range favorites.IDs {
		result[id] = true
	}
	return result, nil
}

func SetVenueFavorite(id int, favorite bool) error {
	if id <= 0 {
		return errors.New("venue id is required")
	}
	favorites, err := loadFavorites()
	if err != nil {
		return err
	}

	index := -1
	for i, existing := range favorites.IDs {
		if existing == id {
			index = i
			break
		}
	}
	if favorite {
		if index < 0 {
			favorites.IDs = append(favorites.IDs, id)
		}
	} else if index >= 0 {
		favorites.IDs = append(favorites.IDs[:index], favorites.IDs[index+1:]...)
	}
	sort.Ints(favorites.IDs)

	path, err := ConfigPath("favorites.json")
	if err != nil {
		return err
	}
	return writeJSON(path, favorites, 0o644)
}

// FavoritesFirst stably moves favorite venues to the front.
func FavoritesFirst(venues []model.Location, favorites map[int]bool) []model.Location {
	out := make([]model.Location, len(venues))
	copy(out, venues)
	sort.SliceStable(out, func(i, j int) bool {
		return favorites[out[i].LocationId] && !favorites[out[j].LocationId]
	})
	return out
}

func loadFavorites() (venueFavorites, error) {
	path, err := ConfigPath("favorites.json")
	if err != nil {
		return venueFavorites{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return venueFavorites{}, nil
		}
		return venueFavorites{}, err
	}
	var favorites venueFavorites
	if err := json.Unmarshal(data, &favorites); err != nil {
		return venueFavorites{}, errors.New("invalid favorites format")
	}
	return favorites, nil
}

func fresh(updatedAt time.Time, ttl time.Duration) bool {
	if updatedAt.IsZero() || ttl <= 0 {
		return false
	}
	return time.Since(updatedAt) <= ttl
}

func loadCache[T any](path string) (cacheEnvelope[T], error) {
	var cache cacheEnvelope[T]
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cache, nil
		}
		return cache, err
	}
	if err := json.Unmarshal(data, &cache); err != nil {
		return cache, err
	}
	return cache, nil
}

func saveCache[T any](path string, data T) error {
	cache := cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	}
	return writeJSON(path, cache, 0o644)
}

// WriteJSON writes v indented to path, creating parent directories, via a
// temp file and rename.
func WriteJSON(path string, v any, perm os.FileMode) error {
	return writeJSON(path, v, perm)
}

func writeJSON(path string, v any, perm os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, payload, perm); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// ConfigPath resolves name under the per-user config directory.
func ConfigPath(name string) (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}

// CachePath resolves name under the per-user cache directory.
func CachePath(name string) (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, appDir, name), nil
}
