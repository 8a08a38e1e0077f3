package api

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

type APIKey struct {
	ID          int       `json:"id"`
	Key         string    `json:"key"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	LastUsedAt  time.Time `json:"last_used_at,omitempty"`
	IsActive    bool      `json:"is_active"`
}

// KeyStore holds API keys in memory. Keys bypass the rate limit.
type KeyStore struct {
	mu     sync.Mutex
	master string
	nextID int
	keys   map[string]*APIKey
}

// NewKeyStore guards key management with master. An empty master disables
// key management entirely.
func NewKeyStore(master string) *KeyStore {
	return &KeyStore{master: master, nextID: 1, keys: make(map[string]*APIKey)}
}

// generateAPIKey generates a random 32-byte hex string
func generateAPIKey() (string, error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// validateMasterKey checks if the provided key matches the master key
func (s *KeyStore) validateMasterKey(key string) bool {
	return s.master != "" && subtle.ConstantTimeCompare([]byte(key), []byte(s.master)) == 1
}

// CreateAPIKey creates a new API key
func (s *KeyStore) CreateAPIKey(w http.ResponseWriter, r *http.Request) {
	// Validate master key from Authorization header
	if !s.validateMasterKey(r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	// Parse request body
	var req struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	key, err := generateAPIKey()
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}

	s.mu.Lock()
	apiKey := &APIKey{
		ID:          s.nextID,
		Key:         key,
		Description: req.Description,
		CreatedAt:   time.Now().UTC(),
		IsActive:    true,
	}
	s.nextID++
	s.keys[key] = apiKey
	resp := *apiKey
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(resp)
}

// DeleteAPIKey deletes an API key
func (s *KeyStore) DeleteAPIKey(w http.ResponseWriter, r *http.Request) {
	if !s.validateMasterKey(r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ID int `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, apiKey := range s.keys {
		if apiKey.ID == req.ID {
			delete(s.keys, k)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "API key not found", http.StatusNotFound)
}

// ListAPIKeys lists all API keys, newest first (only accessible with master key)
func (s *KeyStore) ListAPIKeys(w http.ResponseWriter, r *http.Request) {
	if !s.validateMasterKey(r.Header.Get("Authorization")) {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	apiKeys := make([]APIKey, 0, len(s.keys))
	for _, k := range s.keys {
		apiKeys = append(apiKeys, *k)
	}
	s.mu.Unlock()
	sort.Slice(apiKeys, func(i, j int) bool { return apiKeys[i].ID > apiKeys[j].ID })

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(apiKeys)
}

// ValidateAPIKey checks if an API key is valid and updates its last use
func (s *KeyStore) ValidateAPIKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	apiKey, ok := s.keys[key]
	if !ok || !apiKey.IsActive {
		return false
	}
	apiKey.LastUsedAt = time.Now().UTC()
	return true
}
