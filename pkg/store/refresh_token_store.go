package store

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrInvalidRefreshToken indicates the token is unknown or expired.
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	// ErrRefreshTokenReplay indicates reuse of an already-rotated token.
	ErrRefreshTokenReplay = errors.New("refresh token replay detected")
)

// Tokens rotate within a family: only the newest token of a family is
// valid, and presenting an older one revokes the whole family.

type tokenFamily struct {
	userID      string
	currentHash string
	expiry      time.Time
}

// MemoryRefreshTokenStore keeps token families in memory.
type MemoryRefreshTokenStore struct {
	mu           sync.Mutex
	families     map[string]tokenFamily         // familyID -> family
	hashFamily   map[string]string              // tokenHash -> familyID
	familyHashes map[string]map[string]struct{} // familyID -> every hash ever issued
	userFamilies map[string]map[string]struct{} // userID -> familyIDs
}

func NewMemoryRefreshTokenStore() *MemoryRefreshTokenStore {
	return &MemoryRefreshTokenStore{
		families:     make(map[string]tokenFamily),
		hashFamily:   make(map[string]string),
		familyHashes: make(map[string]map[string]struct{}),
		userFamilies: make(map[string]map[string]struct{}),
	}
}

// NewToken starts a fresh family for the user and returns its first token.
func (s *MemoryRefreshTokenStore) NewToken(userID string, ttl time.Duration) (string, error) {
	token, err := opaqueToken(32)
	if err != nil {
		return "", err
	}
	familyID, err := opaqueToken(16)
	if err != nil {
		return "", err
	}
	hash := tokenDigest(token)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.families[familyID] = tokenFamily{
		userID:      userID,
		currentHash: hash,
		expiry:      time.Now().UTC().Add(ttl),
	}
	s.hashFamily[hash] = familyID
	s.familyHashes[familyID] = map[string]struct{}{hash: {}}
	if s.userFamilies[userID] == nil {
		s.userFamilies[userID] = make(map[string]struct{})
	}
	s.userFamilies[userID][familyID] = struct{}{}
	return token, nil
}

// RotateToken exchanges a valid token for the family's next one.
func (s *MemoryRefreshTokenStore) RotateToken(token string, ttl time.Duration) (string, string, error) {
	hash := tokenDigest(token)
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	familyID, ok := s.hashFamily[hash]
	if !ok {
		return "", "", ErrInvalidRefreshToken
	}
	family, ok := s.families[familyID]
	if !ok || now.After(family.expiry) {
		s.dropFamilyLocked(familyID)
		return "", "", ErrInvalidRefreshToken
	}
	if family.currentHash != hash {
		// An older token of this family came back: assume theft.
		s.dropFamilyLocked(familyID)
		return "", "", ErrRefreshTokenReplay
	}

	next, err := opaqueToken(32)
	if err != nil {
		return "", "", err
	}
	nextHash := tokenDigest(next)
	family.currentHash = nextHash
	family.expiry = now.Add(ttl)
	s.families[familyID] = family
	s.hashFamily[nextHash] = familyID
	s.familyHashes[familyID][nextHash] = struct{}{}
	return family.userID, next, nil
}

// DeleteToken revokes the whole family the token belongs to.
func (s *MemoryRefreshTokenStore) DeleteToken(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if familyID, ok := s.hashFamily[tokenDigest(token)]; ok {
		s.dropFamilyLocked(familyID)
	}
	return nil
}

// RevokeUserRefreshTokens revokes every family the user holds.
func (s *MemoryRefreshTokenStore) RevokeUserRefreshTokens(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for familyID := range s.userFamilies[userID] {
		s.dropFamilyLocked(familyID)
	}
	return nil
}

func (s *MemoryRefreshTokenStore) dropFamilyLocked(familyID string) {
	userID := s.families[familyID].userID
	for h := range s.familyHashes[familyID] {
		delete(s.hashFamily, h)
	}
	delete(s.familyHashes, familyID)
	delete(s.families, familyID)
	if fams, ok := s.userFamilies[userID]; ok {
		delete(fams, familyID)
		if len(fams) == 0 {
			delete(s.userFamilies, userID)
		}
	}
}

// RedisRefreshTokenStore shares token families across instances.
type RedisRefreshTokenStore struct {
	client *redis.Client
}

func NewRedisRefreshTokenStore(client *redis.Client) *RedisRefreshTokenStore {
	return &RedisRefreshTokenStore{client: client}
}

// NewToken starts a fresh family for the user and returns its first token.
func (s *RedisRefreshTokenStore) NewToken(userID string, ttl time.Duration) (string, error) {
	token, err := opaqueToken(32)
	if err != nil {
		return "", err
	}
	familyID, err := opaqueToken(16)
	if err != nil {
		return "", err
	}
	hash := tokenDigest(token)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, rtHashKey(hash), familyID, ttl)
	pipe.HSet(ctx, rtFamilyKey(familyID), map[string]any{
		"userId":      userID,
		"currentHash": hash,
	})
	pipe.Expire(ctx, rtFamilyKey(familyID), ttl)
	pipe.SAdd(ctx, rtFamilyHashesKey(familyID), hash)
	pipe.Expire(ctx, rtFamilyHashesKey(familyID), ttl)
	pipe.SAdd(ctx, rtUserKey(userID), familyID)
	pipe.Expire(ctx, rtUserKey(userID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", err
	}
	return token, nil
}

// RotateToken exchanges a valid token for the family's next one. The family
// hash is WATCHed so concurrent rotations of the same token cannot both win.
func (s *RedisRefreshTokenStore) RotateToken(token string, ttl time.Duration) (string, string, error) {
	hash := tokenDigest(token)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for {
		if err := ctx.Err(); err != nil {
			return "", "", err
		}

		familyID, err := s.client.Get(ctx, rtHashKey(hash)).Result()
		if err == redis.Nil {
			return "", "", ErrInvalidRefreshToken
		}
		if err != nil {
			return "", "", err
		}

		familyKey := rtFamilyKey(familyID)
		var (
			userID       string
			next         string
			shouldRevoke bool
		)

		err = s.client.Watch(ctx, func(tx *redis.Tx) error {
			family, err := tx.HGetAll(ctx, familyKey).Result()
			if err != nil {
				return err
			}
			userID = family["userId"]
			currentHash := family["currentHash"]
			if userID == "" || currentHash == "" {
				shouldRevoke = true
				return ErrInvalidRefreshToken
			}
			if currentHash != hash {
				shouldRevoke = true
				return ErrRefreshTokenReplay
			}

			next, err = opaqueToken(32)
			if err != nil {
				return err
			}
			nextHash := tokenDigest(next)

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, rtHashKey(nextHash), familyID, ttl)
				pipe.HSet(ctx, familyKey, map[string]any{
					"userId":      userID,
					"currentHash": nextHash,
				})
				pipe.Expire(ctx, familyKey, ttl)
				pipe.SAdd(ctx, rtFamilyHashesKey(familyID), nextHash)
				pipe.Expire(ctx, rtFamilyHashesKey(familyID), ttl)
				pipe.SAdd(ctx, rtUserKey(userID), familyID)
				pipe.Expire(ctx, rtUserKey(userID), ttl)
				return nil
			})
			return err
		}, familyKey)

		if err == redis.TxFailedErr {
			continue
		}
		if err != nil {
			if shouldRevoke {
				_ = s.dropFamily(ctx, familyID, userID)
			}
			if errors.Is(err, ErrRefreshTokenReplay) || errors.Is(err, ErrInvalidRefreshToken) {
				return "", "", err
			}
			return "", "", err
		}
		return userID, next, nil
	}
}

// DeleteToken revokes the whole family the token belongs to.
func (s *RedisRefreshTokenStore) DeleteToken(token string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	familyID, err := s.client.Get(ctx, rtHashKey(tokenDigest(token))).Result()
	if err == redis.Nil {
		return nil
	}
	if err != nil {
		return err
	}
	return s.dropFamily(ctx, familyID, "")
}

// RevokeUserRefreshTokens revokes every family the user holds.
func (s *RedisRefreshTokenStore) RevokeUserRefreshTokens(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	familyIDs, err := s.client.SMembers(ctx, rtUserKey(userID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	for _, familyID := range familyIDs {
		if err := s.dropFamily(ctx, familyID, userID); err != nil {
			return err
		}
	}
	if err := s.client.Del(ctx, rtUserKey(userID)).Err(); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func (s *RedisRefreshTokenStore) dropFamily(ctx context.Context, familyID, userID string) error {
	if userID == "" {
		family, err := s.client.HGetAll(ctx, rtFamilyKey(familyID)).Result()
		if err != nil && err != redis.Nil {
			return err
		}
		userID = family["userId"]
	}
	hashes, err := s.client.SMembers(ctx, rtFamilyHashesKey(familyID)).Result()
	if err != nil && err != redis.Nil {
		return err
	}
	pipe := s.client.TxPipeline()
	for _, h := range hashes {
		pipe.Del(ctx, rtHashKey(h))
	}
	pipe.Del(ctx, rtFamilyHashesKey(familyID))
	pipe.Del(ctx, rtFamilyKey(familyID))
	if userID != "" {
		pipe.SRem(ctx, rtUserKey(userID), familyID)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return err
	}
	return nil
}

func opaqueToken(nBytes int) (string, error) {
	buf := make([]byte, nBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func rtHashKey(hash string) string       { return "rt:token:" + hash }
func rtFamilyKey(id string) string       { return "rt:family:" + id }
func rtFamilyHashesKey(id string) string { return "rt:family_tokens:" + id }
func rtUserKey(userID string) string     { return "rt:user:" + userID }
