package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// PresenceStore mirrors hub registrations into Redis so other services
// (and other instances) can see who is online.
// Keys:
// - <prefix>:conn:<userID>     set of client IDs
// - <prefix>:presence:<userID> json {status,last_seen}
type PresenceStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewPresenceStore(client *redis.Client, prefix string, ttl time.Duration) *PresenceStore {
	if ttl == 0 {
		ttl = 5 * time.Minute
	}
	return &PresenceStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *PresenceStore) connKey(userID string) string {
	return fmt.Sprintf("%s:conn:%s", s.prefix, userID)
}

func (s *PresenceStore) presenceKey(userID string) string {
	return fmt.Sprintf("%s:presence:%s", s.prefix, userID)
}

// AddConnection registers a client ID and marks the user online.
func (s *PresenceStore) AddConnection(ctx context.Context, userID, clientID string) error {
	if err := s.client.SAdd(ctx, s.connKey(userID), clientID).Err(); err != nil {
		return err
	}
	_ = s.client.Expire(ctx, s.connKey(userID), s.ttl).Err()

	pres, _ := json.Marshal(map[string]any{"status": "online", "last_seen": time.Now().Unix()})
	return s.client.Set(ctx, s.presenceKey(userID), pres, s.ttl).Err()
}

// RemoveConnection drops a client ID; when it was the user's last
// connection the user is marked offline.
func (s *PresenceStore) RemoveConnection(ctx context.Context, userID, clientID string, lastConn bool) error {
	if err := s.client.SRem(ctx, s.connKey(userID), clientID).Err(); err != nil {
		return err
	}
	if !lastConn {
		return nil
	}

	pres, _ := json.Marshal(map[string]any{"status": "offline", "last_seen": time.Now().Unix()})
	return s.client.Set(ctx, s.presenceKey(userID), pres, 0).Err()
}

// GetPresence returns the raw presence document for a user.
func (s *PresenceStore) GetPresence(ctx context.Context, userID string) (map[string]any, error) {
	b, err := s.client.Get(ctx, s.presenceKey(userID)).Bytes()
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
