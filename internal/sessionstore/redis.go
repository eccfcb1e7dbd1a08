package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// KeyPrefix is the key prefix for stored credentials.
const KeyPrefix = "aorify:session:"

// RedisStore keeps the credential under a per-project key. The key expires
// together with the session when the expiry is known.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(client *redis.Client, projectID string) *RedisStore {
	return &RedisStore{client: client, key: KeyPrefix + projectID}
}

func (s *RedisStore) Load(ctx context.Context) (*Credential, error) {
	data, err := s.client.Get(ctx, s.key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		log.WithField("key", s.key).WithError(err).Error("load credential failed")
		return nil, fmt.Errorf("get session credential: %w", err)
	}

	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, fmt.Errorf("decode session credential: %w", err)
	}
	if cred.Expired(time.Now()) {
		return nil, nil
	}
	return &cred, nil
}

func (s *RedisStore) Save(ctx context.Context, cred Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("encode session credential: %w", err)
	}

	var ttl time.Duration
	if !cred.Expire.IsZero() {
		ttl = time.Until(cred.Expire)
		if ttl <= 0 {
			return s.Clear(ctx)
		}
	}

	if err := s.client.Set(ctx, s.key, data, ttl).Err(); err != nil {
		log.WithField("key", s.key).WithError(err).Error("save credential failed")
		return fmt.Errorf("set session credential: %w", err)
	}
	log.WithFields(logrus.Fields{"key": s.key, "ttl": ttl}).Debug("credential saved")
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("delete session credential: %w", err)
	}
	return nil
}
