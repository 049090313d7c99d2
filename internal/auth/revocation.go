package auth

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList tracks revoked token IDs in Redis. Logout and account
// deletion revoke the presented token's jti until its natural expiry;
// everything else about the token stays stateless.
type RevocationList struct {
	rdb *redis.Client
}

func NewRevocationList(rdb *redis.Client) *RevocationList {
	return &RevocationList{rdb: rdb}
}

// Revoke marks a token ID as revoked until the given expiry.
func (l *RevocationList) Revoke(ctx context.Context, tokenID string, expires time.Time) error {
	ttl := time.Until(expires)
	if ttl <= 0 {
		return nil // already expired, nothing to track
	}
	return l.rdb.Set(ctx, "revoked:"+tokenID, "1", ttl).Err()
}

// IsRevoked reports whether a token ID has been revoked.
func (l *RevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, err := l.rdb.Get(ctx, "revoked:"+tokenID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
