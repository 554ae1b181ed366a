package presence

import (
	"context"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

const activeUsersKey = "online_users"

// RedisMirror keeps the shared online-user set in Redis.
type RedisMirror struct {
	client *redis.Client
}

func NewRedisMirror(client *redis.Client) *RedisMirror {
	return &RedisMirror{client: client}
}

func (m *RedisMirror) AddActiveUser(userID uuid.UUID) error {
	return m.client.SAdd(context.Background(), activeUsersKey, userID.String()).Err()
}

func (m *RedisMirror) RemoveActiveUser(userID uuid.UUID) error {
	return m.client.SRem(context.Background(), activeUsersKey, userID.String()).Err()
}

// ActiveUsers lists the mirrored online user ids.
func (m *RedisMirror) ActiveUsers() ([]string, error) {
	return m.client.SMembers(context.Background(), activeUsersKey).Result()
}
