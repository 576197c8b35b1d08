package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// Redis key 前缀
	roomKeyPrefix = "room:"

	// 统计计数器
	statsGamesStartedKey = "stats:games_started"
	statsResultKeyPrefix = "stats:result:"

	// 房间镜像过期时间
	roomExpiration = 2 * time.Hour
)

// RoomData 房间数据（用于 Redis 序列化）。
// 镜像只用于观测与崩溃后排查，权威状态始终在进程内。
type RoomData struct {
	ID        string       `json:"id"`
	Mode      string       `json:"mode"`
	Players   []PlayerData `json:"players"`
	Position  string       `json:"position"`
	Turn      string       `json:"turn"`
	Started   bool         `json:"started"`
	Ended     string       `json:"ended,omitempty"`
	CreatedAt int64        `json:"created_at"`
}

// PlayerData 玩家数据
type PlayerData struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// RedisStore Redis 存储
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// --- 房间镜像 ---

// SaveRoom 保存房间快照到 Redis
func (rs *RedisStore) SaveRoom(ctx context.Context, data *RoomData) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("序列化房间数据失败: %w", err)
	}

	key := roomKeyPrefix + data.ID
	return rs.client.Set(ctx, key, jsonData, roomExpiration).Err()
}

// LoadRoom 从 Redis 加载房间快照，不存在时返回 nil
func (rs *RedisStore) LoadRoom(ctx context.Context, roomID string) (*RoomData, error) {
	key := roomKeyPrefix + roomID
	data, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // 房间不存在
		}
		return nil, err
	}

	var roomData RoomData
	if err := json.Unmarshal(data, &roomData); err != nil {
		return nil, fmt.Errorf("反序列化房间数据失败: %w", err)
	}

	return &roomData, nil
}

// DeleteRoom 从 Redis 删除房间快照
func (rs *RedisStore) DeleteRoom(ctx context.Context, roomID string) error {
	key := roomKeyPrefix + roomID
	return rs.client.Del(ctx, key).Err()
}

// --- 统计计数 ---

// IncrGamesStarted 累加开局计数
func (rs *RedisStore) IncrGamesStarted(ctx context.Context) error {
	return rs.client.Incr(ctx, statsGamesStartedKey).Err()
}

// RecordResult 按终局类型累加计数
func (rs *RedisStore) RecordResult(ctx context.Context, result string) error {
	return rs.client.Incr(ctx, statsResultKeyPrefix+result).Err()
}

// GamesStarted 读取开局计数
func (rs *RedisStore) GamesStarted(ctx context.Context) (int64, error) {
	n, err := rs.client.Get(ctx, statsGamesStartedKey).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}

// ResultCount 读取指定终局类型的计数
func (rs *RedisStore) ResultCount(ctx context.Context, result string) (int64, error) {
	n, err := rs.client.Get(ctx, statsResultKeyPrefix+result).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return n, err
}
