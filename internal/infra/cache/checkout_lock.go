package cache

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// 自分のトークンのときだけ消す
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// ユーザーごとのチェックアウト二重送信ガード。
// 正しさはDBトランザクション（カート行ロック）が担保するので、ここは早期リジェクトだけ
type RedisCheckoutLock struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCheckoutLock(client *redis.Client, ttl time.Duration) *RedisCheckoutLock {
	return &RedisCheckoutLock{client: client, ttl: ttl}
}

func checkoutLockKey(userID string) string {
	return "checkout:lock:" + userID
}

// 取れなければ ok=false。release は取れたときだけ非nil
func (l *RedisCheckoutLock) Acquire(ctx context.Context, userID string) (func(context.Context) error, bool, error) {
	token := uuid.NewString()
	key := checkoutLockKey(userID)

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	release := func(ctx context.Context) error {
		err := releaseScript.Run(ctx, l.client, []string{key}, token).Err()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return err
	}
	return release, true, nil
}
