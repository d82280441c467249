package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/smokyabdulrahman/passerby/internal/location"
)

const (
	redisKey     = "passerby:" + Key
	redisChannel = "passerby:" + Key + ":changes"
)

// RedisStore keeps the record under one Redis key and announces every save
// on a pub/sub channel.
type RedisStore struct {
	rdb    *redis.Client
	origin string
	log    zerolog.Logger
}

var _ LocationStore = (*RedisStore)(nil)

// NewRedisStore connects and pings the server.
func NewRedisStore(ctx context.Context, opts *redis.Options, origin string, log zerolog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	log.Info().Str("addr", opts.Addr).Msg("connected to redis")

	return &RedisStore{rdb: rdb, origin: origin, log: log}, nil
}

func (s *RedisStore) Load(ctx context.Context) (location.Location, bool, error) {
	data, err := s.rdb.Get(ctx, redisKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return location.Location{}, false, nil
	}
	if err != nil {
		return location.Location{}, false, fmt.Errorf("load location: %w", err)
	}

	rec, err := decodeRecord(data)
	if err != nil {
		return location.Location{}, false, err
	}
	return rec.Location, true, nil
}

func (s *RedisStore) Save(ctx context.Context, loc location.Location) error {
	data, err := encodeRecord(s.origin, loc)
	if err != nil {
		return err
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, redisKey, data, 0)
		pipe.Publish(ctx, redisChannel, data)
		return nil
	})
	if err != nil {
		return fmt.Errorf("save location: %w", err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context) error {
	if err := s.rdb.Del(ctx, redisKey).Err(); err != nil {
		return fmt.Errorf("delete location: %w", err)
	}
	return nil
}

func (s *RedisStore) Watch(ctx context.Context) (<-chan location.Location, error) {
	sub := s.rdb.Subscribe(ctx, redisChannel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", redisChannel, err)
	}

	out := make(chan location.Location)
	go func() {
		defer close(out)
		defer sub.Close()

		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				rec, err := decodeRecord([]byte(msg.Payload))
				if err != nil {
					s.log.Warn().Err(err).Msg("ignoring unreadable location change")
					continue
				}
				if rec.Origin == s.origin {
					continue
				}
				select {
				case out <- rec.Location:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, nil
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}
