package infra

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bounded-buffer/coordination/slots/domain"

	"github.com/redis/go-redis/v9"
)

type RedisStatsStore struct {
	rdb *redis.Client

	prefix string
	// ttl aplica apenas em chaves de série temporal / por worker.
	// total é cumulativo e não expira.
	ttl time.Duration

	bucket string // "minute" (padrão) ou "none"

	trackWorkers bool
}

type RedisStatsOption func(*RedisStatsStore)

func WithStatsPrefix(prefix string) RedisStatsOption {
	return func(s *RedisStatsStore) {
		s.prefix = strings.Trim(prefix, ":")
	}
}

func WithStatsTTL(d time.Duration) RedisStatsOption {
	return func(s *RedisStatsStore) { s.ttl = d }
}

func WithStatsBucket(bucket string) RedisStatsOption {
	return func(s *RedisStatsStore) { s.bucket = strings.ToLower(strings.TrimSpace(bucket)) }
}

func WithStatsTrackWorkers(track bool) RedisStatsOption {
	return func(s *RedisStatsStore) { s.trackWorkers = track }
}

func NewRedisStatsStore(rdb *redis.Client, opts ...RedisStatsOption) *RedisStatsStore {
	s := &RedisStatsStore{
		rdb:    rdb,
		prefix: "slots:stats",
		ttl:    24 * time.Hour,
		bucket: "minute",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// statsKeys são os hashes tocados por um evento. Bucket/Worker vazios = não gravar.
type statsKeys struct {
	Total  string
	Bucket string
	Worker string
}

// keysFor monta o layout:
//
//	<prefix>:<coordinator>:total          produced/consumed cumulativos + último filled
//	<prefix>:<coordinator>:minute:<yyyymmddhhmm>
//	<prefix>:<coordinator>:worker:<role>-<id>   (se trackWorkers)
func (s *RedisStatsStore) keysFor(ev domain.StatsEvent, at time.Time) statsKeys {
	base := s.keyBase(ev.Coordinator)
	k := statsKeys{Total: base + ":total"}
	if s.bucket == "minute" {
		k.Bucket = fmt.Sprintf("%s:minute:%s", base, at.UTC().Format("200601021504"))
	}
	if s.trackWorkers {
		k.Worker = base + ":worker:" + workerKey(ev.Role, ev.Worker)
	}
	return k
}

// Record incrementa os contadores do evento em um único pipeline.
func (s *RedisStatsStore) Record(ctx context.Context, ev domain.StatsEvent) error {
	if s == nil || s.rdb == nil {
		return nil
	}

	at := ev.At
	if at.IsZero() {
		at = time.Now()
	}

	field := statsField(ev.Role)
	if field == "" {
		return nil
	}
	keys := s.keysFor(ev, at)

	pipe := s.rdb.Pipeline()
	pipe.HIncrBy(ctx, keys.Total, field, 1)
	pipe.HSet(ctx, keys.Total, "filled", ev.Filled)

	for _, key := range []string{keys.Bucket, keys.Worker} {
		if key == "" {
			continue
		}
		pipe.HIncrBy(ctx, key, field, 1)
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
		}
	}

	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStatsStore) keyBase(coordinator string) string {
	name := strings.Trim(strings.TrimSpace(coordinator), "/")
	if name == "" {
		return s.prefix
	}
	return s.prefix + ":" + name
}

func statsField(role domain.Role) string {
	switch role {
	case domain.Producer:
		return "produced"
	case domain.Consumer:
		return "consumed"
	default:
		return ""
	}
}
