package queue

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	ikeys "github.com/jackieit/queue-go/internal/keys"
)

const (
	defaultTTR = 300 * time.Second

	// movingLockTTL bounds the recovery sweep to once per second per channel,
	// across every consumer process. The lock value is opaque; it self-expires.
	movingLockTTL = time.Second

	// removeLockPoll is kept below movingLockTTL so Remove observes a released
	// or expired lock promptly.
	removeLockPoll = 200 * time.Millisecond
)

// Message is a reserved job as handed to a consumer: the channel-unique id,
// the self-describing payload, the time-to-reserve read from the record, and
// the total number of reservations so far (this one included).
type Message struct {
	ID       uint64
	Payload  []byte
	TTR      time.Duration
	Attempts int64
}

// Queue owns one channel's state in Redis. All state lives under keys
// prefixed "<channel>.", so any number of producers and consumers may share a
// channel through the same store. A Queue holds no connection state of its
// own; it is safe to share across goroutines as long as each reserved message
// is retired by exactly one of them.
type Queue struct {
	channel     string
	rdb         redis.UniversalClient
	keys        ikeys.Channel
	ttr         time.Duration
	delay       time.Duration
	maxAttempts int64
	registry    *Registry
	log         Logger
}

// New creates a queue for the named channel on the given Redis client.
// Defaults: ttr 300s, no delay, max attempts 1 (advisory), a fresh Registry,
// and a silent logger.
func New(channel string, rdb redis.UniversalClient, opts ...Option) *Queue {
	cfg := &options{
		ttr:         defaultTTR,
		maxAttempts: 1,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.registry == nil {
		cfg.registry = NewRegistry()
	}
	if cfg.logger == nil {
		cfg.logger = nopLogger{}
	}
	return &Queue{
		channel:     channel,
		rdb:         rdb,
		keys:        ikeys.For(channel),
		ttr:         cfg.ttr,
		delay:       cfg.delay,
		maxAttempts: cfg.maxAttempts,
		registry:    cfg.registry,
		log:         cfg.logger,
	}
}

// Channel returns the channel name.
func (q *Queue) Channel() string { return q.channel }

// Registry returns the job registry used for payload encoding and decoding.
func (q *Queue) Registry() *Registry { return q.registry }

// MaxAttempts returns the advisory reservation cutoff. The queue never
// enforces it; compare it against Message.Attempts to apply a policy.
func (q *Queue) MaxAttempts() int64 { return q.maxAttempts }

// Push serializes the job, assigns it the next message id on the channel and
// makes it visible: immediately on the waiting list, or in the delayed set
// when the queue was built with a delay. It returns the new id.
func (q *Queue) Push(ctx context.Context, j Job) (uint64, error) {
	payload, err := q.registry.Marshal(j)
	if err != nil {
		return 0, err
	}

	id, err := q.rdb.Incr(ctx, q.keys.MessageID).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: next message id: %w", err)
	}
	field := strconv.FormatInt(id, 10)

	record := strconv.FormatInt(int64(q.ttr/time.Second), 10) + ";" + string(payload)
	if err := q.rdb.HSet(ctx, q.keys.Messages, field, record).Err(); err != nil {
		return 0, fmt.Errorf("queue: store message %s: %w", field, err)
	}

	if q.delay > 0 {
		score := float64(time.Now().Add(q.delay).Unix())
		err = q.rdb.ZAdd(ctx, q.keys.Delayed, redis.Z{Score: score, Member: field}).Err()
	} else {
		err = q.rdb.LPush(ctx, q.keys.Waiting, field).Err()
	}
	if err != nil {
		return 0, fmt.Errorf("queue: enqueue message %s: %w", field, err)
	}
	q.log.Debugf("pushed job: channel=%s id=%s type=%s delay=%s", q.channel, field, j.Tag(), q.delay)
	return uint64(id), nil
}

// Reserve hands the next waiting job to the caller. It first tries to acquire
// the moving lock; the winner runs the recovery sweep that requeues past-due
// delayed jobs and expired reservations. It then pops an id from the waiting
// list: non-blocking when timeout is zero, otherwise blocking up to timeout.
//
// It returns ErrNoJob when nothing became available, and ErrInvalidTTR when
// the message record's ttr prefix does not parse (the record is left in the
// store for inspection).
func (q *Queue) Reserve(ctx context.Context, timeout time.Duration) (*Message, error) {
	locked, err := q.rdb.SetNX(ctx, q.keys.MovingLock, uuid.NewString(), movingLockTTL).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: acquire moving lock: %w", err)
	}
	if locked {
		if err := q.moveExpired(ctx, q.keys.Delayed); err != nil {
			return nil, err
		}
		if err := q.moveExpired(ctx, q.keys.Reserved); err != nil {
			return nil, err
		}
	}

	var field string
	if timeout == 0 {
		field, err = q.rdb.RPop(ctx, q.keys.Waiting).Result()
	} else {
		var popped []string
		popped, err = q.rdb.BRPop(ctx, timeout, q.keys.Waiting).Result()
		if err == nil {
			field = popped[1]
		}
	}
	if err == redis.Nil {
		return nil, ErrNoJob
	}
	if err != nil {
		return nil, fmt.Errorf("queue: pop waiting: %w", err)
	}
	id, err := strconv.ParseUint(field, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("queue: malformed waiting entry %q: %w", field, err)
	}

	record, err := q.rdb.HGet(ctx, q.keys.Messages, field).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: fetch message %s: %w", field, err)
	}

	// The record is "<ttr>;<payload>"; only the first ';' splits, the payload
	// may legally contain more.
	prefix, payload, found := strings.Cut(record, ";")
	if !found {
		return nil, fmt.Errorf("%w: message %s has no separator", ErrInvalidTTR, field)
	}
	ttrSec, err := strconv.ParseUint(prefix, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: message %s prefix %q", ErrInvalidTTR, field, prefix)
	}
	ttr := time.Duration(ttrSec) * time.Second

	expiry := float64(time.Now().Add(ttr).Unix())
	if err := q.rdb.ZAdd(ctx, q.keys.Reserved, redis.Z{Score: expiry, Member: field}).Err(); err != nil {
		return nil, fmt.Errorf("queue: mark reserved %s: %w", field, err)
	}
	attempts, err := q.rdb.HIncrBy(ctx, q.keys.Attempts, field, 1).Result()
	if err != nil {
		return nil, fmt.Errorf("queue: count attempt %s: %w", field, err)
	}
	q.log.Debugf("reserved job: channel=%s id=%s ttr=%s attempts=%d", q.channel, field, ttr, attempts)
	return &Message{ID: id, Payload: []byte(payload), TTR: ttr, Attempts: attempts}, nil
}

// HandleMessage decodes the payload by its embedded tag and executes the job.
// The outcome is logged and returned; queue state is untouched either way.
// Retiring the message after a successful run is the caller's responsibility
// (see Worker).
func (q *Queue) HandleMessage(ctx context.Context, m *Message) error {
	j, err := q.registry.Unmarshal(m.Payload)
	if err != nil {
		q.log.Errorf("decode job failed: channel=%s id=%d attempts=%d err=%v", q.channel, m.ID, m.Attempts, err)
		return err
	}
	if err := j.Execute(ctx); err != nil {
		q.log.Warnf("job failed: channel=%s id=%d type=%s ttr=%s attempts=%d err=%v",
			q.channel, m.ID, j.Tag(), m.TTR, m.Attempts, err)
		return fmt.Errorf("queue: execute job %q: %w", j.Tag(), err)
	}
	q.log.Infof("job done: channel=%s id=%d type=%s attempts=%d", q.channel, m.ID, j.Tag(), m.Attempts)
	return nil
}

// Delete retires a message after successful execution: the record, its
// attempts entry and its reservation are removed. Once the record is gone the
// id reports StatusDone.
func (q *Queue) Delete(ctx context.Context, id uint64) error {
	field := strconv.FormatUint(id, 10)
	if err := q.rdb.HDel(ctx, q.keys.Messages, field).Err(); err != nil {
		return fmt.Errorf("queue: delete message %s: %w", field, err)
	}
	if err := q.rdb.HDel(ctx, q.keys.Attempts, field).Err(); err != nil {
		return fmt.Errorf("queue: delete attempts %s: %w", field, err)
	}
	if err := q.rdb.ZRem(ctx, q.keys.Reserved, field).Err(); err != nil {
		return fmt.Errorf("queue: delete reservation %s: %w", field, err)
	}
	q.log.Debugf("deleted message: channel=%s id=%s", q.channel, field)
	return nil
}

// Remove cancels a message wherever it currently is. It blocks until it wins
// the moving lock (polling every 200ms, honoring ctx cancellation), then
// deletes the record and clears every set and list membership for the id. It
// reports whether a record was found.
//
// Removing an id that is currently reserved is best-effort: the in-flight
// execution is not interrupted, but the record is gone so the id will not be
// re-delivered after its reservation lapses.
func (q *Queue) Remove(ctx context.Context, id uint64) (bool, error) {
	for {
		locked, err := q.rdb.SetNX(ctx, q.keys.MovingLock, uuid.NewString(), movingLockTTL).Result()
		if err != nil {
			return false, fmt.Errorf("queue: acquire moving lock: %w", err)
		}
		if locked {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(removeLockPoll):
		}
	}

	field := strconv.FormatUint(id, 10)
	deleted, err := q.rdb.HDel(ctx, q.keys.Messages, field).Result()
	if err != nil {
		return false, fmt.Errorf("queue: delete message %s: %w", field, err)
	}
	if deleted == 0 {
		return false, nil
	}
	if err := q.rdb.ZRem(ctx, q.keys.Reserved, field).Err(); err != nil {
		return false, fmt.Errorf("queue: remove reservation %s: %w", field, err)
	}
	if err := q.rdb.ZRem(ctx, q.keys.Delayed, field).Err(); err != nil {
		return false, fmt.Errorf("queue: remove delayed %s: %w", field, err)
	}
	if err := q.rdb.LRem(ctx, q.keys.Waiting, 0, field).Err(); err != nil {
		return false, fmt.Errorf("queue: remove waiting %s: %w", field, err)
	}
	if err := q.rdb.HDel(ctx, q.keys.Attempts, field).Err(); err != nil {
		return false, fmt.Errorf("queue: remove attempts %s: %w", field, err)
	}
	q.log.Debugf("removed message: channel=%s id=%s", q.channel, field)
	return true, nil
}

// Status derives where the id is in its lifecycle. An attempts entry means
// RESERVED, otherwise a message record means WAITING, otherwise DONE. The
// attempts check comes first: an in-flight job whose record still exists
// reports RESERVED, not WAITING.
func (q *Queue) Status(ctx context.Context, id uint64) (Status, error) {
	field := strconv.FormatUint(id, 10)
	reserved, err := q.rdb.HExists(ctx, q.keys.Attempts, field).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: check attempts %s: %w", field, err)
	}
	if reserved {
		return StatusReserved, nil
	}
	waiting, err := q.rdb.HExists(ctx, q.keys.Messages, field).Result()
	if err != nil {
		return 0, fmt.Errorf("queue: check message %s: %w", field, err)
	}
	if waiting {
		return StatusWaiting, nil
	}
	return StatusDone, nil
}

// Clear deletes every key under the channel's namespace.
func (q *Queue) Clear(ctx context.Context) error {
	iter := q.rdb.Scan(ctx, 0, q.keys.Pattern, 100).Iterator()
	var found []string
	for iter.Next(ctx) {
		found = append(found, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("queue: scan %s: %w", q.keys.Pattern, err)
	}
	if len(found) == 0 {
		return nil
	}
	if err := q.rdb.Del(ctx, found...).Err(); err != nil {
		return fmt.Errorf("queue: clear %s: %w", q.channel, err)
	}
	q.log.Debugf("cleared channel: channel=%s keys=%d", q.channel, len(found))
	return nil
}

// moveExpired requeues every id in the named sorted set whose score is due:
// one range-read, one range-delete, then an RPush per id onto the waiting
// list. Running it on the delayed set releases due delayed jobs; on the
// reserved set it reclaims reservations whose ttr lapsed without a delete.
func (q *Queue) moveExpired(ctx context.Context, set string) error {
	now := strconv.FormatInt(time.Now().Unix(), 10)
	rng := &redis.ZRangeBy{Min: "-inf", Max: now}
	expired, err := q.rdb.ZRevRangeByScore(ctx, set, rng).Result()
	if err != nil {
		return fmt.Errorf("queue: read expired from %s: %w", set, err)
	}
	if err := q.rdb.ZRemRangeByScore(ctx, set, "-inf", now).Err(); err != nil {
		return fmt.Errorf("queue: trim expired from %s: %w", set, err)
	}
	for _, field := range expired {
		if err := q.rdb.RPush(ctx, q.keys.Waiting, field).Err(); err != nil {
			return fmt.Errorf("queue: requeue %s: %w", field, err)
		}
	}
	if len(expired) > 0 {
		q.log.Debugf("recovery sweep: channel=%s set=%s moved=%d", q.channel, set, len(expired))
	}
	return nil
}
