package redisstore

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-recovery-api/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	hashKey             = "key"
	hashEmailCode       = "email_code"
	hashPhoneCode       = "phone_code"
	hashEmailExpiration = "email_expiration"
	hashPhoneExpiration = "phone_expiration"
)

// rotateKeyLua swaps the recovery key only while key, code and expiration still match.
// KEYS[1] = verification hash
// ARGV[1] = expected key
// ARGV[2] = code field, ARGV[3] = expected code
// ARGV[4] = expiration field, ARGV[5] = not-before unix seconds
// ARGV[6] = new key
// ARGV[7] = "1" to delete the code field
var rotateKeyLua = redis.NewScript(`
local v = redis.call('HMGET', KEYS[1], 'key', ARGV[2], ARGV[4])
if not v[1] or v[1] ~= ARGV[1] then
  return {err='conflict'}
end
if not v[2] or v[2] ~= ARGV[3] then
  return {err='conflict'}
end
if not v[3] or tonumber(v[3]) < tonumber(ARGV[5]) then
  return {err='conflict'}
end
redis.call('HSET', KEYS[1], 'key', ARGV[6])
if ARGV[7] == '1' then
  redis.call('HDEL', KEYS[1], ARGV[2])
end
return 1
`)

// UserStore keeps verification records in one Redis hash per user.
type UserStore struct {
	redis  redis.UniversalClient
	prefix string
}

func NewUserStore(client redis.UniversalClient, prefix string) *UserStore {
	if prefix == "" {
		prefix = "recovery"
	}
	return &UserStore{redis: client, prefix: prefix}
}

func (s *UserStore) key(userID string) string {
	return s.prefix + ":user:" + userID + ":verification"
}

// PutVerification replaces the stored verification record for userID.
func (s *UserStore) PutVerification(ctx context.Context, userID string, v domain.VerificationRecord) error {
	k := s.key(userID)
	_, err := s.redis.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, k)
		p.HSet(ctx, k,
			hashKey, v.Key,
			hashEmailCode, v.EmailCode,
			hashPhoneCode, v.PhoneCode,
			hashEmailExpiration, v.EmailExpiration,
			hashPhoneExpiration, v.PhoneExpiration,
		)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put verification: %w", err)
	}
	return nil
}

// GetVerification returns the stored record or an error wrapping domain.ErrNotFound.
func (s *UserStore) GetVerification(ctx context.Context, userID string) (domain.VerificationRecord, error) {
	var v domain.VerificationRecord
	fields, err := s.redis.HGetAll(ctx, s.key(userID)).Result()
	if err != nil {
		return v, fmt.Errorf("get verification: %w", err)
	}
	if len(fields) == 0 {
		return v, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	v.Key = fields[hashKey]
	v.EmailCode = fields[hashEmailCode]
	v.PhoneCode = fields[hashPhoneCode]
	if v.EmailExpiration, err = parseUnix(fields[hashEmailExpiration]); err != nil {
		return v, err
	}
	if v.PhoneExpiration, err = parseUnix(fields[hashPhoneExpiration]); err != nil {
		return v, err
	}
	return v, nil
}

func (s *UserStore) FindForRecovery(ctx context.Context, m domain.RecoveryMatch) (*domain.User, error) {
	v, err := s.GetVerification(ctx, m.UserID)
	if err != nil {
		return nil, err
	}
	keyOK := v.Key != "" && subtle.ConstantTimeCompare([]byte(v.Key), []byte(m.Key)) == 1
	code := v.Code(m.Channel)
	codeOK := code != "" && subtle.ConstantTimeCompare([]byte(code), []byte(m.Code)) == 1
	if !keyOK || !codeOK {
		return nil, fmt.Errorf("recovery record mismatch: %w", domain.ErrNotFound)
	}
	return &domain.User{UserID: m.UserID, Verification: v}, nil
}

func (s *UserStore) RotateRecoveryKey(ctx context.Context, r domain.KeyRotation) error {
	consume := "0"
	if r.ConsumeCode {
		consume = "1"
	}
	err := rotateKeyLua.Run(ctx, s.redis,
		[]string{s.key(r.UserID)},
		r.OldKey,
		r.Channel.CodeField(),
		r.Code,
		r.Channel.ExpirationField(),
		r.NotBefore,
		r.NewKey,
		consume,
	).Err()
	if err != nil {
		if strings.Contains(err.Error(), "conflict") {
			return fmt.Errorf("recovery key changed concurrently: %w", domain.ErrConflict)
		}
		return fmt.Errorf("rotate recovery key: %w", err)
	}
	return nil
}

func parseUnix(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse expiration %q: %w", s, err)
	}
	return n, nil
}
