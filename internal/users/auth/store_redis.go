// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
)

// # Magic Token Repository

// RedisMagicTokenRepository implements MagicTokenRepository using Redis.
type RedisMagicTokenRepository struct {
	client *redis.Client
}

// NewMagicTokenRepository creates a new Redis-backed MagicTokenRepository.
func NewMagicTokenRepository(client *redis.Client) *RedisMagicTokenRepository {
	return &RedisMagicTokenRepository{client: client}
}

/*
Set stores a magic-link token with its associated email and TTL.

Parameters:
  - context: context.Context
  - token: string
  - email: string
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisMagicTokenRepository) Set(context context.Context, token string, email string, ttl time.Duration) error {
	key := constants.RedisPrefixMagicToken + token

	if err := repository.client.Set(context, key, email, ttl).Err(); err != nil {
		return fmt.Errorf("redis_magic_token_set_failed: %w", err)
	}
	return nil
}

/*
Get retrieves the email for a given token.

Description: Returns apperr.NotFound if the token is absent or expired.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - string: Email the link was issued for
  - error: apperr.NotFound or connectivity errors
*/
func (repository *RedisMagicTokenRepository) Get(context context.Context, token string) (string, error) {
	key := constants.RedisPrefixMagicToken + token

	email, err := repository.client.Get(context, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperr.NotFound("Sign-in link is invalid or expired")
		}
		return "", fmt.Errorf("redis_magic_token_get_failed: %w", err)
	}

	return email, nil
}

/*
Delete removes the token from Redis, making the link single-use.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisMagicTokenRepository) Delete(context context.Context, token string) error {
	key := constants.RedisPrefixMagicToken + token

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_magic_token_delete_failed: %w", err)
	}
	return nil
}

// # Guest Session Repository

// RedisGuestSessionRepository implements GuestSessionRepository using Redis.
type RedisGuestSessionRepository struct {
	client *redis.Client
}

// NewGuestSessionRepository creates a new Redis-backed GuestSessionRepository.
func NewGuestSessionRepository(client *redis.Client) *RedisGuestSessionRepository {
	return &RedisGuestSessionRepository{client: client}
}

/*
Issue stores a fresh guest-session token.

Description: The value is the issue timestamp; presence of the key is what
matters. The TTL matches the draft TTL so the session and its draft expire
together.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Storage failures
*/
func (repository *RedisGuestSessionRepository) Issue(context context.Context, token string) error {
	key := constants.RedisPrefixGuestSession + token

	if err := repository.client.Set(context, key, time.Now().Format(time.RFC3339), constants.GuestSessionTTL).Err(); err != nil {
		return fmt.Errorf("redis_guest_session_set_failed: %w", err)
	}
	return nil
}

/*
Delete removes a guest session after it has been adopted into an account.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Deletion failures
*/
func (repository *RedisGuestSessionRepository) Delete(context context.Context, token string) error {
	key := constants.RedisPrefixGuestSession + token

	if err := repository.client.Del(context, key).Err(); err != nil {
		return fmt.Errorf("redis_guest_session_delete_failed: %w", err)
	}
	return nil
}
