// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/apchapcomputing/newsletter2paper/internal/platform/apperr"
	"github.com/apchapcomputing/newsletter2paper/internal/platform/constants"
)

// RedisRepository implements the Repository interface over two Redis
// documents per session: the draft fields and the selection list.
type RedisRepository struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisRepository creates a new Redis implementation of the Repository.
func NewRedisRepository(client *redis.Client, logger *slog.Logger) *RedisRepository {
	return &RedisRepository{client: client, logger: logger}
}

func draftKey(key string) string     { return constants.RedisPrefixDraft + key }
func selectionKey(key string) string { return constants.RedisPrefixSelection + key }

/*
Load reads both documents, treating absence and corruption as defaults.
*/
func (repository *RedisRepository) Load(context context.Context, key string) (*State, error) {
	state := DefaultState()

	raw, err := repository.client.Get(context, draftKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		// New session, defaults stand.
	case err != nil:
		return nil, apperr.Internal(err)
	default:
		if unmarshalErr := json.Unmarshal(raw, &state.Draft); unmarshalErr != nil {
			repository.logger.WarnContext(context, "draft_document_corrupt",
				slog.String("session_key", key),
				slog.String("error", unmarshalErr.Error()),
			)
			state.Draft = DefaultDraft()
		}
	}

	raw, err = repository.client.Get(context, selectionKey(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		// No selection yet.
	case err != nil:
		return nil, apperr.Internal(err)
	default:
		var entries []Entry
		if unmarshalErr := json.Unmarshal(raw, &entries); unmarshalErr != nil {
			repository.logger.WarnContext(context, "selection_document_corrupt",
				slog.String("session_key", key),
				slog.String("error", unmarshalErr.Error()),
			)
			entries = nil
		}
		// Rebuilding through the set drops duplicates a bad write left behind.
		state.Selection = NewSelectionSet(entries).Items()
	}

	return state, nil
}

/*
Save writes both documents and refreshes their TTL.
*/
func (repository *RedisRepository) Save(context context.Context, key string, state *State) error {
	draftRaw, err := json.Marshal(state.Draft)
	if err != nil {
		return apperr.Internal(err)
	}
	selectionRaw, err := json.Marshal(state.Selection)
	if err != nil {
		return apperr.Internal(err)
	}

	pipeline := repository.client.TxPipeline()
	pipeline.Set(context, draftKey(key), draftRaw, constants.DraftTTL)
	pipeline.Set(context, selectionKey(key), selectionRaw, constants.DraftTTL)
	if _, err := pipeline.Exec(context); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

/*
Clear deletes both documents.
*/
func (repository *RedisRepository) Clear(context context.Context, key string) error {
	if err := repository.client.Del(context, draftKey(key), selectionKey(key)).Err(); err != nil {
		return apperr.Internal(err)
	}
	return nil
}
