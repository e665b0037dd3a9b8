// Copyright (c) 2026 Newsletter2Paper. All rights reserved.
// Author: hello@newsletter2paper.app

package draft

import "context"

// Repository defines the persistence operations for per-session drafts.
type Repository interface {
	/*
		Load returns the working state for a session key.

		A missing document yields defaults. A corrupt document is logged and
		also yields defaults; working state is reconstructible, so corruption
		is never fatal.

		Parameters:
		  - context: Request context for cancellation
		  - key: Session key (user ID or guest token)

		Returns:
		  - *State: Stored or default working state, never nil on success
		  - error: Backend connectivity errors only
	*/
	Load(context context.Context, key string) (*State, error)

	/*
		Save persists the working state for a session key, refreshing its TTL.
	*/
	Save(context context.Context, key string, state *State) error

	/*
		Clear deletes the session's documents. Used on reset and sign-out.
	*/
	Clear(context context.Context, key string) error
}
