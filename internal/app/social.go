package app

import (
	"fmt"

	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

// Follow adds a follower edge. The returned bool is false when the edge
// already existed, which handlers report as "Already following".
func (a *App) Follow(followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}
	if _, found, err := a.store.GetUserByID(followingID); err != nil {
		return false, fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return false, notFound("User not found")
	}
	created, err := a.store.CreateFollow(followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("create follow: %w", err)
	}
	return created, nil
}

// Unfollow removes a follower edge; a missing edge is an error.
func (a *App) Unfollow(followerID, followingID string) error {
	if followerID == followingID {
		return ErrSelfFollow
	}
	if _, found, err := a.store.GetUserByID(followingID); err != nil {
		return fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return notFound("User not found")
	}
	deleted, err := a.store.DeleteFollow(followerID, followingID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	if !deleted {
		return ErrNotFollowing
	}
	return nil
}

// Block adds a block edge. The returned bool is false when the edge already
// existed, which handlers report as "Already blocked.".
func (a *App) Block(blockerID, blockedID string) (bool, error) {
	if blockerID == blockedID {
		return false, ErrSelfBlock
	}
	if _, found, err := a.store.GetUserByID(blockedID); err != nil {
		return false, fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return false, notFound("User not found.")
	}
	created, err := a.store.CreateBlock(blockerID, blockedID)
	if err != nil {
		return false, fmt.Errorf("create block: %w", err)
	}
	return created, nil
}

// Unblock removes a block edge; a missing edge is an error.
func (a *App) Unblock(blockerID, blockedID string) error {
	if blockerID == blockedID {
		return ErrSelfBlock
	}
	if _, found, err := a.store.GetUserByID(blockedID); err != nil {
		return fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return notFound("User not found.")
	}
	deleted, err := a.store.DeleteBlock(blockerID, blockedID)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	if !deleted {
		return ErrNotBlocking
	}
	return nil
}

// FollowCounts returns follower/following totals for a musician account.
// Unauthenticated reads are allowed; a missing musician profile is a 404.
func (a *App) FollowCounts(userID string) (followers, following int, err error) {
	if _, found, err := a.store.GetUserByID(userID); err != nil {
		return 0, 0, fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return 0, 0, notFound("User not found")
	}
	if _, found, err := a.store.GetMusicianByUserID(userID); err != nil {
		return 0, 0, fmt.Errorf("fetch musician: %w", err)
	} else if !found {
		return 0, 0, notFound("Musician profile not found")
	}
	followers, following, err = a.store.FollowCounts(userID)
	if err != nil {
		return 0, 0, fmt.Errorf("count follows: %w", err)
	}
	return followers, following, nil
}

// FollowList returns one side of a user's follow graph, excluding anyone who
// blocked the requester.
func (a *App) FollowList(userID, requesterID, listType string, page store.Page) ([]domain.User, int, error) {
	if _, found, err := a.store.GetUserByID(userID); err != nil {
		return nil, 0, fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return nil, 0, notFound("User not found")
	}
	switch listType {
	case "followers":
		return a.store.ListFollowers(userID, requesterID, page)
	case "following":
		return a.store.ListFollowing(userID, requesterID, page)
	default:
		return nil, 0, FieldErrors{"type": "Must be followers or following."}
	}
}

// BlockList returns the users a user has blocked.
func (a *App) BlockList(userID string, page store.Page) ([]domain.User, int, error) {
	if _, found, err := a.store.GetUserByID(userID); err != nil {
		return nil, 0, fmt.Errorf("fetch user: %w", err)
	} else if !found {
		return nil, 0, notFound("User not found")
	}
	return a.store.ListBlocked(userID, page)
}

// Discover searches musicians by username substring plus instrument and
// genre filters. Musicians who blocked the viewer are excluded and the
// viewer's followings rank first.
func (a *App) Discover(viewerID string, filter store.MusicianFilter, page store.Page) ([]domain.User, int, error) {
	filter.ViewerID = viewerID
	return a.store.SearchMusicians(filter, page)
}
