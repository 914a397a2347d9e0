package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"savvynote/internal/util"
	"savvynote/pkg/domain"
	"savvynote/pkg/store"
)

const (
	maxPostFiles  = 10
	maxCaptionLen = 500

	presignExpiry = 15 * time.Minute
)

// UploadFile is one multipart file ready to stream into object storage.
type UploadFile struct {
	Reader      io.Reader
	Size        int64
	ContentType string
}

// PostView decorates a post with presigned media URLs and its like count.
type PostView struct {
	domain.Post
	FileURLs  []string `json:"file_urls"`
	LikeCount int      `json:"like_count"`
}

// CreatePost uploads the attached media and writes the post plus its tagged
// users in one transaction.
func (a *App) CreatePost(ctx context.Context, ownerID, caption string, taggedUserIDs []string, files []UploadFile) (domain.Post, error) {
	if len(files) > maxPostFiles {
		return domain.Post{}, ErrTooManyFiles
	}
	if len(caption) > maxCaptionLen {
		return domain.Post{}, ErrCaptionTooLong
	}
	tagged := make([]domain.TaggedUser, 0, len(taggedUserIDs))
	for _, id := range taggedUserIDs {
		if _, found, err := a.store.GetUserByID(id); err != nil {
			return domain.Post{}, fmt.Errorf("fetch tagged user: %w", err)
		} else if !found {
			return domain.Post{}, notFound("User not found")
		}
		tagged = append(tagged, domain.TaggedUser{UserID: id})
	}
	keys, types, err := a.uploadAll(ctx, ownerID, files)
	if err != nil {
		return domain.Post{}, err
	}
	post := domain.Post{
		ID:          util.NewID(),
		OwnerID:     ownerID,
		FileKeys:    keys,
		FileTypes:   types,
		Caption:     strings.TrimSpace(caption),
		TaggedUsers: tagged,
		CreatedAt:   a.now().UTC(),
	}
	if err := a.store.CreatePost(post); err != nil {
		return domain.Post{}, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// DeletePost removes a post and its children; only the owner may delete.
func (a *App) DeletePost(ctx context.Context, requesterID, postID string) error {
	post, found, err := a.store.GetPost(postID)
	if err != nil {
		return fmt.Errorf("fetch post: %w", err)
	}
	if !found {
		return notFound("Post not found")
	}
	if post.OwnerID != requesterID {
		return forbidden("You can only delete your own posts.")
	}
	for _, key := range post.FileKeys {
		if err := a.objects.Delete(ctx, key); err != nil {
			return fmt.Errorf("delete object: %w", err)
		}
	}
	return a.store.DeletePost(postID)
}

// PostsByUsername returns a user's non-banned posts, newest first.
func (a *App) PostsByUsername(ctx context.Context, username string, page store.Page) ([]PostView, int, error) {
	user, found, err := a.store.GetUserByUsername(strings.TrimSpace(username))
	if err != nil {
		return nil, 0, fmt.Errorf("fetch user: %w", err)
	}
	if !found {
		return nil, 0, notFound("User not found")
	}
	posts, total, err := a.store.ListPostsByOwner(user.ID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list posts: %w", err)
	}
	views, err := a.presentPosts(ctx, posts)
	return views, total, err
}

// Feed returns the viewer's feed, newest first. The viewer's own posts,
// anything they hid or reported, and all banned posts are excluded.
func (a *App) Feed(ctx context.Context, viewerID string, page store.Page) ([]PostView, int, error) {
	posts, total, err := a.store.ListFeed(viewerID, page)
	if err != nil {
		return nil, 0, fmt.Errorf("list feed: %w", err)
	}
	views, err := a.presentPosts(ctx, posts)
	return views, total, err
}

// BannedPosts lists posts under a moderation ban.
func (a *App) BannedPosts(ctx context.Context, page store.Page) ([]PostView, int, error) {
	posts, total, err := a.store.ListBannedPosts(page)
	if err != nil {
		return nil, 0, fmt.Errorf("list banned posts: %w", err)
	}
	views, err := a.presentPosts(ctx, posts)
	return views, total, err
}

// ReportedPosts lists open reports for moderation review.
func (a *App) ReportedPosts(page store.Page) ([]domain.Report, int, error) {
	return a.store.ListReports(page)
}

// LikePost records a like; the bool is false when the post was already liked.
func (a *App) LikePost(userID, postID string) (bool, error) {
	if err := a.requirePost(postID, "Post not found"); err != nil {
		return false, err
	}
	created, err := a.store.LikePost(userID, postID)
	if err != nil {
		return false, fmt.Errorf("like post: %w", err)
	}
	return created, nil
}

// UnlikePost removes a like; liking must have happened first.
func (a *App) UnlikePost(userID, postID string) error {
	if err := a.requirePost(postID, "Post not found"); err != nil {
		return err
	}
	deleted, err := a.store.UnlikePost(userID, postID)
	if err != nil {
		return fmt.Errorf("unlike post: %w", err)
	}
	if !deleted {
		return ErrNotLiked
	}
	return nil
}

// HidePost hides a post from the user's own feed.
func (a *App) HidePost(userID, postID string) error {
	if err := a.requirePost(postID, "Post not found, refresh the page"); err != nil {
		return err
	}
	created, err := a.store.HidePost(userID, postID)
	if err != nil {
		return fmt.Errorf("hide post: %w", err)
	}
	if !created {
		return ErrAlreadyHidden
	}
	return nil
}

// UnhidePost reverses HidePost.
func (a *App) UnhidePost(userID, postID string) error {
	if err := a.requirePost(postID, "Post not found, refresh the page"); err != nil {
		return err
	}
	deleted, err := a.store.UnhidePost(userID, postID)
	if err != nil {
		return fmt.Errorf("unhide post: %w", err)
	}
	if !deleted {
		return ErrNotHidden
	}
	return nil
}

// ReportPost files a report; each user may have one active report per post.
func (a *App) ReportPost(userID, postID, reason string) error {
	if err := a.requirePost(postID, "Post not found, refresh the page"); err != nil {
		return err
	}
	report := domain.Report{
		ID:           util.NewID(),
		UserID:       userID,
		PostID:       postID,
		ReportReason: strings.TrimSpace(reason),
		Status:       domain.ReportStatusReported,
		CreatedAt:    a.now().UTC(),
	}
	created, err := a.store.CreateReport(report)
	if err != nil {
		return fmt.Errorf("report post: %w", err)
	}
	if !created {
		return ErrAlreadyReported
	}
	return nil
}

// BanPost marks a post banned on behalf of an admin. Banning twice just adds
// the admin to the ban set.
func (a *App) BanPost(postID, adminID string) error {
	if err := a.requirePost(postID, "Post not found"); err != nil {
		return err
	}
	if _, found, err := a.store.GetUserByID(adminID); err != nil {
		return fmt.Errorf("fetch admin: %w", err)
	} else if !found {
		return notFound("User not found")
	}
	return a.store.BanPost(postID, adminID)
}

// UnbanPost lifts a ban and clears the admin set.
func (a *App) UnbanPost(postID string) error {
	if err := a.requirePost(postID, "Post not found"); err != nil {
		return err
	}
	return a.store.UnbanPost(postID)
}

// CreateComment adds a comment, threaded under replyTo when given.
func (a *App) CreateComment(userID, postID, text, replyTo string) (domain.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Comment{}, FieldErrors{"text": "This field is required."}
	}
	if err := a.requirePost(postID, "Post not found"); err != nil {
		return domain.Comment{}, err
	}
	if replyTo != "" {
		parent, found, err := a.store.GetComment(replyTo)
		if err != nil {
			return domain.Comment{}, fmt.Errorf("fetch parent comment: %w", err)
		}
		if !found || parent.PostID != postID {
			return domain.Comment{}, notFound("Comment not found")
		}
	}
	comment := domain.Comment{
		ID:        util.NewID(),
		UserID:    userID,
		PostID:    postID,
		Text:      text,
		ReplyTo:   replyTo,
		CreatedAt: a.now().UTC(),
	}
	if err := a.store.CreateComment(comment); err != nil {
		return domain.Comment{}, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// Comments lists a post's comments oldest first.
func (a *App) Comments(postID string, page store.Page) ([]domain.Comment, int, error) {
	if err := a.requirePost(postID, "Post not found"); err != nil {
		return nil, 0, err
	}
	return a.store.ListComments(postID, page)
}

// LikeComment records a comment like with the same toggle semantics as posts.
func (a *App) LikeComment(userID, commentID string) (bool, error) {
	if _, found, err := a.store.GetComment(commentID); err != nil {
		return false, fmt.Errorf("fetch comment: %w", err)
	} else if !found {
		return false, notFound("Comment not found")
	}
	created, err := a.store.LikeComment(userID, commentID)
	if err != nil {
		return false, fmt.Errorf("like comment: %w", err)
	}
	return created, nil
}

func (a *App) requirePost(postID, missingMessage string) error {
	_, found, err := a.store.GetPost(postID)
	if err != nil {
		return fmt.Errorf("fetch post: %w", err)
	}
	if !found {
		return notFound(missingMessage)
	}
	return nil
}

func (a *App) uploadAll(ctx context.Context, userID string, files []UploadFile) (keys, types []string, err error) {
	keys = make([]string, 0, len(files))
	types = make([]string, 0, len(files))
	for _, f := range files {
		key, err := a.objects.Upload(ctx, userID, f.Reader, f.Size, f.ContentType)
		if err != nil {
			return nil, nil, fmt.Errorf("upload file: %w", err)
		}
		keys = append(keys, key)
		types = append(types, f.ContentType)
	}
	return keys, types, nil
}

func (a *App) presentPosts(ctx context.Context, posts []domain.Post) ([]PostView, error) {
	views := make([]PostView, 0, len(posts))
	for _, post := range posts {
		view, err := a.presentPost(ctx, post)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

func (a *App) presentPost(ctx context.Context, post domain.Post) (PostView, error) {
	urls, err := a.presignAll(ctx, post.FileKeys)
	if err != nil {
		return PostView{}, err
	}
	likes, err := a.store.PostLikeCount(post.ID)
	if err != nil {
		return PostView{}, fmt.Errorf("count likes: %w", err)
	}
	return PostView{Post: post, FileURLs: urls, LikeCount: likes}, nil
}

func (a *App) presignAll(ctx context.Context, keys []string) ([]string, error) {
	urls := make([]string, 0, len(keys))
	for _, key := range keys {
		url, err := a.objects.PresignGet(ctx, key, presignExpiry)
		if err != nil {
			return nil, fmt.Errorf("presign %s: %w", key, err)
		}
		urls = append(urls, url)
	}
	return urls, nil
}
