package app

import (
	"context"
	"errors"
	"strings"
	"testing"

	"savvynote/pkg/store"
)

func pngUpload(body string) UploadFile {
	return UploadFile{
		Reader:      strings.NewReader(body),
		Size:        int64(len(body)),
		ContentType: "image/png",
	}
}

func TestCreatePostUploadsFiles(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")

	post, err := a.CreatePost(context.Background(), alice.ID, "first gig!", nil,
		[]UploadFile{pngUpload("img-1"), pngUpload("img-2")})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	if len(post.FileKeys) != 2 {
		t.Fatalf("expected 2 file keys, got %v", post.FileKeys)
	}
	for _, key := range post.FileKeys {
		if !strings.HasPrefix(key, "image/") {
			t.Fatalf("expected image-class key, got %q", key)
		}
	}
	views, total, err := a.PostsByUsername(context.Background(), "alice", store.Page{})
	if err != nil {
		t.Fatalf("PostsByUsername: %v", err)
	}
	if total != 1 || len(views[0].FileURLs) != 2 {
		t.Fatalf("unexpected listing: total=%d views=%+v", total, views)
	}
}

func TestCreatePostLimits(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")

	files := make([]UploadFile, 11)
	for i := range files {
		files[i] = pngUpload("x")
	}
	if _, err := a.CreatePost(context.Background(), alice.ID, "", nil, files); !errors.Is(err, ErrTooManyFiles) {
		t.Fatalf("expected ErrTooManyFiles, got %v", err)
	}
	long := strings.Repeat("a", 501)
	if _, err := a.CreatePost(context.Background(), alice.ID, long, nil, nil); !errors.Is(err, ErrCaptionTooLong) {
		t.Fatalf("expected ErrCaptionTooLong, got %v", err)
	}
}

func TestFeedExcludesOwnHiddenAndBanned(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")
	carol := mustSignUpMusician(t, a, "carol")
	admin := mustSignUpMusician(t, a, "admin")

	own, err := a.CreatePost(context.Background(), alice.ID, "mine", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	hidden, err := a.CreatePost(context.Background(), bob.ID, "hide me", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	banned, err := a.CreatePost(context.Background(), carol.ID, "banned", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	visible, err := a.CreatePost(context.Background(), bob.ID, "visible", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := a.HidePost(alice.ID, hidden.ID); err != nil {
		t.Fatalf("HidePost: %v", err)
	}
	if err := a.BanPost(banned.ID, admin.ID); err != nil {
		t.Fatalf("BanPost: %v", err)
	}

	feed, _, err := a.Feed(context.Background(), alice.ID, store.Page{Size: 10})
	if err != nil {
		t.Fatalf("Feed: %v", err)
	}
	ids := make(map[string]bool, len(feed))
	for _, p := range feed {
		ids[p.ID] = true
	}
	if ids[own.ID] || ids[hidden.ID] || ids[banned.ID] {
		t.Fatalf("feed leaked excluded posts: %v", ids)
	}
	if !ids[visible.ID] {
		t.Fatalf("feed missing visible post: %v", ids)
	}
}

func TestLikeToggleSemantics(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")
	post, err := a.CreatePost(context.Background(), bob.ID, "", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	created, err := a.LikePost(alice.ID, post.ID)
	if err != nil || !created {
		t.Fatalf("first like: created=%v err=%v", created, err)
	}
	created, err = a.LikePost(alice.ID, post.ID)
	if err != nil || created {
		t.Fatalf("second like should be a no-op: created=%v err=%v", created, err)
	}
	if err := a.UnlikePost(alice.ID, post.ID); err != nil {
		t.Fatalf("UnlikePost: %v", err)
	}
	if err := a.UnlikePost(alice.ID, post.ID); !errors.Is(err, ErrNotLiked) {
		t.Fatalf("expected ErrNotLiked, got %v", err)
	}
	if _, err := a.LikePost(alice.ID, "missing"); !IsNotFound(err) {
		t.Fatalf("expected post 404, got %v", err)
	}
}

func TestHideAndReportErrors(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")
	post, err := a.CreatePost(context.Background(), bob.ID, "", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := a.HidePost(alice.ID, post.ID); err != nil {
		t.Fatalf("HidePost: %v", err)
	}
	if err := a.HidePost(alice.ID, post.ID); !errors.Is(err, ErrAlreadyHidden) {
		t.Fatalf("expected ErrAlreadyHidden, got %v", err)
	}
	if err := a.UnhidePost(alice.ID, post.ID); err != nil {
		t.Fatalf("UnhidePost: %v", err)
	}
	if err := a.UnhidePost(alice.ID, post.ID); !errors.Is(err, ErrNotHidden) {
		t.Fatalf("expected ErrNotHidden, got %v", err)
	}

	if err := a.ReportPost(alice.ID, post.ID, "spam"); err != nil {
		t.Fatalf("ReportPost: %v", err)
	}
	if err := a.ReportPost(alice.ID, post.ID, "still spam"); !errors.Is(err, ErrAlreadyReported) {
		t.Fatalf("expected ErrAlreadyReported, got %v", err)
	}
	reports, total, err := a.ReportedPosts(store.Page{})
	if err != nil || total != 1 {
		t.Fatalf("ReportedPosts: total=%d err=%v", total, err)
	}
	if reports[0].ReportReason != "spam" {
		t.Fatalf("unexpected report: %+v", reports[0])
	}
}

func TestBanMaintainsInvariant(t *testing.T) {
	a, deps := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	admin := mustSignUpMusician(t, a, "admin")
	post, err := a.CreatePost(context.Background(), alice.ID, "", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := a.BanPost(post.ID, admin.ID); err != nil {
		t.Fatalf("BanPost: %v", err)
	}
	stored, _, err := deps.store.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if !stored.IsBanned || len(stored.BanAdminIDs) != 1 {
		t.Fatalf("ban invariant broken: %+v", stored)
	}
	banned, total, err := a.BannedPosts(context.Background(), store.Page{})
	if err != nil || total != 1 || banned[0].ID != post.ID {
		t.Fatalf("BannedPosts: total=%d err=%v", total, err)
	}

	if err := a.UnbanPost(post.ID); err != nil {
		t.Fatalf("UnbanPost: %v", err)
	}
	stored, _, err = deps.store.GetPost(post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if stored.IsBanned || len(stored.BanAdminIDs) != 0 {
		t.Fatalf("unban left state behind: %+v", stored)
	}
}

func TestCommentsThreadedAndLiked(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")
	post, err := a.CreatePost(context.Background(), bob.ID, "", nil, nil)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	root, err := a.CreateComment(alice.ID, post.ID, "nice set", "")
	if err != nil {
		t.Fatalf("CreateComment: %v", err)
	}
	reply, err := a.CreateComment(bob.ID, post.ID, "thanks!", root.ID)
	if err != nil {
		t.Fatalf("CreateComment reply: %v", err)
	}
	if reply.ReplyTo != root.ID {
		t.Fatalf("reply not threaded: %+v", reply)
	}
	if _, err := a.CreateComment(bob.ID, post.ID, "bad parent", "missing"); !IsNotFound(err) {
		t.Fatalf("expected parent 404, got %v", err)
	}

	created, err := a.LikeComment(bob.ID, root.ID)
	if err != nil || !created {
		t.Fatalf("LikeComment: created=%v err=%v", created, err)
	}
	comments, total, err := a.Comments(post.ID, store.Page{Size: 10})
	if err != nil || total != 2 {
		t.Fatalf("Comments: total=%d err=%v", total, err)
	}
	if comments[0].ID != root.ID || comments[0].LikeCount != 1 {
		t.Fatalf("unexpected first comment: %+v", comments[0])
	}
}

func TestDeletePostOwnerOnly(t *testing.T) {
	a, _ := newTestApp(t)
	alice := mustSignUpMusician(t, a, "alice")
	bob := mustSignUpMusician(t, a, "bob")
	post, err := a.CreatePost(context.Background(), alice.ID, "", nil, []UploadFile{pngUpload("img")})
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}

	if err := a.DeletePost(context.Background(), bob.ID, post.ID); !IsForbidden(err) {
		t.Fatalf("expected forbidden delete, got %v", err)
	}
	if err := a.DeletePost(context.Background(), alice.ID, post.ID); err != nil {
		t.Fatalf("DeletePost: %v", err)
	}
	if _, _, err := a.Comments(post.ID, store.Page{}); !IsNotFound(err) {
		t.Fatalf("post should be gone, got %v", err)
	}
}
