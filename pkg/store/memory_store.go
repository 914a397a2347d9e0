package store

import (
	"sort"
	"strings"
	"sync"
	"time"

	"savvynote/pkg/domain"
)

type edgeSet map[string]map[string]time.Time

func (e edgeSet) add(from, to string) bool {
	if e[from] == nil {
		e[from] = make(map[string]time.Time)
	}
	if _, ok := e[from][to]; ok {
		return false
	}
	e[from][to] = time.Now().UTC()
	return true
}

func (e edgeSet) remove(from, to string) bool {
	if _, ok := e[from][to]; !ok {
		return false
	}
	delete(e[from], to)
	return true
}

func (e edgeSet) has(from, to string) bool {
	_, ok := e[from][to]
	return ok
}

// MemoryStore is an in-memory Store used by tests and local development.
type MemoryStore struct {
	mu sync.RWMutex

	users       map[string]domain.User
	musicians   map[string]domain.Musician // keyed by user id
	businesses  map[string]domain.Business // keyed by user id
	instruments map[string]domain.Instrument
	genres      map[string]domain.Genre

	follows edgeSet // follower -> following
	blocks  edgeSet // blocker -> blocked

	posts        map[string]domain.Post
	likes        edgeSet // user -> post
	hidden       edgeSet // user -> post
	reports      []domain.Report
	comments     map[string]domain.Comment
	commentLikes edgeSet // user -> comment

	messages []domain.Message

	listings     map[string]domain.JobListing
	applications map[string]domain.JobApplication

	subscriptions map[string]domain.Subscription // keyed by business id
	sessionsSeen  map[string]bool                // checkout session ids
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:         make(map[string]domain.User),
		musicians:     make(map[string]domain.Musician),
		businesses:    make(map[string]domain.Business),
		instruments:   make(map[string]domain.Instrument),
		genres:        make(map[string]domain.Genre),
		follows:       make(edgeSet),
		blocks:        make(edgeSet),
		posts:         make(map[string]domain.Post),
		likes:         make(edgeSet),
		hidden:        make(edgeSet),
		comments:      make(map[string]domain.Comment),
		commentLikes:  make(edgeSet),
		listings:      make(map[string]domain.JobListing),
		applications:  make(map[string]domain.JobApplication),
		subscriptions: make(map[string]domain.Subscription),
		sessionsSeen:  make(map[string]bool),
	}
}

func paginate[T any](items []T, page Page) ([]T, int) {
	total := len(items)
	start := page.offset()
	if start > total {
		start = total
	}
	end := start + page.limit()
	if end > total {
		end = total
	}
	out := make([]T, end-start)
	copy(out, items[start:end])
	return out, total
}

// identity

func (s *MemoryStore) CreateUserWithProfile(user domain.User, musician *domain.Musician, business *domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.ID] = user
	if musician != nil {
		s.musicians[user.ID] = *musician
	}
	if business != nil {
		s.businesses[user.ID] = *business
	}
	return nil
}

func (s *MemoryStore) SaveUser(u domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = u
	return nil
}

func (s *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *MemoryStore) GetUserByUsername(username string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, true, nil
		}
	}
	return domain.User{}, false, nil
}

func (s *MemoryStore) HasUsername(username, excludeUserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username && u.ID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) HasEmail(email, excludeUserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) && u.ID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) HasPhone(phone, excludeUserID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Phone != "" && u.Phone == phone && u.ID != excludeUserID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) ListUsers() ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.User, 0, len(s.users))
	for _, u := range s.users {
		res = append(res, u)
	}
	sortUsers(res)
	return res, nil
}

// profiles

func (s *MemoryStore) GetMusicianByUserID(userID string) (domain.Musician, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.musicians[userID]
	return m, ok, nil
}

func (s *MemoryStore) SaveMusician(m domain.Musician) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.musicians[m.UserID] = m
	return nil
}

func (s *MemoryStore) ReplaceMusicianAssociations(musicianID string, instruments []domain.MusicianInstrument, genreIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for userID, m := range s.musicians {
		if m.ID == musicianID {
			m.Instruments = instruments
			m.GenreIDs = genreIDs
			s.musicians[userID] = m
			return nil
		}
	}
	return nil
}

func (s *MemoryStore) GetBusinessByUserID(userID string) (domain.Business, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.businesses[userID]
	return b, ok, nil
}

func (s *MemoryStore) SaveBusiness(b domain.Business) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.businesses[b.UserID] = b
	return nil
}

func (s *MemoryStore) ListMusicians() ([]domain.Musician, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Musician, 0, len(s.musicians))
	for _, m := range s.musicians {
		res = append(res, m)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) ListBusinesses() ([]domain.Business, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Business, 0, len(s.businesses))
	for _, b := range s.businesses {
		res = append(res, b)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (s *MemoryStore) SearchMusicians(filter MusicianFilter, page Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.User
	for userID, m := range s.musicians {
		u, ok := s.users[userID]
		if !ok {
			continue
		}
		if filter.ViewerID != "" {
			if userID == filter.ViewerID || s.blocks.has(userID, filter.ViewerID) {
				continue
			}
		}
		if filter.Search != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(filter.Search)) {
			continue
		}
		if len(filter.Instruments) > 0 || len(filter.Genres) > 0 {
			if !s.musicianMatchesNames(m, filter.Instruments, filter.Genres) {
				continue
			}
		}
		matched = append(matched, u)
	}

	sortUsers(matched)
	if filter.ViewerID != "" {
		// Stable sort keeps the username order inside each bucket.
		sort.SliceStable(matched, func(i, j int) bool {
			fi := s.follows.has(filter.ViewerID, matched[i].ID)
			fj := s.follows.has(filter.ViewerID, matched[j].ID)
			return fi && !fj
		})
	}
	out, total := paginate(matched, page)
	return out, total, nil
}

func (s *MemoryStore) musicianMatchesNames(m domain.Musician, instrumentNames, genreNames []string) bool {
	for _, mi := range m.Instruments {
		name := s.instruments[mi.InstrumentID].Name
		for _, want := range instrumentNames {
			if strings.EqualFold(name, want) {
				return true
			}
		}
	}
	for _, gid := range m.GenreIDs {
		name := s.genres[gid].Name
		for _, want := range genreNames {
			if strings.EqualFold(name, want) {
				return true
			}
		}
	}
	return false
}

// catalog

func (s *MemoryStore) CreateInstrument(i domain.Instrument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruments[i.ID] = i
	return nil
}

func (s *MemoryStore) GetInstrument(id string) (domain.Instrument, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.instruments[id]
	return i, ok, nil
}

func (s *MemoryStore) ListInstruments() ([]domain.Instrument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Instrument, 0, len(s.instruments))
	for _, i := range s.instruments {
		res = append(res, i)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

func (s *MemoryStore) CreateGenre(g domain.Genre) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.genres[g.ID] = g
	return nil
}

func (s *MemoryStore) GetGenre(id string) (domain.Genre, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.genres[id]
	return g, ok, nil
}

func (s *MemoryStore) ListGenres() ([]domain.Genre, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Genre, 0, len(s.genres))
	for _, g := range s.genres {
		res = append(res, g)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res, nil
}

// social graph

func (s *MemoryStore) CreateFollow(followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows.add(followerID, followingID), nil
}

func (s *MemoryStore) DeleteFollow(followerID, followingID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.follows.remove(followerID, followingID), nil
}

func (s *MemoryStore) IsFollowing(followerID, followingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.follows.has(followerID, followingID), nil
}

func (s *MemoryStore) FollowCounts(userID string) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	followers := 0
	for _, targets := range s.follows {
		if _, ok := targets[userID]; ok {
			followers++
		}
	}
	return followers, len(s.follows[userID]), nil
}

func (s *MemoryStore) ListFollowers(userID, requesterID string, page Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for follower, targets := range s.follows {
		if _, ok := targets[userID]; ok {
			ids = append(ids, follower)
		}
	}
	return s.usersIn(ids, requesterID, page)
}

func (s *MemoryStore) ListFollowing(userID, requesterID string, page Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for target := range s.follows[userID] {
		ids = append(ids, target)
	}
	return s.usersIn(ids, requesterID, page)
}

// usersIn expects the read lock to be held.
func (s *MemoryStore) usersIn(ids []string, requesterID string, page Page) ([]domain.User, int, error) {
	var res []domain.User
	for _, id := range ids {
		u, ok := s.users[id]
		if !ok {
			continue
		}
		if requesterID != "" && s.blocks.has(id, requesterID) {
			continue
		}
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) CreateBlock(blockerID, blockedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks.add(blockerID, blockedID), nil
}

func (s *MemoryStore) DeleteBlock(blockerID, blockedID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.blocks.remove(blockerID, blockedID), nil
}

func (s *MemoryStore) IsBlocked(blockerID, blockedID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.blocks.has(blockerID, blockedID), nil
}

func (s *MemoryStore) ListBlocked(userID string, page Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ids []string
	for blocked := range s.blocks[userID] {
		ids = append(ids, blocked)
	}
	return s.usersIn(ids, "", page)
}

// content

func (s *MemoryStore) CreatePost(p domain.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts[p.ID] = p
	return nil
}

func (s *MemoryStore) GetPost(id string) (domain.Post, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	return p, ok, nil
}

func (s *MemoryStore) DeletePost(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.posts, id)
	for _, users := range []edgeSet{s.likes, s.hidden} {
		for from := range users {
			delete(users[from], id)
		}
	}
	kept := s.reports[:0]
	for _, r := range s.reports {
		if r.PostID != id {
			kept = append(kept, r)
		}
	}
	s.reports = kept
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *MemoryStore) ListPostsByOwner(ownerID string, page Page) ([]domain.Post, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Post
	for _, p := range s.posts {
		if p.OwnerID == ownerID && !p.IsBanned {
			res = append(res, p)
		}
	}
	sortPostsNewestFirst(res)
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) ListFeed(viewerID string, page Page) ([]domain.Post, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	reported := make(map[string]bool)
	for _, r := range s.reports {
		if r.UserID == viewerID {
			reported[r.PostID] = true
		}
	}
	var res []domain.Post
	for _, p := range s.posts {
		if p.IsBanned || p.OwnerID == viewerID {
			continue
		}
		if s.hidden.has(viewerID, p.ID) || reported[p.ID] {
			continue
		}
		res = append(res, p)
	}
	sortPostsNewestFirst(res)
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) ListBannedPosts(page Page) ([]domain.Post, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Post
	for _, p := range s.posts {
		if p.IsBanned {
			res = append(res, p)
		}
	}
	sortPostsNewestFirst(res)
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) ListReports(page Page) ([]domain.Report, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.Report, len(s.reports))
	copy(res, s.reports)
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) LikePost(userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes.add(userID, postID), nil
}

func (s *MemoryStore) UnlikePost(userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.likes.remove(userID, postID), nil
}

func (s *MemoryStore) PostLikeCount(postID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, posts := range s.likes {
		if _, ok := posts[postID]; ok {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) HidePost(userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden.add(userID, postID), nil
}

func (s *MemoryStore) UnhidePost(userID, postID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hidden.remove(userID, postID), nil
}

func (s *MemoryStore) CreateReport(r domain.Report) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reports {
		if existing.UserID == r.UserID && existing.PostID == r.PostID {
			return false, nil
		}
	}
	s.reports = append(s.reports, r)
	return true, nil
}

func (s *MemoryStore) BanPost(postID, adminID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil
	}
	for _, id := range p.BanAdminIDs {
		if id == adminID {
			return nil
		}
	}
	p.BanAdminIDs = append(p.BanAdminIDs, adminID)
	p.IsBanned = true
	s.posts[postID] = p
	return nil
}

func (s *MemoryStore) UnbanPost(postID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[postID]
	if !ok {
		return nil
	}
	p.BanAdminIDs = nil
	p.IsBanned = false
	s.posts[postID] = p
	return nil
}

func (s *MemoryStore) CreateComment(c domain.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.comments[c.ID] = c
	return nil
}

func (s *MemoryStore) GetComment(id string) (domain.Comment, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return domain.Comment{}, false, nil
	}
	c.LikeCount = s.commentLikeCount(id)
	return c, true, nil
}

func (s *MemoryStore) ListComments(postID string, page Page) ([]domain.Comment, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Comment
	for _, c := range s.comments {
		if c.PostID == postID {
			c.LikeCount = s.commentLikeCount(c.ID)
			res = append(res, c)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.Before(res[j].CreatedAt) })
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) LikeComment(userID, commentID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commentLikes.add(userID, commentID), nil
}

// commentLikeCount expects the read lock to be held.
func (s *MemoryStore) commentLikeCount(commentID string) int {
	count := 0
	for _, comments := range s.commentLikes {
		if _, ok := comments[commentID]; ok {
			count++
		}
	}
	return count
}

// messaging

func (s *MemoryStore) CreateMessage(m domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, m)
	return nil
}

func (s *MemoryStore) ListConversation(userID, otherID string, page Page) ([]domain.Message, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.Message
	for _, m := range s.messages {
		if (m.SenderID == userID && m.ReceiverID == otherID) ||
			(m.SenderID == otherID && m.ReceiverID == userID) {
			res = append(res, m)
		}
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) ListActiveConversations(userID, search string, page Page) ([]ConversationPreview, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ordered := make([]domain.Message, len(s.messages))
	copy(ordered, s.messages)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].CreatedAt.After(ordered[j].CreatedAt) })

	seen := make(map[string]bool)
	var previews []ConversationPreview
	for _, m := range ordered {
		var other string
		switch {
		case m.SenderID == userID:
			other = m.ReceiverID
		case m.ReceiverID == userID:
			other = m.SenderID
		default:
			continue
		}
		if other == "" || seen[other] {
			continue
		}
		seen[other] = true
		u, ok := s.users[other]
		if !ok {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(u.Username), strings.ToLower(search)) {
			continue
		}
		previews = append(previews, ConversationPreview{User: u, LastMessage: m})
	}
	out, total := paginate(previews, page)
	return out, total, nil
}

func (s *MemoryStore) ListPotentialConversations(userID string, page Page) ([]domain.User, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contacted := make(map[string]bool)
	for _, m := range s.messages {
		if m.SenderID == userID {
			contacted[m.ReceiverID] = true
		}
		if m.ReceiverID == userID {
			contacted[m.SenderID] = true
		}
	}
	var res []domain.User
	for id, u := range s.users {
		if id == userID || u.Role != domain.RoleMusician || contacted[id] || s.blocks.has(id, userID) {
			continue
		}
		res = append(res, u)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Username < res[j].Username })
	sort.SliceStable(res, func(i, j int) bool {
		fi := s.follows.has(userID, res[i].ID)
		fj := s.follows.has(userID, res[j].ID)
		return fi && !fj
	})
	out, total := paginate(res, page)
	return out, total, nil
}

// marketplace

func (s *MemoryStore) CreateListing(l domain.JobListing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listings[l.ID] = l
	return nil
}

func (s *MemoryStore) GetListing(id string) (domain.JobListing, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.listings[id]
	return l, ok, nil
}

func (s *MemoryStore) ListListings(page Page) ([]domain.JobListing, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]domain.JobListing, 0, len(s.listings))
	for _, l := range s.listings {
		res = append(res, l)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) CreateApplication(a domain.JobApplication) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applications[a.ID] = a
	return nil
}

func (s *MemoryStore) GetApplication(id string) (domain.JobApplication, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.applications[id]
	return a, ok, nil
}

func (s *MemoryStore) ListApplicationsByListing(listingID string, page Page) ([]domain.JobApplication, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.JobApplication
	for _, a := range s.applications {
		if a.ListingID == listingID {
			res = append(res, a)
		}
	}
	sortApplicationsNewestFirst(res)
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) ListApplicationsByApplicant(userID string, page Page) ([]domain.JobApplication, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var res []domain.JobApplication
	for _, a := range s.applications {
		if a.ApplicantID == userID {
			res = append(res, a)
		}
	}
	sortApplicationsNewestFirst(res)
	out, total := paginate(res, page)
	return out, total, nil
}

func (s *MemoryStore) SubmitExperiences(applicationID string, experiences []domain.Experience) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return nil
	}
	a.Experiences = experiences
	a.Status = domain.ApplicationSubmitted
	s.applications[applicationID] = a
	return nil
}

func (s *MemoryStore) UpdateApplicationStatus(applicationID string, status domain.ApplicationStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.applications[applicationID]
	if !ok {
		return nil
	}
	a.Status = status
	s.applications[applicationID] = a
	return nil
}

// subscriptions

func (s *MemoryStore) UpsertSubscription(sub domain.Subscription) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessionsSeen[sub.CheckoutSessionID] {
		return false, nil
	}
	s.sessionsSeen[sub.CheckoutSessionID] = true
	s.subscriptions[sub.BusinessID] = sub
	return true, nil
}

func (s *MemoryStore) GetSubscriptionByBusiness(businessID string) (domain.Subscription, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.subscriptions[businessID]
	return sub, ok, nil
}

func sortUsers(users []domain.User) {
	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
}

func sortPostsNewestFirst(posts []domain.Post) {
	sort.SliceStable(posts, func(i, j int) bool { return posts[i].CreatedAt.After(posts[j].CreatedAt) })
}

func sortApplicationsNewestFirst(apps []domain.JobApplication) {
	sort.SliceStable(apps, func(i, j int) bool { return apps[i].CreatedAt.After(apps[j].CreatedAt) })
}
