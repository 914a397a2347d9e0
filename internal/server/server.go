package server

import (
	"net/http"

	"savvynote/internal/app"
	"savvynote/internal/chat"
	"savvynote/internal/ratelimit"
	"savvynote/internal/util"
	"savvynote/pkg/domain"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App            *app.App
	Hub            *chat.Hub
	AuthLimiter    *ratelimit.FixedWindowLimiter
	TrustedProxies *util.TrustedProxies
	FrontendURL    string
	SecureCookies  bool
}

// Server exposes the HTTP and websocket API.
type Server struct {
	app            *app.App
	hub            *chat.Hub
	authLimiter    *ratelimit.FixedWindowLimiter
	trustedProxies *util.TrustedProxies
	frontendURL    string
	secureCookies  bool
	mux            *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:            cfg.App,
		hub:            cfg.Hub,
		authLimiter:    cfg.AuthLimiter,
		trustedProxies: cfg.TrustedProxies,
		frontendURL:    cfg.FrontendURL,
		secureCookies:  cfg.SecureCookies,
		mux:            http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler wrapped in the middleware stack.
func (s *Server) Router() http.Handler {
	var handler http.Handler = s.mux
	handler = util.WithCORS(s.frontendURL, handler)
	handler = util.WithSecurityHeaders(handler)
	handler = util.WithRequestLog(handler)
	handler = util.WithRequestID(handler)
	return handler
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("POST /api/auth/signup/", s.limited(s.handleSignup))
	s.mux.HandleFunc("POST /api/auth/login/", s.limited(s.handleLogin))
	s.mux.HandleFunc("POST /api/auth/refresh/", s.limited(s.handleRefresh))
	s.mux.HandleFunc("POST /api/auth/logout/", s.handleLogout)
	s.mux.HandleFunc("POST /api/auth/google/", s.limited(s.handleGoogleLogin))
	s.mux.HandleFunc("POST /api/auth/forgot-password/", s.limited(s.handleForgotPassword))
	s.mux.HandleFunc("POST /api/auth/reset-password/", s.handleResetPassword)
	s.mux.Handle("GET /api/auth/profile/", s.authenticated(s.handleAuthProfile))
	s.mux.Handle("POST /api/change-password/", s.authenticated(s.handleChangePassword))

	// profiles
	s.mux.HandleFunc("GET /api/musician/{user_id}/", s.handleGetMusician)
	s.mux.Handle("PATCH /api/musician/{user_id}/", s.authenticated(s.handlePatchMusician))
	s.mux.HandleFunc("GET /api/business/{user_id}/", s.handleGetBusiness)
	s.mux.Handle("PATCH /api/business/{user_id}/", s.authenticated(s.handlePatchBusiness))

	// dropdowns and helpers
	s.mux.HandleFunc("GET /api/instruments/", s.handleListInstruments)
	s.mux.Handle("POST /api/instruments/", s.authenticated(s.handleCreateInstrument))
	s.mux.HandleFunc("GET /api/genres/", s.handleListGenres)
	s.mux.Handle("POST /api/genres/", s.authenticated(s.handleCreateGenre))
	s.mux.HandleFunc("GET /api/musicians/", s.handleListMusicians)
	s.mux.HandleFunc("GET /api/businesses/", s.handleListBusinesses)
	s.mux.HandleFunc("GET /api/users/", s.handleListUsers)

	// social graph
	s.mux.Handle("POST /api/follow/{user_id}/", s.authenticated(s.handleFollow))
	s.mux.Handle("DELETE /api/follow/{user_id}/", s.authenticated(s.handleUnfollow))
	s.mux.Handle("POST /api/block/{user_id}/", s.authenticated(s.handleBlock))
	s.mux.Handle("DELETE /api/block/{user_id}/", s.authenticated(s.handleUnblock))
	s.mux.HandleFunc("GET /follower/{user_id}/", s.handleFollowerCounts)
	s.mux.HandleFunc("GET /follow-list/{user_id}/", s.handleFollowList)
	s.mux.Handle("GET /api/block-list/{user_id}/", s.authenticated(s.handleBlockList))
	s.mux.HandleFunc("GET /discover/", s.handleDiscover)

	// content
	s.mux.Handle("POST /api/post/create", s.authenticated(s.handleCreatePost))
	s.mux.HandleFunc("GET /api/post/fetch/", s.handleFetchPosts)
	s.mux.Handle("GET /api/fetch-feed/", s.authenticated(s.handleFeed))
	s.mux.Handle("GET /api/fetch-banned-posts/", s.authenticated(s.handleBannedPosts))
	s.mux.Handle("GET /api/fetch-reported-posts/", s.authenticated(s.handleReportedPosts))
	s.mux.Handle("POST /api/post/like/", s.authenticated(s.handleLikePost))
	s.mux.Handle("DELETE /api/post/like/", s.authenticated(s.handleUnlikePost))
	s.mux.Handle("POST /api/post/hide/", s.authenticated(s.handleHidePost))
	s.mux.Handle("POST /api/post/unhide/", s.authenticated(s.handleUnhidePost))
	s.mux.Handle("POST /api/post/report/", s.authenticated(s.handleReportPost))
	s.mux.Handle("POST /api/post/ban/", s.authenticated(s.handleBanPost))
	s.mux.Handle("POST /api/post/unban/", s.authenticated(s.handleUnbanPost))
	s.mux.Handle("DELETE /api/post/{post_id}/", s.authenticated(s.handleDeletePost))
	s.mux.Handle("POST /api/comment/create/", s.authenticated(s.handleCreateComment))
	s.mux.HandleFunc("GET /api/comment/fetch/", s.handleFetchComments)
	s.mux.Handle("POST /api/comment/like/", s.authenticated(s.handleLikeComment))

	// messaging
	s.mux.Handle("POST /api/message/create/", s.authenticated(s.handleCreateMessage))
	s.mux.Handle("GET /api/messages/", s.authenticated(s.handleConversation))
	s.mux.Handle("GET /api/conversations/active/", s.authenticated(s.handleActiveConversations))
	s.mux.Handle("GET /api/conversations/potential/", s.authenticated(s.handlePotentialConversations))
	s.mux.HandleFunc("GET /ws/chat/{room}/", s.handleChatSocket)

	// marketplace
	s.mux.Handle("POST /api/jobs/create/", s.authenticated(s.handleCreateListing))
	s.mux.HandleFunc("GET /api/jobs/", s.handleListListings)
	s.mux.HandleFunc("GET /api/jobs/{listing_id}/", s.handleGetListing)
	s.mux.Handle("POST /api/submit-application/", s.authenticated(s.handleSubmitApplication))
	s.mux.Handle("POST /api/job-application/{app_id}/submit-experiences/", s.authenticated(s.handleSubmitExperiences))
	s.mux.Handle("PATCH /api/patch-application/{app_id}/", s.authenticated(s.handlePatchApplication))
	s.mux.Handle("GET /api/applications/listing/{listing_id}/", s.authenticated(s.handleApplicationsByListing))
	s.mux.Handle("GET /api/applications/user/", s.authenticated(s.handleApplicationsByUser))
	s.mux.Handle("GET /api/job-application/{app_id}/", s.authenticated(s.handleGetApplication))
	s.mux.Handle("POST /api/send-acceptance-email/", s.authenticated(s.handleSendAcceptanceEmail))
	s.mux.Handle("POST /api/send-reject-email/", s.authenticated(s.handleSendRejectEmail))
	s.mux.Handle("POST /api/parse-resume/", s.authenticated(s.handleParseResume))

	// payments
	s.mux.Handle("POST /api/stripe/create-subscription-session/", s.authenticated(s.handleCreateSubscriptionSession))
	s.mux.HandleFunc("POST /api/stripe/webhook/", s.handleStripeWebhook)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := requestToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(token)
}

// limited applies the per-IP fixed-window rate limit used on credential
// endpoints. A nil limiter disables limiting.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.authLimiter != nil {
			ip := util.ClientIP(r, s.trustedProxies)
			if !s.authLimiter.Allow(ip) {
				writeError(w, http.StatusTooManyRequests, "Too many requests, try again later.")
				return
			}
		}
		next(w, r)
	}
}
