package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, metrics MetricsExporter, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

func registerSessionRoutes(mux *http.ServeMux, handler *Handler, sessions SessionResolver) {
	mux.HandleFunc("POST /v1/session", handler.BeginSession)
	mux.HandleFunc("DELETE /v1/session", handler.EndSession)
	mux.Handle("GET /v1/profile", RequireAuth(sessions, http.HandlerFunc(handler.GetProfile)))
	mux.Handle("PUT /v1/profile", RequireAuth(sessions, http.HandlerFunc(handler.UpdateProfile)))
}

func registerPlayerRoutes(mux *http.ServeMux, handler *Handler, sessions SessionResolver) {
	mux.Handle("GET /v1/players", RequireAuth(sessions, http.HandlerFunc(handler.ListPlayers)))
	mux.Handle("POST /v1/players", RequireAuth(sessions, http.HandlerFunc(handler.CreatePlayer)))
	mux.Handle("GET /v1/players/{playerID}", RequireAuth(sessions, http.HandlerFunc(handler.GetPlayer)))
	mux.Handle("PUT /v1/players/{playerID}", RequireAuth(sessions, http.HandlerFunc(handler.UpdatePlayer)))
	mux.Handle("DELETE /v1/players/{playerID}", RequireAuth(sessions, http.HandlerFunc(handler.DeletePlayer)))
}

func registerCommunityRoutes(mux *http.ServeMux, handler *Handler, sessions SessionResolver) {
	mux.Handle("GET /v1/communities", RequireAuth(sessions, http.HandlerFunc(handler.ListCommunities)))
	mux.Handle("POST /v1/communities", RequireAuth(sessions, http.HandlerFunc(handler.CreateCommunity)))
	mux.Handle("GET /v1/communities/{communityID}", RequireAuth(sessions, http.HandlerFunc(handler.GetCommunity)))
	mux.Handle("PUT /v1/communities/{communityID}", RequireAuth(sessions, http.HandlerFunc(handler.UpdateCommunity)))
	mux.Handle("DELETE /v1/communities/{communityID}", RequireAuth(sessions, http.HandlerFunc(handler.DeleteCommunity)))
	mux.Handle("GET /v1/communities/{communityID}/members", RequireAuth(sessions, http.HandlerFunc(handler.ListCommunityMembers)))
	mux.Handle("POST /v1/communities/{communityID}/members", RequireAuth(sessions, http.HandlerFunc(handler.JoinCommunity)))
	mux.Handle("POST /v1/communities/{communityID}/members/by-phone", RequireAuth(sessions, http.HandlerFunc(handler.AddPlayerByPhone)))
	mux.Handle("DELETE /v1/communities/{communityID}/members/{playerID}", RequireAuth(sessions, http.HandlerFunc(handler.RemoveCommunityMember)))
	mux.Handle("POST /v1/communities/{communityID}/group/retry", RequireAuth(sessions, http.HandlerFunc(handler.RetryGroupAttachment)))
	mux.Handle("GET /v1/communities/{communityID}/integrations", RequireAuth(sessions, http.HandlerFunc(handler.ListCommunityIntegrations)))
}

func registerCompetitionRoutes(mux *http.ServeMux, handler *Handler, sessions SessionResolver) {
	mux.Handle("GET /v1/competitions", RequireAuth(sessions, http.HandlerFunc(handler.ListCompetitions)))
	mux.Handle("POST /v1/competitions", RequireAuth(sessions, http.HandlerFunc(handler.CreateCompetition)))
	mux.Handle("GET /v1/competitions/{competitionID}", RequireAuth(sessions, http.HandlerFunc(handler.GetCompetition)))
	mux.Handle("POST /v1/competitions/{competitionID}/start", RequireAuth(sessions, http.HandlerFunc(handler.StartCompetition)))
	mux.Handle("POST /v1/competitions/{competitionID}/finish", RequireAuth(sessions, http.HandlerFunc(handler.FinishCompetition)))
	mux.Handle("GET /v1/competitions/{competitionID}/games", RequireAuth(sessions, http.HandlerFunc(handler.ListCompetitionGames)))
	mux.Handle("POST /v1/competitions/{competitionID}/games", RequireAuth(sessions, http.HandlerFunc(handler.CreateGame)))
}

func registerGameRoutes(mux *http.ServeMux, handler *Handler, sessions SessionResolver) {
	mux.Handle("GET /v1/games/{gameID}", RequireAuth(sessions, http.HandlerFunc(handler.GetGame)))
	mux.Handle("GET /v1/games/{gameID}/matches", RequireAuth(sessions, http.HandlerFunc(handler.ListMatches)))
	mux.Handle("POST /v1/games/{gameID}/matches", RequireAuth(sessions, http.HandlerFunc(handler.RecordMatch)))
	mux.Handle("GET /v1/games/{gameID}/score", RequireAuth(sessions, http.HandlerFunc(handler.GetGameScore)))
	mux.Handle("POST /v1/games/{gameID}/finish", RequireAuth(sessions, http.HandlerFunc(handler.FinishGame)))
}

func registerTournamentRoutes(mux *http.ServeMux, handler *Handler, sessions SessionResolver) {
	mux.Handle("GET /v1/tournaments", RequireAuth(sessions, http.HandlerFunc(handler.ListTournaments)))
	mux.Handle("POST /v1/tournaments", RequireAuth(sessions, http.HandlerFunc(handler.CreateTournament)))
	mux.Handle("GET /v1/tournaments/{tournamentID}/participants", RequireAuth(sessions, http.HandlerFunc(handler.ListTournamentParticipants)))
	mux.Handle("POST /v1/tournaments/{tournamentID}/participants", RequireAuth(sessions, http.HandlerFunc(handler.JoinTournament)))
}

func registerInternalJobRoutes(mux *http.ServeMux, handler *Handler, internalJobToken string) {
	mux.Handle("POST /v1/internal/integrations/process", RequireInternalJobToken(internalJobToken, http.HandlerFunc(handler.ProcessIntegrations)))
}
