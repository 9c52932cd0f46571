package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerMatchRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/matches", handler.CreateMatch)
	mux.HandleFunc("GET /v1/matches", handler.ListMatches)
	mux.HandleFunc("GET /v1/matches/{matchID}", handler.GetMatch)
	mux.HandleFunc("POST /v1/matches/{matchID}/start", handler.StartMatch)
	mux.HandleFunc("POST /v1/matches/{matchID}/stop", handler.StopMatch)
	mux.HandleFunc("GET /v1/matches/{matchID}/events", handler.ListMatchEvents)
	mux.HandleFunc("GET /v1/matches/{matchID}/points", handler.GetMatchPoints)
}

func registerScoringRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /v1/scoring/points", handler.ComputePoints)
	mux.HandleFunc("POST /v1/scoring/gameweek", handler.ComputeGameweekPoints)
}
