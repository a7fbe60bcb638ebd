package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"pokerroom/internal/auth"
	"pokerroom/internal/config"
	"pokerroom/internal/gateway"
	"pokerroom/internal/ledger"
	"pokerroom/internal/lobby"
	"pokerroom/internal/table"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Server] Failed to load config: %v", err)
	}

	wallet, ledgerMode, err := ledger.NewServiceFromEnv(cfg.LedgerMode, cfg.SQLitePath, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[Server] Failed to init ledger service: %v", err)
	}
	defer wallet.Close()

	sessions := auth.NewManager()
	if cfg.SignupBonus > 0 {
		sessions.SetAccountHook(func(userID string) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := wallet.Credit(ctx, userID, cfg.SignupBonus); err != nil {
				log.Printf("[Server] signup bonus failed for %s: %v", userID, err)
			}
		})
	}

	gw := gateway.New(nil, sessions)
	lby := lobby.New(table.Config{
		MaxSeats:    cfg.TableMaxSeats,
		MinPlayers:  cfg.TableMinPlayers,
		SmallBlind:  cfg.TableSmallBlind,
		BigBlind:    cfg.TableBigBlind,
		MinBuyIn:    cfg.TableMinBuyIn,
		MaxBuyIn:    cfg.TableMaxBuyIn,
		AllowRebuys: cfg.TableAllowRebuys,
		TurnTime:    cfg.TableTurnTime,
	}, wallet, gw.DeliverToUser)
	defer lby.Close()
	gw.SetLobby(lby)

	authHTTP := auth.NewHTTPHandler(sessions)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", gw.HandleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	authHTTP.RegisterRoutes(mux)

	log.Printf("[Server] Ledger mode: %s", ledgerMode)
	log.Printf("[Server] Starting WebSocket server on %s", cfg.ListenAddr)
	if err := http.ListenAndServe(cfg.ListenAddr, mux); err != nil {
		log.Fatalf("[Server] Failed to start: %v", err)
	}
}
