package main

import (
	"context"
	"log"
	"net/http"

	httpadapter "github.com/pixelharbor/concierge/internal/adapters/http"
	"github.com/pixelharbor/concierge/internal/adapters/llm"
	firestorestore "github.com/pixelharbor/concierge/internal/adapters/storage/firestore"
	memstore "github.com/pixelharbor/concierge/internal/adapters/storage/memory"
	sqlitestore "github.com/pixelharbor/concierge/internal/adapters/storage/sqlite"
	"github.com/pixelharbor/concierge/internal/app/chat"
	"github.com/pixelharbor/concierge/internal/app/generator"
	"github.com/pixelharbor/concierge/internal/app/identity"
	"github.com/pixelharbor/concierge/internal/app/menu"
	"github.com/pixelharbor/concierge/internal/app/relay"
	"github.com/pixelharbor/concierge/internal/app/retention"
	"github.com/pixelharbor/concierge/internal/config"
	"github.com/pixelharbor/concierge/internal/domain"
)

func main() {
	ctx := context.Background()
	cfg := config.Load()

	// Text generation: mock, Gemini, or none (fallback-only).
	var llmClient domain.LLMClient
	switch {
	case cfg.UseMockLLM:
		log.Println("[LLM] Using mock LLM client")
		llmClient = llm.NewMockLLM()
	default:
		client, err := llm.NewGeminiClient(ctx, cfg.GCPProjectID, cfg.GCPLocation)
		if err != nil {
			// No credential is not fatal: every reply degrades to the
			// in-character fallback instead.
			log.Printf("[LLM] Gemini client unavailable, replies will use fallbacks: %v", err)
		} else {
			log.Println("[LLM] Using Gemini LLM client")
			llmClient = client
		}
	}

	// Storage: memory, sqlite or firestore.
	var (
		identityStore domain.IdentityStore
		exchangeStore domain.ExchangeStore
		relayStore    domain.RelayStore
	)

	switch cfg.StorageBackend {
	case "firestore":
		if cfg.GCPProjectID == "" {
			log.Fatal("CONCIERGE_GCP_PROJECT is required for the firestore storage backend")
		}

		log.Printf("[STORE] Using Firestore storage (project=%s)", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}

		identityStore = fsStore
		exchangeStore = fsStore
		relayStore = fsStore

	case "sqlite":
		log.Printf("[STORE] Using SQLite storage (path=%s)", cfg.SQLitePath)
		dbStore, err := sqlitestore.NewStore(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error initializing SQLite store: %v", err)
		}
		defer dbStore.Close()

		identityStore = dbStore
		exchangeStore = dbStore
		relayStore = dbStore

	default:
		log.Println("[STORE] Using in-memory storage")
		identityStore = memstore.NewIdentityStore()
		exchangeStore = memstore.NewExchangeStore()
		relayStore = memstore.NewRelayStore()
	}

	resolver := identity.NewResolver(identityStore, cfg.IdentityCacheTTL, cfg.OwnerKeys)
	navigator := menu.NewNavigator(menu.LoadCatalog(cfg.MenuCatalogPath), cfg.MenuTimeout)

	gen := generator.NewGenerator(llmClient, exchangeStore, generator.Options{
		PersonaName:  cfg.PersonaName,
		Model:        cfg.ModelName,
		MaxTokens:    cfg.MaxTokens,
		Temperature:  cfg.Temperature,
		HistoryLimit: cfg.HistoryLimit,
		Timeout:      cfg.LLMTimeout,
	})

	chatSvc := chat.NewService(resolver, navigator, gen, exchangeStore, cfg.EndearmentTerm)
	relaySvc := relay.NewService(relayStore)

	sweeper := retention.NewSweeper(exchangeStore, relayStore, navigator, cfg.RetentionWindow, cfg.RetentionInterval)
	go sweeper.Run(ctx)

	handler := httpadapter.NewServer(chatSvc, relaySvc, resolver, identityStore)

	addr := ":" + cfg.Port
	log.Println("Concierge API listening on", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatal(err)
	}
}
