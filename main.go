package main

import (
	"github.com/rs/zerolog/log"

	catalogx "github.com/shopstream/discovery-agent/agent/catalog"
	contractx "github.com/shopstream/discovery-agent/agent/contract"
	executorx "github.com/shopstream/discovery-agent/agent/executor"
	narratorx "github.com/shopstream/discovery-agent/agent/narrator"
	orchestratorx "github.com/shopstream/discovery-agent/agent/orchestrator"
	statex "github.com/shopstream/discovery-agent/agent/state"
	trackerx "github.com/shopstream/discovery-agent/agent/tracker"
	configx "github.com/shopstream/discovery-agent/pkg/config"
	_ "github.com/shopstream/discovery-agent/pkg/logger/autoload"
	openrouterx "github.com/shopstream/discovery-agent/pkg/openrouter"
	upstashx "github.com/shopstream/discovery-agent/pkg/upstash"
	serverx "github.com/shopstream/discovery-agent/server"
)

type AppConfig struct {
	StateBackend   string `envconfig:"STATE_BACKEND" split_words:"true" default:"memory"`
	CatalogBackend string `envconfig:"CATALOG_BACKEND" split_words:"true" default:"memory"`
}

func main() {
	appCfg := configx.MustNew[AppConfig]("APP")

	store := buildStateStore(appCfg.StateBackend)
	catalog, cartStore := buildCatalog(appCfg.CatalogBackend)

	tracker, err := trackerx.New(store)
	if err != nil {
		log.Fatal().Err(err).Msg("build tracker")
	}

	exec, err := executorx.New(catalog, cartStore, tracker)
	if err != nil {
		log.Fatal().Err(err).Msg("build executor")
	}

	orch, err := orchestratorx.New(tracker, exec, buildNarrator(), *configx.MustNew[orchestratorx.Config]("ORCHESTRATOR"))
	if err != nil {
		log.Fatal().Err(err).Msg("build orchestrator")
	}

	srv, err := serverx.New(orch, *configx.MustNew[serverx.Config]("SERVER"))
	if err != nil {
		log.Fatal().Err(err).Msg("build server")
	}
	if err := srv.Run(); err != nil {
		log.Fatal().Err(err).Msg("http server stopped")
	}
}

func buildStateStore(backend string) statex.Store {
	switch backend {
	case "upstash":
		cfg := configx.MustNew[upstashx.Config]("UPSTASH")
		store, err := statex.NewUpstashRedisStore(upstashx.MustNew(*cfg))
		if err != nil {
			log.Fatal().Err(err).Msg("build upstash state store")
		}
		log.Info().Msg("state store: upstash redis")
		return store
	default:
		log.Info().Msg("state store: in-memory")
		return statex.NewMemoryStore()
	}
}

func buildCatalog(backend string) (contractx.Catalog, contractx.CartStore) {
	switch backend {
	case "postgres":
		cfg := configx.MustNew[catalogx.PostgresConfig]("CATALOG")
		db, err := catalogx.OpenPostgres(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("open catalog database")
		}
		catalog, err := catalogx.NewPostgresCatalog(db)
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres catalog")
		}
		cartStore, err := catalogx.NewPostgresCartStore(db)
		if err != nil {
			log.Fatal().Err(err).Msg("build postgres cart store")
		}
		log.Info().Msg("catalog: postgres")
		return catalog, cartStore
	default:
		log.Info().Msg("catalog: seeded in-memory")
		return catalogx.NewMemoryCatalog(nil), catalogx.NewMemoryCartStore()
	}
}

func buildNarrator() contractx.Narrator {
	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	if client := openrouterx.NewClient(*openRouterCfg); client != nil {
		n, err := narratorx.NewOpenAI(client, *openRouterCfg)
		if err != nil {
			log.Fatal().Err(err).Msg("build llm narrator")
		}
		log.Info().Str("model", openRouterCfg.Model).Msg("narrator: llm")
		return n
	}

	log.Info().Msg("narrator: canned")
	return narratorx.NewCanned(*configx.MustNew[narratorx.CannedConfig]("NARRATOR"))
}
