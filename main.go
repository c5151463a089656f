package main

import (
	"context"
	"os"

	"github.com/rs/zerolog/log"

	creditx "github.com/bancoagil/atendimento/agent/agents/credit"
	exchangex "github.com/bancoagil/atendimento/agent/agents/exchange"
	interviewx "github.com/bancoagil/atendimento/agent/agents/interview"
	routerx "github.com/bancoagil/atendimento/agent/agents/router"
	triagex "github.com/bancoagil/atendimento/agent/agents/triage"
	"github.com/bancoagil/atendimento/agent/classify"
	statex "github.com/bancoagil/atendimento/agent/state"
	"github.com/bancoagil/atendimento/pkg/bankdb"
	"github.com/bancoagil/atendimento/pkg/chatui"
	configx "github.com/bancoagil/atendimento/pkg/config"
	"github.com/bancoagil/atendimento/pkg/frankfurter"
	_ "github.com/bancoagil/atendimento/pkg/logger/autoload"
	openrouterx "github.com/bancoagil/atendimento/pkg/openrouter"
)

type AppConfig struct {
	SessionBackend string `envconfig:"SESSION_BACKEND" split_words:"true" default:"memory"`
	CustomersCSV   string `envconfig:"CUSTOMERS_CSV" split_words:"true"`
	PolicyCSV      string `envconfig:"POLICY_CSV" split_words:"true"`
}

func main() {
	ctx := context.Background()

	appCfg := configx.MustNew[AppConfig]("APP")

	openRouterCfg := configx.MustNew[openrouterx.Config]("OPENROUTER")
	openRouterClient := openrouterx.NewClient(*openRouterCfg)
	chatModel, err := openRouterCfg.NewChatModel(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("openrouter chat model")
	}

	dbCfg := configx.MustNew[bankdb.Config]("BANKDB")
	db, err := bankdb.Connect(ctx, *dbCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("bank database")
	}
	defer db.Close()

	if err := bankdb.CreateTables(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("bank schema")
	}
	if appCfg.CustomersCSV != "" {
		if err := bankdb.SeedCustomersCSV(ctx, db, appCfg.CustomersCSV); err != nil {
			log.Fatal().Err(err).Str("path", appCfg.CustomersCSV).Msg("seed customers")
		}
	}
	if appCfg.PolicyCSV != "" {
		if err := bankdb.SeedPolicyCSV(ctx, db, appCfg.PolicyCSV); err != nil {
			log.Fatal().Err(err).Str("path", appCfg.PolicyCSV).Msg("seed policy")
		}
	}

	customers := bankdb.NewCustomerStore(db)
	policy := bankdb.NewPolicyTable(db)
	ledger := bankdb.NewRequestLedger(db)

	rates := frankfurter.MustNew(*configx.MustNew[frankfurter.Config]("FRANKFURTER"))

	classifier, err := classify.NewClassifier(openRouterClient, openRouterCfg.Model)
	if err != nil {
		log.Fatal().Err(err).Msg("intent classifier")
	}
	extractor, err := classify.NewExtractor(ctx, chatModel)
	if err != nil {
		log.Fatal().Err(err).Msg("credential extractor")
	}

	store := newSessionStore(appCfg.SessionBackend)

	triageAgent, err := triagex.New(customers, classifier, extractor)
	if err != nil {
		log.Fatal().Err(err).Msg("triage agent")
	}
	creditAgent, err := creditx.New(customers, policy, ledger, classifier)
	if err != nil {
		log.Fatal().Err(err).Msg("credit agent")
	}
	interviewAgent, err := interviewx.New(customers)
	if err != nil {
		log.Fatal().Err(err).Msg("interview agent")
	}
	exchangeAgent, err := exchangex.New(rates)
	if err != nil {
		log.Fatal().Err(err).Msg("exchange agent")
	}

	svc, err := routerx.New(store, triageAgent, creditAgent, interviewAgent, exchangeAgent)
	if err != nil {
		log.Fatal().Err(err).Msg("router")
	}

	sessionID, err := svc.CreateSession(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("session")
	}

	if err := chatui.Run(svc, sessionID); err != nil {
		log.Error().Err(err).Msg("chat ui")
		os.Exit(1)
	}
}

func newSessionStore(backend string) statex.Store {
	if backend == "redis" {
		cfg := configx.MustNew[statex.RedisConfig]("UPSTASH_REDIS")
		store, err := statex.NewRedisStore(*cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("redis session store")
		}
		return store
	}
	return statex.NewMemoryStore()
}
