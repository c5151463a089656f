// Package triage authenticates the customer and routes the first
// authenticated intent to the credit, exchange, or interview agent.
package triage

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	agentsx "github.com/bancoagil/atendimento/agent/agents"
	contractx "github.com/bancoagil/atendimento/agent/contract"
	"github.com/bancoagil/atendimento/agent/parse"
	statex "github.com/bancoagil/atendimento/agent/state"
)

const (
	msgAskBoth      = "Para começar, preciso autenticar você. Por favor, informe seu CPF e sua data de nascimento (DD/MM/AAAA)."
	msgAskCPF       = "Quase lá! Ainda preciso do seu CPF para autenticar você."
	msgAskBirthdate = "Quase lá! Ainda preciso da sua data de nascimento (DD/MM/AAAA) para autenticar você."

	msgAuthRetry = "Não encontrei um cliente com esses dados. Verifique o CPF e a data de nascimento e tente novamente (%d de %d tentativas usadas)."

	msgAuthExhausted = "Lamento, mas não foi possível autenticar seus dados após 3 tentativas. " +
		"Por favor, verifique suas informações e tente novamente mais tarde. " +
		"Se precisar de ajuda, entre em contato com nossa central de atendimento. Tenha um ótimo dia!"

	msgWelcome = "Autenticação concluída! Bem-vindo ao Banco Ágil.\n\n" +
		"Como posso ajudá-lo hoje? Posso auxiliar com Crédito ou Câmbio."

	msgMenu = "Olá! Estou aqui para ajudar. Posso auxiliá-lo com:\n" +
		"• Crédito (consulta de limite e solicitação de aumento)\n" +
		"• Câmbio (cotação de moedas)\n\n" +
		"Como posso ajudá-lo?"

	msgTechError = "Desculpe, ocorreu um erro técnico. Por favor, tente novamente."
)

var intentLabels = []string{
	contractx.IntentCredit,
	contractx.IntentExchange,
	contractx.IntentInterview,
	contractx.IntentOther,
}

type Agent struct {
	customers  contractx.CustomerStore
	classifier contractx.IntentClassifier
	extractor  contractx.CredentialExtractor
}

// New builds the triage agent. The extractor is optional: when nil, only the
// deterministic CPF/birthdate parsers run.
func New(customers contractx.CustomerStore, classifier contractx.IntentClassifier, extractor contractx.CredentialExtractor) (*Agent, error) {
	if customers == nil {
		return nil, errors.New("customer store is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	return &Agent{customers: customers, classifier: classifier, extractor: extractor}, nil
}

func (a *Agent) Type() contractx.AgentType {
	return contractx.AgentTypeTriage
}

func (a *Agent) Process(ctx context.Context, text string, st *statex.SessionState) (agentsx.Reply, error) {
	if st.Authenticated {
		return a.routeIntent(ctx, text, st), nil
	}
	return a.authenticate(ctx, text, st), nil
}

func (a *Agent) authenticate(ctx context.Context, text string, st *statex.SessionState) agentsx.Reply {
	creds := a.extractCredentials(ctx, text)

	switch {
	case creds.CPF == "" && creds.Birthdate == "":
		return agentsx.Reply{Text: msgAskBoth}
	case creds.CPF == "":
		return agentsx.Reply{Text: msgAskCPF}
	case creds.Birthdate == "":
		return agentsx.Reply{Text: msgAskBirthdate}
	}

	rec, err := a.customers.Get(ctx, creds.CPF)
	if err != nil {
		if errors.Is(err, contractx.ErrNotFound) {
			return a.failAttempt(st)
		}
		log.Error().Err(err).Msg("triage: customer lookup failed")
		return agentsx.Reply{Text: msgTechError}
	}

	if parse.NormalizeBirthdate(rec.Birthdate) != creds.Birthdate {
		return a.failAttempt(st)
	}

	st.Authenticate(creds.CPF, rec)
	log.Info().Str("cpf", maskCPF(creds.CPF)).Msg("triage: customer authenticated")
	return agentsx.Reply{Text: msgWelcome}
}

func (a *Agent) extractCredentials(ctx context.Context, text string) contractx.Credentials {
	var creds contractx.Credentials
	if cpf, ok := parse.CPF(text); ok {
		creds.CPF = cpf
	}
	if birthdate, ok := parse.Birthdate(text); ok {
		creds.Birthdate = birthdate
	}
	if creds.CPF != "" && creds.Birthdate != "" {
		return creds
	}
	if a.extractor == nil {
		return creds
	}

	// Regex missed a field; let the model read the message. Extraction
	// failure is non-fatal, the user just gets asked again.
	extracted, err := a.extractor.Extract(ctx, text)
	if err != nil {
		log.Debug().Err(err).Msg("triage: credential extractor failed")
		return creds
	}
	if creds.CPF == "" && extracted.CPF != "" {
		creds.CPF = parse.NormalizeCPF(extracted.CPF)
	}
	if creds.Birthdate == "" && extracted.Birthdate != "" {
		creds.Birthdate = parse.NormalizeBirthdate(extracted.Birthdate)
	}
	return creds
}

func (a *Agent) failAttempt(st *statex.SessionState) agentsx.Reply {
	if exhausted := st.FailAuth(); exhausted {
		log.Warn().Str("session", st.SessionID).Msg("triage: auth attempts exhausted")
		return agentsx.Reply{Text: msgAuthExhausted}
	}
	return agentsx.Reply{
		Text: fmt.Sprintf(msgAuthRetry, st.AuthAttempts, statex.MaxAuthAttempts),
	}
}

func (a *Agent) routeIntent(ctx context.Context, text string, st *statex.SessionState) agentsx.Reply {
	intent, err := a.classifier.Classify(ctx, text, st.History, intentLabels)
	if err != nil {
		log.Warn().Err(err).Msg("triage: intent classification failed, defaulting to menu")
		intent = contractx.IntentOther
	}

	switch intent {
	case contractx.IntentCredit:
		return agentsx.HandoffTo(contractx.AgentTypeCredit)
	case contractx.IntentExchange:
		return agentsx.HandoffTo(contractx.AgentTypeExchange)
	case contractx.IntentInterview:
		return agentsx.HandoffTo(contractx.AgentTypeInterview)
	default:
		return agentsx.Reply{Text: msgMenu}
	}
}

func maskCPF(cpf string) string {
	if len(cpf) != 11 {
		return "***"
	}
	return cpf[:3] + ".***.***-" + cpf[9:]
}
