// Package credit handles credit-limit queries and increase requests for an
// authenticated customer.
package credit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	agentsx "github.com/bancoagil/atendimento/agent/agents"
	contractx "github.com/bancoagil/atendimento/agent/contract"
	"github.com/bancoagil/atendimento/agent/parse"
	statex "github.com/bancoagil/atendimento/agent/state"
)

const (
	msgLimitSummary = "Seu limite atual é R$ %.2f e seu score é %.0f. Posso ajudá-lo com solicitação de aumento?"

	msgAskAmount = "Qual valor de limite você gostaria?"

	msgApproved = "Aumento aprovado! Seu novo limite é R$ %.2f. Deseja mais alguma ajuda?"

	msgRejected = "Infelizmente não foi possível aprovar o aumento para R$ %.2f com seu score atual. " +
		"Que tal responder algumas perguntas para reavaliarmos seu score? " +
		"Se deseja fazer a entrevista, digite a palavra \"entrevista\"."

	msgCustomerGone = "Desculpe, não foi possível consultar seus dados no momento. Por favor, tente novamente."

	msgOther = "Para prosseguir, você pode consultar seu limite ou solicitar um aumento informando o valor desejado."

	msgTechError = "Desculpe, ocorreu um erro ao processar sua solicitação. Por favor, tente novamente."
)

var actionLabels = []string{
	contractx.ActionCheckLimit,
	contractx.ActionRequestIncrease,
	contractx.ActionOther,
}

type Agent struct {
	customers  contractx.CustomerStore
	policy     contractx.PolicyTable
	ledger     contractx.RequestLedger
	classifier contractx.IntentClassifier

	now func() time.Time
}

func New(
	customers contractx.CustomerStore,
	policy contractx.PolicyTable,
	ledger contractx.RequestLedger,
	classifier contractx.IntentClassifier,
) (*Agent, error) {
	if customers == nil {
		return nil, errors.New("customer store is required")
	}
	if policy == nil {
		return nil, errors.New("policy table is required")
	}
	if ledger == nil {
		return nil, errors.New("request ledger is required")
	}
	if classifier == nil {
		return nil, errors.New("intent classifier is required")
	}
	return &Agent{
		customers:  customers,
		policy:     policy,
		ledger:     ledger,
		classifier: classifier,
		now:        time.Now,
	}, nil
}

func (a *Agent) Type() contractx.AgentType {
	return contractx.AgentTypeCredit
}

func (a *Agent) Process(ctx context.Context, text string, st *statex.SessionState) (agentsx.Reply, error) {
	if !st.Authenticated {
		return agentsx.HandoffTo(contractx.AgentTypeTriage), nil
	}

	if strings.Contains(strings.ToLower(text), "entrevista") {
		return agentsx.HandoffTo(contractx.AgentTypeInterview), nil
	}

	action, err := a.classifier.Classify(ctx, text, st.History, actionLabels)
	if err != nil {
		log.Warn().Err(err).Msg("credit: action classification failed, defaulting")
		action = contractx.ActionOther
	}

	switch action {
	case contractx.ActionCheckLimit:
		return a.checkLimit(ctx, st), nil
	case contractx.ActionRequestIncrease:
		return a.requestIncrease(ctx, text, st), nil
	default:
		return agentsx.Reply{Text: msgOther}, nil
	}
}

func (a *Agent) checkLimit(ctx context.Context, st *statex.SessionState) agentsx.Reply {
	rec, err := a.customers.Get(ctx, st.CustomerCPF)
	if err != nil {
		log.Error().Err(err).Msg("credit: limit lookup failed")
		return agentsx.Reply{Text: msgCustomerGone}
	}
	return agentsx.Reply{Text: fmt.Sprintf(msgLimitSummary, rec.CreditLimit, rec.Score)}
}

func (a *Agent) requestIncrease(ctx context.Context, text string, st *statex.SessionState) agentsx.Reply {
	amount, ok := parse.Amount(text)
	if !ok || amount <= 0 {
		return agentsx.Reply{Text: msgAskAmount}
	}

	rec, err := a.customers.Get(ctx, st.CustomerCPF)
	if err != nil {
		log.Error().Err(err).Msg("credit: customer lookup failed for increase")
		return agentsx.Reply{Text: msgCustomerGone}
	}

	rows, err := a.policy.Rows(ctx)
	if err != nil {
		log.Error().Err(err).Msg("credit: policy table unavailable")
		return agentsx.Reply{Text: msgTechError}
	}

	approved := evaluatePolicy(rows, rec.Score, amount)

	status := contractx.StatusRejected
	if approved {
		status = contractx.StatusApproved
	}

	// The request is recorded whatever the outcome.
	if err := a.ledger.Append(ctx, contractx.IncreaseRequest{
		CPF:            st.CustomerCPF,
		RequestedAt:    a.now().UTC(),
		PriorLimit:     rec.CreditLimit,
		RequestedLimit: amount,
		Status:         status,
	}); err != nil {
		log.Error().Err(err).Msg("credit: ledger append failed")
		return agentsx.Reply{Text: msgTechError}
	}

	if !approved {
		log.Info().Str("cpf", st.CustomerCPF).Float64("requested", amount).Msg("credit: increase rejected")
		return agentsx.Reply{Text: fmt.Sprintf(msgRejected, amount)}
	}

	if err := a.customers.SetLimit(ctx, st.CustomerCPF, amount); err != nil {
		log.Error().Err(err).Msg("credit: limit update failed")
		return agentsx.Reply{Text: msgTechError}
	}
	st.SetCreditLimit(amount)

	log.Info().Str("cpf", st.CustomerCPF).Float64("limit", amount).Msg("credit: increase approved")
	return agentsx.Reply{Text: fmt.Sprintf(msgApproved, amount)}
}

// evaluatePolicy approves iff some tier accepts both the score and the
// requested amount.
func evaluatePolicy(rows []contractx.PolicyRow, score, requested float64) bool {
	for _, row := range rows {
		if score >= row.MinimumScore && requested <= row.MaximumLimit {
			return true
		}
	}
	return false
}
