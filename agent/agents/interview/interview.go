// Package interview runs the fixed five-question flow that recalculates a
// customer's credit score.
package interview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	agentsx "github.com/bancoagil/atendimento/agent/agents"
	contractx "github.com/bancoagil/atendimento/agent/contract"
	"github.com/bancoagil/atendimento/agent/parse"
	statex "github.com/bancoagil/atendimento/agent/state"
)

// Question keys, in interview order.
const (
	QuestionIncome     = "renda_mensal"
	QuestionEmployment = "tipo_emprego"
	QuestionExpenses   = "despesas_fixas"
	QuestionDependents = "num_dependentes"
	QuestionDebts      = "tem_dividas"
)

var questionOrder = [statex.InterviewLength]string{
	QuestionIncome,
	QuestionEmployment,
	QuestionExpenses,
	QuestionDependents,
	QuestionDebts,
}

var questionPrompts = map[string]string{
	QuestionIncome: "Para começar, qual é sua renda mensal? (informe o valor em reais)",
	QuestionEmployment: "Qual é seu tipo de emprego?\n" +
		"- Formal (CLT/Carteira assinada)\n" +
		"- Autônomo (Freelancer/PJ)\n" +
		"- Desempregado",
	QuestionExpenses:   "Quais são suas despesas fixas mensais? (aluguel, contas, etc. - informe o valor total em reais)",
	QuestionDependents: "Quantos dependentes você tem? (filhos ou outras pessoas que dependem de você financeiramente)",
	QuestionDebts:      "Você possui dívidas ativas no momento? (responda sim ou não)",
}

var retryPrompts = map[string]string{
	QuestionIncome:     "Por favor, informe um valor válido para sua renda mensal (apenas números):",
	QuestionEmployment: "Por favor, escolha uma das opções: Formal, Autônomo ou Desempregado:",
	QuestionExpenses:   "Por favor, informe um valor válido para suas despesas fixas mensais:",
	QuestionDependents: "Por favor, informe o número de dependentes (0, 1, 2, 3 ou mais):",
	QuestionDebts:      "Por favor, responda 'sim' ou 'não' sobre a existência de dívidas:",
}

// retryExamples enrich the first retry of each question with a worked example.
var retryExamples = map[string]string{
	QuestionIncome:     "Por exemplo: 2500 ou R$ 2.500,00.",
	QuestionEmployment: "Por exemplo: \"trabalho com carteira assinada\" ou \"sou autônomo\".",
	QuestionExpenses:   "Por exemplo: 1200 ou R$ 1.200,00.",
	QuestionDependents: "Por exemplo: 0, 1, 2 ou 3.",
	QuestionDebts:      "Por exemplo: \"sim, tenho\" ou \"não tenho dívidas\".",
}

const (
	msgIntro = "Vamos realizar uma entrevista rápida de 5 perguntas para reavaliar seu score.\n\n"

	msgAborted = "Entrevista encerrada por respostas inválidas repetidas. Obrigado!"

	msgUnchanged = "Entrevista concluída! Seu score recalculado (%.2f) não superou o score atual (%.2f), " +
		"portanto ele permanece inalterado. Voltando ao atendimento de crédito."

	msgImproved = "Entrevista concluída com sucesso!\n\n" +
		"Seu score foi atualizado:\nScore anterior: %.2f\nNovo score: %.2f\nVariação: %+.2f pontos\n\n" +
		"Voltando ao atendimento de crédito."

	msgUpdateFailed = "Desculpe, ocorreu um erro ao atualizar seu score. Por favor, tente novamente."
)

var (
	employmentFormalWords     = []string{"formal", "carteira", "clt", "registrado"}
	employmentSelfWords       = []string{"autônomo", "autonomo", "freelancer", "pj", "próprio", "proprio"}
	employmentUnemployedWords = []string{"desempregado", "desempregada", "sem emprego", "não trabalho", "nao trabalho"}

	debtsYesWords = []string{"sim", "tenho", "possuo", "há", "existe"}
	debtsNoWords  = []string{"não", "nao", "sem", "nenhuma", "zero"}
)

type Agent struct {
	customers contractx.CustomerStore
}

func New(customers contractx.CustomerStore) (*Agent, error) {
	if customers == nil {
		return nil, errors.New("customer store is required")
	}
	return &Agent{customers: customers}, nil
}

func (a *Agent) Type() contractx.AgentType {
	return contractx.AgentTypeInterview
}

func (a *Agent) Process(ctx context.Context, text string, st *statex.SessionState) (agentsx.Reply, error) {
	if !st.Authenticated {
		return agentsx.HandoffTo(contractx.AgentTypeTriage), nil
	}

	// The message that triggered the handoff ("quero fazer a entrevista")
	// is not an answer; open the interview and ask the first question.
	if !st.InterviewActive {
		st.InterviewActive = true
		return agentsx.Reply{Text: msgIntro + questionPrompts[questionOrder[st.InterviewStep]]}, nil
	}

	if st.InterviewStep < 0 || st.InterviewStep >= statex.InterviewLength {
		return agentsx.Reply{}, fmt.Errorf("%w: %d", statex.ErrInvalidStep, st.InterviewStep)
	}

	question := questionOrder[st.InterviewStep]
	answer, ok := extractAnswer(text, question)
	if !ok {
		attempts, exhausted := st.FailAnswer(question)
		if exhausted {
			log.Warn().Str("question", question).Msg("interview: aborted after repeated invalid answers")
			st.ResetInterview()
			return agentsx.Reply{Text: msgAborted}, nil
		}
		retry := retryPrompts[question]
		if attempts == 1 {
			retry += " " + retryExamples[question]
		}
		return agentsx.Reply{Text: retry}, nil
	}

	complete, err := st.StoreAnswer(question, answer)
	if err != nil {
		return agentsx.Reply{}, err
	}
	if !complete {
		return agentsx.Reply{Text: questionPrompts[questionOrder[st.InterviewStep]]}, nil
	}
	return a.finalize(ctx, st), nil
}

func (a *Agent) finalize(ctx context.Context, st *statex.SessionState) agentsx.Reply {
	answers := answersFromSession(st)
	newScore := Score(answers)
	oldScore := st.Score()

	// Whatever happens next, the interview itself is over: reset the flow
	// and return to the credit agent in this same transition.
	st.ResetInterview()

	reply := agentsx.Reply{
		Handoff: &agentsx.Handoff{Target: contractx.AgentTypeCredit},
	}

	// Only a strictly better score is persisted.
	if newScore <= oldScore {
		log.Info().Float64("old", oldScore).Float64("new", newScore).Msg("interview: score not improved")
		reply.Text = fmt.Sprintf(msgUnchanged, newScore, oldScore)
		return reply
	}

	if err := a.customers.SetScore(ctx, st.CustomerCPF, newScore); err != nil {
		log.Error().Err(err).Msg("interview: score update failed")
		reply.Text = msgUpdateFailed
		return reply
	}
	st.SetScore(newScore)

	log.Info().Float64("old", oldScore).Float64("new", newScore).Msg("interview: score updated")
	reply.Text = fmt.Sprintf(msgImproved, oldScore, newScore, newScore-oldScore)
	return reply
}

func extractAnswer(text, question string) (string, bool) {
	lower := strings.ToLower(text)

	switch question {
	case QuestionIncome:
		amount, ok := parse.Amount(text)
		if !ok || amount <= 0 {
			return "", false
		}
		return strconv.FormatFloat(amount, 'f', -1, 64), true

	case QuestionEmployment:
		switch {
		case containsAny(lower, employmentFormalWords):
			return EmploymentFormal, true
		case containsAny(lower, employmentSelfWords):
			return EmploymentSelf, true
		case containsAny(lower, employmentUnemployedWords):
			return EmploymentUnemployed, true
		}
		return "", false

	case QuestionExpenses:
		amount, ok := parse.Amount(text)
		if !ok || amount < 0 {
			return "", false
		}
		return strconv.FormatFloat(amount, 'f', -1, 64), true

	case QuestionDependents:
		amount, ok := parse.Amount(text)
		if !ok || amount < 0 {
			return "", false
		}
		n := int(amount)
		if n >= 3 {
			return DependentsThreePlus, true
		}
		return strconv.Itoa(n), true

	case QuestionDebts:
		// "não" wins over "sim" word hits: "não tenho" contains "tenho".
		switch {
		case containsAny(lower, debtsNoWords):
			return DebtsNo, true
		case containsAny(lower, debtsYesWords):
			return DebtsYes, true
		}
		return "", false
	}
	return "", false
}

func answersFromSession(st *statex.SessionState) Answers {
	income, _ := strconv.ParseFloat(st.InterviewData[QuestionIncome], 64)
	expenses, _ := strconv.ParseFloat(st.InterviewData[QuestionExpenses], 64)
	return Answers{
		MonthlyIncome: income,
		Employment:    st.InterviewData[QuestionEmployment],
		FixedExpenses: expenses,
		Dependents:    st.InterviewData[QuestionDependents],
		HasDebts:      st.InterviewData[QuestionDebts],
	}
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}
