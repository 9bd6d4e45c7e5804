package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeywordIsDeterministic(t *testing.T) {
	k := NewKeyword()
	transcript := "O cliente pediu o estorno da fatura e o agente confirmou o protocolo."
	criteria := []CriterionInput{
		{ID: "c1", Name: "Estorno", Description: "Agent handles refund requests"},
		{ID: "c2", Name: "Despedida", Description: "Agent closes the call politely"},
	}

	first, err := k.Analyze(context.Background(), transcript, criteria)
	require.NoError(t, err)
	second, err := k.Analyze(context.Background(), transcript, criteria)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestKeywordVerdictsMatchCriteriaOrder(t *testing.T) {
	k := NewKeyword()
	transcript := "Iniciei com a saudação padrão e depois confirmei o contrato do cliente."
	criteria := []CriterionInput{
		{ID: "c1", Name: "Saudação", Description: "Cumprimenta o cliente no início"},
		{ID: "c2", Name: "Oferta de upgrade", Description: "Apresenta planos premium"},
		{ID: "c3", Name: "Contrato", Description: "Confirma o número do contrato"},
	}

	out, err := k.Analyze(context.Background(), transcript, criteria)
	require.NoError(t, err)
	require.Len(t, out.Verdicts, len(criteria))

	assert.True(t, out.Verdicts[0].Passed)
	assert.False(t, out.Verdicts[1].Passed)
	assert.True(t, out.Verdicts[2].Passed)

	for _, v := range out.Verdicts {
		assert.NotEmpty(t, v.Justification)
	}
}

func TestKeywordEmptyTranscript(t *testing.T) {
	k := NewKeyword()

	out, err := k.Analyze(context.Background(), "", []CriterionInput{
		{ID: "c1", Name: "Saudação", Description: "Greets the customer"},
	})
	require.NoError(t, err)
	require.Len(t, out.Verdicts, 1)
	assert.False(t, out.Verdicts[0].Passed)
	assert.Equal(t, "No transcript available for this call.", out.Summary)
}

func TestKeywordNextStepReflectsOutcome(t *testing.T) {
	k := NewKeyword()
	transcript := "confirmei o contrato e fiz a saudação"

	allPass, err := k.Analyze(context.Background(), transcript, []CriterionInput{
		{ID: "c1", Name: "Contrato"},
		{ID: "c2", Name: "Saudação"},
	})
	require.NoError(t, err)
	assert.Contains(t, allPass.NextStep, "No corrective action needed")

	someFail, err := k.Analyze(context.Background(), transcript, []CriterionInput{
		{ID: "c1", Name: "Contrato"},
		{ID: "c2", Name: "Encerramento formal"},
	})
	require.NoError(t, err)
	assert.Contains(t, someFail.NextStep, "Review the evaluation")
}

func TestKeywordObservationsCapped(t *testing.T) {
	k := NewKeyword()
	criteria := make([]CriterionInput, 6)
	for i := range criteria {
		criteria[i] = CriterionInput{ID: "c", Name: "Inexistente"}
	}

	out, err := k.Analyze(context.Background(), "transcript sem os termos", criteria)
	require.NoError(t, err)
	assert.Len(t, out.WentWrong, 3)
}

func TestKeywordSummaryTruncation(t *testing.T) {
	k := NewKeyword()
	long := strings.Repeat("palavra ", 100)

	out, err := k.Analyze(context.Background(), long, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len([]rune(out.Summary)), 221)
	assert.True(t, strings.HasSuffix(out.Summary, "…"))
}

func TestKeywordShortTokensIgnored(t *testing.T) {
	k := NewKeyword()

	// "ok" and "a" are below the significance threshold
	out, err := k.Analyze(context.Background(), "ok a ok a ok", []CriterionInput{
		{ID: "c1", Name: "Ok", Description: "a"},
	})
	require.NoError(t, err)
	require.Len(t, out.Verdicts, 1)
	assert.False(t, out.Verdicts[0].Passed)
}
