package stt

import (
	"context"
	"strings"
)

// Scripted is the deterministic fallback transcriber: a fixed sequence of
// speaker turns, truncated so every turn offset stays strictly below the call
// duration. The same duration always yields the same transcript.
type Scripted struct{}

func NewScripted() *Scripted { return &Scripted{} }

func (s *Scripted) Close() error { return nil }

type scriptTurn struct {
	speaker string
	text    string
}

// One turn every scriptTurnGap seconds.
const scriptTurnGap = 15

var scriptTurns = []scriptTurn{
	{"agent", "Olá, bom dia! Obrigado por entrar em contato com o nosso atendimento, em que posso ajudar?"},
	{"customer", "Bom dia. Estou ligando porque tive um problema com a minha última fatura."},
	{"agent", "Entendo, sinto muito pelo transtorno. Pode me confirmar o número do seu contrato, por favor?"},
	{"customer", "Claro, é o contrato 48291. A cobrança veio com um valor que eu não reconheço."},
	{"agent", "Obrigado. Estou verificando aqui no sistema, um momento."},
	{"agent", "Encontrei o lançamento. Houve uma cobrança adicional de serviço que posso estornar agora mesmo."},
	{"customer", "Perfeito, agradeço. Quanto tempo leva para o estorno aparecer?"},
	{"agent", "O estorno aparece na próxima fatura. Vou registrar também um acompanhamento para confirmar."},
	{"customer", "Ótimo, era só isso então. Obrigado pela atenção."},
	{"agent", "Eu que agradeço o contato. Vou enviar o protocolo por e-mail e retorno em dois dias úteis para confirmar o estorno. Tenha um bom dia!"},
}

func (s *Scripted) Transcribe(_ context.Context, req Request) (*Result, error) {
	var (
		sb       strings.Builder
		segments []Segment
	)
	for i, turn := range scriptTurns {
		offset := i * scriptTurnGap
		if offset >= req.DurationSeconds {
			break
		}
		if sb.Len() > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(turn.text)
		segments = append(segments, Segment{
			Speaker: turn.speaker,
			Text:    turn.text,
			Offset:  offsetLabel(offset),
		})
	}

	return &Result{
		Text:     sb.String(),
		Segments: segments,
		Provider: "scripted",
	}, nil
}
