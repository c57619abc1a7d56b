package handle

import (
	"bytes"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"go.uber.org/zap"

	"techsync/api/internal/assistant"
	"techsync/api/internal/session"
)

type AskRequest struct {
	Question string `json:"question"`
	LLMName  string `json:"llm_name,omitempty"`
}

type AskResponse struct {
	Answer     string                `json:"answer"`
	AnswerHTML string                `json:"answer_html"`
	Operations []string              `json:"operations"`
	Data       assistant.FetchedData `json:"data"`
}

func (h *Handle) Ask(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if !decode(w, r, &req) {
		return
	}

	p := h.assistant
	if strings.TrimSpace(req.LLMName) != "" {
		if h.engs == nil {
			writeMessage(w, http.StatusBadRequest, "llm_name not supported")
			return
		}
		engine, err := h.engs.GetEngine(req.LLMName)
		if err != nil {
			writeMessage(w, http.StatusBadRequest, err.Error())
			return
		}
		p = p.WithCompleter(engine)
	}

	ctx, cancel := requestContext(r, h.askTimeout)
	defer cancel()
	if s, ok := session.FromContext(ctx); ok {
		ctx = assistant.WithProfileID(ctx, s.ProfileID)
	}

	ans, err := p.Ask(ctx, req.Question)
	if err != nil {
		if errors.Is(err, assistant.ErrEmptyQuestion) {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "pergunta vazia", Field: "question"})
			return
		}
		h.logger.Warn("assistant failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("engine", p.Completer().Name()),
			zap.Error(err))
		writeMessage(w, http.StatusBadGateway, "não foi possível responder agora, tente novamente")
		return
	}

	ops := ans.Operations
	if ops == nil {
		ops = []string{}
	}
	writeJSON(w, http.StatusOK, AskResponse{
		Answer:     ans.Text,
		AnswerHTML: renderMarkdown(ans.Text),
		Operations: ops,
		Data:       ans.Data,
	})
}

// renderMarkdown converts the model's markdown to HTML. Raw HTML in the
// source is dropped.
func renderMarkdown(md string) string {
	doc := parser.NewWithExtensions(parser.CommonExtensions | parser.NoEmptyLineBeforeBlock).Parse([]byte(md))
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.SkipHTML | html.HrefTargetBlank,
	})
	return string(bytes.TrimSpace(markdown.Render(doc, renderer)))
}
