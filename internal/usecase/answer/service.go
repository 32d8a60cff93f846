package answer

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pathwise-ai/pathwise/internal/domain"
	"github.com/pathwise-ai/pathwise/internal/usecase/retrieval"
)

// Retriever finds evidence chunks for a question.
type Retriever interface {
	Retrieve(ctx context.Context, index, query string, filter domain.Filter, topK int) (domain.RetrievalResult, error)
}

// Generator produces advisor text from a system and user message.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Service answers degree questions grounded in retrieved catalog evidence.
type Service struct {
	retriever Retriever
	generator Generator
	index     string
	log       *zap.Logger
}

// New creates an answer service reading from the named index.
func New(retriever Retriever, generator Generator, index string, log *zap.Logger) (*Service, error) {
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if index == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{retriever: retriever, generator: generator, index: index, log: log}, nil
}

// noEvidenceAnswer is returned without a generation call when retrieval
// finds nothing: there is no grounding to answer from.
const noEvidenceAnswer = "I don't have that information in the indexed degree catalogs. " +
	"Please contact your official academic advisor."

// Ask retrieves evidence for the question and generates a cited answer.
// With no evidence the service short-circuits to a degraded refusal instead
// of letting the model invent requirements.
func (s *Service) Ask(
	ctx context.Context, question string, profile domain.UserProfile, topK int,
) (domain.Answer, error) {
	res, err := s.retriever.Retrieve(ctx, s.index, question, profile.Filter(), topK)
	if err != nil {
		return domain.Answer{}, err
	}

	if res.IsEmpty() {
		s.log.Info("no evidence for question", zap.String("index", s.index))
		return domain.Answer{Text: noEvidenceAnswer, Degraded: true}, nil
	}

	text, err := s.generator.Generate(ctx, qaSystem, buildQAUser(question, res, profile))
	if err != nil {
		return domain.Answer{}, fmt.Errorf("generate answer: %w", err)
	}

	return domain.Answer{
		Text:    strings.TrimSpace(text),
		Sources: retrieval.Citations(res),
	}, nil
}

func buildQAUser(question string, res domain.RetrievalResult, profile domain.UserProfile) string {
	var b strings.Builder

	b.WriteString("Context from degree requirements:\n")
	b.WriteString(retrieval.FormatContext(res))
	b.WriteString("\n")

	if profile.Program != "" || profile.CatalogYear != 0 {
		b.WriteString("\nUser Profile:\n")
		b.WriteString("- Program: " + orNotSpecified(profile.Program) + "\n")
		year := ""
		if profile.CatalogYear != 0 {
			year = strconv.Itoa(profile.CatalogYear)
		}
		b.WriteString("- Catalog Year: " + orNotSpecified(year) + "\n")
	}

	b.WriteString("\nQuestion: " + question + "\n\n")
	b.WriteString("Please answer the question using only the information provided in the context above. " +
		"Include source citations.")
	return b.String()
}

func orNotSpecified(s string) string {
	if s == "" {
		return "Not specified"
	}
	return s
}
