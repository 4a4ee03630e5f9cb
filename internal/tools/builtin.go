package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/Backland-Labs/waitlist/internal/articles"
	"github.com/Backland-Labs/waitlist/internal/logger"
)

// Names of the built-in tools as registered on the remote assistant
const (
	ValidateEmailName      = "validate_email"
	HighlightCareTermsName = "highlight_care_terms"
	RecommendArticlesName  = "recommend_articles"
)

// Outputs reported back to the run
const (
	OutputTrue  = "true"
	OutputFalse = "false"
	OutputDone  = "done"
)

// ArticlesIntro precedes the recommended articles
const ArticlesIntro = "In the meantime, here are two articles you might find helpful for your situation."

// Subscriber registers an email address for waitlist updates
type Subscriber interface {
	Subscribe(ctx context.Context, email string) error
}

// Highlighter marks care terms in the conversation
type Highlighter interface {
	HighlightCareTerms(terms []string)
}

// ArticlePresenter shows recommended articles to the user
type ArticlePresenter interface {
	ShowArticles(intro string, list []articles.Article)
}

var emailPattern = regexp.MustCompile(`^(([^<>()\[\]\\.,;:\s@"]+(\.[^<>()\[\]\\.,;:\s@"]+)*)|(".+"))@((\[[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\.[0-9]{1,3}\])|(([a-zA-Z\-0-9]+\.)+[a-zA-Z]{2,}))$`)

// ValidEmail reports whether address looks like a deliverable email address.
// The check is case-insensitive.
func ValidEmail(address string) bool {
	return emailPattern.MatchString(strings.ToLower(address))
}

// ValidateEmailInput are the arguments of validate_email
type ValidateEmailInput struct {
	EmailAddress string `json:"email_address" jsonschema_description:"The email address the user gave for waitlist updates."`
}

// ValidateEmail checks the address the user gave and subscribes it when valid.
// A failed subscription is logged and does not change the output.
func ValidateEmail(sub Subscriber) Definition {
	return Definition{
		Name:        ValidateEmailName,
		Description: "Check whether an email address is valid and, if it is, add it to the waitlist. Returns true or false.",
		Parameters:  GenerateSchema[ValidateEmailInput](),
		Handler: HandlerFunc(func(ctx context.Context, args json.RawMessage) (string, error) {
			var in ValidateEmailInput
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			email := strings.TrimSpace(in.EmailAddress)
			if email == "" {
				logger.Info("No email received in function call")
				return OutputFalse, nil
			}
			if !ValidEmail(email) {
				logger.WithField("email", email).Info("Rejected invalid email address")
				return OutputFalse, nil
			}

			if sub != nil {
				if err := sub.Subscribe(ctx, email); err != nil {
					logger.WithFields(map[string]interface{}{
						"email": email,
						"error": err,
					}).Error("Error adding subscriber")
				}
			}
			return OutputTrue, nil
		}),
	}
}

// HighlightCareTermsInput are the arguments of highlight_care_terms
type HighlightCareTermsInput struct {
	CareTerms []string `json:"care_terms" jsonschema_description:"Care related words or phrases, quoted exactly as they appear in the user's last message."`
}

// HighlightCareTerms marks the care terms the assistant found in the user's
// last message
func HighlightCareTerms(h Highlighter) Definition {
	return Definition{
		Name:        HighlightCareTermsName,
		Description: "Highlight care related terms in the user's most recent message.",
		Parameters:  GenerateSchema[HighlightCareTermsInput](),
		Handler: HandlerFunc(func(ctx context.Context, args json.RawMessage) (string, error) {
			var in HighlightCareTermsInput
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}

			terms := make([]string, 0, len(in.CareTerms))
			for _, term := range in.CareTerms {
				if term != "" {
					terms = append(terms, term)
				}
			}
			logger.WithField("terms", strings.Join(terms, ", ")).Debug("Got care terms")

			if h != nil && len(terms) > 0 {
				h.HighlightCareTerms(terms)
			}
			return OutputDone, nil
		}),
	}
}

// RecommendArticlesInput are the arguments of recommend_articles
type RecommendArticlesInput struct {
	CareSituation string `json:"care_situation" jsonschema_description:"A short description of the user's care situation."`
}

// RecommendArticles ranks the catalog against the user's care situation and
// presents the matching articles
func RecommendArticles(ranker articles.Ranker, catalog *articles.Catalog, p ArticlePresenter) Definition {
	return Definition{
		Name:        RecommendArticlesName,
		Description: "Recommend two articles from the catalog that fit the user's care situation and show them to the user.",
		Parameters:  GenerateSchema[RecommendArticlesInput](),
		Handler: HandlerFunc(func(ctx context.Context, args json.RawMessage) (string, error) {
			var in RecommendArticlesInput
			if err := json.Unmarshal(args, &in); err != nil {
				return "", fmt.Errorf("invalid arguments: %w", err)
			}
			if ranker == nil || catalog == nil {
				return "", fmt.Errorf("article recommendations are not configured")
			}

			ids, err := ranker.Rank(ctx, in.CareSituation, catalog.Articles())
			if err != nil {
				return "", err
			}

			matching := catalog.Select(ids)
			logger.WithFields(map[string]interface{}{
				"recommended": strings.Join(ids, ","),
				"matched":     len(matching),
			}).Debug("Recommended articles")

			if p != nil && len(matching) > 0 {
				p.ShowArticles(ArticlesIntro, matching)
			}
			return OutputDone, nil
		}),
	}
}

// Collaborators are the services the built-in tools act through
type Collaborators struct {
	Subscriber  Subscriber
	Highlighter Highlighter
	Ranker      articles.Ranker
	Catalog     *articles.Catalog
	Presenter   ArticlePresenter
}

// Builtins returns the definitions of the built-in tools
func Builtins(c Collaborators) []Definition {
	return []Definition{
		ValidateEmail(c.Subscriber),
		HighlightCareTerms(c.Highlighter),
		RecommendArticles(c.Ranker, c.Catalog, c.Presenter),
	}
}
