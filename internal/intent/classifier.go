// Package intent maps free-text chat input to suggested catalog products.
//
// Matching is an ordered rule table: rules are evaluated in sequence and the
// first match wins. The ordering is a designed tie-break — sub-qualified loan
// phrases ("personal loan") must never fall through to the generic all-loans
// rule.
package intent

import (
	"strings"

	"github.com/pehel/mortgage-app/internal/catalog"
	"github.com/pehel/mortgage-app/internal/common/logger"
	"github.com/pehel/mortgage-app/internal/common/metrics"
)

// Result is a classified chat turn: a bot message plus zero or more
// suggested products in catalog order.
type Result struct {
	Rule        string            `json:"rule"`
	Message     string            `json:"message"`
	Suggestions []catalog.Product `json:"suggestions"`
}

type rule struct {
	name    string
	match   func(msg string) bool
	respond func(c *catalog.Catalog) (string, []catalog.Product)
}

// Classifier evaluates the fixed rule table against user input.
type Classifier struct {
	catalog *catalog.Catalog
	rules   []rule
	logger  logger.Logger
}

var loanKeywords = []string{"loan", "borrow", "money", "finance"}

func NewClassifier(cat *catalog.Catalog, log logger.Logger) *Classifier {
	c := &Classifier{
		catalog: cat,
		logger:  log.WithFields(map[string]interface{}{"component": "intent-classifier"}),
	}
	c.rules = []rule{
		{
			name: "personal_loan",
			match: func(msg string) bool {
				return containsAny(msg, loanKeywords...) && containsAny(msg, "personal", "quick", "small")
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "I can help you with a Personal Loan! It's perfect for quick financing up to €10,000 with instant approval. Would you like to explore this option?",
					pick(cat, catalog.ProductPersonalLoan)
			},
		},
		{
			name: "term_loan",
			match: func(msg string) bool {
				return containsAny(msg, loanKeywords...) && containsAny(msg, "long term", "large", "major")
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "A Term Loan sounds like what you need! It offers competitive rates for larger amounts with extended repayment terms. Shall we look at this?",
					pick(cat, catalog.ProductTermLoan)
			},
		},
		{
			name: "green_loan",
			match: func(msg string) bool {
				return containsAny(msg, loanKeywords...) && containsAny(msg, "green", "eco", "sustainable", "environment")
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "Excellent choice for the environment! Our Green Loan offers lower interest rates for sustainable projects. Let me show you the details:",
					pick(cat, catalog.ProductGreenLoan)
			},
		},
		{
			name: "all_loans",
			match: func(msg string) bool {
				return containsAny(msg, loanKeywords...)
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "I can help you with different types of loans! Here are our loan options:", cat.Loans()
			},
		},
		{
			name: "credit_card",
			match: func(msg string) bool {
				return containsAny(msg, "credit card", "card", "credit")
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "Our Credit Cards come with great rewards and benefits! Contactless payments, cashback rewards, and travel insurance. Would you like to apply?",
					pick(cat, catalog.ProductCreditCard)
			},
		},
		{
			name: "overdraft",
			match: func(msg string) bool {
				return containsAny(msg, "overdraft", "account", "flexible")
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "An Overdraft facility gives you instant access to funds when you need them. You only pay interest when you use it. Interested?",
					pick(cat, catalog.ProductOverdraft)
			},
		},
		{
			name: "general_inquiry",
			match: func(msg string) bool {
				return containsAny(msg, "help", "options", "products", "what")
			},
			respond: func(cat *catalog.Catalog) (string, []catalog.Product) {
				return "I can help you with all our banking products! Here's what we offer:", cat.Products()
			},
		},
	}
	return c
}

// Classify evaluates the rule table against the user's message. Input that
// matches no rule yields no suggestions and a clarifying message.
func (c *Classifier) Classify(text string) Result {
	msg := strings.ToLower(text)

	for _, r := range c.rules {
		if r.match(msg) {
			message, suggestions := r.respond(c.catalog)
			metrics.IntentRuleHits.WithLabelValues(r.name).Inc()
			c.logger.Debug("intent matched", map[string]interface{}{
				"rule":        r.name,
				"suggestions": len(suggestions),
			})
			return Result{Rule: r.name, Message: message, Suggestions: suggestions}
		}
	}

	metrics.IntentRuleHits.WithLabelValues("no_match").Inc()
	return Result{
		Rule:    "no_match",
		Message: "I'd be happy to help you find the right banking product! Could you tell me more about what you're looking for? For example, are you interested in a loan, credit card, or overdraft facility?",
	}
}

func containsAny(msg string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

func pick(cat *catalog.Catalog, id catalog.ProductID) []catalog.Product {
	if p, ok := cat.ByID(id); ok {
		return []catalog.Product{*p}
	}
	return nil
}
