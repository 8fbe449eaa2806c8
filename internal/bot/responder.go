package bot

import (
	"context"
	"math/rand/v2"
	"strings"
	"time"
)

// UserContext is the caller identity handed to the responder for
// personalization. Zero value means "anonymous".
type UserContext struct {
	UserID   uint64
	Username string
}

// Template is one canned reply. Personalizable templates are split into a
// greeting prefix and a body so the prefix can be swapped for a personalized
// one without string surgery on the rendered text.
type Template struct {
	Prefix         string
	Personalizable bool
	Body           string
}

func (t Template) Render() string {
	if t.Prefix == "" {
		return t.Body
	}
	return t.Prefix + " " + t.Body
}

const (
	DefaultMinDelay = 500 * time.Millisecond
	DefaultMaxDelay = 2 * time.Second

	defaultCategory = "default"
)

// Responder matches a message against per-category keyword lists and answers
// with a random template from the winning category. Each call sleeps for a
// random interval to feel less instantaneous; calls never block each other.
type Responder struct {
	MinDelay time.Duration
	MaxDelay time.Duration

	// categories in declaration order; earlier wins keyword-count ties
	categories []string
	keywords   map[string][]string
	templates  map[string][]Template
}

func New() *Responder {
	return &Responder{
		MinDelay: DefaultMinDelay,
		MaxDelay: DefaultMaxDelay,

		categories: []string{"greeting", "goodbye", "help", "finance", "health", "business", "technology"},

		keywords: map[string][]string{
			"greeting":   {"hello", "hi", "hey", "greetings", "good morning", "good afternoon", "good evening"},
			"goodbye":    {"bye", "goodbye", "see you", "farewell", "take care", "later"},
			"help":       {"help", "assist", "support", "what can you do", "how can you help"},
			"finance":    {"money", "finance", "investment", "budget", "saving", "financial", "economy", "stock"},
			"health":     {"health", "wellness", "fitness", "medical", "doctor", "exercise", "nutrition", "diet"},
			"business":   {"business", "company", "startup", "entrepreneur", "marketing", "management", "strategy"},
			"technology": {"technology", "tech", "computer", "software", "ai", "artificial intelligence", "programming", "code"},
		},

		templates: map[string][]Template{
			"greeting": {
				{Prefix: "Hello!", Personalizable: true, Body: "How can I help you today?"},
				{Prefix: "Hi there!", Personalizable: true, Body: "What would you like to know?"},
				{Prefix: "Greetings!", Personalizable: true, Body: "I'm here to assist you."},
				{Prefix: "Hey!", Personalizable: true, Body: "How can I assist you today?"},
			},
			"goodbye": {
				{Body: "Goodbye! Have a great day!"},
				{Body: "See you later! Take care!"},
				{Body: "Bye! Feel free to come back anytime!"},
				{Body: "Farewell! It was nice chatting with you!"},
			},
			"help": {
				{Body: "I can help you with various topics like finance, health, business, and technology. What would you like to know?"},
				{Body: "I'm here to assist you! You can ask me about different subjects or just have a casual conversation."},
				{Body: "Feel free to ask me anything! I can discuss finance, health, business, tech, or just chat."},
			},
			"finance": {
				{Body: "Finance is about managing money, investments, and financial planning. What specific aspect interests you?"},
				{Body: "I can help with budgeting, investing, saving strategies, or general financial advice. What would you like to know?"},
				{Body: "Financial literacy is important! Are you interested in personal finance, investing, or business finance?"},
			},
			"health": {
				{Body: "Health and wellness are crucial for a good life. What health topic would you like to discuss?"},
				{Body: "I can share general health information, but remember to consult healthcare professionals for medical advice."},
				{Body: "Maintaining good health involves proper nutrition, exercise, and regular check-ups. What interests you most?"},
			},
			"business": {
				{Body: "Business involves strategy, management, marketing, and operations. What aspect would you like to explore?"},
				{Body: "I can discuss entrepreneurship, business planning, marketing strategies, or management principles."},
				{Body: "Business success often depends on understanding your market and customers. What's your business interest?"},
			},
			"technology": {
				{Body: "Technology is rapidly evolving! Are you interested in AI, web development, mobile apps, or something else?"},
				{Body: "I can discuss various tech topics like programming, artificial intelligence, cybersecurity, or emerging technologies."},
				{Body: "Technology shapes our world. What specific tech area would you like to learn about?"},
			},
			defaultCategory: {
				{Body: "That's interesting! Can you tell me more about what you'd like to know?"},
				{Body: "I understand. What specific information are you looking for?"},
				{Body: "Thanks for sharing! How can I help you with that?"},
				{Body: "I see. What would you like to explore about this topic?"},
				{Body: "That's a good question! Let me think about how I can help you with that."},
				{Body: "Interesting point! What aspect of this would you like to discuss further?"},
			},
		},
	}
}

// classify returns the category whose keywords occur most often as
// substrings of the lower-cased message. Ties keep the earlier category;
// zero matches everywhere falls through to "default".
func (r *Responder) classify(message string) string {
	lower := strings.ToLower(message)

	best := defaultCategory
	maxMatches := 0
	for _, category := range r.categories {
		matches := 0
		for _, kw := range r.keywords[category] {
			if strings.Contains(lower, kw) {
				matches++
			}
		}
		if matches > maxMatches {
			maxMatches = matches
			best = category
		}
	}
	return best
}

// Reply produces a canned response for a message. The artificial delay is
// per-call and honors ctx cancellation.
func (r *Responder) Reply(ctx context.Context, message string, uc UserContext) (string, error) {
	if err := r.sleep(ctx); err != nil {
		return "", err
	}

	category := r.classify(message)
	candidates := r.templates[category]
	tmpl := candidates[rand.IntN(len(candidates))]

	if tmpl.Personalizable && uc.Username != "" {
		return "Hello, " + uc.Username + "! " + tmpl.Body, nil
	}
	return tmpl.Render(), nil
}

func (r *Responder) sleep(ctx context.Context) error {
	d := r.MinDelay
	if span := r.MaxDelay - r.MinDelay; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
