package tools

import "strings"

type kbEntry struct {
	keywords []string
	answer   string
}

// knowledgeBase maps topics to keyword-scored answers. Scoring favors longer
// keyword matches so "pro plan" beats "plan".
var knowledgeBase = map[string]kbEntry{
	"business_hours": {
		keywords: []string{"hours", "open", "close", "timing", "when are you open", "working hours"},
		answer:   "We're open Monday through Friday from 9 AM to 6 PM, and Saturday from 10 AM to 4 PM. We're closed on Sundays.",
	},
	"location": {
		keywords: []string{"address", "location", "where", "office", "visit", "directions"},
		answer:   "Our office is located at 123 Tech Street, Koramangala, Bangalore. We're near the Metro station.",
	},
	"contact": {
		keywords: []string{"contact", "email", "phone", "reach", "call", "support email"},
		answer:   "You can reach us by email at support@techcorp.com or call our support line at 1800-123-4567.",
	},
	"pricing": {
		keywords: []string{"price", "cost", "pricing", "plans", "subscription", "how much", "rates"},
		answer:   "We have three plans: Basic at $9.99 per month with 10GB storage, Pro at $19.99 per month with 100GB storage, and Enterprise with custom pricing for unlimited storage.",
	},
	"basic_plan": {
		keywords: []string{"basic plan", "starter", "cheapest", "entry level"},
		answer:   "Our Basic plan is $9.99 per month. It includes 10GB storage, email support, and access to core features. Great for individuals.",
	},
	"pro_plan": {
		keywords: []string{"pro plan", "professional", "premium"},
		answer:   "Our Pro plan is $19.99 per month. It includes 100GB storage, priority support, advanced analytics, and API access. Perfect for small teams.",
	},
	"enterprise_plan": {
		keywords: []string{"enterprise", "business", "corporate", "custom"},
		answer:   "Our Enterprise plan has custom pricing based on your needs. It includes unlimited storage, dedicated support, custom integrations, and SLA guarantees. Contact sales for a quote.",
	},
	"return_policy": {
		keywords: []string{"return", "refund", "money back", "cancel", "cancellation"},
		answer:   "We offer a 30-day money-back guarantee. If you're not satisfied, contact support within 30 days of purchase for a full refund. No questions asked.",
	},
	"shipping": {
		keywords: []string{"shipping", "delivery", "how long", "ship time", "when will i get"},
		answer:   "Standard shipping takes 3 to 5 business days. Express shipping is available for 1 to 2 day delivery at an additional cost.",
	},
	"warranty": {
		keywords: []string{"warranty", "guarantee", "broken", "defect", "repair"},
		answer:   "All our products come with a 1-year warranty covering manufacturing defects. Extended warranty options are available at checkout.",
	},
	"reset_password": {
		keywords: []string{"password", "reset", "forgot", "login", "can't login", "locked out"},
		answer:   "To reset your password, go to the login page and click 'Forgot Password'. Enter your email and we'll send you a reset link. The link expires in 24 hours.",
	},
	"account_setup": {
		keywords: []string{"setup", "get started", "create account", "sign up", "register"},
		answer:   "To create an account, visit our website and click 'Sign Up'. Enter your email, create a password, and verify your email. Setup takes less than 2 minutes.",
	},
	"technical_issues": {
		keywords: []string{"not working", "bug", "error", "problem", "issue", "broken", "help"},
		answer:   "I'm sorry you're experiencing issues. For technical problems, please email support@techcorp.com with details of the issue, or call our tech support at 1800-123-4567 option 2.",
	},
	"order_status": {
		keywords: []string{"order status", "track", "where is my order", "order number", "tracking"},
		answer:   "To check your order status, visit our website and go to 'My Orders', or give me your order number and I can look it up for you.",
	},
	"bulk_discount": {
		keywords: []string{"bulk", "discount", "wholesale", "volume", "many licenses"},
		answer:   "Yes, we offer bulk discounts for orders of 10 or more licenses. Contact our sales team at sales@techcorp.com for a custom quote.",
	},
	"payment_methods": {
		keywords: []string{"payment", "pay", "credit card", "paypal", "how to pay"},
		answer:   "We accept all major credit cards, PayPal, and bank transfers for annual plans. Enterprise customers can also pay by invoice.",
	},
}

// SearchKnowledge returns the best-matching answer for a query, or empty
// string when nothing matches.
func SearchKnowledge(query string) string {
	q := strings.ToLower(query)
	best := ""
	bestScore := 0
	for _, entry := range knowledgeBase {
		score := 0
		for _, kw := range entry.keywords {
			if strings.Contains(q, kw) {
				score += len(kw)
			}
		}
		if score > bestScore {
			bestScore = score
			best = entry.answer
		}
	}
	return best
}
