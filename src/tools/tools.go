package tools

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/square-key-labs/voxline/src/logger"
	"github.com/square-key-labs/voxline/src/services"
)

// hoursByDay backs the business_hours tool; keys follow time.Weekday.
var hoursByDay = map[time.Weekday]string{
	time.Monday:    "9 AM to 6 PM",
	time.Tuesday:   "9 AM to 6 PM",
	time.Wednesday: "9 AM to 6 PM",
	time.Thursday:  "9 AM to 6 PM",
	time.Friday:    "9 AM to 6 PM",
	time.Saturday:  "10 AM to 4 PM",
}

// Executor dispatches tool calls requested by the dialogue engine. All
// execution is local and synchronous.
type Executor struct {
	log *logger.Logger
	now func() time.Time
}

func NewExecutor() *Executor {
	return &Executor{
		log: logger.WithPrefix("Tools"),
		now: time.Now,
	}
}

// Definitions returns the tool schemas advertised to the dialogue engine.
func Definitions() []services.Tool {
	return []services.Tool{
		{
			Type: "function",
			Function: services.ToolDefinition{
				Name:        "search_knowledge",
				Description: "Search the company knowledge base for information about products, pricing, policies, hours, support, etc. Use this when the user asks a question about the company or its services.",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"query": map[string]interface{}{
							"type":        "string",
							"description": "The user's question or topic to search for",
						},
					},
					"required": []string{"query"},
				},
			},
		},
		{
			Type: "function",
			Function: services.ToolDefinition{
				Name:        "lookup_order",
				Description: "Look up the status of an order by order ID",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"order_id": map[string]interface{}{
							"type":        "string",
							"description": "The order ID to look up",
						},
					},
					"required": []string{"order_id"},
				},
			},
		},
		{
			Type: "function",
			Function: services.ToolDefinition{
				Name:        "schedule_callback",
				Description: "Schedule a callback from a human agent",
				Parameters: map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"department": map[string]interface{}{
							"type":        "string",
							"enum":        []string{"sales", "support", "billing"},
							"description": "Which department should call back",
						},
						"preferred_time": map[string]interface{}{
							"type":        "string",
							"description": "When the customer prefers to be called back",
						},
					},
					"required": []string{"department"},
				},
			},
		},
		{
			Type: "function",
			Function: services.ToolDefinition{
				Name:        "business_hours",
				Description: "Get today's business hours. Use this when the user asks whether we are open right now or what today's hours are.",
				Parameters: map[string]interface{}{
					"type":       "object",
					"properties": map[string]interface{}{},
				},
			},
		},
	}
}

// Execute runs the named tool with JSON-encoded arguments and returns a
// result string for the conversation. Unknown tools and bad arguments yield
// an apologetic result rather than an error; the call must go on.
func (e *Executor) Execute(name, arguments string) string {
	args := map[string]string{}
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			e.log.Warn("bad arguments for %s: %v", name, err)
		}
	}

	switch name {
	case "search_knowledge":
		if answer := SearchKnowledge(args["query"]); answer != "" {
			return answer
		}
		return "I don't have specific information about that in my knowledge base. Would you like me to connect you with a human agent?"

	case "lookup_order":
		orderID := args["order_id"]
		if orderID == "" {
			orderID = "unknown"
		}
		return fmt.Sprintf("Order %s is currently in transit and expected to be delivered within 2-3 business days. You'll receive a tracking email shortly.", orderID)

	case "schedule_callback":
		department := args["department"]
		if department == "" {
			department = "support"
		}
		preferredTime := args["preferred_time"]
		if preferredTime == "" {
			preferredTime = "as soon as possible"
		}
		return fmt.Sprintf("I've scheduled a callback from our %s team for %s. They'll call you at this number. Is there anything else I can help with?", department, preferredTime)

	case "business_hours":
		return e.todayHours()

	default:
		e.log.Warn("unknown tool requested: %s", name)
		return "I'm sorry, I couldn't process that request."
	}
}

func (e *Executor) todayHours() string {
	day := e.now().Weekday()
	hours, open := hoursByDay[day]
	if !open {
		return fmt.Sprintf("We're closed today (%s). We're open Monday through Friday 9 AM to 6 PM and Saturday 10 AM to 4 PM.", day)
	}
	return fmt.Sprintf("Today is %s and we're open from %s.", day, hours)
}
