// Package agents defines the four analyst roles and the prompts they run.
package agents

import (
	"fmt"
	"strings"
)

// Agent is a role prompt template.
type Agent struct {
	Role      string
	Goal      string
	Backstory string
}

// SystemPrompt renders the agent persona.
func (a Agent) SystemPrompt() string {
	return fmt.Sprintf("You are the %s. %s\nYour goal: %s", a.Role, a.Backstory, a.Goal)
}

// The four analyst personas, in the order the crew runs them.
var (
	// DataCleaner reviews the sample for nulls, duplicates and type problems.
	DataCleaner = Agent{
		Role:      "Data Cleaner",
		Goal:      "Identify data quality issues and suggest how the data could be cleaned or pre-processed.",
		Backstory: "You are a data analyst expert in cleaning and preparing tabular business data for analysis, reporting, and dashboards.",
	}

	// TrendAnalyst looks for patterns and seasonality across the metrics.
	TrendAnalyst = Agent{
		Role:      "Trend Analyst",
		Goal:      "Find key patterns, trends, and seasonality in business metrics.",
		Backstory: "You are a senior business analyst. You look at time-series or tabular business data and quickly find trends in sales, profit, regions, and products.",
	}

	// InsightExplainer restates the findings for non-technical readers and
	// proposes next steps.
	InsightExplainer = Agent{
		Role:      "Insight Explainer",
		Goal:      "Explain insights in very simple language, and suggest 3-5 actionable steps for the business.",
		Backstory: "You specialize in translating complex analysis into clear, simple language for non-technical business stakeholders.",
	}

	// QuestionExpert answers the user's question from the data context.
	QuestionExpert = Agent{
		Role:      "Business Question Expert",
		Goal:      "Answer the user's specific business question using the uploaded data context.",
		Backstory: "You are a consultant who answers targeted business questions using analysis of provided data and trends.",
	}
)

// DefaultCrewQuestion is used when the crew is built without a question.
const DefaultCrewQuestion = "Give overall important business insights from this data. " +
	"Focus on sales, revenue, or performance trends if possible."

// Step is one agent's task in the sequential run. Data is the shared data
// context every step sees.
type Step struct {
	Name           string
	Agent          Agent
	Description    string
	ExpectedOutput string
	Data           string
}

// Prompt renders the user turn for the step, including the outputs of the
// steps that ran before it.
func (s Step) Prompt(previous []Output) string {
	var b strings.Builder
	b.WriteString(s.Description)
	b.WriteString("\n\nExpected output: ")
	b.WriteString(s.ExpectedOutput)
	if len(previous) > 0 {
		b.WriteString("\n\nFindings from earlier steps:\n")
		for _, p := range previous {
			fmt.Fprintf(&b, "\n## %s\n%s\n", p.Role, p.Text)
		}
	}
	return b.String()
}

// Output is what one step produced.
type Output struct {
	Step string
	Role string
	Text string
}
