package agents

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Step names, in run order.
const (
	StepCleaning = "cleaning"
	StepTrend    = "trend"
	StepInsight  = "insight"
	StepQuestion = "question"
)

// Build assembles the four-step analysis for a data context and question.
// A blank question is replaced with DefaultCrewQuestion.
func Build(dataContext, question string) ([]Step, error) {
	if strings.TrimSpace(dataContext) == "" {
		return nil, eris.New("agents: data context is empty")
	}
	question = strings.TrimSpace(question)
	if question == "" {
		question = DefaultCrewQuestion
	}

	steps := []Step{
		{
			Name:  StepCleaning,
			Agent: DataCleaner,
			Description: "Analyze the provided data sample and description.\n\n" +
				"Identify missing values, outliers, inconsistent types, or any other issues.\n" +
				"Suggest how to clean or pre-process the data (but do NOT output code).",
			ExpectedOutput: "A short text report listing data issues and recommended cleaning steps.",
		},
		{
			Name:  StepTrend,
			Agent: TrendAnalyst,
			Description: "Using the same data context, identify key business trends.\n\n" +
				"If there is any date/time, look for trends over time. " +
				"Otherwise, focus on top categories/products/regions.",
			ExpectedOutput: "A list of 3-7 important trends with short explanations for each.",
		},
		{
			Name:  StepInsight,
			Agent: InsightExplainer,
			Description: "Combine the findings from the cleaning and trend tasks and translate them " +
				"into simple language.\n\n" +
				"Give:\n" +
				"1) A short plain-English summary (4-8 bullet points)\n" +
				"2) 3-5 actionable recommendations to improve the business.",
			ExpectedOutput: "Short, simple language insights and clear recommendations.",
		},
		{
			Name:  StepQuestion,
			Agent: QuestionExpert,
			Description: fmt.Sprintf("Answer this user question about the data: '%s'.\n\n", question) +
				"Use the context of all previous tasks (cleaning, trends, insights) and the " +
				"data sample. Be specific and practical.",
			ExpectedOutput: "A clear, direct answer to the user's question with supporting reasoning.",
		},
	}
	for i := range steps {
		steps[i].Data = dataContext
	}
	return steps, nil
}

// Validate checks that steps can be run.
func Validate(steps []Step) error {
	if len(steps) == 0 {
		return eris.New("agents: no steps to run")
	}
	for i, s := range steps {
		if s.Agent.Role == "" {
			return eris.Errorf("agents: step %d has no role", i)
		}
		if strings.TrimSpace(s.Description) == "" {
			return eris.Errorf("agents: step %q has no description", s.Name)
		}
	}
	return nil
}
