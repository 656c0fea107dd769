package analysis

import (
	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
)

// resultSchema is the shape the secondary prompt asks for.
var resultSchema = gojsonschema.NewGoLoader(map[string]any{
	"type":     "object",
	"required": []any{"summary", "data_issues", "trends", "answer"},
	"properties": map[string]any{
		"summary":     map[string]any{"type": "string"},
		"data_issues": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"trends":      map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"answer":      map[string]any{"type": "string"},
	},
	"additionalProperties": false,
})

// schemaViolations lists how doc departs from resultSchema. Documents that do
// not conform are still used.
func schemaViolations(doc map[string]any) []string {
	res, err := gojsonschema.Validate(resultSchema, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return []string{err.Error()}
	}
	if res.Valid() {
		return nil
	}
	out := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		out = append(out, e.String())
	}
	return out
}

func checkSchema(log *zap.Logger, doc map[string]any) {
	if v := schemaViolations(doc); len(v) > 0 {
		log.Warn("analysis: secondary response does not match schema", zap.Strings("violations", v))
	}
}
