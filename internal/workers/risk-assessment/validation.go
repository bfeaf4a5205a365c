// internal/workers/risk-assessment/validation.go
package riskassessment

const InputSchema = `{
	"type": "object",
	"properties": {
		"dataPath": {"type": "string", "minLength": 1},
		"source": {"type": "string", "enum": ["csv", "postgres"]},
		"sampleRows": {"type": "integer", "minimum": 1, "maximum": 1000}
	}
}`
