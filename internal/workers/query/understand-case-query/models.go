// internal/workers/query/understand-case-query/models.go
package understandcasequery

import (
	"github.com/o-richard/covidvisor/internal/models"
	"github.com/o-richard/covidvisor/internal/understanding"
)

type Input struct {
	Query string `json:"query"`
}

// Output carries the query record as process variables. Entities keep the
// per-intent key order.
type Output struct {
	Intent         models.Intent            `json:"intent"`
	Entities       understanding.Parameters `json:"entities"`
	Answerable     bool                     `json:"answerable"`
	ProcessingTime int64                    `json:"processingTime"` // milliseconds
}

const inputSchema = `{
	"type": "object",
	"required": ["query"],
	"properties": {
		"query": {"type": "string"}
	}
}`
