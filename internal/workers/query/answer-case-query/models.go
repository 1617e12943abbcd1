// internal/workers/query/answer-case-query/models.go
package answercasequery

type Input struct {
	Intent   string            `json:"intent"`
	Entities map[string]string `json:"entities"`
}

type Output struct {
	Answer             string `json:"answer"`
	Custom             bool   `json:"custom"`
	QueryExecutionTime int64  `json:"queryExecutionTime"` // milliseconds
}
