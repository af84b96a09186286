package model

// Command is a parsed user instruction: a scope, an operation within it and its arguments.
type Command struct {
	Scope     string   `json:"scope"`
	Operation string   `json:"operation"`
	Args      []string `json:"args"`
}
