// pkg/registry/schema.go
package registry

// StepRegistry is the machine-readable description of the wizard steps,
// consumed by frontends to render step headers and input forms without
// hard-coding the flow.
type StepRegistry struct {
	Version     string `json:"version"`
	LastUpdated string `json:"lastUpdated"`
	Steps       []Step `json:"steps"`
}

type Step struct {
	ID          string   `json:"id"`
	Index       int      `json:"index"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Operations  []string `json:"operations"`
	ErrorCodes  []string `json:"errorCodes"`
	Terminal    bool     `json:"terminal"`
}
