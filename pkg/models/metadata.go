package models

// AgentMetadata is the declared agent.yaml document after parsing and
// schema validation.
type AgentMetadata struct {
	Name          string                     `yaml:"name" json:"name"`
	Version       string                     `yaml:"version" json:"version"`
	Description   string                     `yaml:"description" json:"description"`
	Category      string                     `yaml:"category,omitempty" json:"category,omitempty"`
	Tags          []string                   `yaml:"tags,omitempty" json:"tags"`
	License       string                     `yaml:"license,omitempty" json:"license,omitempty"`
	Documentation *Documentation             `yaml:"documentation,omitempty" json:"documentation,omitempty"`
	Evaluation    *Evaluation                `yaml:"evaluation,omitempty" json:"evaluation,omitempty"`
	Disclosures   map[string]bool            `yaml:"disclosures,omitempty" json:"disclosures,omitempty"`
	Interface     AgentInterfaceDeclarations `yaml:"interface" json:"interface"`
}

// Documentation points at externally hosted docs for the agent.
type Documentation struct {
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}

// Evaluation points at a published evaluation summary for the agent.
type Evaluation struct {
	SummaryURL string `yaml:"summaryUrl,omitempty" json:"summaryUrl,omitempty"`
}

// AgentInterfaceDeclarations lists the methods the agent claims to expose.
// At least one method is required for a valid listing.
type AgentInterfaceDeclarations struct {
	Methods map[string]InterfaceMethod `yaml:"methods" json:"methods"`
}

// InterfaceMethod describes a single declared method.
type InterfaceMethod struct {
	Description string                     `yaml:"description" json:"description"`
	Parameters  map[string]MethodParameter `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Returns     *MethodReturns             `yaml:"returns,omitempty" json:"returns,omitempty"`
}

// MethodParameter describes one parameter of a declared method.
type MethodParameter struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required"`
}

// MethodReturns describes the return value of a declared method.
type MethodReturns struct {
	Type        string `yaml:"type" json:"type"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

// DeriveTags returns the union of declared tags and the category, keeping
// first-seen order for declared tags and appending the category only when
// it is not already present.
func (m *AgentMetadata) DeriveTags() []string {
	seen := make(map[string]struct{}, len(m.Tags)+1)
	tags := make([]string, 0, len(m.Tags)+1)
	for _, tag := range m.Tags {
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	if m.Category != "" {
		if _, ok := seen[m.Category]; !ok {
			tags = append(tags, m.Category)
		}
	}
	return tags
}

// InterfaceCheckResult is the outcome of the textual interface heuristic
// over agent.py. IsValid is true exactly when Errors is empty.
type InterfaceCheckResult struct {
	IsValid  bool     `json:"isValid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}
