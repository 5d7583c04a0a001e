package agents

import (
	"sync"

	"github.com/swarmmind/swarmmind/core"
)

// Template is a named preset bundling a role, default capability set,
// and default mode, so a coordinator can spawn an agent from a
// template name instead of enumerating raw parameters each time
// (supplemented from original_source's agents/templates.py role
// presets: coordinator, architect, developer, qa, liaison).
type Template struct {
	Name         string
	Role         string
	Mode         core.AgentMode
	Capabilities []string
}

var (
	templatesMu sync.RWMutex
	templates   = map[string]Template{
		"coordinator": {Name: "coordinator", Role: "project_coordinator", Mode: core.ModeCognitive, Capabilities: []string{"planning", "delegation"}},
		"architect":   {Name: "architect", Role: "system_architect", Mode: core.ModeCognitive, Capabilities: []string{"design", "architecture"}},
		"developer":   {Name: "developer", Role: "developer", Mode: core.ModeCognitive, Capabilities: []string{"implementation", "coding"}},
		"qa":          {Name: "qa", Role: "qa_engineer", Mode: core.ModeHybrid, Capabilities: []string{"testing", "validation"}},
		"liaison":     {Name: "liaison", Role: "client_liaison", Mode: core.ModeReactive, Capabilities: []string{"communication", "monitoring"}},
	}
)

// RegisterTemplate installs or overwrites a named template.
func RegisterTemplate(t Template) {
	templatesMu.Lock()
	defer templatesMu.Unlock()
	templates[t.Name] = t
}

// LookupTemplate returns a registered template by name.
func LookupTemplate(name string) (Template, bool) {
	templatesMu.RLock()
	defer templatesMu.RUnlock()
	t, ok := templates[name]
	return t, ok
}

// NewFromTemplate builds a fresh core.Agent from a registered
// template, falling back to ModeReactive with no extra capabilities
// if the name is unknown.
func NewFromTemplate(id, name, templateName string) *core.Agent {
	t, ok := LookupTemplate(templateName)
	if !ok {
		return core.NewAgent(id, name, templateName, core.ModeReactive)
	}
	return core.NewAgent(id, name, t.Role, t.Mode, t.Capabilities...)
}
