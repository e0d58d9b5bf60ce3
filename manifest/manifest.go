package manifest

import (
	"github.com/BaSui01/speechflow/speech"
)

// DefaultLocales are the locales every user-facing label in a provider
// manifest must carry. Hosts render credential forms from these.
var DefaultLocales = []string{"en_US", "zh_Hans"}

// LocalizedString is a locale → text mapping, deserialized from YAML
// blocks such as:
//
//	label:
//	  en_US: API Key
//	  zh_Hans: API 密钥
type LocalizedString map[string]string

// Get returns the text for the given locale, falling back to en_US and
// then to any available locale.
func (s LocalizedString) Get(locale string) string {
	if v, ok := s[locale]; ok && v != "" {
		return v
	}
	if v, ok := s["en_US"]; ok && v != "" {
		return v
	}
	for _, v := range s {
		if v != "" {
			return v
		}
	}
	return ""
}

// Configurate methods a provider may declare. Predefined models ship as
// static definition files inside the bundle; customizable models are
// configured by the end user in the host UI.
const (
	MethodPredefinedModel   = "predefined-model"
	MethodCustomizableModel = "customizable-model"
)

// Credential form field types.
const (
	FieldTypeSecretInput = "secret-input"
	FieldTypeTextInput   = "text-input"
	FieldTypeSelect      = "select"
)

// CredentialField is one named, typed, localized form field in a
// credential schema.
type CredentialField struct {
	Variable    string          `yaml:"variable" json:"variable"`
	Label       LocalizedString `yaml:"label" json:"label"`
	Type        string          `yaml:"type" json:"type"`
	Required    bool            `yaml:"required" json:"required"`
	Placeholder LocalizedString `yaml:"placeholder,omitempty" json:"placeholder,omitempty"`
}

// CredentialSchema lists the form fields the host must collect before
// any model under the provider can be invoked.
type CredentialSchema struct {
	Fields []CredentialField `yaml:"credential_form_schemas" json:"credential_form_schemas"`
}

// Field looks up a field by variable name.
func (s *CredentialSchema) Field(variable string) (CredentialField, bool) {
	if s == nil {
		return CredentialField{}, false
	}
	for _, f := range s.Fields {
		if f.Variable == variable {
			return f, true
		}
	}
	return CredentialField{}, false
}

// RequiredVariables returns the variable names of all required fields.
func (s *CredentialSchema) RequiredVariables() []string {
	if s == nil {
		return nil
	}
	var out []string
	for _, f := range s.Fields {
		if f.Required {
			out = append(out, f.Variable)
		}
	}
	return out
}

// ModelFiles points at the per-model-type definition files, as glob
// patterns relative to the manifest file.
type ModelFiles struct {
	Predefined []string `yaml:"predefined,omitempty" json:"predefined,omitempty"`
}

// Help is an optional pointer to the vendor's key-management page.
type Help struct {
	Title LocalizedString `yaml:"title,omitempty" json:"title,omitempty"`
	URL   LocalizedString `yaml:"url,omitempty" json:"url,omitempty"`
}

// Extra carries pointers to the externally-implemented provider/model
// source modules the host loads and executes. The bundle only declares
// their existence; it never runs them.
type Extra struct {
	Python *PythonSource `yaml:"python,omitempty" json:"python,omitempty"`
}

// PythonSource references host-loaded source modules by path.
type PythonSource struct {
	ProviderSource string   `yaml:"provider_source" json:"provider_source"`
	ModelSources   []string `yaml:"model_sources,omitempty" json:"model_sources,omitempty"`
}

// Provider is the provider descriptor record — the single structured
// entity of a bundle. It is read once at load time and never mutated.
type Provider struct {
	Provider                 string                             `yaml:"provider" json:"provider"`
	Label                    LocalizedString                    `yaml:"label" json:"label"`
	Description              LocalizedString                    `yaml:"description,omitempty" json:"description,omitempty"`
	IconSmall                LocalizedString                    `yaml:"icon_small,omitempty" json:"icon_small,omitempty"`
	IconLarge                LocalizedString                    `yaml:"icon_large,omitempty" json:"icon_large,omitempty"`
	Background               string                             `yaml:"background,omitempty" json:"background,omitempty"`
	Help                     *Help                              `yaml:"help,omitempty" json:"help,omitempty"`
	SupportedModelTypes      []speech.ModelType                 `yaml:"supported_model_types" json:"supported_model_types"`
	ConfigurateMethods       []string                           `yaml:"configurate_methods" json:"configurate_methods"`
	ProviderCredentialSchema *CredentialSchema                  `yaml:"provider_credential_schema,omitempty" json:"provider_credential_schema,omitempty"`
	ModelCredentialSchema    *CredentialSchema                  `yaml:"model_credential_schema,omitempty" json:"model_credential_schema,omitempty"`
	Models                   map[speech.ModelType]ModelFiles    `yaml:"models,omitempty" json:"models,omitempty"`
	Extra                    *Extra                             `yaml:"extra,omitempty" json:"extra,omitempty"`
}

// Supports reports whether the given model type is declared under
// supported_model_types.
func (p *Provider) Supports(t speech.ModelType) bool {
	for _, mt := range p.SupportedModelTypes {
		if mt == t {
			return true
		}
	}
	return false
}

// CredentialSchemaFor returns the schema governing invokes: the model
// credential schema when declared, otherwise the provider one.
func (p *Provider) CredentialSchemaFor(t speech.ModelType) *CredentialSchema {
	if p.ModelCredentialSchema != nil {
		return p.ModelCredentialSchema
	}
	return p.ProviderCredentialSchema
}
