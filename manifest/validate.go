package manifest

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BaSui01/speechflow/speech"
)

// Violation is one schema rule the bundle breaks. Validation collects
// every violation instead of stopping at the first so bundle authors
// can fix a manifest in one pass.
type Violation struct {
	Rule    string // rule family, e.g. "credentials", "model_files"
	Subject string // offending element, e.g. field variable or glob
	Message string
}

func (v Violation) String() string {
	if v.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", v.Rule, v.Subject, v.Message)
	}
	return fmt.Sprintf("%s: %s", v.Rule, v.Message)
}

// Violations is the full set of schema violations found in a bundle.
type Violations []Violation

// Err converts the set into a single structured error, or nil when the
// bundle is clean.
func (vs Violations) Err() error {
	if len(vs) == 0 {
		return nil
	}
	msgs := make([]string, len(vs))
	for i, v := range vs {
		msgs[i] = v.String()
	}
	return speech.NewError(speech.ErrInvalidManifest, strings.Join(msgs, "; "))
}

// Validate checks the descriptor-level schema rules that do not need
// filesystem access: identifier and label presence, vocabulary
// membership, credential schema consistency, and the invariant that
// every supported model type has a models entry.
func (p *Provider) Validate() Violations {
	var vs Violations

	if p.Provider == "" {
		vs = append(vs, Violation{Rule: "provider", Message: "provider identifier is required"})
	}
	if p.Label.Get("en_US") == "" {
		vs = append(vs, Violation{Rule: "provider", Subject: "label", Message: "label is required"})
	}

	if len(p.SupportedModelTypes) == 0 {
		vs = append(vs, Violation{Rule: "model_types", Message: "supported_model_types must not be empty"})
	}
	for _, t := range p.SupportedModelTypes {
		if !t.Valid() {
			vs = append(vs, Violation{
				Rule:    "model_types",
				Subject: string(t),
				Message: fmt.Sprintf("unknown model type, expected one of %v", speech.AllModelTypes()),
			})
		}
	}

	if len(p.ConfigurateMethods) == 0 {
		vs = append(vs, Violation{Rule: "configurate_methods", Message: "configurate_methods must not be empty"})
	}
	for _, m := range p.ConfigurateMethods {
		if m != MethodPredefinedModel && m != MethodCustomizableModel {
			vs = append(vs, Violation{Rule: "configurate_methods", Subject: m, Message: "unknown configurate method"})
		}
	}

	// Every supported model type needs at least one definition file
	// reference; entries for unsupported types are authoring mistakes.
	for _, t := range p.SupportedModelTypes {
		files, ok := p.Models[t]
		if !ok || len(files.Predefined) == 0 {
			vs = append(vs, Violation{
				Rule:    "models",
				Subject: string(t),
				Message: "supported model type has no predefined definition files",
			})
		}
	}
	for t := range p.Models {
		if !p.Supports(t) {
			vs = append(vs, Violation{
				Rule:    "models",
				Subject: string(t),
				Message: "models entry for a type missing from supported_model_types",
			})
		}
	}

	if p.ProviderCredentialSchema == nil && p.ModelCredentialSchema == nil {
		vs = append(vs, Violation{Rule: "credentials", Message: "no credential schema declared"})
	}
	vs = append(vs, validateCredentialSchema("provider_credential_schema", p.ProviderCredentialSchema)...)
	vs = append(vs, validateCredentialSchema("model_credential_schema", p.ModelCredentialSchema)...)

	return vs
}

func validateCredentialSchema(name string, schema *CredentialSchema) Violations {
	if schema == nil {
		return nil
	}
	var vs Violations
	if len(schema.Fields) == 0 {
		vs = append(vs, Violation{Rule: "credentials", Subject: name, Message: "schema declares no fields"})
	}
	seen := make(map[string]struct{}, len(schema.Fields))
	for _, f := range schema.Fields {
		subject := name + "." + f.Variable
		if f.Variable == "" {
			vs = append(vs, Violation{Rule: "credentials", Subject: name, Message: "field without variable name"})
			continue
		}
		if _, dup := seen[f.Variable]; dup {
			vs = append(vs, Violation{Rule: "credentials", Subject: subject, Message: "duplicate variable"})
		}
		seen[f.Variable] = struct{}{}

		switch f.Type {
		case FieldTypeSecretInput, FieldTypeTextInput, FieldTypeSelect:
		default:
			vs = append(vs, Violation{Rule: "credentials", Subject: subject, Message: fmt.Sprintf("unknown field type %q", f.Type)})
		}
		if f.Required {
			for _, locale := range DefaultLocales {
				if f.Label[locale] == "" {
					vs = append(vs, Violation{
						Rule:    "credentials",
						Subject: subject,
						Message: "required field is missing a label for locale " + locale,
					})
				}
			}
		}
	}
	return vs
}

// Validate checks the complete bundle: descriptor rules plus the
// filesystem-dependent invariants — every glob resolves to at least one
// existing definition file, and every loaded definition is well formed
// and consistent with the section that referenced it.
func (b *Bundle) Validate() Violations {
	vs := b.Provider.Validate()

	for modelType, files := range b.Provider.Models {
		for _, pattern := range files.Predefined {
			matches, err := filepath.Glob(filepath.Join(b.Dir, pattern))
			if err != nil {
				vs = append(vs, Violation{Rule: "model_files", Subject: pattern, Message: "invalid glob pattern"})
				continue
			}
			if len(matches) == 0 {
				vs = append(vs, Violation{
					Rule:    "model_files",
					Subject: pattern,
					Message: "glob resolves to no definition files under " + string(modelType),
				})
			}
		}
	}

	for modelType, defs := range b.Models {
		ids := make(map[string]struct{}, len(defs))
		for _, def := range defs {
			subject := def.SourceFile
			if def.Model == "" {
				vs = append(vs, Violation{Rule: "model_definition", Subject: subject, Message: "model identifier is required"})
				continue
			}
			if def.ModelType != modelType {
				vs = append(vs, Violation{
					Rule:    "model_definition",
					Subject: subject,
					Message: fmt.Sprintf("model_type %q does not match manifest section %q", def.ModelType, modelType),
				})
			}
			if _, dup := ids[def.Model]; dup {
				vs = append(vs, Violation{Rule: "model_definition", Subject: subject, Message: "duplicate model identifier " + def.Model})
			}
			ids[def.Model] = struct{}{}
		}
	}

	return vs
}
