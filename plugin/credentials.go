package plugin

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/BaSui01/speechflow/manifest"
	"github.com/BaSui01/speechflow/speech"
)

// Credentials 宿主为 Provider 收集的凭据表单值，键为 schema 中的
// variable 名。值可能包含密钥，String/JSON 输出一律打码。
type Credentials map[string]string

// Get returns the value for the given variable, "" when absent.
func (c Credentials) Get(variable string) string {
	return c[variable]
}

func (c Credentials) String() string {
	if len(c) == 0 {
		return "Credentials{}"
	}
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("Credentials{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(k)
		b.WriteString(":***")
	}
	b.WriteString("}")
	return b.String()
}

// MarshalJSON 序列化时对全部值打码，防止密钥进入日志或响应。
func (c Credentials) MarshalJSON() ([]byte, error) {
	masked := make(map[string]string, len(c))
	for k, v := range c {
		if v != "" {
			masked[k] = "***"
		} else {
			masked[k] = ""
		}
	}
	return json.Marshal(masked)
}

// Validate 按凭据 schema 校验：所有 required 字段必须已提供且非空。
// 未声明 schema 时视为无需凭据。
func (c Credentials) Validate(schema *manifest.CredentialSchema) error {
	if schema == nil {
		return nil
	}
	var missing []string
	for _, variable := range schema.RequiredVariables() {
		if strings.TrimSpace(c[variable]) == "" {
			missing = append(missing, variable)
		}
	}
	if len(missing) > 0 {
		return speech.NewError(speech.ErrCredentialsInvalid,
			fmt.Sprintf("missing required credentials: %s", strings.Join(missing, ", ")))
	}
	return nil
}

type credentialsKey struct{}

// WithCredentials 在 ctx 中写入单次请求的凭据覆盖。
// 空凭据不改变 ctx。
func WithCredentials(ctx context.Context, c Credentials) context.Context {
	if len(c) == 0 {
		return ctx
	}
	return context.WithValue(ctx, credentialsKey{}, c)
}

// CredentialsFromContext 读取 ctx 中的凭据覆盖。
func CredentialsFromContext(ctx context.Context) (Credentials, bool) {
	c, ok := ctx.Value(credentialsKey{}).(Credentials)
	return c, ok
}
