// Package speechflow 提供 ElevenLabs 语音模型清单包的根入口。
//
// 该包只做一层薄薄的转发,真正的实现位于 plugin 子包。
// 典型用法:
//
//	p, err := speechflow.Load(ctx, "bundle/manifest.yaml", speechflow.Credentials{"api_key": key})
//	if err != nil { ... }
//	defer p.Shutdown(context.Background())
package speechflow

import (
	"context"

	"github.com/BaSui01/speechflow/plugin"
)

// Credentials 为 plugin.Credentials 的别名,方便调用方只导入根包。
type Credentials = plugin.Credentials

// Options 为 plugin.Options 的别名。
type Options = plugin.Options

// New 等价于 plugin.New。
var New = plugin.New

// Load 按给定清单目录与凭证构建并初始化插件。
func Load(ctx context.Context, bundlePath string, creds Credentials) (*plugin.SpeechPlugin, error) {
	p := plugin.New(Options{
		BundlePath:  bundlePath,
		Credentials: creds,
	})
	if err := p.Init(ctx); err != nil {
		return nil, err
	}
	return p, nil
}
