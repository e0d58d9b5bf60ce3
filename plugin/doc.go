// Package plugin exposes a loaded provider bundle to a hosting
// platform as a lifecycle-managed plugin.
//
// SpeechPlugin loads the manifest, validates the schema and the
// host-supplied credentials, builds one provider per supported model
// type, and serves Synthesize/Transcribe invokes against the bundle's
// predefined models. Voice lists can be cached in Redis; invoke
// outcomes are exported as Prometheus metrics.
//
// Usage:
//
//	p := plugin.New(plugin.Options{
//	    BundlePath:  "bundle/manifest.yaml",
//	    Credentials: plugin.Credentials{"api_key": key},
//	})
//	if err := p.Init(ctx); err != nil { ... }
//	defer p.Shutdown(ctx)
//	resp, err := p.Synthesize(ctx, "eleven_turbo_v2", &speech.TTSRequest{Text: "hello"})
package plugin
