// Package http is the shared transport for ModuLLe's hand-rolled provider
// clients (Ollama, Gemini, Claude).
//
// It wraps net/http with the behavior every provider backend needs:
// connection pooling, retry with exponential backoff and jitter on 429 and
// 5xx, rate limit header parsing across the OpenAI, Anthropic and Google
// header families, static per-provider headers, API key sanitization in
// logs, and request/response hooks.
//
// The JSON helpers carry most provider traffic:
//
//	client := http.NewClient(http.Config{
//	    BaseURL: "http://localhost:11434",
//	    Timeout: 90 * time.Second,
//	})
//
//	var out chatResponse
//	resp, err := client.PostJSON(ctx, "/api/chat", payload, &out)
//	if err != nil {
//	    return err
//	}
//	_ = resp.RateLimit
package http
