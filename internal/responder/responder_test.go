package responder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"kudubot/internal/config"
	"kudubot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func inbound(body string) domain.Message {
	return domain.Message{
		MessageTitle: "Hi",
		MessageBody:  body,
		Receiver:     domain.Contact{DatabaseID: 1, DisplayName: "Bot", Address: "bot@x"},
		Sender:       domain.Contact{DatabaseID: 2, DisplayName: "Alice", Address: "alice@x"},
		Timestamp:    1000,
	}
}

func responderConfig() config.ResponderConfig {
	return config.Defaults().Responder
}

func TestResponder_Builtins(t *testing.T) {
	resp, err := Build(responderConfig(), testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, resp.IsApplicable(ctx, inbound("Hello Go!")))
	assert.False(t, resp.IsApplicable(ctx, inbound("Hello Rust!")))

	title, body := resp.Reply(ctx, inbound("hello go!"))
	assert.Equal(t, "Hello Go", title)
	assert.Equal(t, "Hi!", body)

	title, body = resp.Reply(ctx, inbound("ping"))
	assert.Equal(t, "Simple Response", title)
	assert.Equal(t, "Pong", body)
	assert.Equal(t, "ping", resp.Explain(inbound("ping")))
}

func TestResponder_FallbackWhenNothingMatches(t *testing.T) {
	cfg := responderConfig()
	cfg.Fallback = config.ReplyConfig{Body: "no idea"}
	resp, err := Build(cfg, testLogger())
	require.NoError(t, err)

	title, body := resp.Reply(context.Background(), inbound("what is the meaning of life"))
	assert.Equal(t, "Simple Response", title)
	assert.Equal(t, "no idea", body)
	assert.Empty(t, resp.Explain(inbound("what is the meaning of life")))
}

func TestResponder_DisableBuiltins(t *testing.T) {
	cfg := responderConfig()
	cfg.DisableBuiltins = true
	resp, err := Build(cfg, testLogger())
	require.NoError(t, err)

	assert.Equal(t, 0, resp.Registry().Len())
	assert.False(t, resp.IsApplicable(context.Background(), inbound("ping")))
}

func TestResponder_TemplateBody(t *testing.T) {
	r := NewRegistry(testLogger())
	require.NoError(t, r.Register(domain.RuleDefinition{
		Name:    "greet",
		Trigger: domain.RuleTrigger{ContainsFold: []string{"hi bot"}},
		Reply:   domain.RuleReply{Title: "Greeting", Body: "Hello {{.Sender.DisplayName}}, you said {{printf \"%q\" .MessageBody}}"},
	}))
	resp := New(r, responderConfig(), testLogger())

	title, body := resp.Reply(context.Background(), inbound("Hi bot"))
	assert.Equal(t, "Greeting", title)
	assert.Equal(t, `Hello Alice, you said "Hi bot"`, body)
}

func TestResponder_TemplateErrorSendsRawBody(t *testing.T) {
	r := NewRegistry(testLogger())
	require.NoError(t, r.Register(domain.RuleDefinition{
		Name:    "broken",
		Trigger: domain.RuleTrigger{Equals: []string{"x"}},
		Reply:   domain.RuleReply{Body: "{{.Nope}}"},
	}))
	resp := New(r, responderConfig(), testLogger())

	_, body := resp.Reply(context.Background(), inbound("x"))
	assert.Equal(t, "{{.Nope}}", body)
}

func TestBuild_RulesFileAndDir(t *testing.T) {
	dir := t.TempDir()
	rulesFile := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(rulesFile, []byte(`
rules:
  - name: weather
    trigger:
      containsFold: [weather]
    reply:
      title: Forecast
      body: sunny
  - trigger:
      equals: ["ping"]
    reply:
      body: overridden?
`), 0o644))

	rulesDir := filepath.Join(dir, "rules.d")
	require.NoError(t, os.MkdirAll(rulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "extra.yml"), []byte(`
rules:
  - name: bye
    trigger:
      prefix: ["bye"]
    reply:
      body: "see you {{.Sender.DisplayName}}"
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "broken.yaml"), []byte("rules: [[["), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "notes.txt"), []byte("ignored"), 0o644))

	cfg := responderConfig()
	cfg.RulesFile = rulesFile
	cfg.RulesDir = rulesDir
	resp, err := Build(cfg, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	title, body := resp.Reply(ctx, inbound("How is the WEATHER?"))
	assert.Equal(t, "Forecast", title)
	assert.Equal(t, "sunny", body)

	// built-ins are registered first and win over the unnamed file rule
	_, body = resp.Reply(ctx, inbound("ping"))
	assert.Equal(t, "Pong", body)

	_, body = resp.Reply(ctx, inbound("bye now"))
	assert.Equal(t, "see you Alice", body)

	names := make([]string, 0)
	for _, def := range resp.Registry().List() {
		names = append(names, def.Name)
	}
	assert.Contains(t, names, "rules#2")
}

func TestBuild_MissingRulesFileFails(t *testing.T) {
	cfg := responderConfig()
	cfg.RulesFile = filepath.Join(t.TempDir(), "absent.yaml")
	_, err := Build(cfg, testLogger())
	assert.Error(t, err)
}

func TestLoadFromDirectory_Missing(t *testing.T) {
	rules, err := LoadFromDirectory(filepath.Join(t.TempDir(), "nope"), testLogger())
	require.NoError(t, err)
	assert.Empty(t, rules)
}
