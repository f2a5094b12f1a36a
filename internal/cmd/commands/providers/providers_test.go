package providers

import (
	"path/filepath"
	"testing"

	"github.com/mitchellh/cli"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"

	"github.com/hashicorp-forge/cms-gateway/internal/cmd/base"
	"github.com/hashicorp-forge/cms-gateway/internal/config"
	"github.com/hashicorp-forge/cms-gateway/pkg/provider"
)

func newCommand(t *testing.T) (*Command, *cli.MockUi) {
	t.Helper()
	t.Setenv(config.EnvConfigFile, "")
	ui := cli.NewMockUi()
	return &Command{
		Command: base.NewCommand(nil, ui),
		Fs:      afero.NewMemMapFs(),
	}, ui
}

func noEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), ".env")
}

func TestRun(t *testing.T) {
	tests := []struct {
		name       string
		providers  string
		args       []string
		wantCode   int
		wantOutput []string
		wantError  string
	}{
		{
			name: "valid",
			providers: `[
				{"providerId":"acme","name":"Acme","endpoint":"https://cms.acme.com/","token":"s3cret"},
				{"providerId":"beta","endpoint":"http://beta.local:8055","token":"t"}
			]`,
			wantCode:   0,
			wantOutput: []string{"acme\tAcme\tcms.acme.com", "beta\t-\tbeta.local:8055"},
		},
		{
			name:      "strict requires name",
			providers: `[{"providerId":"beta","endpoint":"http://beta.local","token":"t"}]`,
			args:      []string{"-strict"},
			wantCode:  1,
			wantError: "provider beta",
		},
		{
			name:      "duplicate ids",
			providers: `[{"providerId":"a","endpoint":"http://a","token":"t"},{"providerId":"a","endpoint":"http://b","token":"t"}]`,
			wantCode:  1,
			wantError: "unique",
		},
		{
			name:      "not json",
			providers: `not-json`,
			wantCode:  1,
			wantError: "failed to parse API_PROVIDERS as JSON",
		},
		{
			name:      "bad flag",
			providers: `[]`,
			args:      []string{"-nope"},
			wantCode:  1,
			wantError: "error parsing flags",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(provider.EnvVar, tt.providers)
			c, ui := newCommand(t)

			args := append([]string{"-env-file", noEnvFile(t)}, tt.args...)
			code := c.Run(args)

			assert.Equal(t, tt.wantCode, code, ui.ErrorWriter.String())
			for _, want := range tt.wantOutput {
				assert.Contains(t, ui.OutputWriter.String(), want)
			}
			assert.NotContains(t, ui.OutputWriter.String(), "s3cret")
			if tt.wantError != "" {
				assert.Contains(t, ui.ErrorWriter.String(), tt.wantError)
			}
		})
	}
}

func TestRun_StrictFromConfig(t *testing.T) {
	t.Setenv(provider.EnvVar, `[{"providerId":"beta","endpoint":"http://beta.local","token":"t"}]`)
	c, ui := newCommand(t)
	assert.NoError(t, afero.WriteFile(c.Fs, "gateway.hcl", []byte("strict_providers = true\n"), 0o644))

	code := c.Run([]string{"-env-file", noEnvFile(t), "-config", "gateway.hcl"})
	assert.Equal(t, 1, code)

	code = c.Run([]string{"-env-file", noEnvFile(t), "-config", "gateway.hcl", "-strict=false"})
	assert.Equal(t, 0, code, ui.ErrorWriter.String())
}

func TestRun_MissingEnv(t *testing.T) {
	t.Setenv(provider.EnvVar, "")
	c, ui := newCommand(t)

	assert.Equal(t, 1, c.Run([]string{"-env-file", noEnvFile(t)}))
	assert.Contains(t, ui.ErrorWriter.String(), "API_PROVIDERS")
}
