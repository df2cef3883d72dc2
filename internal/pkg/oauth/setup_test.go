package oauth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ManuelReschke/SubTrackr/internal/pkg/env"
)

func TestProviders(t *testing.T) {
	env.Env = map[string]string{}
	t.Cleanup(func() { env.Env = nil })
	t.Setenv("GOOGLE_KEY", "")
	t.Setenv("GITHUB_KEY", "")

	assert.Empty(t, Providers("http://localhost:4000"))

	env.Env = map[string]string{"GOOGLE_KEY": "g-key", "GOOGLE_SECRET": "g-secret", "GITHUB_KEY": "gh-key"}
	providers := Providers("https://subtrackr.example")

	names := make([]string, 0, len(providers))
	for _, p := range providers {
		names = append(names, p.Name())
	}
	assert.Equal(t, []string{"google", "github"}, names)
}
