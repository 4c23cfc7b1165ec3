package orchestrator

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/a3tai/pdf-form-schema/internal/config"
	"github.com/a3tai/pdf-form-schema/internal/progress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const catalogYAML = `name: custom
default:
  key: intake
  title: Intake
sections:
  - key: contacts
    title: Contact Details
    pattern: contact
`

func TestFromConfigHeuristicsOnly(t *testing.T) {
	cfg := config.DefaultConfig()
	o, err := FromConfig(cfg, nil, progress.Discard)
	require.NoError(t, err)
	assert.False(t, o.AIEnabled())
	assert.Equal(t, config.DefaultConcurrency, o.concurrency)
}

func TestFromConfigWithKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.AI.APIKey = "sk-test"
	cfg.AI.Model = "gpt-4.1-mini"

	o, err := FromConfig(cfg, nil, nil)
	require.NoError(t, err)
	assert.True(t, o.AIEnabled())
	assert.Equal(t, "gpt-4.1-mini", o.defaultModel)
	assert.True(t, o.generalAI)
}

func TestFromConfigCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(catalogYAML), 0o600))

	cfg := config.DefaultConfig()
	cfg.Segment.CatalogPath = path
	o, err := FromConfig(cfg, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "custom", o.enhanced.Profile().Catalog().Name())

	res, err := o.ExtractFrom(context.Background(), pdfRequest(), pdfText("Contact\nEmail: ________"))
	require.NoError(t, err)
	assert.Equal(t, TierEnhanced, res.Tier)
	_, ok := res.Form.Page("contacts")
	assert.True(t, ok)
}

func TestFromConfigBadCatalog(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Segment.CatalogPath = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := FromConfig(cfg, nil, nil)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: x\nsections: []\n"), 0o600))
	cfg.Segment.CatalogPath = path
	_, err = FromConfig(cfg, nil, nil)
	assert.Error(t, err)
}
