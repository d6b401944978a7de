package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

func TestAPIKeyPrefersKeychain(t *testing.T) {
	keyring.MockInit()
	require.NoError(t, SetAPIKey("apollo", "from-keychain"))
	t.Setenv("APOLLO_API_KEY", "from-env")

	assert.Equal(t, "from-keychain", APIKey("apollo"))
	// Names are case-insensitive.
	assert.Equal(t, "from-keychain", APIKey("Apollo"))

	require.NoError(t, DeleteAPIKey("apollo"))
	assert.Equal(t, "from-env", APIKey("apollo"))
}

func TestAPIKeyEnvOrder(t *testing.T) {
	keyring.MockInit()
	t.Setenv("LEADGEN_APOLLO_API_KEY", "leadgen-env")
	t.Setenv("APOLLO_API_KEY", "compat-env")
	assert.Equal(t, "leadgen-env", APIKey("apollo"))

	t.Setenv("LEADGEN_APOLLO_API_KEY", "")
	assert.Equal(t, "compat-env", APIKey("apollo"))

	t.Setenv("APOLLO_API_KEY", "")
	assert.Empty(t, APIKey("apollo"))

	assert.Empty(t, APIKey(""))
}

func TestAPIKeyClayCompat(t *testing.T) {
	keyring.MockInit()
	t.Setenv("CLAY_API_KEY", "clay-token")
	assert.Equal(t, "clay-token", APIKey("clay"))
}

func TestSetAPIKeyValidation(t *testing.T) {
	keyring.MockInit()
	assert.Error(t, SetAPIKey("", "k"))
	assert.Error(t, SetAPIKey("apollo", ""))
	assert.Error(t, DeleteAPIKey(""))
}

func TestIMAPPassword(t *testing.T) {
	keyring.MockInit()

	_, err := IMAPPassword("sally", "imap.example.com")
	require.Error(t, err)

	t.Setenv("LEADGEN_IMAP_PASSWORD", "env-pass")
	pw, err := IMAPPassword("sally", "imap.example.com")
	require.NoError(t, err)
	assert.Equal(t, "env-pass", pw)

	require.NoError(t, SetIMAPPassword("sally", "imap.example.com", "vault-pass"))
	pw, err = IMAPPassword("sally", "imap.example.com")
	require.NoError(t, err)
	assert.Equal(t, "vault-pass", pw)

	require.NoError(t, DeleteIMAPPassword("sally", "imap.example.com"))
	pw, err = IMAPPassword("sally", "imap.example.com")
	require.NoError(t, err)
	assert.Equal(t, "env-pass", pw)

	assert.Error(t, SetIMAPPassword("", "h", "p"))
	assert.Error(t, SetIMAPPassword("u", "h", ""))
}

func TestIMAPAccountNaming(t *testing.T) {
	assert.Equal(t, "leadgen:imap:sally@imap.example.com",
		IMAPAccount("sally", "imap.example.com"))
}
