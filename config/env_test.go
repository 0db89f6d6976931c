package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubstituteEnvVars(t *testing.T) {
	require_ := assert.New(t)
	os.Setenv("SAGECONNECT_TEST_VAR", "resolved")
	defer os.Unsetenv("SAGECONNECT_TEST_VAR")

	require_.Equal("resolved", SubstituteEnvVars("${SAGECONNECT_TEST_VAR}"))
	require_.Equal("fallback", SubstituteEnvVars("${SAGECONNECT_TEST_MISSING:fallback}"))
	require_.Equal("", SubstituteEnvVars("${SAGECONNECT_TEST_MISSING}"))
	require_.Equal("literal", SubstituteEnvVars("literal"))
}

func TestSubstituteEnvVarsInConfig(t *testing.T) {
	os.Setenv("SAGECONNECT_TEST_DIR", "/tmp/keys")
	defer os.Unsetenv("SAGECONNECT_TEST_DIR")

	cfg := &Config{KeyStore: &KeyStoreConfig{Directory: "${SAGECONNECT_TEST_DIR}"}}
	SubstituteEnvVarsInConfig(cfg)
	assert.Equal(t, "/tmp/keys", cfg.KeyStore.Directory)
}

func TestGetEnvironmentDefaultsToDevelopment(t *testing.T) {
	os.Unsetenv("SAGECONNECT_ENV")
	os.Unsetenv("ENVIRONMENT")
	assert.Equal(t, "development", GetEnvironment())
}

func TestGetEnvironmentReadsSageConnectEnv(t *testing.T) {
	os.Setenv("SAGECONNECT_ENV", "Production")
	defer os.Unsetenv("SAGECONNECT_ENV")
	assert.Equal(t, "production", GetEnvironment())
	assert.True(t, IsProduction())
}
