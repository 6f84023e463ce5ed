package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv_BracedVariable(t *testing.T) {
	t.Setenv("GANAUDIT_TEST_HOST", "db.internal")
	result := ExpandEnv([]byte("host: ${GANAUDIT_TEST_HOST}"))
	assert.Equal(t, "host: db.internal", string(result))
}

func TestExpandEnv_BareVariable(t *testing.T) {
	t.Setenv("GANAUDIT_TEST_PORT", "5432")
	result := ExpandEnv([]byte("port: $GANAUDIT_TEST_PORT"))
	assert.Equal(t, "port: 5432", string(result))
}

func TestExpandEnv_MultipleVariables(t *testing.T) {
	t.Setenv("GANAUDIT_TEST_HOST", "db.internal")
	t.Setenv("GANAUDIT_TEST_PORT", "5432")
	result := ExpandEnv([]byte("dsn: ${GANAUDIT_TEST_HOST}:${GANAUDIT_TEST_PORT}"))
	assert.Equal(t, "dsn: db.internal:5432", string(result))
}

func TestExpandEnv_MissingVariableExpandsEmpty(t *testing.T) {
	result := ExpandEnv([]byte("key: ${GANAUDIT_TEST_DOES_NOT_EXIST}"))
	assert.Equal(t, "key: ", string(result))
}

func TestExpandEnv_NoVariablesPassesThrough(t *testing.T) {
	input := "plain:\n  literal_value: 42\n"
	assert.Equal(t, input, string(ExpandEnv([]byte(input))))
}

func TestExpandEnv_DollarSignEscaping(t *testing.T) {
	// os.ExpandEnv has no escape syntax; a literal "$$" collapses to
	// whatever single "$VAR" parses as with an empty variable name.
	result := ExpandEnv([]byte("price: $$5"))
	assert.Equal(t, "price: $5", string(result))
}
