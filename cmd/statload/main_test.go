package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		out, err := execute(t, "", "hash-password", "s3cret")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, "s3cret\n", "hash-password")
		require.NoError(t, err)

		hash := strings.TrimSpace(out)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("s3cret")))
	})

	t.Run("empty password", func(t *testing.T) {
		_, err := execute(t, "\n", "hash-password")
		assert.EqualError(t, err, "empty password")
	})
}

func TestReportRejectsUnknownSource(t *testing.T) {
	_, err := execute(t, "", "report", "oecd")
	assert.Error(t, err)
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()
	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"eurostat", "istat", "mur", "report", "hash-password"})

	eurostat, _, err := root.Find([]string{"eurostat", "refresh"})
	require.NoError(t, err)
	assert.Equal(t, "refresh", eurostat.Name())
}
