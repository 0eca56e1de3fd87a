// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Authgate Contributors

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "authgate", cmd.Use)

	subcommands := make([]string, 0)
	for _, sub := range cmd.Commands() {
		subcommands = append(subcommands, sub.Name())
	}
	assert.Contains(t, subcommands, "serve")
	assert.Contains(t, subcommands, "migrate")

	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestRootCmd_Help(t *testing.T) {
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"--help"})

	err := cmd.Execute()
	require.NoError(t, err)
	assert.Contains(t, out.String(), "authentication service")
}

func TestServeCmd_Flags(t *testing.T) {
	cmd := NewServeCmd()

	for _, name := range []string{
		"listen", "metrics-listen", "database-url",
		"log-format", "request-timeout", "session-ttl", "secure-cookies",
	} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "flag %s", name)
	}
}
