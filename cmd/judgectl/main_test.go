package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd()

	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"migrate", "process", "requeue", "leaderboard", "queue"}, names)
}

func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		args []string
	}{
		{[]string{"process"}},
		{[]string{"process", "a", "b"}},
		{[]string{"leaderboard"}},
		{[]string{"requeue"}},
		{[]string{"migrate", "extra"}},
	}
	for _, tt := range tests {
		root := newRootCmd()
		var out bytes.Buffer
		root.SetOut(&out)
		root.SetErr(&out)
		root.SetArgs(tt.args)
		require.Error(t, root.Execute(), tt.args)
	}
}
