package mqtt

import (
	"fmt"
	"strings"

	"github.com/nerrad567/sqlgate/internal/audit"
)

// DefaultTopicPrefix is used when the configured prefix is empty.
const DefaultTopicPrefix = "sqlgate"

// Topics builds the gateway's MQTT topics under a common prefix:
//
//	{prefix}/system/status
//	{prefix}/executions/{outcome}
type Topics struct {
	prefix string
}

// NewTopics returns builders rooted at prefix. Surrounding slashes are
// trimmed; an empty prefix becomes DefaultTopicPrefix.
func NewTopics(prefix string) Topics {
	prefix = strings.Trim(prefix, "/")
	if prefix == "" {
		prefix = DefaultTopicPrefix
	}
	return Topics{prefix: prefix}
}

// Prefix returns the root of every topic.
func (t Topics) Prefix() string {
	return t.prefix
}

// SystemStatus returns the retained online/offline status topic.
//
// Example: sqlgate/system/status
func (t Topics) SystemStatus() string {
	return t.prefix + "/system/status"
}

// Execution returns the topic an execution event is published on.
//
// Example: sqlgate/executions/database_error
func (t Topics) Execution(outcome audit.Outcome) string {
	return fmt.Sprintf("%s/executions/%s", t.prefix, outcome)
}

// AllExecutions returns a wildcard matching every execution topic.
//
// Example: sqlgate/executions/+
func (t Topics) AllExecutions() string {
	return t.prefix + "/executions/+"
}
