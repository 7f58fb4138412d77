// Package config loads the daemon configuration: a JSON file for the core
// runtime (server, logging, summarizer, job store/queue, alerting) and a
// separate YAML file for external system credentials (Jira, Slack, calendar).
package config
