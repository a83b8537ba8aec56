package model

import "time"

// RoutedResponse is what a single routing call returns: the completion
// text and the identifier of the underlying model the router selected
// to produce it.
type RoutedResponse struct {
	Model string `json:"model"`
	Text  string `json:"text"`
}

// ResultRecord is the durable record of one successfully routed prompt.
// Created exactly once per success and never mutated; sinks persist it
// with append semantics so a crash loses at most the in-flight record.
type ResultRecord struct {
	PromptID  int       `json:"promptId"`
	Profile   string    `json:"profile"`
	Model     string    `json:"model"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

// ModelTally maps an underlying-model identifier to the number of
// prompts it served within one profile run.
type ModelTally map[string]int

// ProfileTally is the aggregation output for a single profile.
type ProfileTally struct {
	Profile string     `json:"profile"`
	Total   int        `json:"total"`
	Models  ModelTally `json:"models"`
}
