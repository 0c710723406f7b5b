// Package task defines task records and the in-memory operations on a task list.
//
// The task file (tasks.json) is a JSON array of task objects:
//
//	[
//	  {
//	    "id": 1,
//	    "task": "buy milk",
//	    "status": "not yet started"
//	  }
//	]
//
// # Identifiers
//
// Ids are positive integers and unique within a list. New ids are derived
// as max(existing ids) + 1, so removing a task never causes a later task to
// collide with a surviving one.
//
// # Status Values
//
// Status is free-form text. New tasks get DefaultStatus unless the caller
// supplies another value. Nothing enforces transitions between statuses.
//
// # Validation
//
// Validate checks the invariants that a JSON Schema cannot express (unique
// ids). ValidateDocument checks a decoded document against the task file
// schema, which is embedded in the binary and may be replaced by an external
// schema file.
package task
